package shipment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a shipment, item or event does not exist.
	ErrNotFound = errors.New("shipment not found")
	// ErrCodeTaken is returned when a generated tracking code collides with
	// an existing shipment.
	ErrCodeTaken = errors.New("tracking code already in use")
)

// Shipment is a stored shipment.
type Shipment struct {
	ID           uuid.UUID  `json:"id"`
	TrackingCode string     `json:"tracking_code"`
	CustomerID   string     `json:"customer_id"`
	Destination  string     `json:"destination"`
	Cost         float64    `json:"cost"`
	Status       Status     `json:"status"`
	EstimatedAt  *time.Time `json:"estimated_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Item is a product line attached to a shipment.
type Item struct {
	ID         uuid.UUID `json:"id"`
	ShipmentID uuid.UUID `json:"shipment_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

// Event records a single lifecycle transition of a shipment.
type Event struct {
	ID         uuid.UUID `json:"id"`
	ShipmentID uuid.UUID `json:"shipment_id"`
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CreateParams captures the fields persisted when registering a shipment.
type CreateParams struct {
	TrackingCode string
	CustomerID   string
	Destination  string
	Cost         float64
	EstimatedAt  *time.Time
}

// Store persists shipments, their items and their lifecycle events.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Shipment, error)
	GetByCode(ctx context.Context, code string) (Shipment, error)
	List(ctx context.Context) ([]Shipment, error)
	UpdateEstimatedAt(ctx context.Context, id uuid.UUID, at time.Time) (Shipment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Shipment, error)
	Delete(ctx context.Context, id uuid.UUID) error

	InsertEvent(ctx context.Context, shipmentID uuid.UUID, status Status) (Event, error)
	ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]Event, error)

	AddItem(ctx context.Context, shipmentID uuid.UUID, productID string, quantity int) (Item, error)
	ListItems(ctx context.Context, shipmentID uuid.UUID) ([]Item, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (Item, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

// PGStore is the Postgres-backed shipment store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a store on the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const shipmentColumns = "id, tracking_code, customer_id, destination, cost, status, estimated_at, created_at, updated_at"

// Create inserts a shipment. A tracking code collision surfaces as
// ErrCodeTaken so the caller can regenerate and retry.
func (s *PGStore) Create(ctx context.Context, p CreateParams) (Shipment, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO shipments (id, tracking_code, customer_id, destination, cost, status, estimated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+shipmentColumns,
		uuid.New(), p.TrackingCode, p.CustomerID, p.Destination, p.Cost, StatusPending, optionalTime(p.EstimatedAt))
	rec, err := scanShipment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Shipment{}, ErrCodeTaken
		}
		return Shipment{}, err
	}
	return rec, nil
}

// GetByCode returns the shipment with the given tracking code.
func (s *PGStore) GetByCode(ctx context.Context, code string) (Shipment, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+shipmentColumns+" FROM shipments WHERE tracking_code = $1", code)
	return scanShipment(row)
}

// List returns all shipments, newest first.
func (s *PGStore) List(ctx context.Context) ([]Shipment, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+shipmentColumns+" FROM shipments ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shipments []Shipment
	for rows.Next() {
		rec, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, rec)
	}
	return shipments, rows.Err()
}

// UpdateEstimatedAt sets the estimated delivery date.
func (s *PGStore) UpdateEstimatedAt(ctx context.Context, id uuid.UUID, at time.Time) (Shipment, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE shipments SET estimated_at = $2, updated_at = now()
		 WHERE id = $1 RETURNING `+shipmentColumns, id, at)
	return scanShipment(row)
}

// UpdateStatus sets the lifecycle state.
func (s *PGStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Shipment, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE shipments SET status = $2, updated_at = now()
		 WHERE id = $1 RETURNING `+shipmentColumns, id, status)
	return scanShipment(row)
}

// Delete removes a shipment together with its items and events.
func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM shipments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertEvent appends a lifecycle event.
func (s *PGStore) InsertEvent(ctx context.Context, shipmentID uuid.UUID, status Status) (Event, error) {
	var ev Event
	err := s.pool.QueryRow(ctx,
		`INSERT INTO shipment_events (id, shipment_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, shipment_id, status, occurred_at`,
		uuid.New(), shipmentID, status).
		Scan(&ev.ID, &ev.ShipmentID, &ev.Status, &ev.OccurredAt)
	return ev, err
}

// ListEvents returns the lifecycle history in chronological order.
func (s *PGStore) ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, shipment_id, status, occurred_at FROM shipment_events
		 WHERE shipment_id = $1 ORDER BY occurred_at, id`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.ShipmentID, &ev.Status, &ev.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// AddItem attaches a product line to a shipment.
func (s *PGStore) AddItem(ctx context.Context, shipmentID uuid.UUID, productID string, quantity int) (Item, error) {
	var item Item
	err := s.pool.QueryRow(ctx,
		`INSERT INTO shipment_items (id, shipment_id, product_id, quantity)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, shipment_id, product_id, quantity, created_at`,
		uuid.New(), shipmentID, productID, quantity).
		Scan(&item.ID, &item.ShipmentID, &item.ProductID, &item.Quantity, &item.CreatedAt)
	return item, err
}

// ListItems returns the product lines of a shipment.
func (s *PGStore) ListItems(ctx context.Context, shipmentID uuid.UUID) ([]Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, shipment_id, product_id, quantity, created_at FROM shipment_items
		 WHERE shipment_id = $1 ORDER BY created_at, id`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.ShipmentID, &item.ProductID, &item.Quantity, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItemQuantity replaces the quantity of a product line.
func (s *PGStore) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (Item, error) {
	var item Item
	err := s.pool.QueryRow(ctx,
		`UPDATE shipment_items SET quantity = $2 WHERE id = $1
		 RETURNING id, shipment_id, product_id, quantity, created_at`,
		itemID, quantity).
		Scan(&item.ID, &item.ShipmentID, &item.ProductID, &item.Quantity, &item.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return item, err
}

// DeleteItem removes a product line.
func (s *PGStore) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM shipment_items WHERE id = $1", itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanShipment(row pgx.Row) (Shipment, error) {
	var (
		rec         Shipment
		estimatedAt pgtype.Timestamptz
	)
	err := row.Scan(&rec.ID, &rec.TrackingCode, &rec.CustomerID, &rec.Destination,
		&rec.Cost, &rec.Status, &estimatedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Shipment{}, ErrNotFound
	}
	if err != nil {
		return Shipment{}, err
	}
	if estimatedAt.Valid {
		rec.EstimatedAt = &estimatedAt.Time
	}
	return rec, nil
}

func optionalTime(value *time.Time) pgtype.Timestamptz {
	if value == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *value, Valid: true}
}
