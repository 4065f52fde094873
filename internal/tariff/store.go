package tariff

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a tier id does not exist.
var ErrNotFound = errors.New("tariff tier not found")

// Record is a stored tariff tier. Ordering is by creation time: the oldest
// tier is matched first when pricing.
type Record struct {
	ID        uuid.UUID `json:"id"`
	WeightMin float64   `json:"weight_min"`
	WeightMax float64   `json:"weight_max"`
	VolumeMin float64   `json:"volume_min"`
	VolumeMax float64   `json:"volume_max"`
	BaseCost  float64   `json:"base_cost"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists tariff tiers.
type Store interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	Create(ctx context.Context, in TierInput) (Record, error)
	Update(ctx context.Context, id uuid.UUID, in TierInput) (Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PGStore is the Postgres-backed tier store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a store on the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const tierColumns = "id, weight_min, weight_max, volume_min, volume_max, base_cost, created_at, updated_at"

// List returns all tiers in match order.
func (s *PGStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+tierColumns+" FROM tariff_tiers ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.WeightMin, &rec.WeightMax,
			&rec.VolumeMin, &rec.VolumeMax, &rec.BaseCost,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns a single tier by id.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+tierColumns+" FROM tariff_tiers WHERE id = $1", id)
	return scanTier(row)
}

// Create inserts a new tier.
func (s *PGStore) Create(ctx context.Context, in TierInput) (Record, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tariff_tiers (id, weight_min, weight_max, volume_min, volume_max, base_cost)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+tierColumns,
		uuid.New(), in.WeightMin, in.WeightMax, in.VolumeMin, in.VolumeMax, in.BaseCost)
	return scanTier(row)
}

// Update replaces the bounds and base cost of an existing tier.
func (s *PGStore) Update(ctx context.Context, id uuid.UUID, in TierInput) (Record, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE tariff_tiers
		 SET weight_min = $2, weight_max = $3, volume_min = $4, volume_max = $5,
		     base_cost = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING `+tierColumns,
		id, in.WeightMin, in.WeightMax, in.VolumeMin, in.VolumeMax, in.BaseCost)
	return scanTier(row)
}

// Delete removes a tier.
func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM tariff_tiers WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTier(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.WeightMin, &rec.WeightMax,
		&rec.VolumeMin, &rec.VolumeMax, &rec.BaseCost,
		&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}
