package shipment

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-envio/internal/obs"
)

var (
	// ErrDelivered is returned when advancing a shipment that already
	// reached its terminal state.
	ErrDelivered = errors.New("shipment already delivered")
	// ErrInvalidInput is returned when a create or update payload fails
	// validation.
	ErrInvalidInput = errors.New("invalid shipment input")
)

const (
	codePrefix      = "GUIA-"
	codeLength      = 9
	codeAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxCodeAttempts = 5
)

// CreateInput captures the payload for registering a shipment.
type CreateInput struct {
	CustomerID  string     `json:"customer_id"`
	Destination string     `json:"destination"`
	Cost        float64    `json:"cost"`
	EstimatedAt *time.Time `json:"estimated_at"`
}

// UpdateInput captures the mutable fields of a shipment. Nil fields are left
// untouched.
type UpdateInput struct {
	EstimatedAt *time.Time `json:"estimated_at"`
}

// Service coordinates shipment registration, lifecycle transitions and
// notifications.
type Service struct {
	store    Store
	notifier *Notifier
	logger   zerolog.Logger
}

// NewService constructs a shipment service.
func NewService(store Store, notifier *Notifier, logger zerolog.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger}
}

// Create registers a shipment with a fresh tracking code and records the
// initial pending event. Code collisions are retried with a new code.
func (s *Service) Create(ctx context.Context, in CreateInput) (Shipment, error) {
	if strings.TrimSpace(in.CustomerID) == "" {
		return Shipment{}, fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Destination) == "" {
		return Shipment{}, fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}
	if in.Cost <= 0 {
		return Shipment{}, fmt.Errorf("%w: cost must be a positive number", ErrInvalidInput)
	}

	var (
		sh  Shipment
		err error
	)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		sh, err = s.store.Create(ctx, CreateParams{
			TrackingCode: newTrackingCode(),
			CustomerID:   in.CustomerID,
			Destination:  in.Destination,
			Cost:         in.Cost,
			EstimatedAt:  in.EstimatedAt,
		})
		if !errors.Is(err, ErrCodeTaken) {
			break
		}
	}
	if err != nil {
		return Shipment{}, err
	}

	if _, err := s.store.InsertEvent(ctx, sh.ID, StatusPending); err != nil {
		s.logger.Error().Err(err).Str("tracking_code", sh.TrackingCode).Msg("record initial event")
	}
	s.notifier.StatusChanged(ctx, sh)
	s.logger.Info().
		Str("tracking_code", sh.TrackingCode).
		Str("customer_id", sh.CustomerID).
		Float64("cost", sh.Cost).
		Msg("shipment created")
	return sh, nil
}

// GetByCode returns the shipment with the given tracking code.
func (s *Service) GetByCode(ctx context.Context, code string) (Shipment, error) {
	return s.store.GetByCode(ctx, code)
}

// List returns all shipments.
func (s *Service) List(ctx context.Context) ([]Shipment, error) {
	return s.store.List(ctx)
}

// Update applies the mutable fields of a shipment.
func (s *Service) Update(ctx context.Context, code string, in UpdateInput) (Shipment, error) {
	sh, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return Shipment{}, err
	}
	if in.EstimatedAt == nil {
		return sh, nil
	}
	return s.store.UpdateEstimatedAt(ctx, sh.ID, *in.EstimatedAt)
}

// Advance moves the shipment one step forward in its lifecycle, records the
// event and publishes a notification task.
func (s *Service) Advance(ctx context.Context, code string) (Shipment, error) {
	sh, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return Shipment{}, err
	}
	next, ok := sh.Status.Next()
	if !ok {
		return Shipment{}, ErrDelivered
	}
	sh, err = s.store.UpdateStatus(ctx, sh.ID, next)
	if err != nil {
		return Shipment{}, err
	}
	if _, err := s.store.InsertEvent(ctx, sh.ID, next); err != nil {
		s.logger.Error().Err(err).Str("tracking_code", sh.TrackingCode).Msg("record lifecycle event")
	}
	obs.ObserveShipmentTransition(string(next))
	s.notifier.StatusChanged(ctx, sh)
	return sh, nil
}

// History returns the lifecycle events of a shipment in chronological order.
func (s *Service) History(ctx context.Context, code string) ([]Event, error) {
	sh, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, sh.ID)
}

// Delete removes a shipment.
func (s *Service) Delete(ctx context.Context, code string) error {
	sh, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, sh.ID)
}

// AddItem attaches a product line to a shipment.
func (s *Service) AddItem(ctx context.Context, code, productID string, quantity int) (Item, error) {
	if strings.TrimSpace(productID) == "" {
		return Item{}, fmt.Errorf("%w: product_id is required", ErrInvalidInput)
	}
	if quantity <= 0 {
		return Item{}, fmt.Errorf("%w: quantity must be a positive number", ErrInvalidInput)
	}
	sh, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return Item{}, err
	}
	return s.store.AddItem(ctx, sh.ID, productID, quantity)
}

// ListItems returns the product lines of a shipment.
func (s *Service) ListItems(ctx context.Context, code string) ([]Item, error) {
	sh, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.store.ListItems(ctx, sh.ID)
}

// UpdateItemQuantity replaces the quantity of a product line.
func (s *Service) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, fmt.Errorf("%w: quantity must be a positive number", ErrInvalidInput)
	}
	return s.store.UpdateItemQuantity(ctx, itemID, quantity)
}

// DeleteItem removes a product line.
func (s *Service) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return s.store.DeleteItem(ctx, itemID)
}

func newTrackingCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		// fall back to the uuid entropy pool
		copy(buf, []byte(uuid.NewString()))
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return codePrefix + string(code)
}
