package tariff

import (
	"context"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-envio/internal/common"
	"github.com/noah-isme/backend-envio/internal/quote"
)

// TierInput captures the payload for creating or updating a tier.
type TierInput struct {
	WeightMin float64 `json:"weight_min" validate:"min=0"`
	WeightMax float64 `json:"weight_max" validate:"min=0,gtefield=WeightMin"`
	VolumeMin float64 `json:"volume_min" validate:"min=0"`
	VolumeMax float64 `json:"volume_max" validate:"min=0,gtefield=VolumeMin"`
	BaseCost  float64 `json:"base_cost" validate:"min=0"`
}

// Service orchestrates tariff tier administration and serves the snapshot
// consumed by the quote engine.
type Service struct {
	store    Store
	cache    *Cache
	validate *validator.Validate
}

// NewService constructs a tariff service.
func NewService(store Store, cache *Cache, validate *validator.Validate) *Service {
	return &Service{store: store, cache: cache, validate: validate}
}

// Snapshot returns the current tiers in match order, serving from cache when
// possible. It implements quote.Source.
func (s *Service) Snapshot(ctx context.Context) ([]quote.Tier, error) {
	records, ok := s.cache.GetSnapshot(ctx)
	if !ok {
		var err error
		records, err = s.store.List(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.SetSnapshot(ctx, records)
	}
	tiers := make([]quote.Tier, 0, len(records))
	for _, rec := range records {
		tiers = append(tiers, quote.Tier{
			ID:        rec.ID.String(),
			WeightMin: rec.WeightMin,
			WeightMax: rec.WeightMax,
			VolumeMin: rec.VolumeMin,
			VolumeMax: rec.VolumeMax,
			BaseCost:  rec.BaseCost,
		})
	}
	return tiers, nil
}

// List returns all stored tiers.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.store.List(ctx)
}

// Get returns a tier by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	return s.store.Get(ctx, id)
}

// Create validates and inserts a new tier, then drops the cached snapshot.
func (s *Service) Create(ctx context.Context, in TierInput) (Record, error) {
	if err := s.validateInput(in); err != nil {
		return Record{}, err
	}
	rec, err := s.store.Create(ctx, in)
	if err != nil {
		return Record{}, err
	}
	s.cache.Invalidate(ctx)
	return rec, nil
}

// Update validates and replaces an existing tier, then drops the cached
// snapshot.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in TierInput) (Record, error) {
	if err := s.validateInput(in); err != nil {
		return Record{}, err
	}
	rec, err := s.store.Update(ctx, id, in)
	if err != nil {
		return Record{}, err
	}
	s.cache.Invalidate(ctx)
	return rec, nil
}

// Delete removes a tier and drops the cached snapshot.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *Service) validateInput(in TierInput) error {
	if s.validate == nil {
		return nil
	}
	if err := s.validate.Struct(in); err != nil {
		appErr := common.NewAppError("VALIDATION_ERROR", "invalid tier bounds", http.StatusBadRequest, err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			appErr = appErr.WithDetails(map[string]any{"fields": fields})
		}
		return appErr
	}
	return nil
}
