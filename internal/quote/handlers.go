package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/noah-isme/backend-envio/internal/common"
	"github.com/noah-isme/backend-envio/internal/obs"
)

// Source supplies the tariff tier snapshot for a quote. Order is the stored
// order and must be preserved.
type Source interface {
	Snapshot(ctx context.Context) ([]Tier, error)
}

// Handler exposes the quote computation over HTTP.
type Handler struct {
	Tiers  Source
	Engine Engine
}

// flexNumber decodes any JSON value into a float64, coercing numeric strings
// and treating everything else as zero. Mirrors the tolerant input handling
// of the quote formula: malformed fields never fail a request.
type flexNumber float64

// UnmarshalJSON implements json.Unmarshaler and never returns an error.
func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = flexNumber(parsed)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(f)
	return nil
}

type quoteItemPayload struct {
	Quantity flexNumber `json:"quantity"`
	HeightCm flexNumber `json:"height_cm"`
	WidthCm  flexNumber `json:"width_cm"`
	LengthCm flexNumber `json:"length_cm"`
	WeightKg flexNumber `json:"weight_kg"`
	Price    flexNumber `json:"price"`
	Fragile  bool       `json:"fragile"`
}

type quoteContextPayload struct {
	DistanceKm     *flexNumber `json:"distance_km"`
	OriginLat      *flexNumber `json:"origin_lat"`
	OriginLng      *flexNumber `json:"origin_lng"`
	DestinationLat *flexNumber `json:"destination_lat"`
	DestinationLng *flexNumber `json:"destination_lng"`
	Rural          bool        `json:"rural"`
}

type quoteRequest struct {
	Items         []quoteItemPayload   `json:"items"`
	Context       *quoteContextPayload `json:"context"`
	RateOverrides *RateOverrides       `json:"rate_overrides"`
}

// Quote prices the posted cart against the current tariff snapshot.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Tiers == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tariff source not configured", nil)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		obs.ObserveQuote("bad_request")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if len(req.Items) == 0 {
		obs.ObserveQuote("empty_cart")
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "cart must contain at least one item", nil)
		return
	}

	items := make([]Item, 0, len(req.Items))
	for _, p := range req.Items {
		items = append(items, Item{
			Quantity: int(p.Quantity),
			HeightCm: float64(p.HeightCm),
			WidthCm:  float64(p.WidthCm),
			LengthCm: float64(p.LengthCm),
			WeightKg: float64(p.WeightKg),
			Price:    float64(p.Price),
			Fragile:  p.Fragile,
		})
	}

	var sc ShipmentContext
	if req.Context != nil {
		sc = ShipmentContext{
			DistanceKm:     floatPtr(req.Context.DistanceKm),
			OriginLat:      floatPtr(req.Context.OriginLat),
			OriginLng:      floatPtr(req.Context.OriginLng),
			DestinationLat: floatPtr(req.Context.DestinationLat),
			DestinationLng: floatPtr(req.Context.DestinationLng),
			Rural:          req.Context.Rural,
		}
	}

	engine := h.Engine
	if req.RateOverrides != nil {
		engine.Rate = engine.Rate.Apply(*req.RateOverrides)
	}

	tiers, err := h.Tiers.Snapshot(r.Context())
	if err != nil {
		obs.ObserveQuote("tariff_error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load tariff tiers", nil)
		return
	}

	result, err := engine.Quote(items, sc, tiers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	obs.ObserveQuote("ok")
	obs.ObserveQuoteSize(len(result.Items))
	common.JSONData(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var noCoverage *NoCoverageError
	switch {
	case errors.Is(err, ErrEmptyCart):
		obs.ObserveQuote("empty_cart")
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	case errors.Is(err, ErrNoTiers):
		obs.ObserveQuote("no_tiers")
		common.JSONError(w, http.StatusUnprocessableEntity, "NO_TIERS_CONFIGURED", err.Error(), nil)
	case errors.As(err, &noCoverage):
		obs.ObserveQuote("no_coverage")
		common.JSONError(w, http.StatusUnprocessableEntity, "NO_COVERAGE", noCoverage.Error(), map[string]any{
			"item_index":  noCoverage.ItemIndex,
			"billable_kg": noCoverage.BillableKg,
			"volume_cm3":  noCoverage.VolumeCm3,
		})
	default:
		obs.ObserveQuote("error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute quote", nil)
	}
}

func floatPtr(n *flexNumber) *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}
