package tariff

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-envio/internal/common"
)

// Handler exposes HTTP endpoints for tariff tier administration.
type Handler struct {
	Svc *Service
}

// List returns all tiers in match order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.Svc.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load tiers", nil)
		return
	}
	if records == nil {
		records = []Record{}
	}
	common.JSONData(w, http.StatusOK, records)
}

// Get returns a single tier.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid tier id", nil)
		return
	}
	rec, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "failed to load tier")
		return
	}
	common.JSONData(w, http.StatusOK, rec)
}

// Create registers a new tier at the end of the match order.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in TierInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	rec, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err, "failed to create tier")
		return
	}
	common.JSONData(w, http.StatusCreated, rec)
}

// Update replaces the bounds and base cost of an existing tier.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid tier id", nil)
		return
	}
	var in TierInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	rec, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, err, "failed to update tier")
		return
	}
	common.JSONData(w, http.StatusOK, rec)
}

// Delete removes a tier.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid tier id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "failed to delete tier")
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	var appErr *common.AppError
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "tariff tier not found", nil)
	case errors.As(err, &appErr):
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}
