package shipment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-envio/internal/common"
)

// Handler exposes HTTP endpoints for shipment registration and tracking.
type Handler struct {
	Svc *Service
}

// Create registers a new shipment.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	sh, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err, "failed to create shipment")
		return
	}
	common.JSONData(w, http.StatusCreated, sh)
}

// List returns all shipments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.Svc.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load shipments", nil)
		return
	}
	if shipments == nil {
		shipments = []Shipment{}
	}
	common.JSONData(w, http.StatusOK, shipments)
}

// GetByCode returns a shipment with its lifecycle history.
func (h *Handler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	sh, err := h.Svc.GetByCode(r.Context(), code)
	if err != nil {
		h.writeError(w, err, "failed to load shipment")
		return
	}
	events, err := h.Svc.History(r.Context(), code)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load shipment history", nil)
		return
	}
	if events == nil {
		events = []Event{}
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"shipment": sh,
		"events":   events,
	})
}

// Update applies mutable shipment fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	sh, err := h.Svc.Update(r.Context(), chi.URLParam(r, "code"), in)
	if err != nil {
		h.writeError(w, err, "failed to update shipment")
		return
	}
	common.JSONData(w, http.StatusOK, sh)
}

// Advance moves a shipment one step forward in its lifecycle.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Svc.Advance(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err, "failed to advance shipment")
		return
	}
	common.JSONData(w, http.StatusOK, sh)
}

// Delete removes a shipment.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.writeError(w, err, "failed to delete shipment")
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"deleted": true})
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItem attaches a product line to a shipment.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	item, err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "code"), req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, err, "failed to add item")
		return
	}
	common.JSONData(w, http.StatusCreated, item)
}

// ListItems returns the product lines of a shipment.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.ListItems(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err, "failed to load items")
		return
	}
	if items == nil {
		items = []Item{}
	}
	common.JSONData(w, http.StatusOK, items)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem replaces the quantity of a product line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	item, err := h.Svc.UpdateItemQuantity(r.Context(), itemID, req.Quantity)
	if err != nil {
		h.writeError(w, err, "failed to update item")
		return
	}
	common.JSONData(w, http.StatusOK, item)
}

// DeleteItem removes a product line.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	if err := h.Svc.DeleteItem(r.Context(), itemID); err != nil {
		h.writeError(w, err, "failed to delete item")
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "shipment not found", nil)
	case errors.Is(err, ErrDelivered):
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}
