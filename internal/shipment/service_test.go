package shipment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	shipments map[uuid.UUID]Shipment
	items     map[uuid.UUID]Item
	events    []Event
}

func newMemStore() *memStore {
	return &memStore{
		shipments: map[uuid.UUID]Shipment{},
		items:     map[uuid.UUID]Item{},
	}
}

func (m *memStore) Create(_ context.Context, p CreateParams) (Shipment, error) {
	for _, sh := range m.shipments {
		if sh.TrackingCode == p.TrackingCode {
			return Shipment{}, ErrCodeTaken
		}
	}
	now := time.Now()
	sh := Shipment{
		ID:           uuid.New(),
		TrackingCode: p.TrackingCode,
		CustomerID:   p.CustomerID,
		Destination:  p.Destination,
		Cost:         p.Cost,
		Status:       StatusPending,
		EstimatedAt:  p.EstimatedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.shipments[sh.ID] = sh
	return sh, nil
}

func (m *memStore) GetByCode(_ context.Context, code string) (Shipment, error) {
	for _, sh := range m.shipments {
		if sh.TrackingCode == code {
			return sh, nil
		}
	}
	return Shipment{}, ErrNotFound
}

func (m *memStore) List(_ context.Context) ([]Shipment, error) {
	out := make([]Shipment, 0, len(m.shipments))
	for _, sh := range m.shipments {
		out = append(out, sh)
	}
	return out, nil
}

func (m *memStore) UpdateEstimatedAt(_ context.Context, id uuid.UUID, at time.Time) (Shipment, error) {
	sh, ok := m.shipments[id]
	if !ok {
		return Shipment{}, ErrNotFound
	}
	sh.EstimatedAt = &at
	m.shipments[id] = sh
	return sh, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, status Status) (Shipment, error) {
	sh, ok := m.shipments[id]
	if !ok {
		return Shipment{}, ErrNotFound
	}
	sh.Status = status
	m.shipments[id] = sh
	return sh, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.shipments[id]; !ok {
		return ErrNotFound
	}
	delete(m.shipments, id)
	return nil
}

func (m *memStore) InsertEvent(_ context.Context, shipmentID uuid.UUID, status Status) (Event, error) {
	ev := Event{ID: uuid.New(), ShipmentID: shipmentID, Status: status, OccurredAt: time.Now()}
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *memStore) ListEvents(_ context.Context, shipmentID uuid.UUID) ([]Event, error) {
	var out []Event
	for _, ev := range m.events {
		if ev.ShipmentID == shipmentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memStore) AddItem(_ context.Context, shipmentID uuid.UUID, productID string, quantity int) (Item, error) {
	item := Item{ID: uuid.New(), ShipmentID: shipmentID, ProductID: productID, Quantity: quantity, CreatedAt: time.Now()}
	m.items[item.ID] = item
	return item, nil
}

func (m *memStore) ListItems(_ context.Context, shipmentID uuid.UUID) ([]Item, error) {
	var out []Item
	for _, item := range m.items {
		if item.ShipmentID == shipmentID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) (Item, error) {
	item, ok := m.items[itemID]
	if !ok {
		return Item{}, ErrNotFound
	}
	item.Quantity = quantity
	m.items[itemID] = item
	return item, nil
}

func (m *memStore) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	if _, ok := m.items[itemID]; !ok {
		return ErrNotFound
	}
	delete(m.items, itemID)
	return nil
}

func newTestSvc() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, nil, zerolog.Nop()), store
}

func TestCreateGeneratesTrackingCode(t *testing.T) {
	t.Parallel()

	svc, store := newTestSvc()
	sh, err := svc.Create(context.Background(), CreateInput{
		CustomerID:  "user-1",
		Destination: "Zona 10, Guatemala",
		Cost:        45.50,
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sh.TrackingCode, "GUIA-"))
	require.Len(t, sh.TrackingCode, len("GUIA-")+9)
	require.Equal(t, StatusPending, sh.Status)

	events, err := store.ListEvents(context.Background(), sh.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, StatusPending, events[0].Status)
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	t.Parallel()

	wrapped := &collidingStore{memStore: newMemStore(), failures: 2}
	svc := NewService(wrapped, nil, zerolog.Nop())

	sh, err := svc.Create(context.Background(), CreateInput{
		CustomerID:  "user-1",
		Destination: "Antigua",
		Cost:        12,
	})
	require.NoError(t, err)
	require.Equal(t, 0, wrapped.failures)
	require.True(t, strings.HasPrefix(sh.TrackingCode, "GUIA-"))
}

type collidingStore struct {
	*memStore
	failures int
}

func (c *collidingStore) Create(ctx context.Context, p CreateParams) (Shipment, error) {
	if c.failures > 0 {
		c.failures--
		return Shipment{}, ErrCodeTaken
	}
	return c.memStore.Create(ctx, p)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestSvc()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Destination: "x", Cost: 1})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, CreateInput{CustomerID: "u", Cost: 1})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, CreateInput{CustomerID: "u", Destination: "x", Cost: 0})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdvanceWalksLifecycle(t *testing.T) {
	t.Parallel()

	svc, store := newTestSvc()
	ctx := context.Background()
	sh, err := svc.Create(ctx, CreateInput{CustomerID: "u", Destination: "x", Cost: 10})
	require.NoError(t, err)

	want := []Status{StatusCollected, StatusWarehouse, StatusInTransit, StatusDelivered}
	for _, status := range want {
		sh, err = svc.Advance(ctx, sh.TrackingCode)
		require.NoError(t, err)
		require.Equal(t, status, sh.Status)
	}

	_, err = svc.Advance(ctx, sh.TrackingCode)
	require.ErrorIs(t, err, ErrDelivered)

	events, err := store.ListEvents(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, events, 5)
	require.Equal(t, StatusDelivered, events[4].Status)
}

func TestAdvanceUnknownCode(t *testing.T) {
	t.Parallel()

	svc, _ := newTestSvc()
	_, err := svc.Advance(context.Background(), "GUIA-MISSING99")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEstimatedDate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestSvc()
	ctx := context.Background()
	sh, err := svc.Create(ctx, CreateInput{CustomerID: "u", Destination: "x", Cost: 10})
	require.NoError(t, err)

	at := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(ctx, sh.TrackingCode, UpdateInput{EstimatedAt: &at})
	require.NoError(t, err)
	require.NotNil(t, updated.EstimatedAt)
	require.Equal(t, at, *updated.EstimatedAt)

	// nil field leaves the shipment untouched
	same, err := svc.Update(ctx, sh.TrackingCode, UpdateInput{})
	require.NoError(t, err)
	require.Equal(t, updated.EstimatedAt, same.EstimatedAt)
}

func TestItemLifecycle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestSvc()
	ctx := context.Background()
	sh, err := svc.Create(ctx, CreateInput{CustomerID: "u", Destination: "x", Cost: 10})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, sh.TrackingCode, "", 1)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddItem(ctx, sh.TrackingCode, "prod-1", 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	item, err := svc.AddItem(ctx, sh.TrackingCode, "prod-1", 2)
	require.NoError(t, err)

	items, err := svc.ListItems(ctx, sh.TrackingCode)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item, err = svc.UpdateItemQuantity(ctx, item.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 5, item.Quantity)

	require.NoError(t, svc.DeleteItem(ctx, item.ID))
	require.ErrorIs(t, svc.DeleteItem(ctx, item.ID), ErrNotFound)
}
