package tariff

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-envio/internal/common"
)

type fakeStore struct {
	records []Record
	lists   int
}

func (f *fakeStore) List(_ context.Context) ([]Record, error) {
	f.lists++
	out := make([]Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (Record, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (f *fakeStore) Create(_ context.Context, in TierInput) (Record, error) {
	rec := Record{
		ID:        uuid.New(),
		WeightMin: in.WeightMin,
		WeightMax: in.WeightMax,
		VolumeMin: in.VolumeMin,
		VolumeMax: in.VolumeMax,
		BaseCost:  in.BaseCost,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeStore) Update(_ context.Context, id uuid.UUID, in TierInput) (Record, error) {
	for i, rec := range f.records {
		if rec.ID == id {
			rec.WeightMin = in.WeightMin
			rec.WeightMax = in.WeightMax
			rec.VolumeMin = in.VolumeMin
			rec.VolumeMax = in.VolumeMax
			rec.BaseCost = in.BaseCost
			rec.UpdatedAt = time.Now()
			f.records[i] = rec
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	for i, rec := range f.records {
		if rec.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &fakeStore{}
	return NewService(store, NewCache(client, time.Minute), validator.New()), store
}

func TestSnapshotCachesTierList(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, TierInput{WeightMax: 10, VolumeMax: 50000, BaseCost: 10})
	require.NoError(t, err)

	tiers, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	require.InDelta(t, 10, tiers[0].BaseCost, 1e-9)

	listsBefore := store.lists
	tiers, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	require.Equal(t, listsBefore, store.lists, "second snapshot should come from cache")
}

func TestWritesInvalidateSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, TierInput{WeightMax: 10, VolumeMax: 50000, BaseCost: 10})
	require.NoError(t, err)

	tiers, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 1)

	_, err = svc.Update(ctx, rec.ID, TierInput{WeightMax: 20, VolumeMax: 90000, BaseCost: 25})
	require.NoError(t, err)

	tiers, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	require.InDelta(t, 25, tiers[0].BaseCost, 1e-9)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	tiers, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, tiers)
}

func TestCreateRejectsInvertedBounds(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), TierInput{WeightMin: 10, WeightMax: 5, VolumeMax: 100})
	require.Error(t, err)
	require.True(t, common.IsAppError(err))

	_, err = svc.Create(context.Background(), TierInput{WeightMax: 5, VolumeMax: 100, BaseCost: -1})
	require.Error(t, err)
}

func TestDeleteMissingTier(t *testing.T) {
	svc, _ := newTestService(t)
	require.ErrorIs(t, svc.Delete(context.Background(), uuid.New()), ErrNotFound)
}
