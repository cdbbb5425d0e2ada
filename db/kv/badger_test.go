package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueltrack/ledger"
)

func openTest(t *testing.T) *BadgerFuelDBWrapper {
	t.Helper()
	store, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordsReplaceAndLoad(t *testing.T) {
	store := openTest(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	first := []ledger.Record{
		{ID: 12, Timestamp: ts, User: "b", Odometer: 150, TankID: 2, Pay: 20},
		{ID: 3, Timestamp: ts, User: "a", Odometer: 100, Trip: 50, TankID: 1},
	}
	require.NoError(t, store.SaveRecords(ctx, first))

	got, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// keys are zero padded so ids come back in numeric order
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 12, got[1].ID)
	assert.True(t, ts.Equal(got[0].Timestamp))
	assert.Equal(t, 50, got[0].Trip)

	require.NoError(t, store.SaveRecords(ctx, first[1:]))
	got, err = store.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)
}

func TestTanksReplaceAndLoad(t *testing.T) {
	store := openTest(t)
	ctx := context.Background()

	tanks := []ledger.Tank{
		{ID: 1, Timestamp: time.Now().UTC(), Price: 20, Shares: map[string]int{"a": 12, "b": 8}},
		{ID: 2, Timestamp: time.Now().UTC(), Price: 10, Shares: map[string]int{"a": 10, "b": 0}},
	}
	require.NoError(t, store.SaveTanks(ctx, tanks))
	require.NoError(t, store.SaveTanks(ctx, tanks[:1]))

	got, err := store.LoadTanks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].Price)
	assert.Equal(t, map[string]int{"a": 12, "b": 8}, got[0].Shares)

	// records and tanks live under separate prefixes
	records, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDataLoaderGetRecordList(t *testing.T) {
	store := openTest(t)
	ctx := context.Background()
	require.NoError(t, store.SaveRecords(ctx, []ledger.Record{{ID: 1, Odometer: 10}, {ID: 2, Odometer: 20}}))

	got, err := store.DataLoaderGetRecordList(ctx, []int{2, 7})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 20, got[2].Odometer)
}
