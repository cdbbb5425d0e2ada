package mem_test // Use _test suffix for test package

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbt "fueltrack/db/db"
	"fueltrack/db/mem"
	"fueltrack/ledger"
)

// setupTest creates a new in-memory store for each test.
func setupTest() dbt.FuelDBWrapper {
	return mem.NewInMemoryFuelDBWrapper()
}

func TestEmptyStore(t *testing.T) {
	db := setupTest()
	ctx := context.Background()

	records, err := db.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	tanks, err := db.LoadTanks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tanks)
}

func TestSaveRecordsOverwrites(t *testing.T) {
	db := setupTest()
	ctx := context.Background()
	now := time.Now()

	first := []ledger.Record{
		{ID: 1, Timestamp: now, User: "a", Odometer: 100, TankID: 1},
		{ID: 2, Timestamp: now, User: "b", Odometer: 150, TankID: 2, Pay: 20},
	}
	require.NoError(t, db.SaveRecords(ctx, first))

	// mutating the caller's slice must not leak into the store
	first[0].Odometer = 999

	got, err := db.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 100, got[0].Odometer)

	require.NoError(t, db.SaveRecords(ctx, []ledger.Record{{ID: 3, Odometer: 5}}))
	got, err = db.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)
}

func TestSaveTanksDeepCopies(t *testing.T) {
	db := setupTest()
	ctx := context.Background()

	tanks := []ledger.Tank{{ID: 1, Price: 20, Shares: map[string]int{"a": 12, "b": 8}}}
	require.NoError(t, db.SaveTanks(ctx, tanks))
	tanks[0].Shares["a"] = 0

	got, err := db.LoadTanks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].Shares["a"])

	got[0].Shares["b"] = 0
	again, err := db.LoadTanks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, again[0].Shares["b"])
}

func TestDataLoaderGetRecordList(t *testing.T) {
	db := setupTest()
	ctx := context.Background()
	require.NoError(t, db.SaveRecords(ctx, []ledger.Record{{ID: 1, Odometer: 10}, {ID: 2, Odometer: 20}}))

	got, err := db.DataLoaderGetRecordList(ctx, []int{2, 3})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 20, got[2].Odometer)
	assert.NoError(t, db.Close())
}
