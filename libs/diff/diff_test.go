package diff

import (
	"testing"
	"time"

	odiff "github.com/r3labs/diff/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueltrack/ledger"
)

func TestChangesMatchesRecordsByID(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	before := []ledger.Record{
		{ID: 1, Timestamp: ts, User: "a", Odometer: 100, Trip: 0, TankID: 1},
		{ID: 2, Timestamp: ts, User: "b", Odometer: 150, TankID: 2, Pay: 20},
	}
	// reordered, one derived field changed
	after := []ledger.Record{
		{ID: 2, Timestamp: ts, User: "b", Odometer: 150, TankID: 2, Pay: 20},
		{ID: 1, Timestamp: ts.In(time.FixedZone("CLT", -3*3600)), User: "a", Odometer: 100, Trip: 50, TankID: 1},
	}

	cl, err := Changes(before, after)
	require.NoError(t, err)
	require.Len(t, cl, 1)
	assert.Equal(t, odiff.UPDATE, cl[0].Type)
	assert.Equal(t, 0, cl[0].From)
	assert.Equal(t, 50, cl[0].To)
	assert.Contains(t, cl[0].Path, "Trip")
}

func TestChangesTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	before := []ledger.Record{{ID: 1, Timestamp: ts}}
	after := []ledger.Record{{ID: 1, Timestamp: ts.Add(time.Minute)}}

	cl, err := Changes(before, after)
	require.NoError(t, err)
	require.Len(t, cl, 1)
	assert.Contains(t, cl[0].Path, "Timestamp")
}

func TestCountByType(t *testing.T) {
	before := []ledger.Tank{{ID: 1, Price: 20, Shares: map[string]int{"a": 20}}}
	after := []ledger.Tank{
		{ID: 1, Price: 20, Shares: map[string]int{"a": 12}},
		{ID: 2, Price: 10, Shares: map[string]int{"a": 10}},
	}

	cl, err := Changes(before, after)
	require.NoError(t, err)
	counts := CountByType(cl)
	assert.Equal(t, 1, counts[odiff.UPDATE])
	assert.Positive(t, counts[odiff.CREATE])
	assert.Zero(t, counts[odiff.DELETE])

	none, err := Changes(after, after)
	require.NoError(t, err)
	assert.Empty(t, CountByType(none))
}
