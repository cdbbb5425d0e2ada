package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fueltrack/ledger"
)

func TestPickRecords(t *testing.T) {
	records := []ledger.Record{{ID: 1, Odometer: 10}, {ID: 2, Odometer: 20}, {ID: 5, Odometer: 30}}

	got := PickRecords(records, []int{5, 1, 9})
	assert.Len(t, got, 2)
	assert.Equal(t, 30, got[5].Odometer)
	assert.Equal(t, 10, got[1].Odometer)
	_, ok := got[9]
	assert.False(t, ok)

	assert.Empty(t, PickRecords(nil, []int{1}))
}
