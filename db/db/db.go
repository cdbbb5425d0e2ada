package db

import (
	"context"
	"errors"

	"fueltrack/ledger"
)

var ErrRecordNotFound = errors.New("record not found")

// FuelDBWrapper persists the Record Store and the Tank Store.
// Save methods replace the whole stored set; there is no append path.
type FuelDBWrapper interface {
	// Record Store
	LoadRecords(ctx context.Context) ([]ledger.Record, error)
	SaveRecords(ctx context.Context, records []ledger.Record) error
	// Tank Store
	LoadTanks(ctx context.Context) ([]ledger.Tank, error)
	SaveTanks(ctx context.Context, tanks []ledger.Tank) error
	// Data Loader
	DataLoaderGetRecordList(ctx context.Context, ids []int) (map[int]ledger.Record, error)
	Close() error
}

// PickRecords is the DataLoaderGetRecordList helper for stores that can
// only load the full set. Missing ids are simply absent from the result.
func PickRecords(records []ledger.Record, ids []int) map[int]ledger.Record {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[int]ledger.Record, len(ids))
	for _, r := range records {
		if want[r.ID] {
			out[r.ID] = r
		}
	}
	return out
}
