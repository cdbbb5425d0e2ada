package mem

import (
	"context"
	"sync"

	dbt "fueltrack/db/db"
	"fueltrack/ledger"
)

// inMemoryFuelDBWrapper is an in-memory implementation of dbt.FuelDBWrapper.
// It keeps the two stores as plain slices and hands out copies.
type inMemoryFuelDBWrapper struct {
	records []ledger.Record
	tanks   []ledger.Tank

	mu sync.RWMutex
}

// NewInMemoryFuelDBWrapper creates and returns a new empty in-memory store.
func NewInMemoryFuelDBWrapper() dbt.FuelDBWrapper {
	return &inMemoryFuelDBWrapper{}
}

// LoadRecords returns a copy of all stored records.
func (db *inMemoryFuelDBWrapper) LoadRecords(_ context.Context) ([]ledger.Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	recordsCopy := make([]ledger.Record, len(db.records))
	copy(recordsCopy, db.records)
	return recordsCopy, nil
}

// SaveRecords replaces the stored records.
func (db *inMemoryFuelDBWrapper) SaveRecords(_ context.Context, records []ledger.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	// copy so the caller can keep mutating its slice
	db.records = make([]ledger.Record, len(records))
	copy(db.records, records)
	return nil
}

// LoadTanks returns a deep copy of all stored tanks.
func (db *inMemoryFuelDBWrapper) LoadTanks(_ context.Context) ([]ledger.Tank, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return copyTanks(db.tanks), nil
}

// SaveTanks replaces the stored tanks.
func (db *inMemoryFuelDBWrapper) SaveTanks(_ context.Context, tanks []ledger.Tank) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.tanks = copyTanks(tanks)
	return nil
}

// DataLoaderGetRecordList looks up the records with the given ids.
func (db *inMemoryFuelDBWrapper) DataLoaderGetRecordList(_ context.Context, ids []int) (map[int]ledger.Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return dbt.PickRecords(db.records, ids), nil
}

func (db *inMemoryFuelDBWrapper) Close() error {
	return nil
}

func copyTanks(tanks []ledger.Tank) []ledger.Tank {
	out := make([]ledger.Tank, len(tanks))
	for i, t := range tanks {
		shares := make(map[string]int, len(t.Shares))
		for k, v := range t.Shares {
			shares[k] = v
		}
		t.Shares = shares
		out[i] = t
	}
	return out
}
