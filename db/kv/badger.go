package kv

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v5"

	dbt "fueltrack/db/db"
	"fueltrack/ledger"
)

const (
	recordEntity = "record"
	tankEntity   = "tank"
)

// BadgerFuelDBWrapper stores every record and tank as its own msgpack
// value under "<entity>/<zero padded id>", so prefix iteration yields id
// order.
type BadgerFuelDBWrapper struct {
	db *badger.DB
}

// Open opens (or creates) a badger database in dir. An empty dir keeps the
// data in memory only.
func Open(dir string) (*BadgerFuelDBWrapper, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerFuelDBWrapper{db: db}, nil
}

func NewBadgerFuelDBWrapper(db *badger.DB) *BadgerFuelDBWrapper {
	return &BadgerFuelDBWrapper{db: db}
}

func buildPrefix(entity string) []byte {
	return []byte(entity + "/")
}

func buildKey(entity string, id int) []byte {
	return []byte(fmt.Sprintf("%s/%010d", entity, id))
}

func (b *BadgerFuelDBWrapper) LoadRecords(_ context.Context) ([]ledger.Record, error) {
	var records []ledger.Record
	err := b.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, recordEntity, func(val []byte) error {
			var r ledger.Record
			if err := msgpack.Unmarshal(val, &r); err != nil {
				return err
			}
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get records list: %w", err)
	}
	return records, nil
}

func (b *BadgerFuelDBWrapper) SaveRecords(_ context.Context, records []ledger.Record) error {
	values := make(map[int][]byte, len(records))
	for _, r := range records {
		buf, err := msgpack.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal record %d: %w", r.ID, err)
		}
		values[r.ID] = buf
	}
	return b.replaceEntity(recordEntity, values)
}

func (b *BadgerFuelDBWrapper) LoadTanks(_ context.Context) ([]ledger.Tank, error) {
	var tanks []ledger.Tank
	err := b.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, tankEntity, func(val []byte) error {
			var t ledger.Tank
			if err := msgpack.Unmarshal(val, &t); err != nil {
				return err
			}
			tanks = append(tanks, t)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get tanks list: %w", err)
	}
	return tanks, nil
}

func (b *BadgerFuelDBWrapper) SaveTanks(_ context.Context, tanks []ledger.Tank) error {
	values := make(map[int][]byte, len(tanks))
	for _, t := range tanks {
		buf, err := msgpack.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal tank %d: %w", t.ID, err)
		}
		values[t.ID] = buf
	}
	return b.replaceEntity(tankEntity, values)
}

func (b *BadgerFuelDBWrapper) DataLoaderGetRecordList(_ context.Context, ids []int) (map[int]ledger.Record, error) {
	records := make(map[int]ledger.Record, len(ids))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(buildKey(recordEntity, id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var r ledger.Record
			if err := item.Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			records[id] = r
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get records by id: %w", err)
	}
	return records, nil
}

func (b *BadgerFuelDBWrapper) Close() error {
	return b.db.Close()
}

// replaceEntity drops every key of entity and writes values in a single
// transaction.
func (b *BadgerFuelDBWrapper) replaceEntity(entity string, values map[int][]byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := buildPrefix(entity)
		it := txn.NewIterator(opts)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for id, val := range values {
			if err := txn.Set(buildKey(entity, id), val); err != nil {
				return err
			}
		}
		return nil
	})
}

func iteratePrefix(txn *badger.Txn, entity string, fn func(val []byte) error) error {
	prefix := buildPrefix(entity)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

var _ dbt.FuelDBWrapper = (*BadgerFuelDBWrapper)(nil)
