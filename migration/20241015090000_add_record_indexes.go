package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddRecordIndexes, downAddRecordIndexes)
}

// the validator scans by timestamp and every pass sorts by odometer
func upAddRecordIndexes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE INDEX idx_records_odometer ON records(odometer);`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_records_timestamp ON records(timestamp);`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_records_tank_id ON records(tank_id);`)
	if err != nil {
		return err
	}

	return nil
}

func downAddRecordIndexes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DROP INDEX IF EXISTS idx_records_tank_id;
		DROP INDEX IF EXISTS idx_records_timestamp;
		DROP INDEX IF EXISTS idx_records_odometer;
	`)
	return err
}
