package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInitTables, downInitTables)
}

func upInitTables(ctx context.Context, tx *sql.Tx) error {
	// Create records table
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE records (
			id INTEGER PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			"user" VARCHAR(255) NOT NULL,
			odometer INTEGER NOT NULL CHECK (odometer >= 0),
			trip INTEGER NOT NULL DEFAULT 0,
			tank_id INTEGER NOT NULL,
			pay INTEGER NOT NULL DEFAULT 0 CHECK (pay >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	// Create tanks table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE tanks (
			id INTEGER PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			price INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	// Create tank_shares table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE tank_shares (
			tank_id INTEGER NOT NULL,
			member VARCHAR(255) NOT NULL,
			share INTEGER NOT NULL,
			PRIMARY KEY (tank_id, member),
			CONSTRAINT fk_tank_shares_tank
				FOREIGN KEY(tank_id)
				REFERENCES tanks(id)
				ON UPDATE CASCADE
				ON DELETE CASCADE
		);
	`)
	if err != nil {
		return err
	}

	return nil
}

func downInitTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS tank_shares;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS tanks;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS records;`)
	if err != nil {
		return err
	}

	return nil
}
