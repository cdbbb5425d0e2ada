package pg

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	dbt "fueltrack/db/db"
	"fueltrack/ledger"
)

// GORMFuelDBWrapper is a GORM-based PostgreSQL implementation of dbt.FuelDBWrapper.
type GORMFuelDBWrapper struct {
	db *gorm.DB
}

// NewGORMFuelDBWrapper creates and returns a new instance of GORMFuelDBWrapper.
func NewGORMFuelDBWrapper(db *gorm.DB) dbt.FuelDBWrapper {
	return &GORMFuelDBWrapper{
		db: db,
	}
}

// LoadRecords retrieves all records ordered by id.
func (pgdb *GORMFuelDBWrapper) LoadRecords(ctx context.Context) ([]ledger.Record, error) {
	var recordModels []RecordModel
	result := pgdb.db.WithContext(ctx).Order("id").Find(&recordModels)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get records: %w", result.Error)
	}

	records := make([]ledger.Record, 0, len(recordModels))
	for _, rm := range recordModels {
		records = append(records, rm.toRecord())
	}
	return records, nil
}

// SaveRecords replaces the records table in one transaction.
func (pgdb *GORMFuelDBWrapper) SaveRecords(ctx context.Context, records []ledger.Record) error {
	return pgdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&RecordModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		recordModels := make([]RecordModel, 0, len(records))
		for _, r := range records {
			recordModels = append(recordModels, toRecordModel(r))
		}
		if err := tx.CreateInBatches(&recordModels, 500).Error; err != nil {
			return fmt.Errorf("failed to create records: %w", err)
		}
		return nil
	})
}

// LoadTanks retrieves all tanks with their shares, ordered by id.
func (pgdb *GORMFuelDBWrapper) LoadTanks(ctx context.Context) ([]ledger.Tank, error) {
	var tankModels []TankModel
	result := pgdb.db.WithContext(ctx).Preload("Shares").Order("id").Find(&tankModels)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get tanks: %w", result.Error)
	}

	tanks := make([]ledger.Tank, 0, len(tankModels))
	for _, tm := range tankModels {
		tanks = append(tanks, tm.toTank())
	}
	return tanks, nil
}

// SaveTanks replaces the tanks and tank_shares tables in one transaction.
func (pgdb *GORMFuelDBWrapper) SaveTanks(ctx context.Context, tanks []ledger.Tank) error {
	return pgdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&TankShareModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear tank shares: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&TankModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear tanks: %w", err)
		}
		if len(tanks) == 0 {
			return nil
		}

		tankModels := make([]TankModel, 0, len(tanks))
		for _, t := range tanks {
			tankModels = append(tankModels, toTankModel(t))
		}
		// GORM creates the Shares association along with each tank
		if err := tx.Create(&tankModels).Error; err != nil {
			return fmt.Errorf("failed to create tanks: %w", err)
		}
		return nil
	})
}

// DataLoaderGetRecordList retrieves the records for a set of ids in one query.
// This method is designed to be used with a DataLoader for batching queries.
func (pgdb *GORMFuelDBWrapper) DataLoaderGetRecordList(ctx context.Context, ids []int) (map[int]ledger.Record, error) {
	var recordModels []RecordModel
	result := pgdb.db.WithContext(ctx).Where("id IN ?", ids).Find(&recordModels)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve records: %w", result.Error)
	}

	records := make(map[int]ledger.Record, len(recordModels))
	for _, rm := range recordModels {
		records[rm.ID] = rm.toRecord()
	}
	return records, nil
}

func (pgdb *GORMFuelDBWrapper) Close() error {
	sqlDB, err := pgdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
