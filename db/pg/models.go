package pg

import (
	"time"

	"fueltrack/ledger"
)

type RecordModel struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false"`
	Timestamp time.Time `gorm:"not null"`
	User      string    `gorm:"size:255;not null"`
	Odometer  int       `gorm:"not null"`
	Trip      int       `gorm:"not null"`
	TankID    int       `gorm:"not null"`
	Pay       int       `gorm:"not null"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for RecordModel.
func (RecordModel) TableName() string {
	return "records"
}

type TankModel struct {
	ID        int              `gorm:"primaryKey;autoIncrement:false"`
	Timestamp time.Time        `gorm:"not null"`
	Price     int              `gorm:"not null"`
	Shares    []TankShareModel `gorm:"foreignKey:TankID;constraint:OnDelete:CASCADE"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for TankModel.
func (TankModel) TableName() string {
	return "tanks"
}

// TankShareModel is one member's share of a tank. Members are
// configuration, so shares are rows instead of one column per member.
type TankShareModel struct {
	TankID int    `gorm:"primaryKey;autoIncrement:false"`
	Member string `gorm:"primaryKey;size:255"`
	Share  int    `gorm:"not null"`
}

func (TankShareModel) TableName() string {
	return "tank_shares"
}

func toRecordModel(r ledger.Record) RecordModel {
	return RecordModel{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		User:      r.User,
		Odometer:  r.Odometer,
		Trip:      r.Trip,
		TankID:    r.TankID,
		Pay:       r.Pay,
	}
}

func (m RecordModel) toRecord() ledger.Record {
	return ledger.Record{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		User:      m.User,
		Odometer:  m.Odometer,
		Trip:      m.Trip,
		TankID:    m.TankID,
		Pay:       m.Pay,
	}
}

func toTankModel(t ledger.Tank) TankModel {
	model := TankModel{
		ID:        t.ID,
		Timestamp: t.Timestamp,
		Price:     t.Price,
		Shares:    make([]TankShareModel, 0, len(t.Shares)),
	}
	for member, share := range t.Shares {
		model.Shares = append(model.Shares, TankShareModel{TankID: t.ID, Member: member, Share: share})
	}
	return model
}

func (m TankModel) toTank() ledger.Tank {
	shares := make(map[string]int, len(m.Shares))
	for _, s := range m.Shares {
		shares[s.Member] = s.Share
	}
	return ledger.Tank{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Price:     m.Price,
		Shares:    shares,
	}
}
