package db

import (
	"github.com/vikstrous/dataloadgen"

	"fueltrack/ledger"
)

type dataLoaderKey string

const (
	DataLoaderKeyRecordData dataLoaderKey = "record_data_loader"
)

// RecordDataLoader batches single-record lookups made while serving one
// request.
//
//	loader, ok := c.Get(string(db.DataLoaderKeyRecordData))
type RecordDataLoader struct {
	GetRecord *dataloadgen.Loader[int, ledger.Record]
}

func NewRecordDataLoader(dbWrapper FuelDBWrapper) *RecordDataLoader {
	return &RecordDataLoader{
		GetRecord: dataloadgen.NewMappedLoader(dbWrapper.DataLoaderGetRecordList),
	}
}
