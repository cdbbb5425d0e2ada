package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	dbt "fueltrack/db/db"
	"fueltrack/ledger"
)

const (
	RecordsFile = "records.csv"
	TanksFile   = "tanks.csv"

	TimestampLayout = "2006-01-02 15:04:05"
)

var recordHeader = []string{"id", "timestamp", "user", "odometer", "trip", "tank_id", "pay"}

// readable timestamp layouts, newest writer first
var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// CSVFuelDBWrapper keeps both stores as CSV files in one directory, one
// share column per member in the tank file. A missing file reads as empty.
type CSVFuelDBWrapper struct {
	dir     string
	members ledger.Members
	loc     *time.Location

	mu sync.Mutex
}

// NewCSVFuelDBWrapper creates dir if needed and returns a store over it.
// Timestamps are read in loc.
func NewCSVFuelDBWrapper(dir string, members ledger.Members, loc *time.Location) (*CSVFuelDBWrapper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &CSVFuelDBWrapper{dir: dir, members: members, loc: loc}, nil
}

func (s *CSVFuelDBWrapper) LoadRecords(_ context.Context) ([]ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(RecordsFile)
	if err != nil {
		return nil, err
	}

	records := make([]ledger.Record, 0, len(rows))
	for i, row := range rows {
		r, err := s.parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", RecordsFile, i+2, err) // +2 for the header row
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *CSVFuelDBWrapper) SaveRecords(_ context.Context, records []ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, recordHeader)
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			r.Timestamp.Format(TimestampLayout),
			r.User,
			strconv.Itoa(r.Odometer),
			strconv.Itoa(r.Trip),
			strconv.Itoa(r.TankID),
			strconv.Itoa(r.Pay),
		})
	}
	return s.writeRows(RecordsFile, rows)
}

func (s *CSVFuelDBWrapper) LoadTanks(_ context.Context) ([]ledger.Tank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(filepath.Join(s.dir, TanksFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", TanksFile, err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("%s: expected at least 3 columns, but got %d", TanksFile, len(header))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TanksFile, err)
	}

	tanks := make([]ledger.Tank, 0, len(rows))
	for i, row := range rows {
		t, err := s.parseTank(header, row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", TanksFile, i+2, err)
		}
		tanks = append(tanks, t)
	}
	return tanks, nil
}

func (s *CSVFuelDBWrapper) SaveTanks(_ context.Context, tanks []ledger.Tank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := append([]string{"id", "timestamp", "price"}, s.members...)
	rows := make([][]string, 0, len(tanks)+1)
	rows = append(rows, header)
	for _, t := range tanks {
		row := []string{
			strconv.Itoa(t.ID),
			t.Timestamp.Format(TimestampLayout),
			strconv.Itoa(t.Price),
		}
		for _, m := range s.members {
			row = append(row, strconv.Itoa(t.Shares[m]))
		}
		rows = append(rows, row)
	}
	return s.writeRows(TanksFile, rows)
}

func (s *CSVFuelDBWrapper) DataLoaderGetRecordList(ctx context.Context, ids []int) (map[int]ledger.Record, error) {
	records, err := s.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return dbt.PickRecords(records, ids), nil
}

func (s *CSVFuelDBWrapper) Close() error {
	return nil
}

// readRows returns the data rows of name without its header.
func (s *CSVFuelDBWrapper) readRows(name string) ([][]string, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

// writeRows replaces name through a temp file and rename so a crash never
// leaves half a file behind.
func (s *CSVFuelDBWrapper) writeRows(name string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

func (s *CSVFuelDBWrapper) parseRecord(row []string) (ledger.Record, error) {
	if len(row) != len(recordHeader) {
		return ledger.Record{}, fmt.Errorf("expected %d columns, but got %d", len(recordHeader), len(row))
	}
	ts, err := s.parseTimestamp(row[1])
	if err != nil {
		return ledger.Record{}, err
	}

	var r ledger.Record
	r.Timestamp = ts
	r.User = row[2]
	ints := []*int{&r.ID, nil, nil, &r.Odometer, &r.Trip, &r.TankID, &r.Pay}
	for i, dst := range ints {
		if dst == nil {
			continue
		}
		if *dst, err = parseInt(row[i]); err != nil {
			return ledger.Record{}, fmt.Errorf("column %s: %w", recordHeader[i], err)
		}
	}
	return r, nil
}

func (s *CSVFuelDBWrapper) parseTank(header, row []string) (ledger.Tank, error) {
	if len(row) != len(header) {
		return ledger.Tank{}, fmt.Errorf("expected %d columns, but got %d", len(header), len(row))
	}
	id, err := parseInt(row[0])
	if err != nil {
		return ledger.Tank{}, fmt.Errorf("column id: %w", err)
	}
	ts, err := s.parseTimestamp(row[1])
	if err != nil {
		return ledger.Tank{}, err
	}
	price, err := parseInt(row[2])
	if err != nil {
		return ledger.Tank{}, fmt.Errorf("column price: %w", err)
	}

	shares := make(map[string]int, len(header)-3)
	for i := 3; i < len(header); i++ {
		share, err := parseInt(row[i])
		if err != nil {
			return ledger.Tank{}, fmt.Errorf("column %s: %w", header[i], err)
		}
		shares[header[i]] = share
	}
	return ledger.Tank{ID: id, Timestamp: ts, Price: price, Shares: shares}, nil
}

func (s *CSVFuelDBWrapper) parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp %q", v)
}

// parseInt accepts whole numbers written as floats ("12.0"), which is how
// older tank files stored shares.
func parseInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to convert %q to int: %w", v, err)
	}
	return int(f), nil
}
