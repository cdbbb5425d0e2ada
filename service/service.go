package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	dbt "fueltrack/db/db"
	"fueltrack/ledger"
	"fueltrack/libs/diff"
	"fueltrack/lock"
	"fueltrack/mq/mq"
)

// Service runs every ledger mutation as one locked pass: validate, mutate,
// reconcile, allocate, save, publish.
type Service struct {
	db        dbt.FuelDBWrapper
	members   ledger.Members
	locker    lock.Locker
	publisher mq.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithLocker(l lock.Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithPublisher(p mq.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the clock used for entries without a date or time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(db dbt.FuelDBWrapper, members ledger.Members, opts ...Option) *Service {
	s := &Service{
		db:        db,
		members:   members,
		locker:    lock.NewLocal(),
		publisher: mq.Nop{},
		logger:    log.Logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "service").Logger()
	return s
}

func (s *Service) Members() ledger.Members {
	return s.members
}

// Add appends the reading described by e and returns it as stored.
func (s *Service) Add(ctx context.Context, e ledger.Entry) (ledger.Record, error) {
	c, err := ledger.ParseEntry(e, s.members, s.now())
	if err != nil {
		return ledger.Record{}, err
	}

	var added ledger.Record
	err = s.withLock(ctx, func(records []ledger.Record) ([]ledger.Record, error) {
		added = ledger.NewRecord(records, c)
		if err := ledger.Validate(added, records); err != nil {
			return nil, err
		}
		return append(records, added), nil
	}, func(reconciled []ledger.Record) (mq.Action, int) {
		added = findOrSelf(reconciled, added)
		return mq.ActionCreate, added.ID
	})
	return added, err
}

// Edit replaces the timestamp, user, odometer and pay of record id.
func (s *Service) Edit(ctx context.Context, id int, e ledger.Entry) (ledger.Record, error) {
	c, err := ledger.ParseEntry(e, s.members, s.now())
	if err != nil {
		return ledger.Record{}, err
	}

	var edited ledger.Record
	err = s.withLock(ctx, func(records []ledger.Record) ([]ledger.Record, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", dbt.ErrRecordNotFound, id)
		}
		edited = c.Apply(records[i])
		if err := ledger.Validate(edited, ledger.Without(records, id)); err != nil {
			return nil, err
		}
		records[i] = edited
		return records, nil
	}, func(reconciled []ledger.Record) (mq.Action, int) {
		edited = findOrSelf(reconciled, edited)
		return mq.ActionUpdate, id
	})
	return edited, err
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.withLock(ctx, func(records []ledger.Record) ([]ledger.Record, error) {
		if indexOf(records, id) < 0 {
			return nil, fmt.Errorf("%w: %d", dbt.ErrRecordNotFound, id)
		}
		return ledger.Without(records, id), nil
	}, func([]ledger.Record) (mq.Action, int) {
		return mq.ActionDelete, id
	})
}

// Recompute rebuilds trips, tank ids and the Tank Store from the stored
// records without changing anything else.
func (s *Service) Recompute(ctx context.Context) (Report, error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return Report{}, err
	}
	defer unlock()

	records, err := s.db.LoadRecords(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load records: %w", err)
	}
	report, _, err := s.pass(ctx, records, records)
	if err != nil {
		return Report{}, err
	}
	s.publish(ctx, mq.ActionRecompute, 0, report)
	return report, nil
}

// Check reports every stored record that breaks odometer ordering against
// the rest. It never writes.
func (s *Service) Check(ctx context.Context) ([]ledger.Violation, error) {
	records, err := s.db.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return ledger.ValidateAll(records), nil
}

// Records returns the Record Store in odometer order.
func (s *Service) Records(ctx context.Context) ([]ledger.Record, error) {
	records, err := s.db.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return ledger.SortByOdometer(records), nil
}

func (s *Service) Tanks(ctx context.Context) ([]ledger.Tank, error) {
	tanks, err := s.db.LoadTanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tanks: %w", err)
	}
	return tanks, nil
}

func (s *Service) Record(ctx context.Context, id int) (ledger.Record, error) {
	records, err := s.db.LoadRecords(ctx)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("failed to load records: %w", err)
	}
	if i := indexOf(records, id); i >= 0 {
		return records[i], nil
	}
	return ledger.Record{}, fmt.Errorf("%w: %d", dbt.ErrRecordNotFound, id)
}

// withLock loads the records under the lock, lets mutate change them and
// runs a full pass. Nothing is written when mutate fails. describe names the
// published action once the pass succeeded.
func (s *Service) withLock(
	ctx context.Context,
	mutate func(records []ledger.Record) ([]ledger.Record, error),
	describe func(reconciled []ledger.Record) (mq.Action, int),
) error {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	before, err := s.db.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	working := make([]ledger.Record, len(before))
	copy(working, before)
	after, err := mutate(working)
	if err != nil {
		return err
	}

	report, reconciled, err := s.pass(ctx, before, after)
	if err != nil {
		return err
	}
	action, recordID := describe(reconciled)
	report.Action = action.String()
	s.publish(ctx, action, recordID, report)
	return nil
}

// pass reconciles records, saves them, regenerates the Tank Store and
// reports what changed against before.
func (s *Service) pass(ctx context.Context, before, records []ledger.Record) (Report, []ledger.Record, error) {
	reconciled := ledger.Reconcile(records)
	if err := s.db.SaveRecords(ctx, reconciled); err != nil {
		return Report{}, nil, fmt.Errorf("failed to save records: %w", err)
	}

	oldTanks, err := s.db.LoadTanks(ctx)
	if err != nil {
		return Report{}, nil, fmt.Errorf("failed to load tanks: %w", err)
	}
	tanks := ledger.Allocate(reconciled, s.members)
	if err := s.db.SaveTanks(ctx, tanks); err != nil {
		return Report{}, nil, fmt.Errorf("failed to save tanks: %w", err)
	}

	report := newReport(before, reconciled, oldTanks, tanks, s.logger)
	s.logger.Info().
		Int("records", report.Records).
		Int("tanks", report.Tanks).
		Interface("record_changes", report.RecordChanges).
		Interface("tank_changes", report.TankChanges).
		Msg("ledger recomputed")
	return report, reconciled, nil
}

func (s *Service) publish(ctx context.Context, action mq.Action, recordID int, report Report) {
	msg := mq.NewLedgerMessage(action, recordID, report.Records, report.tanks, s.now())
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Str("action", action.String()).Msg("failed to publish ledger message")
	}
}

func indexOf(records []ledger.Record, id int) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func findOrSelf(records []ledger.Record, r ledger.Record) ledger.Record {
	if i := indexOf(records, r.ID); i >= 0 {
		return records[i]
	}
	return r
}

// Report summarises one recompute pass.
type Report struct {
	Action        string         `json:"action"`
	Records       int            `json:"records"`
	Tanks         int            `json:"tanks"`
	RecordChanges map[string]int `json:"record_changes"`
	TankChanges   map[string]int `json:"tank_changes"`

	tanks []ledger.Tank
}

func newReport(before, after []ledger.Record, oldTanks, newTanks []ledger.Tank, logger zerolog.Logger) Report {
	report := Report{
		Action:        mq.ActionRecompute.String(),
		Records:       len(after),
		Tanks:         len(newTanks),
		RecordChanges: map[string]int{},
		TankChanges:   map[string]int{},
		tanks:         newTanks,
	}
	// a failed diff only costs the summary
	if cl, err := diff.Changes(before, after); err != nil {
		logger.Warn().Err(err).Msg("failed to diff records")
	} else {
		report.RecordChanges = diff.CountByType(cl)
	}
	if cl, err := diff.Changes(oldTanks, newTanks); err != nil {
		logger.Warn().Err(err).Msg("failed to diff tanks")
	} else {
		report.TankChanges = diff.CountByType(cl)
	}
	return report
}
