package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"fueltrack/config"
	"fueltrack/db/csvfile"
	"fueltrack/db/db"
	"fueltrack/db/kv"
	"fueltrack/db/mem"
	"fueltrack/db/pg"
	"fueltrack/lock"
	"fueltrack/mq/gcppubsub"
	"fueltrack/mq/goch"
	"fueltrack/mq/mq"
	"fueltrack/mq/rabbit"
	"fueltrack/service"
)

// app holds everything a command opened, closed in reverse order.
type app struct {
	store   db.FuelDBWrapper
	service *service.Service
	stream  mq.Subscriber[mq.LedgerMessage]
	closers []func() error
}

func (r *app) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

func openStore(cfg *config.Config) (db.FuelDBWrapper, error) {
	members, err := cfg.MemberList()
	if err != nil {
		return nil, err
	}
	switch cfg.Store {
	case config.StoreMem:
		return mem.NewInMemoryFuelDBWrapper(), nil
	case config.StoreCSV:
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		return csvfile.NewCSVFuelDBWrapper(cfg.DataDir, members, loc)
	case config.StoreBadger:
		return kv.Open(filepath.Join(cfg.DataDir, "badger"))
	case config.StorePG:
		gormDB, err := pg.InitPostgresGORM(pg.CreateDSN(cfg.DatabaseURL, cfg.Schema))
		if err != nil {
			return nil, err
		}
		return pg.NewGORMFuelDBWrapper(gormDB), nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// openLocker uses a Redis lock when an address is configured, so several
// processes can share one store.
func openLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func() error, error) {
	if cfg.RedisAddr == "" {
		return lock.NewLocal(), func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return lock.NewRedis(client, cfg.LockKey, cfg.LockTTL), client.Close, nil
}

// openPublisher returns the configured publisher and, when it can feed
// local listeners, the same value as a subscriber.
func openPublisher(ctx context.Context, cfg *config.Config) (mq.Publisher, mq.Subscriber[mq.LedgerMessage], func() error, error) {
	switch cfg.MqMode {
	case mq.ModeNone:
		return mq.Nop{}, nil, func() error { return nil }, nil
	case mq.ModeGoChan:
		q := goch.NewGoChanLedgerMessageQueue(64)
		return q, q, q.Close, nil
	case mq.ModeRabbitMQ:
		conn, err := rabbit.NewRabbitConnection(rabbit.CreateAmqpURL(cfg.RabbitURL))
		if err != nil {
			return nil, nil, nil, err
		}
		q, err := rabbit.NewRabbitLedgerMessageQueue(conn, cfg.Exchange)
		if err != nil {
			conn.Close()
			return nil, nil, nil, err
		}
		closeAll := func() error { return errors.Join(q.Close(), conn.Close()) }
		return q, q, closeAll, nil
	case mq.ModeGCPPubSub:
		client, err := gcppubsub.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, nil, err
		}
		q, err := gcppubsub.NewPubSubLedgerMessageQueue(ctx, client, cfg.PubSubTopic)
		if err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		closeAll := func() error { return errors.Join(q.Close(), client.Close()) }
		return q, q, closeAll, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown mq mode %q", cfg.MqMode)
}

func (s *settings) open(ctx context.Context) (*app, error) {
	rt := &app{}
	fail := func(err error) (*app, error) {
		if cerr := rt.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to release resources")
		}
		return nil, err
	}

	store, err := openStore(s.cfg)
	if err != nil {
		return fail(err)
	}
	rt.store = store
	rt.closers = append(rt.closers, store.Close)

	locker, closeLocker, err := openLocker(ctx, s.cfg)
	if err != nil {
		return fail(err)
	}
	rt.closers = append(rt.closers, closeLocker)

	publisher, stream, closePublisher, err := openPublisher(ctx, s.cfg)
	if err != nil {
		return fail(err)
	}
	rt.closers = append(rt.closers, closePublisher)
	rt.stream = stream

	members, err := s.cfg.MemberList()
	if err != nil {
		return fail(err)
	}
	loc, err := s.cfg.Location()
	if err != nil {
		return fail(err)
	}
	rt.service = service.New(store, members,
		service.WithClock(func() time.Time { return time.Now().In(loc) }),
		service.WithLocker(locker),
		service.WithPublisher(publisher),
		service.WithLogger(log.Logger),
	)
	return rt, nil
}
