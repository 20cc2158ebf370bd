package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"classreg/internal/platform/config"
	"classreg/internal/platform/database"
	platformkafka "classreg/internal/platform/kafka"
	platformredis "classreg/internal/platform/redis"
	"classreg/internal/registry/events"
	registrymetrics "classreg/internal/registry/metrics"
	"classreg/internal/registry/ports"
	"classreg/internal/registry/store"
	"classreg/pkg/platform/circuit"
)

func noopClose() error { return nil }

// openStore selects the registry backend named by cfg. The returned closer
// releases the backend's connections.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (ports.Store, func() error, error) {
	switch cfg.Registry.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory registry; records are lost on restart")
		return store.NewInMemory(), noopClose, nil

	case config.BackendSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		st := store.NewSQLite(db)
		if err := st.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite registry: %w", err)
		}
		log.Info("sqlite registry ready", "path", cfg.SQLite.Path)
		return st, db.Close, nil

	case config.BackendPostgres:
		db, err := database.OpenPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		st := store.NewPostgres(db)
		if err := st.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate postgres registry: %w", err)
		}
		log.Info("postgres registry ready", "driver", cfg.Database.Driver)
		return st, db.Close, nil

	case config.BackendRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		log.Info("redis registry ready", "prefix", cfg.Redis.Prefix)
		return store.NewRedis(client.Client, store.WithRedisPrefix(cfg.Redis.Prefix)), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown registry backend %q", cfg.Registry.Backend)
}

// buildNotifier fans update events out to the log plus every configured
// broker. Each broker sits behind its own circuit breaker.
func buildNotifier(ctx context.Context, cfg config.Config, log *slog.Logger, m *registrymetrics.Metrics) (ports.Notifier, func() error, error) {
	var brokers []brokerSink
	var closers []func()

	if len(cfg.Kafka.Brokers) > 0 {
		client, err := platformkafka.NewClient(cfg.Kafka)
		if err != nil {
			return nil, nil, err
		}
		if err := platformkafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			log.Warn("kafka topic bootstrap failed; producing anyway", "topic", cfg.Kafka.Topic, "error", err)
		}
		sink, err := events.NewKafka(client, cfg.Kafka.Topic, events.WithProduceTimeout(cfg.Kafka.ProduceTimeout))
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		brokers = append(brokers, brokerSink{name: "kafka", sink: sink})
		closers = append(closers, client.Close)
		log.Info("kafka notifier enabled", "topic", cfg.Kafka.Topic)
	}

	if cfg.NATS.URL != "" {
		conn, err := nats.Connect(cfg.NATS.URL, nats.Name("classreg"))
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, fmt.Errorf("connect nats: %w", err)
		}
		sink, err := events.NewNATS(conn, cfg.NATS.Subject)
		if err != nil {
			conn.Close()
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		brokers = append(brokers, brokerSink{name: "nats", sink: sink})
		closers = append(closers, conn.Close)
		log.Info("nats notifier enabled", "subject", cfg.NATS.Subject)
	}

	closeAll := func() error {
		for _, c := range closers {
			c()
		}
		return nil
	}

	notifier, err := composeNotifier(events.NewLog(log), brokers, cfg.Notifier, log, m)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	return notifier, closeAll, nil
}

type brokerSink struct {
	name string
	sink ports.Notifier
}

// composeNotifier leaves the log sink unguarded and gives every broker a
// breaker named after it.
func composeNotifier(logSink ports.Notifier, brokers []brokerSink, cfg config.NotifierConfig, log *slog.Logger, m *registrymetrics.Metrics) (events.Fanout, error) {
	sinks := events.Fanout{logSink}
	for _, b := range brokers {
		breaker := circuit.New(b.name,
			circuit.WithFailureThreshold(cfg.FailureThreshold),
			circuit.WithCooldown(cfg.Cooldown),
		)
		guarded, err := events.NewGuarded(b.sink, breaker,
			events.WithGuardLogger(log),
			events.WithGuardMetrics(m),
		)
		if err != nil {
			return nil, fmt.Errorf("guard %s notifier: %w", b.name, err)
		}
		sinks = append(sinks, guarded)
	}
	return sinks, nil
}
