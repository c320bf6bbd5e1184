package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"finboard/internal/amqp"
	"finboard/internal/goals"
	"finboard/internal/storage"
	"finboard/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		result, err = f.createPostgresBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result.Events = f.connectEvents(config)
	repoCleanup := result.Cleanup
	events := result.Events
	result.Cleanup = func() error {
		if events != nil {
			if err := events.Close(); err != nil {
				f.logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
		if repoCleanup != nil {
			return repoCleanup()
		}
		return nil
	}
	return result, nil
}

// connectEvents dials AMQP when configured. A broker that is down at startup
// is not fatal; the process runs without change events.
func (f *DefaultFactory) connectEvents(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Repository: repo,
		Cleanup:    repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewPostgresRepository(config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{
		Repository: repo,
		Cleanup:    repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Repository: memory.New(),
		Cleanup:    nil, // No cleanup needed for memory backend
	}
}

// CreateGoalClock implements Factory.CreateGoalClock
func (f *DefaultFactory) CreateGoalClock(ctx context.Context, config Config) (*ClockResult, error) {
	cooldown := config.Cooldown
	if cooldown == 0 {
		cooldown = goals.DefaultCooldown
	}

	switch config.ClockType {
	case NATSClock:
		nc, err := nats.Connect(config.NATSURL, nats.Name("finboard-goal-clock"))
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create JetStream context: %w", err)
		}
		clock, err := goals.NewNATSClock(ctx, js, config.ClockBucket, cooldown)
		if err != nil {
			nc.Close()
			return nil, err
		}
		f.logger.Info("Initialized NATS goal clock", "bucket", config.ClockBucket)
		return &ClockResult{
			Store: clock,
			Cleanup: func() error {
				return nc.Drain()
			},
		}, nil

	case MemoryClock, "":
		f.logger.Info("Initialized memory goal clock", "max_users", config.ClockMaxUsers)
		return &ClockResult{Store: goals.NewMemoryClock(config.ClockMaxUsers, cooldown)}, nil

	default:
		return nil, fmt.Errorf("unsupported goal clock type: %s", config.ClockType)
	}
}
