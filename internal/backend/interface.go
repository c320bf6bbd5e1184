package backend

import (
	"context"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/goals"
	"finboard/internal/ports"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the repository, the optional event client and a
// cleanup function releasing both.
type BackendResult struct {
	Repository ports.Repository
	// Events is nil when AMQP is not configured or unreachable.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// ClockResult is the last-write store backing the goal coordinator.
type ClockResult struct {
	Store   goals.LastWriteStore
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a repository based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateGoalClock creates the per-user last-write store
	CreateGoalClock(ctx context.Context, config Config) (*ClockResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string

	// Optional event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Goal clock
	ClockType     ClockType
	NATSURL       string
	ClockBucket   string
	ClockMaxUsers int
	Cooldown      time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// ClockType selects where last-write times live.
type ClockType string

const (
	MemoryClock ClockType = "memory"
	NATSClock   ClockType = "nats"
)

func (ct ClockType) IsValid() bool {
	return ct == MemoryClock || ct == NATSClock
}
