package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Backend is a string-keyed byte store holding serialized application state.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Health(ctx context.Context) error
	Close() error
}

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Options struct {
	Driver   string
	FileDir  string
	SQLite   string
	Postgres *PoolConfig
	Redis    *RedisConfig
	Breaker  *CircuitBreakerConfig
}

// Open builds the backend selected by opts.Driver, wrapped in a circuit breaker.
func Open(opts Options) (Backend, error) {
	var (
		backend Backend
		err     error
	)

	switch opts.Driver {
	case DriverFile, "":
		backend, err = NewFileBackend(opts.FileDir)
	case DriverSQLite:
		backend, err = NewSQLiteBackend(opts.SQLite)
	case DriverPostgres:
		backend, err = NewPostgresBackend(opts.Postgres)
	case DriverRedis:
		backend = NewRedisBackend(opts.Redis)
	case DriverMemory:
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", opts.Driver, err)
	}

	return NewBreakerBackend(backend, opts.Breaker), nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
