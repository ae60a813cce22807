package cli

import (
	"context"
	"fmt"

	"growtasks/internal/config"
	"growtasks/internal/repositories"
	"growtasks/internal/services"
	"growtasks/internal/storage"
	"growtasks/pkg/log"

	"gorm.io/gorm/logger"
)

// Runtime holds everything a command needs to work on the stored collection.
type Runtime struct {
	Config  *config.Config
	Logger  log.Logger
	Backend storage.Backend
	Repo    repositories.TaskRepository
	Service *services.TaskServiceImpl
}

func storageOptions(cfg *config.Config) storage.Options {
	pool := storage.DefaultPoolConfig()
	pool.DSN = cfg.GetPostgresDSN()
	pool.MaxOpenConns = cfg.Storage.Pool.MaxOpenConns
	pool.MaxIdleConns = cfg.Storage.Pool.MaxIdleConns
	pool.ConnMaxLifetime = cfg.Storage.Pool.ConnMaxLifetime
	pool.ConnMaxIdleTime = cfg.Storage.Pool.ConnMaxIdleTime
	if cfg.Logger.Level == "debug" {
		pool.LogLevel = logger.Info
	}

	redisCfg := storage.DefaultRedisConfig()
	redisCfg.Addr = cfg.GetRedisAddr()
	redisCfg.Password = cfg.Storage.Redis.Password
	redisCfg.DB = cfg.Storage.Redis.DB
	redisCfg.PoolSize = cfg.Storage.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Storage.Redis.MinIdleConns
	redisCfg.MaxRetries = cfg.Storage.Redis.MaxRetries
	redisCfg.DialTimeout = cfg.Storage.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Storage.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Storage.Redis.WriteTimeout

	breaker := storage.DefaultCircuitBreakerConfig()
	breaker.MaxFailures = cfg.Storage.Breaker.MaxFailures
	breaker.Timeout = cfg.Storage.Breaker.Timeout

	return storage.Options{
		Driver:   cfg.Storage.Driver,
		FileDir:  cfg.Storage.FileDir,
		SQLite:   cfg.Storage.SQLite,
		Postgres: pool,
		Redis:    redisCfg,
		Breaker:  breaker,
	}
}

func newLogger(cfg *config.Config) log.Logger {
	return log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})
}

// NewRuntime opens the configured backend and builds the task service on it.
func NewRuntime(cfg *config.Config, l log.Logger) (*Runtime, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(storageOptions(cfg))
	if err != nil {
		return nil, err
	}

	repo := repositories.NewTaskRepository(backend, cfg.Storage.Key)
	l.Debugf(context.Background(), "cli.NewRuntime: %s storage, key %s, timezone %s", cfg.Storage.Driver, repo.Key(), loc)

	return &Runtime{
		Config:  cfg,
		Logger:  l,
		Backend: backend,
		Repo:    repo,
		Service: services.NewTaskService(repo, l, services.WithLocation(loc)),
	}, nil
}

func (rt *Runtime) Close() error {
	_ = rt.Logger.Sync()
	if err := rt.Backend.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
