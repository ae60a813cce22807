package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Expected default read timeout 30s, got %v", config.Server.ReadTimeout)
	}

	if config.Storage.Driver != "file" {
		t.Errorf("Expected default driver 'file', got %s", config.Storage.Driver)
	}

	if config.Storage.Key != "tasks_v2" {
		t.Errorf("Expected default key 'tasks_v2', got %s", config.Storage.Key)
	}

	if !strings.HasSuffix(config.Storage.FileDir, ".growtasks") {
		t.Errorf("Expected default data dir under .growtasks, got %s", config.Storage.FileDir)
	}

	if config.Storage.Pool.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", config.Storage.Pool.MaxOpenConns)
	}

	if config.Storage.Breaker.MaxFailures != 5 {
		t.Errorf("Expected default breaker failures 5, got %d", config.Storage.Breaker.MaxFailures)
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}

	if config.RateLimit.RequestsPerMin != 100 {
		t.Errorf("Expected default RPM 100, got %d", config.RateLimit.RequestsPerMin)
	}

	if len(config.Server.AllowedOrigins) != 1 || config.Server.AllowedOrigins[0] != "*" {
		t.Errorf("Expected default origins [*], got %v", config.Server.AllowedOrigins)
	}

	loc, err := config.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Expected local timezone, got %v (%v)", loc, err)
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENVIRONMENT", "staging")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("STORAGE_DRIVER", "REDIS")
	t.Setenv("STORAGE_REDIS_HOST", "cache")
	t.Setenv("STORAGE_REDIS_PORT", "6380")
	t.Setenv("STORAGE_BREAKER_TIMEOUT", "10s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Server.Port != "9090" {
		t.Errorf("Expected port '9090', got %s", config.Server.Port)
	}

	if config.Storage.Driver != "redis" {
		t.Errorf("Expected driver 'redis', got %s", config.Storage.Driver)
	}

	if config.GetRedisAddr() != "cache:6380" {
		t.Errorf("Expected redis addr 'cache:6380', got %s", config.GetRedisAddr())
	}

	if config.Storage.Breaker.Timeout != 10*time.Second {
		t.Errorf("Expected breaker timeout 10s, got %v", config.Storage.Breaker.Timeout)
	}

	if config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}

	if len(config.Server.AllowedOrigins) != 2 || config.Server.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("Expected two allowed origins, got %v", config.Server.AllowedOrigins)
	}

	loc, err := config.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Expected Europe/Berlin, got %v (%v)", loc, err)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "growtasks.yaml")
	content := `
server:
  port: "7070"
storage:
  driver: sqlite
  sqlite:
    path: /tmp/tasks.db
logger:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Server.Port != "7070" {
		t.Errorf("Expected port '7070', got %s", config.Server.Port)
	}

	if config.Storage.Driver != "sqlite" || config.Storage.SQLite != "/tmp/tasks.db" {
		t.Errorf("Expected sqlite at /tmp/tasks.db, got %s %s", config.Storage.Driver, config.Storage.SQLite)
	}

	if config.Logger.Level != "debug" {
		t.Errorf("Expected logger level 'debug', got %s", config.Logger.Level)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("Expected error for a missing config file")
	}
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SERVER_ENVIRONMENT", "production")
	t.Setenv("STORAGE_DRIVER", "postgres")

	_, err := LoadConfig("")
	if err == nil {
		t.Error("Expected error when postgres password is missing in production")
	}

	t.Setenv("STORAGE_POSTGRES_PASSWORD", "secret")
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !config.IsProduction() {
		t.Error("Expected IsProduction to be true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, true},
		{"empty key", func(c *Config) { c.Storage.Key = "" }, true},
		{"bad timezone", func(c *Config) { c.App.Timezone = "Mars/Olympus" }, true},
		{"utc", func(c *Config) { c.App.Timezone = "UTC" }, false},
		{"dev postgres without password", func(c *Config) { c.Storage.Driver = "postgres" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Server:  ServerConfig{Environment: "development"},
				Storage: StorageConfig{Driver: "file", Key: "tasks_v2"},
			}
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetPostgresDSN(t *testing.T) {
	config := &Config{
		Storage: StorageConfig{
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "postgres",
				Password: "password",
				Name:     "growtasks",
				SSLMode:  "disable",
			},
		},
	}

	expected := "host=localhost port=5432 user=postgres password=password dbname=growtasks sslmode=disable"
	if dsn := config.GetPostgresDSN(); dsn != expected {
		t.Errorf("Expected DSN %s, got %s", expected, dsn)
	}
}

func TestGetServerAddr(t *testing.T) {
	config := &Config{Server: ServerConfig{Host: "0.0.0.0", Port: "8080"}}

	if addr := config.GetServerAddr(); addr != "0.0.0.0:8080" {
		t.Errorf("Expected server address '0.0.0.0:8080', got %s", addr)
	}
}
