package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Logger    LoggerConfig
	RateLimit RateLimitConfig
	App       AppConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	Environment    string
	AllowedOrigins []string
}

type StorageConfig struct {
	Driver   string
	Key      string
	FileDir  string
	SQLite   string
	Postgres PostgresConfig
	Pool     PoolConfig
	Redis    RedisConfig
	Breaker  BreakerConfig
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type BreakerConfig struct {
	MaxFailures int
	Timeout     time.Duration
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
}

type AppConfig struct {
	Timezone string
}

var validDrivers = map[string]bool{
	"file": true, "sqlite": true, "postgres": true, "redis": true, "memory": true,
}

// LoadConfig reads defaults, then an optional config file, then the
// environment. path selects a specific file; empty searches the usual places.
// A .env file in the working directory is loaded into the environment first.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".growtasks"))
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetString("server.port"),
			ReadTimeout:    v.GetDuration("server.read_timeout"),
			WriteTimeout:   v.GetDuration("server.write_timeout"),
			IdleTimeout:    v.GetDuration("server.idle_timeout"),
			Environment:    v.GetString("server.environment"),
			AllowedOrigins: splitList(v.GetStringSlice("server.allowed_origins")),
		},
		Storage: StorageConfig{
			Driver:  strings.ToLower(v.GetString("storage.driver")),
			Key:     v.GetString("storage.key"),
			FileDir: v.GetString("storage.file.dir"),
			SQLite:  v.GetString("storage.sqlite.path"),
			Postgres: PostgresConfig{
				Host:     v.GetString("storage.postgres.host"),
				Port:     v.GetString("storage.postgres.port"),
				User:     v.GetString("storage.postgres.user"),
				Password: v.GetString("storage.postgres.password"),
				Name:     v.GetString("storage.postgres.name"),
				SSLMode:  v.GetString("storage.postgres.ssl_mode"),
			},
			Pool: PoolConfig{
				MaxOpenConns:    v.GetInt("storage.pool.max_open_conns"),
				MaxIdleConns:    v.GetInt("storage.pool.max_idle_conns"),
				ConnMaxLifetime: v.GetDuration("storage.pool.conn_max_lifetime"),
				ConnMaxIdleTime: v.GetDuration("storage.pool.conn_max_idle_time"),
			},
			Redis: RedisConfig{
				Host:         v.GetString("storage.redis.host"),
				Port:         v.GetString("storage.redis.port"),
				Password:     v.GetString("storage.redis.password"),
				DB:           v.GetInt("storage.redis.db"),
				PoolSize:     v.GetInt("storage.redis.pool_size"),
				MinIdleConns: v.GetInt("storage.redis.min_idle_conns"),
				MaxRetries:   v.GetInt("storage.redis.max_retries"),
				DialTimeout:  v.GetDuration("storage.redis.dial_timeout"),
				ReadTimeout:  v.GetDuration("storage.redis.read_timeout"),
				WriteTimeout: v.GetDuration("storage.redis.write_timeout"),
			},
			Breaker: BreakerConfig{
				MaxFailures: v.GetInt("storage.breaker.max_failures"),
				Timeout:     v.GetDuration("storage.breaker.timeout"),
			},
		},
		Logger: LoggerConfig{
			Level:        v.GetString("logger.level"),
			Mode:         v.GetString("logger.mode"),
			Encoding:     v.GetString("logger.encoding"),
			ColorEnabled: v.GetBool("logger.color_enabled"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        v.GetBool("rate_limit.enabled"),
			RequestsPerMin: v.GetInt("rate_limit.requests_per_minute"),
			BurstSize:      v.GetInt("rate_limit.burst_size"),
		},
		App: AppConfig{
			Timezone: v.GetString("app.timezone"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.key", "tasks_v2")
	v.SetDefault("storage.file.dir", defaultDataDir())
	v.SetDefault("storage.sqlite.path", filepath.Join(defaultDataDir(), "growtasks.db"))

	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.name", "growtasks")
	v.SetDefault("storage.postgres.ssl_mode", "disable")

	v.SetDefault("storage.pool.max_open_conns", 25)
	v.SetDefault("storage.pool.max_idle_conns", 10)
	v.SetDefault("storage.pool.conn_max_lifetime", time.Hour)
	v.SetDefault("storage.pool.conn_max_idle_time", 30*time.Minute)

	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.max_retries", 3)
	v.SetDefault("storage.redis.dial_timeout", 5*time.Second)
	v.SetDefault("storage.redis.read_timeout", 3*time.Second)
	v.SetDefault("storage.redis.write_timeout", 3*time.Second)

	v.SetDefault("storage.breaker.max_failures", 5)
	v.SetDefault("storage.breaker.timeout", 30*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", "development")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.color_enabled", true)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 100)
	v.SetDefault("rate_limit.burst_size", 10)

	v.SetDefault("app.timezone", "Local")
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".growtasks")
	}
	return ".growtasks"
}

// splitList accepts both list values and a single comma-separated string,
// the form they take when set from the environment.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	if !validDrivers[c.Storage.Driver] {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	if c.IsProduction() && c.Storage.Driver == "postgres" && c.Storage.Postgres.Password == "" {
		return fmt.Errorf("database password is required in production")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) GetPostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Storage.Postgres.Host,
		c.Storage.Postgres.Port,
		c.Storage.Postgres.User,
		c.Storage.Postgres.Password,
		c.Storage.Postgres.Name,
		c.Storage.Postgres.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Storage.Redis.Host, c.Storage.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Location is the zone whose calendar defines "today".
func (c *Config) Location() (*time.Location, error) {
	tz := c.App.Timezone
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}
