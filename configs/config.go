package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API     APIConfig
	Query   QueryConfig
	Session SessionConfig
	Server  ServerConfig
	Redis   RedisConfig
	Log     LogConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	// AttachToken sends the session token as a bearer token. Off unless
	// explicitly enabled.
	AttachToken bool
}

type QueryConfig struct {
	StaleTime      time.Duration
	GCTime         time.Duration
	Retry          int
	RetryDelay     time.Duration
	MaxIdleEntries int
	// PollInterval is the cadence of reads that change server side
	// (notifications, pending approvals).
	PollInterval time.Duration
	// PersistTTL bounds how long last-known values are kept in Redis.
	PersistTTL time.Duration
}

type SessionConfig struct {
	Path string
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	TLSCertFile     string
	TLSKeyFile      string
}

type RedisConfig struct {
	// Enabled turns on the persistence tier of the query cache.
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL:     getEnv("API_BASE_URL", ""),
			Timeout:     getDurationEnv("API_TIMEOUT", 30*time.Second),
			AttachToken: getBoolEnv("API_ATTACH_TOKEN", false),
		},
		Query: QueryConfig{
			StaleTime:      getDurationEnv("QUERY_STALE_TIME", 0),
			GCTime:         getDurationEnv("QUERY_GC_TIME", 5*time.Minute),
			Retry:          getIntEnv("QUERY_RETRY", 1),
			RetryDelay:     getDurationEnv("QUERY_RETRY_DELAY", time.Second),
			MaxIdleEntries: getIntEnv("QUERY_MAX_IDLE_ENTRIES", 500),
			PollInterval:   getDurationEnv("QUERY_POLL_INTERVAL", 5*time.Second),
			PersistTTL:     getDurationEnv("QUERY_PERSIST_TTL", 24*time.Hour),
		},
		Session: SessionConfig{
			Path: getEnv("SESSION_PATH", "session.db"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "127.0.0.1"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			TLSCertFile:     getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:      getEnv("TLS_KEY_FILE", ""),
		},
		Redis: RedisConfig{
			Enabled:      getBoolEnv("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			Prefix:       getEnv("REDIS_PREFIX", "contract-admin"),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("required environment variable API_BASE_URL is not set")
	}
	if c.Query.Retry < 0 {
		return fmt.Errorf("QUERY_RETRY must not be negative, got %d", c.Query.Retry)
	}
	if c.Query.GCTime <= 0 {
		return fmt.Errorf("QUERY_GC_TIME must be positive, got %s", c.Query.GCTime)
	}
	if c.Session.Path == "" {
		return fmt.Errorf("SESSION_PATH must not be empty")
	}
	return nil
}

// Addr is the console listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
