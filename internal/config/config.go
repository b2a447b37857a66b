package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type MinIOOptions struct {
	Endpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"assessments"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Region    string `env:"MINIO_REGION" envDefault:"us-east-1"`
}

type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	APIToken    string `env:"API_TOKEN"`
	Port        int    `env:"PORT" envDefault:"8000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`

	SessionStore string        `env:"SESSION_STORE" envDefault:"memory"` // memory or redis
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	WorkerConcurrency int `env:"WORKER_CONCURRENCY" envDefault:"5"`

	MinIO MinIOOptions
}

// LoadEnv loads whichever of envFiles exist into the process environment.
// It returns the number of files loaded.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads .env files, then parses the environment.
func Load() (*Config, error) {
	if _, err := LoadEnv([]string{".env", ".env.local"}); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks option combinations env tags cannot express.
func (c *Config) Validate() error {
	if c.SessionStore != SessionStoreMemory && c.SessionStore != SessionStoreRedis {
		return fmt.Errorf("SESSION_STORE must be 'memory' or 'redis', got '%s'", c.SessionStore)
	}
	if c.SessionStore == SessionStoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when SESSION_STORE is 'redis'")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.WorkerConcurrency)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) LogrusLogLevel() logrus.Level {
	switch strings.ToLower(c.LogLevel) {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger builds the process logger.
func (c *Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(c.LogrusLogLevel())
	return l
}
