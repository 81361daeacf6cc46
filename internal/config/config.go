package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Env    string
	DB     DBConfig
	MinIO  MinIOConfig
	JWT    JWTConfig
	Server ServerConfig
	Redis  RedisConfig
	Log    LogConfig
	Audit  AuditConfig
	Seed   SeedConfig
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string
}

type MinIOConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
	BodyLimitMB    int
	ShutdownGrace  time.Duration
}

// RedisConfig enables notification fan-out when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

type AuditConfig struct {
	QueueSize int
}

type SeedConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	DemoData      bool
	DemoUsers     int
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Load reads an optional signoff.yml from the working directory and overlays
// environment variables on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("signoff")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		DB: DBConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Path:     v.GetString("DB_PATH"),
		},
		MinIO: MinIOConfig{
			Enabled:   v.GetBool("MINIO_ENABLED"),
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			ExpirationHours: v.GetInt("JWT_EXPIRATION_HOURS"),
		},
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
			BodyLimitMB:    v.GetInt("SERVER_BODY_LIMIT_MB"),
			ShutdownGrace:  v.GetDuration("SERVER_SHUTDOWN_GRACE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Audit: AuditConfig{
			QueueSize: v.GetInt("AUDIT_QUEUE_SIZE"),
		},
		Seed: SeedConfig{
			AdminName:     v.GetString("SEED_ADMIN_NAME"),
			AdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
			AdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
			DemoData:      v.GetBool("SEED_DEMO_DATA"),
			DemoUsers:     v.GetInt("SEED_DEMO_USERS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "signoff")
	v.SetDefault("DB_PASSWORD", "signoff_secret")
	v.SetDefault("DB_NAME", "signoff")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "signoff.db")
	v.SetDefault("MINIO_ENABLED", false)
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "signoff")
	v.SetDefault("MINIO_SECRET_KEY", "signoff_secret")
	v.SetDefault("MINIO_BUCKET", "signoff")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3001,http://127.0.0.1:3001")
	v.SetDefault("SERVER_BODY_LIMIT_MB", 50)
	v.SetDefault("SERVER_SHUTDOWN_GRACE", 10*time.Second)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUDIT_QUEUE_SIZE", 1000)
	v.SetDefault("SEED_ADMIN_NAME", "Administrator")
	v.SetDefault("SEED_ADMIN_EMAIL", "admin@company.com")
	v.SetDefault("SEED_ADMIN_PASSWORD", "admin123")
	v.SetDefault("SEED_DEMO_DATA", false)
	v.SetDefault("SEED_DEMO_USERS", 4)
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	if c.Server.Port == "" {
		return errors.New("SERVER_PORT is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() {
		if c.JWT.Secret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWT.Secret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.Seed.AdminPassword == "admin123" {
			return errors.New("SEED_ADMIN_PASSWORD must be changed from the default value in production")
		}
	}
	return nil
}
