package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the service.
type Config struct {
	AppName    string
	AppVersion string
	AppEnv     string
	AppPort    string

	DBDriver    string
	DatabaseDSN string

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL         string
	RatingEventsConsume bool

	OTLPEndpoint string

	CORSAllowOrigins string

	Admin AdminSeed
}

// AdminSeed describes the bootstrap administrator created at startup when
// Email and Password are both set.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
	Address  string
}

// Enabled reports whether an admin should be seeded.
func (a AdminSeed) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// SetDefaults installs the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "storerating")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=storerating port=5432 sslmode=disable")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RATING_EVENTS_CONSUME", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("ADMIN_NAME", "Platform Administrator")
	v.SetDefault("ADMIN_ADDRESS", "Head office")
}

// FromViper builds and validates a Config from an already populated viper
// instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppName:             v.GetString("APP_NAME"),
		AppVersion:          v.GetString("APP_VERSION"),
		AppEnv:              v.GetString("APP_ENV"),
		AppPort:             v.GetString("APP_PORT"),
		DBDriver:            strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTTTL:              v.GetDuration("JWT_TTL"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		RatingEventsConsume: v.GetBool("RATING_EVENTS_CONSUME"),
		OTLPEndpoint:        v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSAllowOrigins:    v.GetString("CORS_ALLOW_ORIGINS"),
		Admin: AdminSeed{
			Name:     v.GetString("ADMIN_NAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
			Address:  v.GetString("ADMIN_ADDRESS"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("missing JWT_SECRET")
	}
	if cfg.JWTTTL <= 0 {
		return nil, errors.New("JWT_TTL must be a positive duration")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, errors.New("DB_DRIVER must be postgres or sqlite")
	}
	if !strings.HasPrefix(cfg.AppPort, ":") && !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}
	return cfg, nil
}
