package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds change-feed and payment-consumer settings.
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	GroupPrefix string
}

// JWTConfig holds the HS256 secret guarding write endpoints. Empty disables auth.
type JWTConfig struct {
	Secret string
}

// TracingConfig holds the OTLP collector endpoint. Empty disables tracing.
type TracingConfig struct {
	Endpoint string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	Store         string
	DBConfig      DatabaseConfig
	KafkaConfig   KafkaConfig
	JWTConfig     JWTConfig
	TracingConfig TracingConfig
	CORSOrigins   []string
}

// Load reads configuration from environment variables prefixed with BOOKING_,
// after loading a .env file from the working directory if one exists.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()
	return load(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service_port", ":8000")
	v.SetDefault("app_env", "development")
	v.SetDefault("store", StorePostgres)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "booking_db")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("kafka_enabled", false)
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_group_prefix", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("cors_origins", "http://localhost:3000,http://localhost:5173")
	return v
}

func load(v *viper.Viper) (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		Port:   v.GetString("service_port"),
		AppEnv: v.GetString("app_env"),
		Store:  strings.ToLower(v.GetString("store")),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			DBName:   v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		KafkaConfig: KafkaConfig{
			Enabled:     v.GetBool("kafka_enabled"),
			Brokers:     splitList(v.GetString("kafka_brokers")),
			GroupPrefix: v.GetString("kafka_group_prefix"),
		},
		JWTConfig:     JWTConfig{Secret: v.GetString("jwt_secret")},
		TracingConfig: TracingConfig{Endpoint: v.GetString("otel_endpoint")},
		CORSOrigins:   splitList(v.GetString("cors_origins")),
	}

	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	switch cfg.Store {
	case StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported store %q: want %s or %s", cfg.Store, StorePostgres, StoreMemory)
	}
	if cfg.KafkaConfig.Enabled && len(cfg.KafkaConfig.Brokers) == 0 {
		return nil, fmt.Errorf("kafka is enabled but no brokers are configured")
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
