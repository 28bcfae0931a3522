package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Mongo     MongoConfig
	Auth      AuthConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace int
}

type MongoConfig struct {
	URI      string
	Database string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type KafkaConfig struct {
	Brokers []string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort       = 8080
	defaultShutdownGrace  = 15
	defaultMongoURI       = "mongodb://localhost:27017"
	defaultMongoDatabase  = "bookstore"
	defaultTokenTTL       = 24 * time.Hour
	defaultServiceName    = "bookstore-api"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultOTelSampleRate = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	mongoCfg := loadMongoConfig()

	authCfg, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("loading auth config: %w", err)
	}

	kafkaCfg := loadKafkaConfig()
	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	serviceCfg := loadServiceConfig()

	return &Config{
		HTTP:      httpCfg,
		Mongo:     mongoCfg,
		Auth:      authCfg,
		Kafka:     kafkaCfg,
		Telemetry: telCfg,
		Service:   serviceCfg,
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port := defaultHTTPPort
	if value, ok := os.LookupEnv("API_HTTP_PORT"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_HTTP_PORT: %w", err)
		}
		port = parsed
	}

	shutdownGrace := defaultShutdownGrace
	if value, ok := os.LookupEnv("API_SHUTDOWN_GRACE_SECONDS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_SHUTDOWN_GRACE_SECONDS: %w", err)
		}
		shutdownGrace = parsed
	}

	return HTTPConfig{
		Port:          port,
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadMongoConfig() MongoConfig {
	return MongoConfig{
		URI:      getEnvOrDefault("MONGO_URI", defaultMongoURI),
		Database: getEnvOrDefault("MONGO_DATABASE", defaultMongoDatabase),
	}
}

func loadAuthConfig() (AuthConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("JWT_SECRET is required")
	}

	ttl := defaultTokenTTL
	if value, ok := os.LookupEnv("JWT_TOKEN_TTL"); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("invalid JWT_TOKEN_TTL: %w", err)
		}
		ttl = parsed
	}

	cost := 0 // zero lets bcrypt pick its default cost
	if value, ok := os.LookupEnv("BCRYPT_COST"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cost = parsed
	}

	return AuthConfig{
		JWTSecret:  secret,
		TokenTTL:   ttl,
		BcryptCost: cost,
	}, nil
}

func loadKafkaConfig() KafkaConfig {
	var brokers []string
	if value, ok := os.LookupEnv("KAFKA_BROKERS"); ok && value != "" {
		brokers = strings.Split(value, ",")
	}

	return KafkaConfig{
		Brokers: brokers,
	}
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	logLevel := getEnvOrDefault("LOG_LEVEL", defaultLogLevel)
	otelEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	enableTracing := getBoolEnv("OTEL_ENABLE_TRACING", true)
	enableMetrics := getBoolEnv("OTEL_ENABLE_METRICS", true)

	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      logLevel,
		OTelEndpoint:  otelEndpoint,
		EnableTracing: enableTracing,
		EnableMetrics: enableMetrics,
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}
