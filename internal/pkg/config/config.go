package config

import (
	"fmt"
	"os"
	"strconv"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type SearchConfig struct {
	MaxBoundsSpanDegrees float64
	MaxBoundsResults     int
	DefaultRadiusKm      float64
	MaxRadiusKm          float64
	DefaultLimit         int
	MaxLimit             int
	DefaultSuggestions   int
	MaxSuggestions       int
}

type PhotoStorageConfig struct {
	Endpoint string
	Token    string
}

type AuthConfig struct {
	// Mode selects the identity resolver: "header" trusts the X-User-Id
	// header verbatim, "jwt" verifies a bearer token.
	Mode      string
	JWTSecret string
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type Config struct {
	Repositories RepositoriesConfig
	Search       SearchConfig
	PhotoStorage PhotoStorageConfig
	Auth         AuthConfig
	ServerPort   string
	MetricsPort  string
	PprofPort    string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "roamlog"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		Search: SearchConfig{
			MaxBoundsSpanDegrees: getEnvFloat("SEARCH_MAX_BOUNDS_SPAN", 10.0),
			MaxBoundsResults:     getEnvInt("SEARCH_MAX_BOUNDS_RESULTS", 200),
			DefaultRadiusKm:      50,
			MaxRadiusKm:          500,
			DefaultLimit:         50,
			MaxLimit:             100,
			DefaultSuggestions:   10,
			MaxSuggestions:       20,
		},
		PhotoStorage: PhotoStorageConfig{
			Endpoint: getEnvOrDefault("PHOTO_STORAGE_URL", "http://localhost:9000/photos"),
			Token:    os.Getenv("PHOTO_STORAGE_TOKEN"),
		},
		Auth: AuthConfig{
			Mode:      getEnvOrDefault("AUTH_MODE", "header"),
			JWTSecret: os.Getenv("JWT_SECRET_KEY"),
		},
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8080"),
		MetricsPort: getEnvOrDefault("METRICS_PORT", "9092"),
		PprofPort:   getEnvOrDefault("PPROF_PORT", "6060"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.Auth.Mode == "jwt" && cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required when AUTH_MODE=jwt")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
