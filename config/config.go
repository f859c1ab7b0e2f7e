package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	APIPort int

	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// Oracle configuration
	Oracle OracleConfig

	// Feed configuration
	Feed FeedConfig

	// Curation configuration
	Curation CurationConfig
}

// OracleConfig holds the intelligence oracle (LLM) service configuration
type OracleConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Model    string
}

// FeedConfig holds the upstream raw-signal feed configuration
type FeedConfig struct {
	Enabled bool
	URL     string
	Token   string
}

// CurationConfig holds pipeline gating parameters and toggles
type CurationConfig struct {
	// Gate defaults; mutable at runtime through the calibration engine
	ImpactThreshold float64
	CredibilityBias float64

	// Poster generation for new stories (best-effort side call)
	PosterEnabled bool

	// Cache TTL for oracle stage responses, in minutes
	OracleCacheTTLMinutes int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		APIPort: getEnvInt("API_PORT", 8080),

		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "signal_desk"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "signal_desk"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "signal_desk123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		// Oracle configuration
		Oracle: OracleConfig{
			Enabled:  getEnvOrDefault("ORACLE_ENABLED", "true") == "true",
			Endpoint: getEnvOrDefault("ORACLE_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:   getEnvOrDefault("ORACLE_API_KEY", ""),
			Model:    getEnvOrDefault("ORACLE_MODEL", "gpt-4o-mini"),
		},

		// Feed configuration
		Feed: FeedConfig{
			Enabled: getEnvOrDefault("FEED_ENABLED", "false") == "true",
			URL:     getEnvOrDefault("FEED_WS_URL", "wss://feed.signal-desk.local/ws"),
			Token:   getEnvOrDefault("FEED_TOKEN", ""),
		},

		// Curation configuration
		Curation: CurationConfig{
			ImpactThreshold:       getEnvFloat("CURATION_IMPACT_THRESHOLD", 60.0),
			CredibilityBias:       getEnvFloat("CURATION_CREDIBILITY_BIAS", 0.05),
			PosterEnabled:         getEnvOrDefault("CURATION_POSTER_ENABLED", "true") == "true",
			OracleCacheTTLMinutes: getEnvInt("CURATION_ORACLE_CACHE_TTL", 30),
		},
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
