package config

import (
	"io"
	"log"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds the process-wide relay configuration.
//
// SecretKey is the only required value: it is consumed exclusively by the
// credential codec and must never be logged or echoed in responses.
type Config struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	// Credential decryption
	SecretKey string `yaml:"-"`

	// Relay behavior
	RelayTimeoutSeconds int   `yaml:"relay_timeout_seconds"`
	MaxBodyBytes        int64 `yaml:"max_body_bytes"`

	// Server
	ServerShutdownTimeoutSeconds int `yaml:"server_shutdown_timeout_seconds"`

	// CORS
	CORSAllowedOrigins string `yaml:"cors_allowed_origins"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

var AppConfig *Config

func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),

		SecretKey: os.Getenv("RELAY_SECRET_KEY"),

		RelayTimeoutSeconds: getEnvAsInt("RELAY_TIMEOUT_SECONDS", 15),
		MaxBodyBytes:        getEnvAsInt64("MAX_BODY_BYTES", 64*1024),

		ServerShutdownTimeoutSeconds: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 30),

		CORSAllowedOrigins: getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),

		MetricsEnabled: getEnvOrDefault("METRICS_ENABLED", "true") == "true",
	}

	// Optional settings file. Environment variables above provide the
	// defaults; the file is only consulted when present.
	configFilePath := getEnvOrDefault("CONFIG_FILE", "config.yaml")
	if configFile, err := os.Open(configFilePath); err == nil {
		defer configFile.Close()

		log.Printf("Loading config file: %v", configFilePath)
		if err := LoadConfigFile(configFile, AppConfig); err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	}

	// The relay cannot decrypt anything without the secret key, so refuse
	// to start rather than serve guaranteed failures.
	if AppConfig.SecretKey == "" {
		log.Fatal("RELAY_SECRET_KEY is required. Set it in the environment or .env file.")
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int64, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func LoadConfigFile(reader io.Reader, config *Config) error {
	decoder := yaml.NewDecoder(reader)

	if err := decoder.Decode(config); err != nil {
		return err
	}

	return nil
}
