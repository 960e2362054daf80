// Package config provides configuration management for the engine
// server and CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Engine  EngineConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORS            bool
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level string
}

// EngineConfig holds the scheduler's tunables: worker pool size, default
// per-node timeout, the loop-iteration safety cap, and the dev-mode
// inspector toggle.
type EngineConfig struct {
	WorkerPoolSize      int
	DefaultNodeTimeout  time.Duration
	DefaultMergeTimeout time.Duration
	MaxLoopIterations   int
	DevMode             bool
}

// Load loads the configuration from environment variables, applying a
// .env file if present.
func Load() (*Config, error) {
	godotenv.Load()
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("ENGINE_PORT", 8585),
			Host:            getEnv("ENGINE_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("ENGINE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("ENGINE_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("ENGINE_SHUTDOWN_TIMEOUT", 30*time.Second),
			CORS:            getEnvAsBool("ENGINE_CORS_ENABLED", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("ENGINE_LOG_LEVEL", "info"),
		},
		Engine: EngineConfig{
			WorkerPoolSize:      getEnvAsInt("ENGINE_WORKER_POOL_SIZE", 0),
			DefaultNodeTimeout:  getEnvAsDuration("ENGINE_DEFAULT_NODE_TIMEOUT", 0),
			DefaultMergeTimeout: getEnvAsDuration("ENGINE_DEFAULT_MERGE_TIMEOUT", 30*time.Second),
			MaxLoopIterations:   getEnvAsInt("ENGINE_MAX_LOOP_ITERATIONS", 10000),
			DevMode:             getEnvAsBool("ENGINE_DEV_MODE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Engine.WorkerPoolSize < 0 {
		return fmt.Errorf("engine worker pool size cannot be negative")
	}

	if c.Engine.MaxLoopIterations < 1 {
		return fmt.Errorf("engine max loop iterations must be at least 1")
	}

	return nil
}

// Helper functions for environment variables.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
