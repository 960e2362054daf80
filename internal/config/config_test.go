package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Load_DefaultValues(t *testing.T) {
	clearEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, 8585, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Server.CORS)

	assert.Equal(t, "info", cfg.Logging.Level)

	assert.Equal(t, 0, cfg.Engine.WorkerPoolSize)
	assert.Equal(t, time.Duration(0), cfg.Engine.DefaultNodeTimeout)
	assert.Equal(t, 30*time.Second, cfg.Engine.DefaultMergeTimeout)
	assert.Equal(t, 10000, cfg.Engine.MaxLoopIterations)
	assert.False(t, cfg.Engine.DevMode)
}

func TestConfig_Load_CustomValues(t *testing.T) {
	clearEnv()

	os.Setenv("ENGINE_PORT", "9090")
	os.Setenv("ENGINE_HOST", "127.0.0.1")
	os.Setenv("ENGINE_READ_TIMEOUT", "30s")
	os.Setenv("ENGINE_CORS_ENABLED", "false")
	os.Setenv("ENGINE_LOG_LEVEL", "debug")
	os.Setenv("ENGINE_WORKER_POOL_SIZE", "8")
	os.Setenv("ENGINE_DEFAULT_NODE_TIMEOUT", "5s")
	os.Setenv("ENGINE_MAX_LOOP_ITERATIONS", "100")
	os.Setenv("ENGINE_DEV_MODE", "true")
	defer clearEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.Server.CORS)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Engine.WorkerPoolSize)
	assert.Equal(t, 5*time.Second, cfg.Engine.DefaultNodeTimeout)
	assert.Equal(t, 100, cfg.Engine.MaxLoopIterations)
	assert.True(t, cfg.Engine.DevMode)
}

func TestConfig_Load_InvalidValuesUsesDefaults(t *testing.T) {
	clearEnv()

	os.Setenv("ENGINE_PORT", "invalid")
	os.Setenv("ENGINE_READ_TIMEOUT", "invalid_duration")
	os.Setenv("ENGINE_CORS_ENABLED", "not_a_bool")
	defer clearEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8585, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Server.CORS)
}

func TestConfig_Validate_Success(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Level: "info"},
		Engine:  EngineConfig{MaxLoopIterations: 10},
	}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	tests := []int{0, -1, 65536, 100000}
	for _, port := range tests {
		cfg := &Config{
			Server:  ServerConfig{Port: port},
			Logging: LoggingConfig{Level: "info"},
			Engine:  EngineConfig{MaxLoopIterations: 10},
		}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid port")
	}
}

func TestConfig_Validate_ValidPorts(t *testing.T) {
	for _, port := range []int{1, 80, 443, 8080, 8585, 65535} {
		cfg := &Config{
			Server:  ServerConfig{Port: port},
			Logging: LoggingConfig{Level: "info"},
			Engine:  EngineConfig{MaxLoopIterations: 10},
		}
		assert.NoError(t, cfg.Validate())
	}
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "verbose", "critical", "invalid", ""} {
		cfg := &Config{
			Server:  ServerConfig{Port: 8080},
			Logging: LoggingConfig{Level: level},
			Engine:  EngineConfig{MaxLoopIterations: 10},
		}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	}
}

func TestConfig_Validate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := &Config{
			Server:  ServerConfig{Port: 8080},
			Logging: LoggingConfig{Level: level},
			Engine:  EngineConfig{MaxLoopIterations: 10},
		}
		assert.NoError(t, cfg.Validate())
	}
}

func TestConfig_Validate_NegativeWorkerPool(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Level: "info"},
		Engine:  EngineConfig{WorkerPoolSize: -1, MaxLoopIterations: 10},
	}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "worker pool size")
}

func TestConfig_Validate_InvalidMaxLoopIterations(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Level: "info"},
		Engine:  EngineConfig{MaxLoopIterations: 0},
	}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max loop iterations")
}

func TestGetEnv_WithValue(t *testing.T) {
	os.Setenv("TEST_KEY", "test_value")
	defer os.Unsetenv("TEST_KEY")
	assert.Equal(t, "test_value", getEnv("TEST_KEY", "default"))
}

func TestGetEnv_WithoutValue(t *testing.T) {
	os.Unsetenv("TEST_KEY")
	assert.Equal(t, "default", getEnv("TEST_KEY", "default"))
}

func TestGetEnvAsInt_ValidInteger(t *testing.T) {
	os.Setenv("TEST_INT", "42")
	defer os.Unsetenv("TEST_INT")
	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 10))
}

func TestGetEnvAsInt_InvalidInteger(t *testing.T) {
	os.Setenv("TEST_INT", "not_a_number")
	defer os.Unsetenv("TEST_INT")
	assert.Equal(t, 10, getEnvAsInt("TEST_INT", 10))
}

func TestGetEnvAsBool_True(t *testing.T) {
	for _, value := range []string{"true", "True", "TRUE", "1", "t", "T"} {
		os.Setenv("TEST_BOOL", value)
		assert.True(t, getEnvAsBool("TEST_BOOL", false))
	}
	os.Unsetenv("TEST_BOOL")
}

func TestGetEnvAsBool_Invalid(t *testing.T) {
	os.Setenv("TEST_BOOL", "invalid")
	defer os.Unsetenv("TEST_BOOL")
	assert.True(t, getEnvAsBool("TEST_BOOL", true))
}

func TestGetEnvAsDuration_Valid(t *testing.T) {
	os.Setenv("TEST_DURATION", "1h30m")
	defer os.Unsetenv("TEST_DURATION")
	assert.Equal(t, 90*time.Minute, getEnvAsDuration("TEST_DURATION", 10*time.Second))
}

func TestGetEnvAsDuration_Invalid(t *testing.T) {
	os.Setenv("TEST_DURATION", "invalid")
	defer os.Unsetenv("TEST_DURATION")
	assert.Equal(t, 10*time.Second, getEnvAsDuration("TEST_DURATION", 10*time.Second))
}

func clearEnv() {
	envVars := []string{
		"ENGINE_PORT", "ENGINE_HOST", "ENGINE_READ_TIMEOUT", "ENGINE_WRITE_TIMEOUT",
		"ENGINE_SHUTDOWN_TIMEOUT", "ENGINE_CORS_ENABLED", "ENGINE_LOG_LEVEL",
		"ENGINE_WORKER_POOL_SIZE", "ENGINE_DEFAULT_NODE_TIMEOUT", "ENGINE_DEFAULT_MERGE_TIMEOUT",
		"ENGINE_MAX_LOOP_ITERATIONS", "ENGINE_DEV_MODE",
	}
	for _, key := range envVars {
		os.Unsetenv(key)
	}
}
