package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PYTHON_BIN", "")
	t.Setenv("NODE_BIN", "")
	t.Setenv("TSNODE_BIN", "")
	t.Setenv("MAX_CONCURRENT_EVALS", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := FromEnv()
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "python3", cfg.PythonBin)
	assert.Equal(t, "node", cfg.NodeBin)
	assert.Equal(t, "ts-node", cfg.TSNodeBin)
	assert.EqualValues(t, 32, cfg.MaxConcurrentEvals)
	assert.Empty(t, cfg.RedisAddr)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", "0.0.0.0:9090")
	t.Setenv("MAX_CONCURRENT_EVALS", "8")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := FromEnv()
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.EqualValues(t, 8, cfg.MaxConcurrentEvals)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestFromEnvIgnoresInvalidInt(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_EVALS", "not-a-number")
	cfg := FromEnv()
	assert.EqualValues(t, 32, cfg.MaxConcurrentEvals)
}
