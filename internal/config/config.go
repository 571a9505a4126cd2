// Package config reads the handful of environment variables this
// service honors. Following the teacher's own style (cmd/zmux-server/main.go
// reads LOG_LEVEL/ENV directly via os.Getenv rather than a config file),
// no config-file library is introduced here.
package config

import (
	"os"
	"strconv"
)

// Config holds the service's runtime knobs.
type Config struct {
	Addr               string
	LogLevel           string
	PythonBin          string
	NodeBin            string
	TSNodeBin          string
	MaxConcurrentEvals int64
	RedisAddr          string // empty disables the verdict cache
}

// FromEnv builds a Config from the process environment, applying the
// same defaults the original service shipped with.
func FromEnv() Config {
	return Config{
		Addr:               getenv("ADDR", "127.0.0.1:8080"),
		LogLevel:           getenv("LOG_LEVEL", "INFO"),
		PythonBin:          getenv("PYTHON_BIN", "python3"),
		NodeBin:            getenv("NODE_BIN", "node"),
		TSNodeBin:          getenv("TSNODE_BIN", "ts-node"),
		MaxConcurrentEvals: getenvInt64("MAX_CONCURRENT_EVALS", 32),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
