package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edirooss/codeeval-server/internal/config"
	"github.com/edirooss/codeeval-server/internal/dispatch"
	"github.com/edirooss/codeeval-server/internal/evalrunner"
	"github.com/edirooss/codeeval-server/internal/httpapi"
	"github.com/edirooss/codeeval-server/internal/verdictcache"
)

func main() {
	cfg := config.FromEnv()

	log := buildLogger(cfg.LogLevel)
	defer log.Sync()
	log = log.Named("main")

	dispatcher := &dispatch.Dispatcher{
		Python:     &evalrunner.PythonRunner{Log: log, PythonBin: cfg.PythonBin},
		JavaScript: &evalrunner.JavaScriptRunner{Log: log, NodeBin: cfg.NodeBin},
		TypeScript: &evalrunner.TypeScriptRunner{Log: log, TSNode: cfg.TSNodeBin},
	}

	var cache *verdictcache.Cache
	if cfg.RedisAddr != "" {
		cache = verdictcache.New(cfg.RedisAddr, log, 24*time.Hour)
		defer cache.Close()
	}

	server := httpapi.New(log, httpapi.Options{
		Addr:               cfg.Addr,
		Dispatcher:         dispatcher,
		Cache:              cache,
		MaxConcurrentEvals: cfg.MaxConcurrentEvals,
		DevCORS:            os.Getenv("ENV") == "dev",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func buildLogger(level string) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zap.InfoLevel
	}
	logConfig.Level.SetLevel(lvl)

	return zap.Must(logConfig.Build())
}
