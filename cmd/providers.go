package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/opsboard/dashboard-stream-service/config"
	"github.com/opsboard/dashboard-stream-service/internal/dashboard"
)

var logLevel = new(slog.LevelVar)

// ProvideLogger builds the process logger. The level is held in a LevelVar
// so a config-file change can adjust it without a restart.
func ProvideLogger(cfg *config.Config) *slog.Logger {
	logLevel.Set(parseLevel(cfg.Log.Level))

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", cfg.Service.Name)
	slog.SetDefault(logger)
	return logger
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

// ProvideAnalytics supplies the analytics collaborator. The default returns
// zeroed figures; deployments override this provider with a client for
// their reporting store.
func ProvideAnalytics() dashboard.AnalyticsProvider {
	return dashboard.NewEmptyProvider()
}

// SetLogLevel is the hot-reload hook used by the config watcher.
func SetLogLevel(level string) {
	logLevel.Set(parseLevel(level))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
