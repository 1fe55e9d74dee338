package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stadium-ops/event-gateway/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// ProvideLogger builds the process logger. The level sits behind a LevelVar
// so a config hot-reload can tighten or loosen logging live.
func ProvideLogger(cfg *config.Config) *slog.Logger {
	level := &slog.LevelVar{}
	level.Set(parseLevel(cfg.Log.Level))

	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler).With("service", ServiceName)
	slog.SetDefault(logger)

	cfg.WatchLogLevel(func(s string) {
		level.Set(parseLevel(s))
		logger.Info("log level changed", "level", s)
	})

	return logger
}

// ProvideWatermillLogger bridges the pipeline's logging into slog.
func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

// ProvideTracer wires the otel tracer. Disabled tracing yields a noop
// tracer; enabled tracing exports spans to stdout.
func ProvideTracer(lc fx.Lifecycle, cfg *config.Config) (trace.Tracer, error) {
	if !cfg.Trace.Enabled {
		return noop.NewTracerProvider().Tracer(ServiceName), nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp.Tracer(ServiceName), nil
}
