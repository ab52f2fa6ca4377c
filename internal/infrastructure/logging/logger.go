package logging

import (
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/config"
)

// ServiceName is the "service" attribute on every entry.
const ServiceName = "graylogic-climate"

// Logger is a slog.Logger that also knows the site's display unit for
// temperatures. Safe for concurrent use.
type Logger struct {
	*slog.Logger
	unit string
}

// New builds a Logger from the logging section of config.yaml.
//
// Parameters:
//   - cfg: Level (debug|info|warn|error), format (json|text), output (stdout|stderr)
//   - version: Build version, attached to every entry
//
// Returns:
//   - *Logger: Celsius display unit until WithTemperatureUnit is called
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(cfg, version, writerFor(cfg.Output))
}

// NewWithWriter is New writing to w; cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	h := handlerFor(cfg.Format, w, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	h = h.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h), unit: config.UnitCelsius}
}

// Default is the pre-config logger: JSON to stdout at info.
func Default() *Logger {
	return NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "dev", os.Stdout)
}

func writerFor(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

func handlerFor(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLevel maps a config level to slog; anything unrecognised is info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// With returns a child Logger carrying args. The display unit is kept.
//
//	wemoLog := log.With("component", "wemo")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), unit: l.unit}
}

// WithTemperatureUnit returns a Logger that renders Temperature attributes in
// unit ("C" or "F"). Anything else means Celsius.
func (l *Logger) WithTemperatureUnit(unit string) *Logger {
	if unit != config.UnitFahrenheit {
		unit = config.UnitCelsius
	}
	return &Logger{Logger: l.Logger, unit: unit}
}

// Temperature returns key/value args for a Celsius reading shown in the
// display unit, rounded to 0.1:
//
//	log.Info("thermostat read", log.Temperature("temperature", 18)...)
//	// temperature=64.4 unit=F
func (l *Logger) Temperature(key string, celsius float64) []any {
	v := celsius
	if l.unit == config.UnitFahrenheit {
		v = celsius*9/5 + 32
	}
	return []any{key, math.Round(v*10) / 10, "unit", l.unit}
}
