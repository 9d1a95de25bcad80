package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"
)

// Logger is a slog.Logger that stamps every record with its component.
type Logger struct {
	*slog.Logger
	// base carries the attributes added through With but no component, so a
	// derived component does not repeat the key.
	base      *slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

// ParseLevel maps debug, info, warn and error onto slog levels. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	base := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level}))
	return &Logger{
		Logger:    base.With(FieldComponent, config.Component),
		base:      base,
		component: config.Component,
	}
}

// Default wraps slog.Default for the given component.
func Default(component string) *Logger {
	base := slog.Default()
	return &Logger{
		Logger:    base.With(FieldComponent, component),
		base:      base,
		component: component,
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		base:      l.base.With(args...),
		component: l.component,
	}
}

// WithComponent derives a logger for a sub-component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.base.With(FieldComponent, component),
		base:      l.base,
		component: component,
	}
}

// Failure logs err at Warn for caller mistakes (not found, insufficient funds,
// validation) and at Error for everything else.
func (l *Logger) Failure(ctx context.Context, msg string, err error, args ...any) {
	kind := core.KindOf(err)
	level := slog.LevelError
	if kind != core.KindInternal {
		level = slog.LevelWarn
	}
	args = append(args, FieldError, err, FieldErrorKind, string(kind))
	l.Logger.Log(ctx, level, msg, args...)
}

// SetDefault makes logger's handler the slog default. Loggers from Default
// then carry their own component.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.base)
}

func (l *Logger) Component() string {
	return l.component
}
