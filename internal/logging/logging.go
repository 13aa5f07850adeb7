// Package logging builds the zap loggers used across a PDF build.
// Console output goes to stderr; an optional log file is rotated by
// lumberjack.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrInvalidLevel indicates an unknown log level name.
var ErrInvalidLevel = errors.New("invalid log level")

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the logger configuration.
type Config struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string `yaml:"level"`
	// Format is the output format (text, json).
	Format string `yaml:"format"`
	// File is an optional log file written in addition to stderr.
	File string `yaml:"file"`
	// MaxSize is the size in megabytes before the log file is rotated.
	MaxSize int `yaml:"max_size"`
	// MaxAge is the number of days rotated files are kept.
	MaxAge int `yaml:"max_age"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `yaml:"max_backups"`
	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

// Rotation defaults.
const (
	defaultMaxSize    = 10
	defaultMaxAge     = 7
	defaultMaxBackups = 3
)

// New builds a logger writing to stderr, teed to cfg.File when set.
func New(cfg Config) (*zap.Logger, error) {
	return build(cfg, zapcore.Lock(os.Stderr))
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// build assembles the cores on top of the given console writer.
func build(cfg Config, console zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(cfg.Format, true), console, level)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		fileCore := zapcore.NewCore(newEncoder(cfg.Format, false), zapcore.AddSync(rotatingWriter(cfg)), level)
		core = zapcore.NewTee(core, fileCore)
	}

	return zap.New(core, zap.AddCaller()), nil
}

func rotatingWriter(cfg Config) io.Writer {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxSize
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultMaxAge
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = defaultMaxBackups
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
}

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
}

func newEncoder(format string, color bool) zapcore.Encoder {
	if format == FormatJSON {
		return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		})
	}

	levelEncoder := bracketLevelEncoder
	if color {
		levelEncoder = bracketColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          zapcore.OmitKey,
		CallerKey:        zapcore.OmitKey,
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levelEncoder,
		EncodeTime:       bracketTimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})
}

// bracketTimeEncoder formats time as [2006-01-02 15:04:05].
func bracketTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format("2006-01-02 15:04:05") + "]")
}

func bracketLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

func bracketColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch level {
	case zapcore.DebugLevel:
		color = "\x1b[35m"
	case zapcore.InfoLevel:
		color = "\x1b[34m"
	case zapcore.WarnLevel:
		color = "\x1b[33m"
	default:
		color = "\x1b[31m"
	}
	enc.AppendString(color + "[" + level.CapitalString() + "]\x1b[0m")
}
