// Package logger provides structured logging for patch runs.
package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kvit-s/kvit-patch/internal/config"
)

// Logger provides structured logging for patch operations.
type Logger struct {
	zap  *zap.Logger
	sink *lumberjack.Logger
}

// New creates a Logger that writes to a rotated log file.
// If cfg.File is empty, logging is disabled.
// If cfg.Development is true, uses development encoder config with readable
// keys; otherwise uses the production config. Output is always JSON.
func New(cfg config.LogConfig) (*Logger, error) {
	if cfg.File == "" {
		return Nop(), nil
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Development {
		level = zapcore.DebugLevel
	}

	sink := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(sink),
		level,
	)

	return &Logger{zap: zap.New(core), sink: sink}, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{zap: z}
}

// Close syncs the logger and closes the log file (should be called on shutdown).
func (l *Logger) Close() error {
	_ = l.zap.Sync()
	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}

// PatchParsed logs the outcome of parsing a patch.
func (l *Logger) PatchParsed(diffs, hunks int) {
	l.zap.Info("patch parsed",
		zap.Int("diffs", diffs),
		zap.Int("hunks", hunks),
	)
}

// DiffApplied logs the result of applying one diff to its target.
func (l *Logger) DiffApplied(path string, applied, rejected int, duration time.Duration) {
	l.zap.Info("diff applied",
		zap.String("path", path),
		zap.Int("applied", applied),
		zap.Int("rejected", rejected),
		zap.Duration("duration", duration),
	)
}

// HunkRejected logs a hunk that could not be placed.
func (l *Logger) HunkRejected(path string, index, oldStart int) {
	l.zap.Debug("hunk rejected",
		zap.String("path", path),
		zap.Int("hunk", index),
		zap.Int("old_start", oldStart+1),
	)
}

// FileWritten logs a write-back action on a target.
func (l *Logger) FileWritten(path, action string) {
	l.zap.Info("file written",
		zap.String("path", path),
		zap.String("action", action),
	)
}

// Error logs an error.
func (l *Logger) Error(msg string, err error) {
	l.zap.Error(msg, zap.Error(err))
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}
