// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
)

// LogOptions selects the sinks of the CLI logger. stdout is never used so that
// task output stays machine readable.
type LogOptions struct {
	// File receives JSON logs at info level (debug when Verbose), rotated by size.
	File string
	// Verbose adds a human readable debug sink on Stderr.
	Verbose bool
	Stderr  io.Writer
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.TimeKey = "ts"
	return cfg
}

// NewLogger builds the CLI logger. The returned close function flushes and
// releases the log file.
func NewLogger(opts LogOptions) (*zap.Logger, func() error, error) {
	var cores []zapcore.Core
	closeFn := func() error { return nil }

	fileLevel := zapcore.InfoLevel
	if opts.Verbose {
		fileLevel = zapcore.DebugLevel
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		writer := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(writer), fileLevel))
		closeFn = writer.Close
	}
	if opts.Verbose {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		consoleCfg := encoderConfig()
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(stderr), zapcore.DebugLevel))
	}
	if len(cores) == 0 {
		return zap.NewNop(), closeFn, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger, func() error {
		_ = logger.Sync()
		return closeFn()
	}, nil
}
