package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"pricerelay/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ServiceName is attached to every entry so relay logs can be told apart in a shared sink.
const ServiceName = "pricerelay"

// New builds the relay logger: stdout in the configured format, plus an optional
// rotated JSON file.
func New(opts config.LogConfig) (*zap.Logger, error) {
	lvl, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	format := "json"
	if opts.Environment == "dev" || opts.Format == "console" {
		format = "console"
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(format), zapcore.Lock(os.Stdout), lvl),
	}

	if opts.OutputFile != "" {
		sink, err := rotatingFile(opts)
		if err != nil {
			return nil, err
		}
		// Files are always JSON so they can be shipped as-is.
		cores = append(cores, zapcore.NewCore(newEncoder("json"), sink, lvl))
	}

	fields := []zap.Field{zap.String("service", ServiceName)}
	if opts.Environment != "" {
		fields = append(fields, zap.String("env", opts.Environment))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(fields...),
	), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return lvl, fmt.Errorf("invalid log level: %w", err)
	}
	return lvl, nil
}

func rotatingFile(opts config.LogConfig) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(opts.OutputFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.OutputFile,
		MaxSize:    orDefault(opts.MaxSizeMB, 10),
		MaxBackups: orDefault(opts.MaxBackups, 5),
		MaxAge:     orDefault(opts.MaxAgeDays, 7),
		Compress:   true,
	}), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func newEncoder(format string) zapcore.Encoder {
	if format == "console" {
		return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
}
