// Package logging builds the application logger: human-readable console
// output at info level and, when a log file is configured, a JSON file core
// at the configured level. Debug detail goes to the file only so it does not
// fight the download progress output on the terminal.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ytget/ytd/internal/platform"
)

// New creates the application logger. level applies to the file core;
// the console always stays at info. logFile may be empty to log to the
// console only. Unknown level strings fall back to info.
func New(level, logFile string) (*zap.Logger, error) {
	fileLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		fileLevel = zapcore.InfoLevel
	}

	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), zapcore.InfoLevel),
	}

	if logFile != "" {
		if err := platform.EnsureDir(filepath.Dir(logFile)); err != nil {
			return nil, fmt.Errorf("prepare log dir: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		fileEncoder := zapcore.NewJSONEncoder(fileEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.Lock(f), fileLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	return cfg
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
