// Package logger owns the process-wide zap logger. Records go to a rotating
// JSON file and, outside production, to a coloured console as well.
package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Dir        string // log directory, created when missing
	Level      string // debug, info, warn or error
	Production bool   // file output only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func DefaultOptions() Options {
	return Options{
		Dir:        "logs",
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 28,
	}
}

var (
	mu     sync.Mutex
	logger *zap.Logger
)

// Init builds the process logger from opts. It replaces any logger built
// earlier, including the lazy default.
func Init(opts Options) error {
	l, err := build(opts)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

func build(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
		return nil, err
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "app.log"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(logFile), level)

	if opts.Production {
		return zap.New(fileCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), zap.DebugLevel)
	return zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func getLogger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		l, err := build(DefaultOptions())
		if err != nil {
			l = zap.NewExample()
			l.Warn("falling back to stdout logger", zap.Error(err))
		}
		logger = l
	}
	return logger
}

func GetLogger() *zap.Logger {
	return getLogger().Named("default")
}

func GetLoggerWith(name string, fields ...zap.Field) *zap.Logger {
	return getLogger().Named(name).With(fields...)
}

// Sync flushes buffered records; call it before exit.
func Sync() {
	_ = getLogger().Sync()
}

func SetTestCaptureLogger(buf *bytes.Buffer, level zapcore.Level) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(buf), level)

	mu.Lock()
	logger = zap.New(core)
	mu.Unlock()
}

func SetTestLoggerNop() {
	mu.Lock()
	logger = zap.NewNop()
	mu.Unlock()
}
