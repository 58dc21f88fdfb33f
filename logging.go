package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration
type LogConfig struct {
	File  string // rolling log file, empty for stdout only
	Debug bool
}

func (cfg AppConfig) toLogConfig() LogConfig {
	return LogConfig{File: cfg.LogFile, Debug: cfg.LogDebug || cfg.Dev}
}

// newLogger writes console-encoded logs to stdout and, when configured, to a
// rolling file.
func newLogger(cfg LogConfig) (*zap.SugaredLogger, func()) {
	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	var rolling *lumberjack.Logger
	if cfg.File != "" {
		rolling = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		sinks = append(sinks, zapcore.AddSync(rolling))
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.NewMultiWriteSyncer(sinks...), level)
	log := zap.New(core, zap.AddCaller()).Sugar()
	return log, func() {
		_ = log.Sync()
		if rolling != nil {
			rolling.Close()
		}
	}
}
