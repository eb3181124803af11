// pkg/logger/logger.go
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger construction
type Config struct {
	ServiceName string
	Development bool
	Level       string

	// FilePath enables a rotated JSON log file next to stdout
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewLogger creates a new structured logger
func NewLogger(serviceName string) *zap.Logger {
	return build(productionConfig(serviceName))
}

// New builds a logger from cfg. With a file path set, entries are also
// written as JSON to a lumberjack-rotated file.
func New(cfg Config) *zap.Logger {
	config := productionConfig(cfg.ServiceName)
	if cfg.Development {
		config = developmentConfig(cfg.ServiceName)
	}
	if cfg.Level != "" {
		config.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	}

	logger := build(config)
	if cfg.FilePath == "" {
		return logger
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})

	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, config.Level).
		With([]zapcore.Field{zap.String("service", cfg.ServiceName)})

	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}

func productionConfig(serviceName string) zap.Config {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}
	return config
}

func developmentConfig(serviceName string) zap.Config {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}
	return config
}

func build(config zap.Config) *zap.Logger {
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
