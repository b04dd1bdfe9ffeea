package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amoylab/casamento/internal/common/cnst"
	"github.com/amoylab/casamento/internal/common/config"
	"github.com/amoylab/casamento/pkg/version"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger. Every entry carries the app name
// and build version.
func NewLogger(cfg *config.LoggerConfig) (*zap.Logger, error) {
	applyDefaults(cfg)

	out, err := writer(cfg)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder(cfg), out, parseLevel(cfg.Level))

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Stacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...).With(
		zap.String("app", cnst.AppName),
		zap.String("version", strings.TrimSpace(version.Get())),
	), nil
}

func applyDefaults(cfg *config.LoggerConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 7
	}
}

func encoder(cfg *config.LoggerConfig) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder

	if cfg.Format == "console" {
		if cfg.Color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			ec.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// writer returns stdout, or a size-rotated file when output is file
func writer(cfg *config.LoggerConfig) (zapcore.WriteSyncer, error) {
	switch cfg.Output {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("logger.file_path is required when output is file")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			LocalTime:  true,
			Compress:   cfg.Compress,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported logger output %q", cfg.Output)
	}
}

// parseLevel falls back to info for unknown names and levels above fatal
func parseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl > zapcore.FatalLevel {
		return zapcore.InfoLevel
	}
	return lvl
}
