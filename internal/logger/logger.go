package logger

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orderdash/orderdash/internal/config"
)

// Module exposes a configured Zap logger to the Fx container.
var Module = fx.Provide(New)

// New builds the process logger. JSON output by default; the console
// encoding (enabled automatically in debug mode) switches to the colored
// development preset. Sync runs on shutdown via the Fx lifecycle.
func New(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	obs := cfg.Observability

	level := zapcore.InfoLevel
	if err := level.Set(obs.LogLevel); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := newEncoderConfig(obs.LogEncoding)
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	logger = logger.With(
		zap.String("service", obs.ServiceName),
		zap.String("environment", obs.Environment),
	)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return logger.Sync()
		},
	})

	return logger, nil
}

func newEncoderConfig(encoding string) zap.Config {
	if encoding == "console" {
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapCfg
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = encoding
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	zapCfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	zapCfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapCfg
}
