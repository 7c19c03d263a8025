package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerProvider exports zap records to an OTLP collector
type LoggerProvider struct {
	provider    *sdklog.LoggerProvider
	serviceName string
}

// NewLoggerProvider creates an OTLP log provider and installs it globally
func NewLoggerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(provider)
	return &LoggerProvider{provider: provider, serviceName: cfg.ServiceName}, nil
}

// Bridge returns a copy of logger that also writes to the OTLP provider
func (lp *LoggerProvider) Bridge(logger *zap.Logger) *zap.Logger {
	if lp == nil || lp.provider == nil {
		return logger
	}
	otelCore := otelzap.NewCore(lp.serviceName, otelzap.WithLoggerProvider(lp.provider))
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelCore)
	}))
}

// Shutdown flushes pending records
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp == nil || lp.provider == nil {
		return nil
	}
	return lp.provider.Shutdown(ctx)
}
