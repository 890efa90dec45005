// Package logging builds the process logger and logs eventbus traffic.
package logging

import (
	"context"
	"os"

	eventbus "github.com/hanpama/docgraph/internal/eventbus"
	events "github.com/hanpama/docgraph/internal/events"
	reqid "github.com/hanpama/docgraph/internal/reqid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level and encoding ("json" or "console").
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New builds a logger writing to stderr.
func New(cfg Config) (*zap.Logger, error) {
	return NewWithSink(cfg, zapcore.Lock(os.Stderr))
}

// NewWithSink builds a logger writing to w.
func NewWithSink(cfg Config, w zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, errors.Wrapf(err, "log level %q", cfg.Level)
		}
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch cfg.Format {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.Format)
	}
	return zap.New(zapcore.NewCore(enc, w, level)), nil
}

func requestField(ctx context.Context) zap.Field {
	rid, _ := reqid.FromContext(ctx)
	return zap.String("request_id", rid)
}

// Subscribe logs HTTP requests, GraphQL operations, failed store calls
// and resolver panics.
func Subscribe(l *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			l.Info("http request",
				requestField(ctx),
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Int("operations", e.Operations),
				zap.Duration("duration", e.Duration))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			fields := []zap.Field{
				requestField(ctx),
				zap.String("operation", e.OperationName),
				zap.String("type", e.OperationType),
				zap.Duration("duration", e.Duration),
			}
			switch {
			case e.Rejected:
				l.Info("graphql document rejected", append(fields, zap.Errors("errors", e.Errors))...)
			case len(e.Errors) > 0:
				l.Warn("graphql operation finished with errors", append(fields, zap.Int("error_count", len(e.Errors)), zap.Error(e.Errors[0]))...)
			default:
				l.Debug("graphql operation", fields...)
			}
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.StoreCall) {
			if e.Err == nil {
				return
			}
			l.Warn("store call failed",
				requestField(ctx),
				zap.String("collection", e.Collection),
				zap.String("op", string(e.Op)),
				zap.String("id", e.ID),
				zap.Duration("duration", e.Duration),
				zap.Error(e.Err))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.ResolverPanic) {
			l.Error("resolver panic",
				requestField(ctx),
				zap.String("field", e.ObjectType+"."+e.Field),
				zap.Any("panic", e.Value),
				zap.ByteString("stack", e.Stack))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
