package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	config "github.com/hanpama/docgraph/internal/config"
	eventbus "github.com/hanpama/docgraph/internal/eventbus"
	feed "github.com/hanpama/docgraph/internal/feed"
	graph "github.com/hanpama/docgraph/internal/graph"
	logging "github.com/hanpama/docgraph/internal/logging"
	metrics "github.com/hanpama/docgraph/internal/metrics"
	otel "github.com/hanpama/docgraph/internal/otel"
	registry "github.com/hanpama/docgraph/internal/registry"
	server "github.com/hanpama/docgraph/internal/server"
	store "github.com/hanpama/docgraph/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownGrace = 15 * time.Second

func newServeCmd() *subCommand {
	sc := &subCommand{}
	sc.Cmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP GraphQL gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(sc.Conf)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return errors.Wrapf(err, "listening on %s", cfg.Server.Addr)
			}
			return serve(ctx, ln, cfg, log)
		},
	}
	f := sc.Cmd.Flags()
	f.String("server.addr", config.Defaults["server.addr"].(string), "HTTP listen address")
	f.Duration("server.timeout", config.Defaults["server.timeout"].(time.Duration), "Per-request timeout")
	f.Bool("server.pretty", false, "Pretty-print JSON responses")
	f.StringSlice("server.cors_origins", nil, "Allowed CORS origins; * allows any")
	f.String("store.backend", store.BackendMemory, "Document store: memory, badger, mongo or postgres")
	f.String("store.badger.dir", "", "Badger data directory; empty runs in memory")
	f.String("store.mongo.uri", "", "MongoDB connection string")
	f.String("store.postgres.dsn", "", "PostgreSQL connection string")
	f.String("log.level", "info", "Log level")
	f.String("log.format", "json", "Log format: json or console")
	f.String("otel.endpoint", "", "OTLP gRPC collector endpoint; empty disables tracing")
	f.StringSlice("kafka.brokers", nil, "Kafka brokers for the change feed; empty disables it")
	return sc
}

// serve runs the gateway on ln until ctx is done, then drains in-flight
// requests and releases the store.
func serve(ctx context.Context, ln net.Listener, cfg config.Config, log *zap.Logger) error {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	defer logging.Subscribe(log)()

	shutdownTracing, err := otel.Setup(ctx, cfg.Otel)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	var metricsHandler http.Handler
	if cfg.Server.Metrics {
		m := metrics.New()
		defer m.Subscribe()()
		metricsHandler = m.Handler()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := feed.New(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn("closing change feed", zap.Error(err))
			}
		}()
		defer pub.Subscribe()()
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "opening store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("closing store", zap.Error(err))
		}
	}()

	gw, err := graph.New(st, registry.WithMaxConcurrency(cfg.Executor.MaxConcurrency))
	if err != nil {
		return errors.Wrap(err, "building schema")
	}

	opts := []server.Option{server.WithTimeout(cfg.Server.Timeout), server.WithMaxBodyBytes(cfg.Server.MaxBody)}
	if cfg.Server.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	srv := &http.Server{
		Handler:           server.NewMux(server.New(gw, opts...), st, metricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Info("docgraph listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("store", cfg.Store.Backend))

	select {
	case err := <-errc:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}
