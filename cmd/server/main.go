package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"orgtrakker/internal/audit"
	"orgtrakker/internal/audit/relay"
	"orgtrakker/internal/audit/sink/kafka"
	"orgtrakker/internal/audit/sink/memory"
	"orgtrakker/internal/audit/sink/sqlsink"
	"orgtrakker/internal/platform/config"
	"orgtrakker/internal/platform/httpserver"
	"orgtrakker/internal/platform/logger"
	"orgtrakker/internal/platform/metrics"
	"orgtrakker/internal/platform/redis"
	recordshandler "orgtrakker/internal/records/handler"
	recordsmetrics "orgtrakker/internal/records/metrics"
	recordsservice "orgtrakker/internal/records/service"
	"orgtrakker/internal/tenant"
	tenantmetrics "orgtrakker/internal/tenant/metrics"
	tenantservice "orgtrakker/internal/tenant/service"
	httptransport "orgtrakker/internal/transport/http"
	"orgtrakker/internal/validation"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("orgtrakker stopped", "error", err)
		os.Exit(1)
	}
}

// run wires dependencies and blocks until ctx is canceled or a background
// component fails.
func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	registry, err := tenant.LoadRegistry(cfg.TenantsFile)
	if err != nil {
		return fmt.Errorf("load tenants: %w", err)
	}

	health := map[string]httptransport.HealthCheck{}
	factoryOpts := []tenantservice.FactoryOption{tenantservice.WithFactoryLogger(log)}
	if cfg.BootstrapSchema {
		factoryOpts = append(factoryOpts, tenantservice.WithSchemaBootstrap())
	}
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		health["redis"] = redisClient.Health
		factoryOpts = append(factoryOpts, tenantservice.WithTemplateCache(redisClient, cfg.Redis.TemplateTTL))
		log.Info("template cache enabled", "ttl", cfg.Redis.TemplateTTL.String())
	}

	resolver := tenant.NewResolver(registry, tenantservice.NewStoreFactory(factoryOpts...),
		tenantservice.WithLogger(log),
		tenantservice.WithMetrics(tenantmetrics.New()),
	)
	defer resolver.Close()

	g, ctx := errgroup.WithContext(ctx)

	sink, closeSink, err := openAuditSink(ctx, cfg.Audit, log, g)
	if err != nil {
		return err
	}
	defer closeSink()
	emitter := audit.NewEmitter(sink,
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics()),
	)

	records := recordsservice.New(resolver, validation.New(validation.WithLogger(log)), emitter,
		recordsservice.WithLogger(log),
		recordsservice.WithMetrics(recordsmetrics.New()),
		recordsservice.WithValidationConfig(validation.Config{
			MinAge:      cfg.Validation.MinAge,
			MaxAge:      cfg.Validation.MaxAge,
			MinStartAge: cfg.Validation.MinStartAge,
			BcryptCost:  cfg.Validation.BcryptCost,
			Debug:       cfg.Validation.Debug,
		}),
	)

	router := httptransport.NewRouter(httptransport.Router{
		Logger:  log,
		Metrics: metrics.New(),
		Health:  health,
	}, recordshandler.New(records, log))
	srv := httpserver.New(cfg.Addr, router, log)

	g.Go(func() error {
		log.Info("starting orgtrakker", "addr", cfg.Addr, "audit_sink", cfg.Audit.Sink)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openAuditSink builds the configured sink. With the sql sink and relay
// enabled, a relay worker is started on g.
func openAuditSink(ctx context.Context, cfg config.AuditConfig, log *slog.Logger, g *errgroup.Group) (audit.Sink, func(), error) {
	switch cfg.Sink {
	case "sql":
		outbox, err := sqlsink.Open(ctx, cfg.SQLDriver, cfg.SQLDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := outbox.EnsureSchema(ctx); err != nil {
			_ = outbox.Close()
			return nil, nil, fmt.Errorf("audit outbox schema: %w", err)
		}
		if !cfg.Relay {
			return outbox, func() { _ = outbox.Close() }, nil
		}
		producer, err := newKafkaSink(ctx, cfg)
		if err != nil {
			_ = outbox.Close()
			return nil, nil, err
		}
		worker := relay.NewWorker(outbox, producer,
			relay.WithInterval(cfg.RelayInterval),
			relay.WithLogger(log),
		)
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("audit relay: %w", err)
			}
			return nil
		})
		return outbox, func() {
			producer.Close()
			_ = outbox.Close()
		}, nil
	case "kafka":
		producer, err := newKafkaSink(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return producer, producer.Close, nil
	default:
		log.Warn("audit events are kept in memory and lost on restart")
		return memory.New(), func() {}, nil
	}
}

func newKafkaSink(ctx context.Context, cfg config.AuditConfig) (*kafka.Sink, error) {
	producer, err := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, err
	}
	if err := producer.EnsureTopic(ctx); err != nil {
		producer.Close()
		return nil, err
	}
	return producer, nil
}
