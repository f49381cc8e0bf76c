// Command server runs the Shepherd's Table Cloud API: the scope resolution
// engine, the casework records it guards, and device enrollment. Postgres,
// Redis and Kafka attach when configured; without them the server runs on
// in-memory stores seeded with the demo directory.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/audit"
	auditstore "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/audit/store"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework"
	caseworkhandler "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework/handler"
	cwstore "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework/store"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/device"
	devicehandler "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/device/handler"
	dirstore "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/store"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/identity"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/config"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/httpserver"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/kafka"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/kafka/consumer"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/logger"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/metrics"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/postgres"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/redis"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/devicecache"
	scopehandler "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/handler"
	scopemetrics "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/metrics"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/profile"
	httptransport "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		catalog  scope.Directory
		profiles scope.ProfileStore
		guests   casework.GuestStore
		visits   casework.VisitStore
		devices  device.Store
		sinks    []audit.Sink
		db       *sql.DB
	)
	if cfg.Postgres.DSN != "" {
		opened, err := postgres.Open(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer opened.Close()
		db = opened

		catalog = dirstore.NewPostgres(db)
		profiles = profile.NewPostgres(db)
		guests = cwstore.NewPostgresGuests(db)
		visits = cwstore.NewPostgresVisits(db)
		devices = device.NewPostgres(db)
		sinks = append(sinks, auditstore.NewPostgres(db))
	} else {
		mem := dirstore.NewInMemory()
		org, locations := dirstore.SeedDemoDirectory(mem, "id_demo")
		log.Warn("postgres not configured, serving the demo directory from memory",
			"org_id", org.ID,
			"locations", len(locations),
		)
		catalog = mem
		profiles = profile.NewMemory()
		guests = cwstore.NewInMemoryGuests()
		visits = cwstore.NewInMemoryVisits()
		devices = device.NewMemory()
		sinks = append(sinks, auditstore.NewInMemory())
	}

	var cache interface {
		scope.DeviceCache
		device.ScopeCache
	} = devicecache.NewMemory()
	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		cache = devicecache.NewRedis(rdb.Client, devicecache.WithTTL(cfg.Redis.DeviceScopeTTL))
		log.Info("device scope cache on redis", "ttl", cfg.Redis.DeviceScopeTTL)
	}

	// The audit publisher and the identity event stream ride Kafka. Without
	// brokers the audit trail still flushes to its store and sessions are
	// created lazily on first request instead of on sign-in events.
	events := make(chan identity.Event, 256)
	var identityConsumer *consumer.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafka.EnsureTopics(ctx, cfg.Kafka, cfg.Kafka.AuditTopic, cfg.Kafka.IdentityTopic); err != nil {
			return fmt.Errorf("ensure kafka topics: %w", err)
		}
		producer, err := kafka.NewProducer(cfg.Kafka, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("start kafka producer: %w", err)
		}
		defer producer.Close()
		sinks = append(sinks, audit.NewKafkaSink(producer))

		identityConsumer, err = consumer.New(cfg.Kafka, identity.NewStreamHandler(events, log), log, cfg.Kafka.IdentityTopic)
		if err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
	}

	recorder := audit.NewRecorder(cfg.Audit.BufferSize, log)
	worker := audit.NewWorker(recorder, sinks, cfg.Audit.FlushInterval, log)

	manager := scope.NewManager(catalog, cache, profiles, log,
		scope.WithMetrics(scopemetrics.New()),
		scope.WithAuditTrail(recorder),
		scope.WithTimeouts(cfg.Scope.ResolveTimeout, cfg.Scope.ProfileWriteTimeout),
	)

	registry := device.NewRegistry(devices, cache, log)
	service := casework.NewService(guests, visits, log)
	tokens := identity.NewTokenService(cfg.Token.SigningKey, cfg.Token.Issuer, cfg.Token.Audience)

	router := httptransport.New(httptransport.Config{
		Logger:         log,
		Metrics:        metrics.New(),
		Tokens:         tokens,
		DeviceVerifier: registry,
		EnforceDevices: cfg.Device.EnforceEnrollment,
		Ready: func(ctx context.Context) error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return fmt.Errorf("postgres: %w", err)
				}
			}
			if rdb != nil {
				if err := rdb.Health(ctx); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
		Scope:    scopehandler.New(manager, log),
		Casework: caseworkhandler.New(service, manager, log),
		Devices:  devicehandler.New(registry, log),
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		manager.Run(ctx, events)
		return nil
	})
	g.Go(func() error {
		return worker.Run(ctx)
	})
	if identityConsumer != nil {
		g.Go(func() error {
			return identityConsumer.Run(ctx)
		})
	}
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
