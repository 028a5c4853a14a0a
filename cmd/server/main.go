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
	"time"

	"golang.org/x/sync/errgroup"

	jwttoken "custody/internal/jwt_token"
	"custody/internal/ledger/adapters/token"
	"custody/internal/ledger/adapters/vesting"
	"custody/internal/ledger/handler"
	ledgermetrics "custody/internal/ledger/metrics"
	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/internal/ledger/service"
	accountstore "custody/internal/ledger/store/account"
	adminstore "custody/internal/ledger/store/admin"
	settingsstore "custody/internal/ledger/store/settings"
	"custody/internal/platform/config"
	"custody/internal/platform/httpserver"
	"custody/internal/platform/kafka"
	"custody/internal/platform/logger"
	"custody/internal/platform/metrics"
	"custody/internal/platform/postgres"
	"custody/internal/platform/redis"
	httptransport "custody/internal/transport/http"
	"custody/pkg/platform/audit"
	"custody/pkg/platform/audit/publisher"
	kafkasink "custody/pkg/platform/audit/publishers/kafka"
	auditmemory "custody/pkg/platform/audit/store/memory"
	auditpostgres "custody/pkg/platform/audit/store/postgres"
	"custody/pkg/platform/audit/worker"
	"custody/pkg/platform/circuit"
	"custody/pkg/platform/tx"
)

const shutdownTimeout = 10 * time.Second

var version = "dev"

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("custody stopped", "error", err)
		os.Exit(1)
	}
}

// persistence bundles what differs between the memory and postgres modes.
type persistence struct {
	stores service.Stores
	audit  audit.Store
	runner tx.Runner
	outbox audit.OutboxSource
	db     *sql.DB
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appMetrics := metrics.New()
	appMetrics.SetBuildInfo(version)

	store, err := openPersistence(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if store.db != nil {
		defer store.db.Close()
		appMetrics.SetStorageMode("postgres")
	} else {
		appMetrics.SetStorageMode("memory")
	}

	tokens := token.NewLedger()
	if err := seedBalances(tokens, cfg.Ledger); err != nil {
		return err
	}

	var registry ports.VestingRegistry = vesting.NewRegistry(tokens, cfg.Ledger.Self)
	checks := map[string]httptransport.HealthCheck{}
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		registry = vesting.NewCachedRegistry(registry, redisClient.Client,
			vesting.WithTTL(cfg.Redis.HandleTTL),
			vesting.WithLogger(log),
		)
		checks["redis"] = redisClient.Health
	}
	if store.db != nil {
		checks["postgres"] = store.db.PingContext
	}

	auditPublisher := publisher.NewPublisher(store.audit,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
	)
	defer auditPublisher.Close()

	svc, err := service.New(ctx,
		models.Params{
			WaitedTS:        cfg.Ledger.WaitedTS,
			Token:           cfg.Ledger.Token,
			VestingRegistry: cfg.Ledger.VestingRegistry,
			Admins:          cfg.Ledger.Admins,
		},
		store.stores,
		token.NewCustody(tokens, cfg.Ledger.Self),
		registry,
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithAuditTrail(store.audit),
		service.WithMetrics(ledgermetrics.New()),
		service.WithTxRunner(store.runner),
	)
	if err != nil {
		return fmt.Errorf("construct ledger: %w", err)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:    log,
		Validator: jwttoken.NewJWTServiceAdapter(jwtService),
		Modules:   []httptransport.Registrar{handler.New(svc, log)},
		Checks:    checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting custody", "addr", cfg.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if store.outbox != nil {
		kafkaClient, err := kafka.New(ctx, cfg.Kafka)
		if err != nil {
			return err
		}
		if kafkaClient != nil {
			defer kafkaClient.Close()
			relay := worker.NewWorker(store.outbox, kafkasink.NewSink(kafkaClient, cfg.Kafka.Topic),
				worker.WithLogger(log),
				worker.WithInterval(cfg.Kafka.PollInterval),
				worker.WithBatchSize(cfg.Kafka.BatchSize),
				worker.WithMetrics(worker.NewMetrics()),
				worker.WithBreaker(circuit.New("audit-kafka")),
			)
			g.Go(func() error {
				if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
	}

	return g.Wait()
}

func openPersistence(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*persistence, error) {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set, ledger state is kept in memory")
		return &persistence{
			stores: service.Stores{
				Accounts: accountstore.NewInMemory(),
				Admins:   adminstore.NewInMemory(),
				Settings: settingsstore.NewInMemory(),
			},
			audit:  auditmemory.NewInMemoryStore(),
			runner: tx.NoopRunner{},
		}, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	auditStore := auditpostgres.New(db)
	return &persistence{
		stores: service.Stores{
			Accounts: accountstore.NewPostgres(db),
			Admins:   adminstore.NewPostgres(db),
			Settings: settingsstore.NewPostgres(db),
		},
		audit:  auditStore,
		runner: tx.NewSQLRunner(db),
		outbox: auditStore,
		db:     db,
	}, nil
}

// seedBalances funds the initial admins on the in-process token so deposits
// can be exercised without an external token.
func seedBalances(tokens *token.Ledger, cfg config.LedgerConfig) error {
	if cfg.SeedBalance == nil {
		return nil
	}
	for _, admin := range cfg.Admins {
		if err := tokens.Mint(admin, cfg.SeedBalance); err != nil {
			return fmt.Errorf("seed balance: %w", err)
		}
		if err := tokens.Approve(admin, cfg.Self, cfg.SeedBalance); err != nil {
			return fmt.Errorf("seed allowance: %w", err)
		}
	}
	return nil
}
