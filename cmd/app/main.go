package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/SmartList_Go/internal/bootstrap"
	"github.com/osse101/SmartList_Go/internal/checkout"
	"github.com/osse101/SmartList_Go/internal/config"
	"github.com/osse101/SmartList_Go/internal/entitlement"
	"github.com/osse101/SmartList_Go/internal/handler"
	"github.com/osse101/SmartList_Go/internal/server"
	"github.com/osse101/SmartList_Go/internal/session"
	"github.com/osse101/SmartList_Go/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load reads .env first, so the env schema check runs after it
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}
	initLogger(cfg)

	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		slog.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}
	slog.Info(bootstrap.LogMsgStarting,
		"environment", cfg.Environment,
		"store_backend", cfg.StoreBackend,
		"purchase_platform", cfg.PurchasePlatform,
		"timezone", cfg.Location.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := bootstrap.InitializeRepositories(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize repositories", "error", err)
		os.Exit(1)
	}

	if err := bootstrap.SyncPromoCatalog(ctx, cfg.PromoCatalogPath, repos.Catalog); err != nil {
		slog.Error("Failed to sync promo catalog", "error", err)
		os.Exit(1)
	}

	snapshots, snapshotKV, err := bootstrap.InitializeSnapshots(cfg)
	if err != nil {
		slog.Error("Failed to open snapshot store", "error", err)
		os.Exit(1)
	}

	bus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		slog.Error("Failed to initialize event system", "error", err)
		os.Exit(1)
	}
	if err := bootstrap.RegisterEventHandlers(bus); err != nil {
		slog.Error("Failed to register event handlers", "error", err)
		os.Exit(1)
	}

	deps := entitlement.Dependencies{
		Documents:    repos.Documents,
		Promos:       repos.Promos,
		Referrals:    repos.Referrals,
		Snapshots:    snapshots,
		NewAuthority: bootstrap.NewAuthorityFactory(cfg),
		Publisher:    publisher,
	}
	sessions := session.NewRegistry(cfg.SessionCacheSize, cfg.SessionTTL, func() *entitlement.Engine {
		return entitlement.NewEngine(deps, entitlement.WithClock(nil, cfg.Location))
	})

	resetWorker := worker.NewDailyResetWorker(sessions, publisher, cfg.Location)
	resetWorker.Start()

	readiness := map[string]handler.Pinger{}
	if repos.Pool != nil {
		readiness["database"] = repos.Pool
	}
	if snapshotKV != nil {
		readiness["snapshots"] = snapshotKV
	}

	serverDeps := server.Dependencies{
		Sessions:   sessions,
		Publisher:  publisher,
		DailyReset: resetWorker,
		Readiness:  readiness,
	}
	if cfg.CheckoutEnabled() {
		serverDeps.Checkout = checkout.NewStripeCheckout(checkout.Config{
			SecretKey:  cfg.StripeSecretKey,
			Prices:     cfg.StripePrices,
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
		})
	}

	srv := server.NewServer(server.Config{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		TrustedProxies: cfg.TrustedProxies,
	}, serverDeps)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		slog.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:             srv,
		DailyResetWorker:   resetWorker,
		Sessions:           sessions,
		Feed:               repos.Feed,
		ResilientPublisher: publisher,
		DBPool:             repos.Pool,
		SnapshotKV:         snapshotKV,
	})
}
