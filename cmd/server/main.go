// Package main is the entry point for the openlot auction house API server.
// It wires together the stores and services and starts the HTTP server
// alongside the WebSocket hub, notification worker, and lifecycle scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // postgres driver

	"github.com/openlot/auctionhouse/internal/api"
	"github.com/openlot/auctionhouse/internal/config"
	"github.com/openlot/auctionhouse/internal/events"
	"github.com/openlot/auctionhouse/internal/notify"
	"github.com/openlot/auctionhouse/internal/scheduler"
	"github.com/openlot/auctionhouse/internal/service"
	"github.com/openlot/auctionhouse/internal/store"
	"github.com/openlot/auctionhouse/internal/ws"
)

func main() {
	// ── 1. Config + logger ────────────────────────────────────────────────────
	_ = godotenv.Load() // optional .env for local development
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting auction house server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// ── 2. Database ───────────────────────────────────────────────────────────
	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		logger.Error("database ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// ── 3. Migrations ─────────────────────────────────────────────────────────
	if err = runMigrations(db, "migrations"); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// ── 4. Store ──────────────────────────────────────────────────────────────
	st := store.NewPostgres(db)

	// ── 5. Services ───────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(st, cfg)
	assetSvc := service.NewAssetService(st)
	auctionSvc := service.NewAuctionService(st, cfg)
	bidSvc := service.NewBidService(st)
	walletSvc := service.NewWalletService(st, cfg)
	settlementSvc := service.NewSettlementService(st)
	disputeSvc := service.NewDisputeService(st)

	// ── 6. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 7. WebSocket hub + event publishers ───────────────────────────────────
	jwtSecret := []byte(cfg.JWT.AccessSecret)
	var allowedOrigins []string
	for _, o := range strings.Split(cfg.Server.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowedOrigins = append(allowedOrigins, o)
		}
	}
	hub := ws.NewHub(jwtSecret, allowedOrigins)
	go hub.Run()
	logger.Info("websocket hub started")

	// With redis configured, events travel through pub/sub so every instance
	// relays them to its clients; without it, events go straight to the hub.
	var publisher events.Publisher
	if cfg.Redis.URL != "" {
		redisClient, err := events.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Error("redis connection failed", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		publisher = events.NewRedisPublisher(redisClient)
		go hub.RelayFromRedis(ctx, redisClient)
		logger.Info("redis event relay started")
	} else {
		publisher = events.NewHubPublisher(hub)
	}

	// ── 8. Notification worker ────────────────────────────────────────────────
	notifier := notify.NewWorker(st, logger)
	notifier.Start(ctx)

	// Wire post-commit side channels via interfaces
	auctionSvc.SetPublisher(publisher)
	bidSvc.SetPublisher(publisher)
	bidSvc.SetNotifier(notifier)
	settlementSvc.SetPublisher(publisher)
	settlementSvc.SetNotifier(notifier)
	disputeSvc.SetNotifier(notifier)

	// ── 9. Scheduler ──────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(auctionSvc, settlementSvc, cfg, logger)
	sched.Start(ctx)

	// ── 10. HTTP Router ───────────────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		AuthSvc:    authSvc,
		AssetSvc:   assetSvc,
		AuctionSvc: auctionSvc,
		BidSvc:     bidSvc,
		WalletSvc:  walletSvc,
		DisputeSvc: disputeSvc,
		Notifier:   notifier,
		Hub:        hub,
		Cfg:        cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── 11. Start server ──────────────────────────────────────────────────────
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	// ── 12. Graceful shutdown ─────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	db.Close()
	logger.Info("server stopped cleanly")
}

// runMigrations reads all *.sql files from dir, sorted by name, and executes
// them sequentially.  Idempotent: SQL files should use IF NOT EXISTS / ON CONFLICT.
func runMigrations(db *sqlx.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("runMigrations: read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("runMigrations: read %q: %w", f, err)
		}
		if _, err = db.Exec(string(data)); err != nil {
			return fmt.Errorf("runMigrations: exec %q: %w", f, err)
		}
		slog.Info("migration applied", "file", filepath.Base(f))
	}
	return nil
}
