// Package main is the entry point for the backoffice admin server.
// It runs on its own port with IP whitelisting and serves asset review,
// dispute resolution, manual settlement, and the audit trail.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // postgres driver

	"github.com/openlot/auctionhouse/internal/backoffice"
	"github.com/openlot/auctionhouse/internal/config"
	"github.com/openlot/auctionhouse/internal/service"
	"github.com/openlot/auctionhouse/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting backoffice server", "env", cfg.Server.Env, "port", cfg.Server.BackofficePort)

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

	st := store.NewPostgres(db)

	// Migrations are owned by the API server; the backoffice only reads the
	// schema that is already in place.
	authSvc := service.NewAuthService(st, cfg)
	assetSvc := service.NewAssetService(st)
	auctionSvc := service.NewAuctionService(st, cfg)
	settlementSvc := service.NewSettlementService(st)
	disputeSvc := service.NewDisputeService(st)

	router := backoffice.SetupBackofficeRouter(backoffice.BackofficeDeps{
		AuthSvc:       authSvc,
		AssetSvc:      assetSvc,
		AuctionSvc:    auctionSvc,
		SettlementSvc: settlementSvc,
		DisputeSvc:    disputeSvc,
		Store:         st,
		Cfg:           cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.BackofficePort,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("backoffice listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("backoffice server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("backoffice shutdown error", "err", err)
	}

	db.Close()
	logger.Info("backoffice stopped cleanly")
}
