// Package scheduler manages the two background goroutines that run the
// auction lifecycle:
//  1. activationLoop – flips scheduled auctions to live once their start time
//     passes.
//  2. closingLoop    – ends expired live auctions and settles them.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/openlot/auctionhouse/internal/config"
	"github.com/openlot/auctionhouse/internal/service"
)

// Scheduler runs the clock-driven auction transitions.  Call Start(ctx) once
// from main(); cancel the context to shut it down gracefully.
type Scheduler struct {
	auctionSvc    *service.AuctionService
	settlementSvc *service.SettlementService
	cfg           *config.Config
	logger        *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	auctionSvc *service.AuctionService,
	settlementSvc *service.SettlementService,
	cfg *config.Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		auctionSvc:    auctionSvc,
		settlementSvc: settlementSvc,
		cfg:           cfg,
		logger:        logger,
	}
}

// Start launches the background goroutines.  It returns immediately; both
// loops run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.activationLoop(ctx)
	go s.closingLoop(ctx)
	s.logger.Info("scheduler started",
		"activate_interval", s.cfg.Auction.ActivateInterval,
		"close_interval", s.cfg.Auction.CloseInterval)
}

// ──────────────────────────────────────────────────────────────────────────────
// activationLoop
// ──────────────────────────────────────────────────────────────────────────────

// activationLoop flips due scheduled auctions to live on every tick.
func (s *Scheduler) activationLoop(ctx context.Context) {
	defer s.recoverAndLog("activationLoop")

	ticker := time.NewTicker(s.cfg.Auction.ActivateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("activationLoop: shutting down")
			return
		case <-ticker.C:
			n, err := s.auctionSvc.ActivateDue(ctx, time.Now().UTC())
			if err != nil {
				s.logger.Error("activationLoop: ActivateDue", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Info("auctions activated", "count", n)
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// closingLoop
// ──────────────────────────────────────────────────────────────────────────────

// closingLoop ends due live auctions and immediately settles them.  A
// settlement that fails is retried on subsequent ticks because the auction
// stays ended-but-unsettled.
func (s *Scheduler) closingLoop(ctx context.Context) {
	defer s.recoverAndLog("closingLoop")

	ticker := time.NewTicker(s.cfg.Auction.CloseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("closingLoop: shutting down")
			return
		case <-ticker.C:
			ended, err := s.auctionSvc.EndDue(ctx, time.Now().UTC())
			if err != nil {
				s.logger.Error("closingLoop: EndDue", "err", err)
				continue
			}
			if len(ended) > 0 {
				s.logger.Info("auctions ended", "count", len(ended))
				s.settlementSvc.SettleEnded(ctx, ended)
			}
			// Retry auctions whose earlier settlement attempt failed.
			if err := s.settlementSvc.SettleBacklog(ctx, 100); err != nil {
				s.logger.Error("closingLoop: SettleBacklog", "err", err)
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic recovery
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog is deferred inside each loop goroutine to catch unexpected
// panics and log them instead of crashing the process.  The loop itself does
// not restart; the other loops and the server keep running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop",
			"loop", loop, "panic", r)
	}
}
