package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/config"
	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/store"
)

// AuctionService handles the auction lifecycle: creation against approved
// assets, seller cancellation, and the clock-driven scheduled→live→ended
// flips invoked by the scheduler.  Every transition is a guarded update on
// the persisted status — the status column is the single source of truth.
type AuctionService struct {
	store     store.Store
	cfg       *config.Config
	publisher EventPublisher // injected after the events layer is built
}

// NewAuctionService creates an AuctionService.
func NewAuctionService(st store.Store, cfg *config.Config) *AuctionService {
	return &AuctionService{store: st, cfg: cfg}
}

// SetPublisher injects the event publisher post-construction.
func (s *AuctionService) SetPublisher(p EventPublisher) { s.publisher = p }

// ──────────────────────────────────────────────────────────────────────────────
// CreateAuction
// ──────────────────────────────────────────────────────────────────────────────

// CreateAuctionRequest carries the seller's listing parameters.
type CreateAuctionRequest struct {
	AssetID   uuid.UUID
	SellerID  uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}

// CreateAuction lists an approved asset for auction.  The asset review state
// and the no-other-listing rule are checked inside the same transaction that
// inserts the auction, so two concurrent listings of one asset cannot both
// succeed.
func (s *AuctionService) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*domain.Auction, error) {
	now := time.Now().UTC()
	auction := &domain.Auction{
		ID:        uuid.New(),
		AssetID:   req.AssetID,
		SellerID:  req.SellerID,
		Status:    domain.StatusScheduled,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := auction.ValidateWindow(now, s.cfg.Auction.MinLeadTime, s.cfg.Auction.MaxDuration); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		asset, err := tx.GetAsset(ctx, req.AssetID)
		if err != nil {
			return err
		}
		if asset.OwnerID != req.SellerID {
			return domain.ErrForbidden
		}
		if !asset.IsApproved() {
			return domain.ErrAssetNotApproved
		}
		listed, err := tx.HasNonCancelledAuction(ctx, req.AssetID)
		if err != nil {
			return err
		}
		if listed {
			return domain.ErrAssetAlreadyListed
		}
		return tx.InsertAuction(ctx, auction)
	})
	if err != nil {
		return nil, err
	}
	return auction, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// CancelAuction
// ──────────────────────────────────────────────────────────────────────────────

// CancelAuction lets the owning seller withdraw a listing that has not gone
// live yet.  The guarded transition fails once the scheduler has flipped the
// auction to live.
func (s *AuctionService) CancelAuction(ctx context.Context, userID, auctionID uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		auction, err := tx.GetAuctionForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}
		if auction.SellerID != userID {
			return domain.ErrForbidden
		}
		return tx.UpdateAuctionStatus(ctx, auctionID, domain.StatusScheduled, domain.StatusCancelled)
	})
	if err != nil {
		return err
	}

	if s.publisher != nil {
		s.publisher.PublishAuctionStatus(auctionID, domain.StatusCancelled)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Clock-driven transitions (called by the scheduler)
// ──────────────────────────────────────────────────────────────────────────────

// ActivateDue flips every scheduled auction whose start time has passed to
// live.  One failing auction does not block the others.
func (s *AuctionService) ActivateDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListScheduledDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("auction_service.ActivateDue: %w", err)
	}

	activated := 0
	for _, a := range due {
		err := s.store.WithinTx(ctx, func(tx store.Tx) error {
			return tx.UpdateAuctionStatus(ctx, a.ID, domain.StatusScheduled, domain.StatusLive)
		})
		if err != nil {
			// Seller cancelled in the window between the list and the flip.
			continue
		}
		activated++
		if s.publisher != nil {
			s.publisher.PublishAuctionStatus(a.ID, domain.StatusLive)
		}
	}
	return activated, nil
}

// EndDue flips every live auction whose end time has passed to ended and
// returns the affected auctions so the caller can trigger settlement.
func (s *AuctionService) EndDue(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	due, err := s.store.ListLiveDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("auction_service.EndDue: %w", err)
	}

	var ended []*domain.Auction
	for _, a := range due {
		err := s.store.WithinTx(ctx, func(tx store.Tx) error {
			return tx.UpdateAuctionStatus(ctx, a.ID, domain.StatusLive, domain.StatusEnded)
		})
		if err != nil {
			continue
		}
		a.Status = domain.StatusEnded
		ended = append(ended, a)
		if s.publisher != nil {
			s.publisher.PublishAuctionStatus(a.ID, domain.StatusEnded)
		}
	}
	return ended, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Query helpers
// ──────────────────────────────────────────────────────────────────────────────

// GetAuction fetches an auction by ID.
func (s *AuctionService) GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	a, err := s.store.GetAuction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("auction_service.GetAuction: %w", err)
	}
	return a, nil
}

// ListAuctions returns paginated auctions filtered by status ("" = all).
func (s *AuctionService) ListAuctions(ctx context.Context, status domain.AuctionStatus, limit, offset int) ([]*domain.Auction, error) {
	auctions, err := s.store.ListAuctions(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("auction_service.ListAuctions: %w", err)
	}
	return auctions, nil
}
