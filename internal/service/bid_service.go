package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/store"
)

// ──────────────────────────────────────────────────────────────────────────────
// Interfaces injected into the services to avoid import cycles
// ──────────────────────────────────────────────────────────────────────────────

// EventPublisher is the minimal interface the services need from the events
// layer.  Implementations must be non-blocking: publication happens strictly
// after commit and a failure there never surfaces to the caller.
type EventPublisher interface {
	PublishBidPlaced(auctionID uuid.UUID, bid *domain.Bid)
	PublishAuctionStatus(auctionID uuid.UUID, status domain.AuctionStatus)
	PublishSettled(auctionID uuid.UUID, escrow *domain.Escrow)
}

// Notifier is the minimal interface the services need from the notification
// worker.  Enqueue must not block.
type Notifier interface {
	Enqueue(n domain.Notification)
}

// ──────────────────────────────────────────────────────────────────────────────
// BidService
// ──────────────────────────────────────────────────────────────────────────────

// BidService orchestrates bid placement.  All money movement happens inside a
// single store transaction; racing bids on the same auction serialize on the
// auction row, so the loser is re-validated against committed state and
// rejected rather than accepted against stale data.
type BidService struct {
	store     store.Store
	publisher EventPublisher // injected after the events layer is built
	notifier  Notifier       // injected after the notification worker is built
}

// NewBidService creates a BidService.
func NewBidService(st store.Store) *BidService {
	return &BidService{store: st}
}

// SetPublisher injects the event publisher post-construction.
func (s *BidService) SetPublisher(p EventPublisher) { s.publisher = p }

// SetNotifier injects the notification worker post-construction.
func (s *BidService) SetNotifier(n Notifier) { s.notifier = n }

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBid
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBid validates the request against the auction's current persisted
// state, atomically releases the displaced bidder's lock, locks the new
// bidder's funds, and records the bid.  Nothing persists unless every step
// succeeds.
//
// After a successful commit it asynchronously publishes a bid-placed event on
// the auction's topic and, when a different bidder was displaced, queues an
// OUTBID notification for them.
func (s *BidService) PlaceBid(ctx context.Context, req domain.PlaceBidRequest) (*domain.PlaceBidResult, error) {
	// A non-positive amount can never beat anything, including no bid at all.
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrBidTooLow
	}

	var (
		bid    *domain.Bid
		outbid *domain.Bid
	)

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		// The FOR UPDATE read is the serialization point for all bids on
		// this auction, and the freshest view of its status.
		auction, err := tx.GetAuctionForUpdate(ctx, req.AuctionID)
		if err != nil {
			return err
		}
		if !auction.IsLive() {
			return domain.ErrAuctionNotLive
		}
		if req.BidderID == auction.SellerID {
			return domain.ErrSelfBid
		}

		highest, err := tx.HighestBid(ctx, req.AuctionID)
		if err != nil {
			return err
		}
		if highest != nil && req.Amount.LessThanOrEqual(highest.Amount) {
			return domain.ErrBidTooLow
		}

		// Required new liquidity: a bidder topping up their own highest bid
		// reuses the existing lock and only needs the difference; anyone
		// else needs the full amount because the prior lock belongs to a
		// different wallet.
		required := req.Amount
		if highest != nil && highest.BidderID == req.BidderID {
			required = req.Amount.Sub(highest.Amount)
		}

		wallet, err := tx.GetWalletForUpdate(ctx, req.BidderID)
		if err != nil {
			return err
		}
		if wallet.Available().LessThan(required) {
			return domain.ErrInsufficientFunds
		}

		now := time.Now().UTC()
		newBid := &domain.Bid{
			ID:        uuid.New(),
			AuctionID: req.AuctionID,
			BidderID:  req.BidderID,
			Amount:    req.Amount,
			CreatedAt: now,
		}

		if highest != nil && highest.BidderID != req.BidderID {
			// Release the displaced bidder inside the same transaction: no
			// window exists where both bidders' money is locked, or neither's.
			if err := tx.UnlockFunds(ctx, highest.BidderID, highest.Amount); err != nil {
				return fmt.Errorf("bid_service.PlaceBid: unlock displaced: %w", err)
			}
			if err := s.appendEntry(ctx, tx, highest.BidderID, domain.EntryBidUnlock, highest.Amount, &highest.ID,
				fmt.Sprintf("Outbid on auction %s", req.AuctionID)); err != nil {
				return err
			}
			if err := tx.LockFunds(ctx, req.BidderID, req.Amount); err != nil {
				return err
			}
		} else {
			// Fresh auction or self top-up: lock only the required delta so
			// the bidder's total lock equals the new bid amount.
			if err := tx.LockFunds(ctx, req.BidderID, required); err != nil {
				return err
			}
		}

		if err := s.appendEntry(ctx, tx, req.BidderID, domain.EntryBidLock, required, &newBid.ID,
			fmt.Sprintf("Bid %s on auction %s", req.Amount.StringFixed(2), req.AuctionID)); err != nil {
			return err
		}

		if err := tx.InsertBid(ctx, newBid); err != nil {
			return err
		}

		bid = newBid
		outbid = highest
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &domain.PlaceBidResult{Bid: bid}
	if outbid != nil && outbid.BidderID != bid.BidderID {
		result.Outbid = outbid
	}

	go s.postBidAsync(result)

	return result, nil
}

// postBidAsync publishes the bid event and queues the OUTBID notification.
// Runs in a goroutine after commit; failures are swallowed (logged downstream).
func (s *BidService) postBidAsync(result *domain.PlaceBidResult) {
	if s.publisher != nil {
		s.publisher.PublishBidPlaced(result.Bid.AuctionID, result.Bid)
	}
	if s.notifier != nil && result.Outbid != nil {
		auctionID := result.Bid.AuctionID
		s.notifier.Enqueue(domain.Notification{
			ID:        uuid.New(),
			UserID:    result.Outbid.BidderID,
			Kind:      domain.NotifyOutbid,
			Body:      fmt.Sprintf("You were outbid at %s", result.Bid.Amount.StringFixed(2)),
			RefID:     &auctionID,
			CreatedAt: time.Now().UTC(),
		})
	}
}

// appendEntry writes a wallet ledger entry for the given user inside tx.
func (s *BidService) appendEntry(ctx context.Context, tx store.Tx, userID uuid.UUID, typ domain.EntryType, amount decimal.Decimal, refID *uuid.UUID, desc string) error {
	wallet, err := tx.GetWalletForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	return tx.AppendWalletEntry(ctx, &domain.WalletEntry{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Type:        typ,
		Amount:      amount,
		RefID:       refID,
		Description: desc,
		CreatedAt:   time.Now().UTC(),
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Query helpers
// ──────────────────────────────────────────────────────────────────────────────

// ListBids returns the full ordered bid history for an auction.
func (s *BidService) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	if _, err := s.store.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	bids, err := s.store.ListBids(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("bid_service.ListBids: %w", err)
	}
	return bids, nil
}
