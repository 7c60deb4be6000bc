package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/store"
)

// SettlementService converts ended auctions into escrows.  Settlement is
// idempotent: the unique escrow row per auction makes a second run a
// conflict, never a double-move of money.
type SettlementService struct {
	store     store.Store
	publisher EventPublisher
	notifier  Notifier
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(st store.Store) *SettlementService {
	return &SettlementService{store: st}
}

// SetPublisher injects the event publisher post-construction.
func (s *SettlementService) SetPublisher(p EventPublisher) { s.publisher = p }

// SetNotifier injects the notifier post-construction.
func (s *SettlementService) SetNotifier(n Notifier) { s.notifier = n }

// SettleAuction moves the winning bidder's locked funds into an escrow held
// against the seller.  Auctions that ended without a bid settle as NO_BIDS
// with no wallet movement.  All checks and moves happen in one transaction;
// a winner's locked balance below the winning amount means the bid protocol
// was violated somewhere and settlement aborts hard.
func (s *SettlementService) SettleAuction(ctx context.Context, auctionID uuid.UUID) (*domain.SettlementResult, error) {
	var result domain.SettlementResult

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		auction, err := tx.GetAuctionForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}
		if auction.Status != domain.StatusEnded {
			return domain.ErrAuctionNotEnded
		}
		if auction.SettledAt != nil {
			return domain.ErrAlreadySettled
		}
		if err := tx.MarkAuctionSettled(ctx, auctionID, time.Now().UTC()); err != nil {
			return err
		}

		highest, err := tx.HighestBid(ctx, auctionID)
		if err != nil {
			return err
		}
		if highest == nil {
			result = domain.SettlementResult{Status: domain.SettlementNoBids}
			return nil
		}

		wallet, err := tx.GetWalletForUpdate(ctx, highest.BidderID)
		if err != nil {
			return err
		}
		if wallet.Locked.LessThan(highest.Amount) {
			return fmt.Errorf("settle auction %s: winner locked %s < winning bid %s: %w",
				auctionID, wallet.Locked, highest.Amount, domain.ErrInvariantViolation)
		}

		// The winning amount leaves the wallet entirely: it is now
		// represented by the escrow record, not spendable balance.
		if err := tx.DebitLocked(ctx, highest.BidderID, highest.Amount); err != nil {
			return err
		}
		if err := tx.AppendWalletEntry(ctx, &domain.WalletEntry{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			Type:        domain.EntryEscrowHold,
			Amount:      highest.Amount.Neg(),
			RefID:       &auctionID,
			Description: fmt.Sprintf("Won auction %s", auctionID),
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return err
		}

		escrow := &domain.Escrow{
			ID:        uuid.New(),
			AuctionID: auctionID,
			BuyerID:   highest.BidderID,
			SellerID:  auction.SellerID,
			Amount:    highest.Amount,
			Status:    domain.EscrowHolding,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := tx.InsertEscrow(ctx, escrow); err != nil {
			return err
		}

		result = domain.SettlementResult{
			Status: domain.SettlementSettled,
			Escrow: escrow,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == domain.SettlementSettled {
		go s.postSettleAsync(result.Escrow)
	}
	return &result, nil
}

// SettleEnded settles a batch of auctions the scheduler just ended.  A
// failure on one auction is logged and does not block the rest; the closer
// loop retries unsettled ended auctions on the next tick.
func (s *SettlementService) SettleEnded(ctx context.Context, auctions []*domain.Auction) {
	for _, a := range auctions {
		if _, err := s.SettleAuction(ctx, a.ID); err != nil {
			if domain.IsConflict(err) {
				continue // settled by a concurrent run
			}
			log.Printf("settlement: auction %s failed: %v", a.ID, err)
		}
	}
}

// SettleBacklog settles ended auctions whose earlier settlement attempts
// failed.  Called on a scheduler tick.
func (s *SettlementService) SettleBacklog(ctx context.Context, limit int) error {
	pending, err := s.store.ListEndedUnsettled(ctx, limit)
	if err != nil {
		return fmt.Errorf("settlement.SettleBacklog: %w", err)
	}
	s.SettleEnded(ctx, pending)
	return nil
}

func (s *SettlementService) postSettleAsync(escrow *domain.Escrow) {
	if s.publisher != nil {
		s.publisher.PublishSettled(escrow.AuctionID, escrow)
	}
	if s.notifier != nil {
		auctionID := escrow.AuctionID
		s.notifier.Enqueue(domain.Notification{
			ID:        uuid.New(),
			UserID:    escrow.BuyerID,
			Kind:      domain.NotifyAuctionWon,
			Body:      fmt.Sprintf("You won the auction at %s", escrow.Amount.StringFixed(2)),
			RefID:     &auctionID,
			CreatedAt: time.Now().UTC(),
		})
	}
}
