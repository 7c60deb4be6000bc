package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/store"
)

// DisputeService handles buyer disputes against holding escrows and the
// admin decisions that resolve them.  Resolution is the only path that moves
// escrowed money, and it moves it exactly once.
type DisputeService struct {
	store    store.Store
	notifier Notifier
}

// NewDisputeService creates a DisputeService.
func NewDisputeService(st store.Store) *DisputeService {
	return &DisputeService{store: st}
}

// SetNotifier injects the notifier post-construction.
func (s *DisputeService) SetNotifier(n Notifier) { s.notifier = n }

// RaiseDispute opens a dispute on a holding escrow.  Only the buyer of the
// escrow may dispute it, and only once; the unique dispute row per escrow
// backs the once-only rule under concurrency.
func (s *DisputeService) RaiseDispute(ctx context.Context, buyerID, escrowID uuid.UUID, reason string) (*domain.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrDisputeReasonRequired
	}

	dispute := &domain.Dispute{
		ID:        uuid.New(),
		EscrowID:  escrowID,
		BuyerID:   buyerID,
		Reason:    reason,
		Status:    domain.DisputeOpen,
		CreatedAt: time.Now().UTC(),
	}

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		escrow, err := tx.GetEscrowForUpdate(ctx, escrowID)
		if err != nil {
			return err
		}
		if escrow.BuyerID != buyerID {
			return domain.ErrForbidden
		}
		if !escrow.IsHolding() {
			return domain.ErrEscrowNotHolding
		}
		existing, err := tx.GetDisputeByEscrow(ctx, escrowID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDisputeExists
		}
		return tx.InsertDispute(ctx, dispute)
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// ResolveDispute applies an admin decision to an open dispute.  REFUND
// credits the escrowed amount back to the buyer; RELEASE credits it to the
// seller.  Either way the escrow leaves holding, the dispute closes, and an
// audit record is written — all in one transaction.
func (s *DisputeService) ResolveDispute(ctx context.Context, admin *domain.User, disputeID uuid.UUID, resolution domain.Resolution) (*domain.Dispute, error) {
	if !admin.Role.CanResolveDisputes() {
		return nil, domain.ErrForbidden
	}
	if !resolution.IsValid() {
		return nil, domain.ErrInvalidResolution
	}

	var (
		resolved       *domain.Dispute
		resolvedEscrow *domain.Escrow
	)

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		dispute, err := tx.GetDisputeForUpdate(ctx, disputeID)
		if err != nil {
			return err
		}
		if !dispute.IsOpen() {
			return domain.ErrDisputeResolved
		}

		escrow, err := tx.GetEscrowForUpdate(ctx, dispute.EscrowID)
		if err != nil {
			return err
		}
		if !escrow.IsHolding() {
			return domain.ErrEscrowNotHolding
		}

		var (
			recipient uuid.UUID
			entryType domain.EntryType
			newStatus domain.EscrowStatus
		)
		switch resolution {
		case domain.ResolutionRefund:
			recipient, entryType, newStatus = escrow.BuyerID, domain.EntryEscrowRefund, domain.EscrowRefunded
		case domain.ResolutionRelease:
			recipient, entryType, newStatus = escrow.SellerID, domain.EntryEscrowRelease, domain.EscrowReleased
		}

		wallet, err := tx.GetWalletForUpdate(ctx, recipient)
		if err != nil {
			return err
		}
		if err := tx.CreditBalance(ctx, recipient, escrow.Amount); err != nil {
			return err
		}
		if err := tx.AppendWalletEntry(ctx, &domain.WalletEntry{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			Type:        entryType,
			Amount:      escrow.Amount,
			RefID:       &escrow.ID,
			Description: fmt.Sprintf("Dispute %s on escrow %s", resolution, escrow.ID),
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := tx.UpdateEscrowStatus(ctx, escrow.ID, domain.EscrowHolding, newStatus); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.MarkDisputeResolved(ctx, disputeID, resolution, admin.ID, now); err != nil {
			return err
		}
		if err := tx.AppendAuditLog(ctx, &domain.AuditLogEntry{
			ID:        uuid.New(),
			ActorID:   admin.ID,
			Action:    "dispute." + strings.ToLower(string(resolution)),
			EscrowID:  &escrow.ID,
			Amount:    escrow.Amount,
			Metadata:  fmt.Sprintf(`{"dispute_id":%q,"recipient":%q}`, disputeID, recipient),
			CreatedAt: now,
		}); err != nil {
			return err
		}

		r := resolution
		dispute.Status = domain.DisputeStatusResolved
		dispute.Resolution = &r
		adminID := admin.ID
		dispute.ResolvedBy = &adminID
		dispute.ResolvedAt = &now
		resolved = dispute
		resolvedEscrow = escrow
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.postResolveAsync(resolved, resolvedEscrow, resolution)
	return resolved, nil
}

// GetDispute fetches a dispute by ID.
func (s *DisputeService) GetDispute(ctx context.Context, id uuid.UUID) (*domain.Dispute, error) {
	return s.store.GetDispute(ctx, id)
}

// ListDisputes returns paginated disputes filtered by status ("" = all).
func (s *DisputeService) ListDisputes(ctx context.Context, status domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error) {
	return s.store.ListDisputes(ctx, status, limit, offset)
}

func (s *DisputeService) postResolveAsync(dispute *domain.Dispute, escrow *domain.Escrow, resolution domain.Resolution) {
	if s.notifier == nil {
		return
	}
	disputeID := dispute.ID
	body := fmt.Sprintf("Dispute resolved: %s", resolution)
	for _, userID := range []uuid.UUID{escrow.BuyerID, escrow.SellerID} {
		s.notifier.Enqueue(domain.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Kind:      domain.NotifyDisputeResolved,
			Body:      body,
			RefID:     &disputeID,
			CreatedAt: time.Now().UTC(),
		})
	}
}
