package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
	"github.com/openlot/auctionhouse/internal/store"
)

// settleWithWinner drives one auction through bidding and settlement and
// returns the resulting holding escrow.
func settleWithWinner(t *testing.T, st store.Store, seller, winner *domain.User, amount int64) *domain.Escrow {
	t.Helper()
	bids := service.NewBidService(st)
	settlement := service.NewSettlementService(st)
	auction := seedAuction(t, st, seller, domain.StatusLive)
	placeBid(t, bids, auction.ID, winner.ID, amount)
	endAuction(t, st, auction.ID)
	result, err := settlement.SettleAuction(context.Background(), auction.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	return result.Escrow
}

func TestRaiseDispute_CreatesOpenDispute(t *testing.T) {
	st := store.NewMemory()
	disputes := service.NewDisputeService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	buyer := seedUser(t, st, domain.RoleUser, 2000)
	escrow := settleWithWinner(t, st, seller, buyer, 700)

	d, err := disputes.RaiseDispute(context.Background(), buyer.ID, escrow.ID, "damaged on arrival")
	if err != nil {
		t.Fatalf("raise: %v", err)
	}
	if d.Status != domain.DisputeOpen || d.EscrowID != escrow.ID || d.BuyerID != buyer.ID {
		t.Errorf("dispute = %+v, want open dispute by %s on escrow %s", d, buyer.ID, escrow.ID)
	}
}

func TestRaiseDispute_OnlyBuyer(t *testing.T) {
	st := store.NewMemory()
	disputes := service.NewDisputeService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	buyer := seedUser(t, st, domain.RoleUser, 2000)
	stranger := seedUser(t, st, domain.RoleUser, 0)
	escrow := settleWithWinner(t, st, seller, buyer, 700)

	if _, err := disputes.RaiseDispute(context.Background(), seller.ID, escrow.ID, "reason"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("seller raising dispute: err = %v, want ErrForbidden", err)
	}
	if _, err := disputes.RaiseDispute(context.Background(), stranger.ID, escrow.ID, "reason"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger raising dispute: err = %v, want ErrForbidden", err)
	}
}

func TestRaiseDispute_RequiresReason(t *testing.T) {
	st := store.NewMemory()
	disputes := service.NewDisputeService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	buyer := seedUser(t, st, domain.RoleUser, 2000)
	escrow := settleWithWinner(t, st, seller, buyer, 700)

	_, err := disputes.RaiseDispute(context.Background(), buyer.ID, escrow.ID, "   ")
	if !errors.Is(err, domain.ErrDisputeReasonRequired) {
		t.Errorf("blank reason: err = %v, want ErrDisputeReasonRequired", err)
	}
}

func TestRaiseDispute_OncePerEscrow(t *testing.T) {
	st := store.NewMemory()
	disputes := service.NewDisputeService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	buyer := seedUser(t, st, domain.RoleUser, 2000)
	escrow := settleWithWinner(t, st, seller, buyer, 700)

	if _, err := disputes.RaiseDispute(context.Background(), buyer.ID, escrow.ID, "first"); err != nil {
		t.Fatalf("first raise: %v", err)
	}
	_, err := disputes.RaiseDispute(context.Background(), buyer.ID, escrow.ID, "second")
	if !errors.Is(err, domain.ErrDisputeExists) {
		t.Errorf("second raise: err = %v, want ErrDisputeExists", err)
	}
}

func TestResolveDispute_RefundCreditsBuyer(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	disputes := service.NewDisputeService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	buyer := seedUser(t, st, domain.RoleUser, 2000)
	admin := seedUser(t, st, domain.RoleAdmin, 0)
	escrow := settleWithWinner(t, st, seller, buyer, 700)

	d, err := disputes.RaiseDispute(ctx, buyer.ID, escrow.ID, "not as described")
	if err != nil {
		t.Fatalf("raise: %v", err)
	}
	resolved, err := disputes.ResolveDispute(ctx, admin, d.ID, domain.ResolutionRefund)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != domain.DisputeStatusResolved || resolved.ResolvedAt == nil {
		t.Errorf("dispute not marked resolved: %+v", resolved)
	}

	wantDecimal(t, "buyer balance", wallet(t, st, buyer.ID).Balance, 2000)
	wantDecimal(t, "seller balance", wallet(t, st, seller.ID).Balance, 0)

	e, _ := st.GetEscrow(ctx, escrow.ID)
	if e.Status != domain.EscrowRefunded {
		t.Errorf("escrow status = %s, want refunded", e.Status)
	}
}

func TestResolveDispute_ReleaseCreditsSeller(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	disputes := service.NewDisputeService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	buyer := seedUser(t, st, domain.RoleUser, 2000)
	ops := seedUser(t, st, domain.RoleOps, 0)
	escrow := settleWithWinner(t, st, seller, buyer, 700)

	d, err := disputes.RaiseDispute(ctx, buyer.ID, escrow.ID, "changed my mind")
	if err != nil {
		t.Fatalf("raise: %v", err)
	}
	if _, err := disputes.ResolveDispute(ctx, ops, d.ID, domain.ResolutionRelease); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	wantDecimal(t, "seller balance", wallet(t, st, seller.ID).Balance, 700)
	wantDecimal(t, "buyer balance", wallet(t, st, buyer.ID).Balance, 1300)

	e, _ := st.GetEscrow(ctx, escrow.ID)
	if e.Status != domain.EscrowReleased {
		t.Errorf("escrow status = %s, want released", e.Status)
	}
}

func TestResolveDispute_WritesAuditLog(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	disputes := service.NewDisputeService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	buyer := seedUser(t, st, domain.RoleUser, 2000)
	admin := seedUser(t, st, domain.RoleAdmin, 0)
	escrow := settleWithWinner(t, st, seller, buyer, 700)

	d, _ := disputes.RaiseDispute(ctx, buyer.ID, escrow.ID, "reason")
	if _, err := disputes.ResolveDispute(ctx, admin, d.ID, domain.ResolutionRefund); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	entries, err := st.ListAuditLog(ctx, 10, 0)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.ActorID != admin.ID || entry.Action != "dispute.refund" {
		t.Errorf("audit entry = %+v, want actor %s action dispute.refund", entry, admin.ID)
	}
	if entry.EscrowID == nil || *entry.EscrowID != escrow.ID {
		t.Errorf("audit entry escrow = %v, want %s", entry.EscrowID, escrow.ID)
	}
	wantDecimal(t, "audit amount", entry.Amount, 700)
}

func TestResolveDispute_DoubleResolveRejected(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	disputes := service.NewDisputeService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	buyer := seedUser(t, st, domain.RoleUser, 2000)
	admin := seedUser(t, st, domain.RoleAdmin, 0)
	escrow := settleWithWinner(t, st, seller, buyer, 700)

	d, _ := disputes.RaiseDispute(ctx, buyer.ID, escrow.ID, "reason")
	if _, err := disputes.ResolveDispute(ctx, admin, d.ID, domain.ResolutionRefund); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	_, err := disputes.ResolveDispute(ctx, admin, d.ID, domain.ResolutionRelease)
	if !errors.Is(err, domain.ErrDisputeResolved) {
		t.Fatalf("second resolve: err = %v, want ErrDisputeResolved", err)
	}

	// The first resolution's money movement stands; nothing moved twice.
	wantDecimal(t, "buyer balance", wallet(t, st, buyer.ID).Balance, 2000)
	wantDecimal(t, "seller balance", wallet(t, st, seller.ID).Balance, 0)
}

func TestResolveDispute_RequiresPrivilegedRole(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	disputes := service.NewDisputeService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	buyer := seedUser(t, st, domain.RoleUser, 2000)
	readonly := seedUser(t, st, domain.RoleReadOnly, 0)
	escrow := settleWithWinner(t, st, seller, buyer, 700)

	d, _ := disputes.RaiseDispute(ctx, buyer.ID, escrow.ID, "reason")

	for _, u := range []*domain.User{buyer, readonly} {
		_, err := disputes.ResolveDispute(ctx, u, d.ID, domain.ResolutionRefund)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("resolve as %s: err = %v, want ErrForbidden", u.Role, err)
		}
	}
}

func TestResolveDispute_RejectsUnknownResolution(t *testing.T) {
	st := store.NewMemory()
	disputes := service.NewDisputeService(st)
	admin := seedUser(t, st, domain.RoleAdmin, 0)

	_, err := disputes.ResolveDispute(context.Background(), admin, admin.ID, domain.Resolution("SPLIT"))
	if !errors.Is(err, domain.ErrInvalidResolution) {
		t.Errorf("err = %v, want ErrInvalidResolution", err)
	}
}
