package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
	"github.com/openlot/auctionhouse/internal/store"
)

func TestSettleAuction_CreatesEscrowFromWinningBid(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	settlement := service.NewSettlementService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	winner := seedUser(t, st, domain.RoleUser, 2000)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	placeBid(t, bids, auction.ID, winner.ID, 700)
	endAuction(t, st, auction.ID)

	result, err := settlement.SettleAuction(context.Background(), auction.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if result.Status != domain.SettlementSettled {
		t.Fatalf("status = %s, want %s", result.Status, domain.SettlementSettled)
	}
	e := result.Escrow
	if e == nil {
		t.Fatal("settled result carries no escrow")
	}
	if e.BuyerID != winner.ID || e.SellerID != seller.ID || e.Status != domain.EscrowHolding {
		t.Errorf("escrow = %+v, want buyer %s seller %s status holding", e, winner.ID, seller.ID)
	}
	wantDecimal(t, "escrow amount", e.Amount, 700)

	// The winning amount left the wallet: no lock remains and the balance
	// dropped by the escrowed amount.
	w := wallet(t, st, winner.ID)
	wantDecimal(t, "winner locked", w.Locked, 0)
	wantDecimal(t, "winner balance", w.Balance, 1300)
}

func TestSettleAuction_NoBids(t *testing.T) {
	st := store.NewMemory()
	settlement := service.NewSettlementService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	auction := seedAuction(t, st, seller, domain.StatusEnded)

	result, err := settlement.SettleAuction(context.Background(), auction.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if result.Status != domain.SettlementNoBids {
		t.Errorf("status = %s, want %s", result.Status, domain.SettlementNoBids)
	}
	if result.Escrow != nil {
		t.Errorf("no-bids settlement created an escrow: %+v", result.Escrow)
	}

	// The no-bids outcome is stamped too, so the backlog never retries it.
	pending, err := st.ListEndedUnsettled(context.Background(), 10)
	if err != nil {
		t.Fatalf("list unsettled: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("no-bids auction still listed as unsettled")
	}
}

func TestSettleAuction_SecondRunIsConflict(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	settlement := service.NewSettlementService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	winner := seedUser(t, st, domain.RoleUser, 2000)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	placeBid(t, bids, auction.ID, winner.ID, 700)
	endAuction(t, st, auction.ID)

	if _, err := settlement.SettleAuction(context.Background(), auction.ID); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	_, err := settlement.SettleAuction(context.Background(), auction.ID)
	if !errors.Is(err, domain.ErrAlreadySettled) {
		t.Fatalf("second settle: err = %v, want ErrAlreadySettled", err)
	}

	// Money moved exactly once.
	wantDecimal(t, "winner balance", wallet(t, st, winner.ID).Balance, 1300)
	wantDecimal(t, "winner locked", wallet(t, st, winner.ID).Locked, 0)
}

func TestSettleAuction_RequiresEndedStatus(t *testing.T) {
	st := store.NewMemory()
	settlement := service.NewSettlementService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)

	for _, status := range []domain.AuctionStatus{domain.StatusScheduled, domain.StatusLive, domain.StatusCancelled} {
		auction := seedAuction(t, st, seller, status)
		_, err := settlement.SettleAuction(context.Background(), auction.ID)
		if !errors.Is(err, domain.ErrAuctionNotEnded) {
			t.Errorf("settle %s auction: err = %v, want ErrAuctionNotEnded", status, err)
		}
	}
}

func TestSettleBacklog_SettlesPendingAuctions(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	settlement := service.NewSettlementService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	winner := seedUser(t, st, domain.RoleUser, 5000)

	first := seedAuction(t, st, seller, domain.StatusLive)
	second := seedAuction(t, st, seller, domain.StatusLive)
	placeBid(t, bids, first.ID, winner.ID, 300)
	endAuction(t, st, first.ID)
	endAuction(t, st, second.ID)

	if err := settlement.SettleBacklog(context.Background(), 100); err != nil {
		t.Fatalf("backlog: %v", err)
	}

	pending, err := st.ListEndedUnsettled(context.Background(), 100)
	if err != nil {
		t.Fatalf("list unsettled: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("%d auctions still unsettled after backlog run", len(pending))
	}
	wantDecimal(t, "winner locked", wallet(t, st, winner.ID).Locked, 0)
	wantDecimal(t, "winner balance", wallet(t, st, winner.ID).Balance, 4700)
}

// TestAuctionLifecycle_FullScenario walks the whole flow: two bidders compete,
// the auction ends and settles, the buyer disputes, and the refund restores
// their balance in full.
func TestAuctionLifecycle_FullScenario(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	bids := service.NewBidService(st)
	settlement := service.NewSettlementService(st)
	disputes := service.NewDisputeService(st)

	seller := seedUser(t, st, domain.RoleUser, 0)
	alice := seedUser(t, st, domain.RoleUser, 1000)
	bob := seedUser(t, st, domain.RoleUser, 2000)
	admin := seedUser(t, st, domain.RoleAdmin, 0)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	placeBid(t, bids, auction.ID, alice.ID, 500)
	wantDecimal(t, "alice locked", wallet(t, st, alice.ID).Locked, 500)

	placeBid(t, bids, auction.ID, bob.ID, 700)
	wantDecimal(t, "alice locked after outbid", wallet(t, st, alice.ID).Locked, 0)
	wantDecimal(t, "bob locked", wallet(t, st, bob.ID).Locked, 700)

	endAuction(t, st, auction.ID)
	result, err := settlement.SettleAuction(ctx, auction.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	wantDecimal(t, "escrow amount", result.Escrow.Amount, 700)
	wantDecimal(t, "bob locked after settle", wallet(t, st, bob.ID).Locked, 0)
	wantDecimal(t, "bob balance after settle", wallet(t, st, bob.ID).Balance, 1300)

	dispute, err := disputes.RaiseDispute(ctx, bob.ID, result.Escrow.ID, "item never arrived")
	if err != nil {
		t.Fatalf("raise dispute: %v", err)
	}

	if _, err := disputes.ResolveDispute(ctx, admin, dispute.ID, domain.ResolutionRefund); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	wantDecimal(t, "bob balance after refund", wallet(t, st, bob.ID).Balance, 2000)

	escrow, err := st.GetEscrow(ctx, result.Escrow.ID)
	if err != nil {
		t.Fatalf("get escrow: %v", err)
	}
	if escrow.Status != domain.EscrowRefunded {
		t.Errorf("escrow status = %s, want refunded", escrow.Status)
	}
}

// endAuction flips a live auction to ended directly.
func endAuction(t *testing.T, st store.Store, auctionID uuid.UUID) {
	t.Helper()
	err := st.WithinTx(context.Background(), func(tx store.Tx) error {
		return tx.UpdateAuctionStatus(context.Background(), auctionID, domain.StatusLive, domain.StatusEnded)
	})
	if err != nil {
		t.Fatalf("end auction: %v", err)
	}
}
