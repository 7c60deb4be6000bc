package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/store"
)

func newFundedUser(t *testing.T, st *store.Memory, balance int64) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		Username:  uuid.NewString(),
		Role:      domain.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateUserWithWallet(context.Background(), u, decimal.NewFromInt(balance)); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	u := newFundedUser(t, st, 1000)

	sentinel := errors.New("boom")
	err := st.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.LockFunds(ctx, u.ID, decimal.NewFromInt(400)); err != nil {
			return err
		}
		if err := tx.CreditBalance(ctx, u.ID, decimal.NewFromInt(50)); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}

	// Both mutations rolled back.
	w, err := st.GetWallet(ctx, u.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if !w.Balance.Equal(decimal.NewFromInt(1000)) || !w.Locked.IsZero() {
		t.Errorf("wallet after rollback = balance %s locked %s, want 1000/0", w.Balance, w.Locked)
	}
}

func TestLockFunds_GuardsAvailableBalance(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	u := newFundedUser(t, st, 100)

	err := st.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.LockFunds(ctx, u.ID, decimal.NewFromInt(80)); err != nil {
			return err
		}
		// 20 available, 30 requested.
		return tx.LockFunds(ctx, u.ID, decimal.NewFromInt(30))
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// The failed transaction rolled back the first lock too.
	w, _ := st.GetWallet(ctx, u.ID)
	if !w.Locked.IsZero() {
		t.Errorf("locked = %s after rollback, want 0", w.Locked)
	}
}

func TestUnlockFunds_NeverGoesNegative(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	u := newFundedUser(t, st, 100)

	err := st.WithinTx(ctx, func(tx store.Tx) error {
		return tx.UnlockFunds(ctx, u.ID, decimal.NewFromInt(1))
	})
	if !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("unlocking with nothing locked: err = %v, want ErrInvariantViolation", err)
	}
}

func TestDebitLocked_RemovesFromBalanceAndLocked(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	u := newFundedUser(t, st, 1000)

	err := st.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.LockFunds(ctx, u.ID, decimal.NewFromInt(700)); err != nil {
			return err
		}
		return tx.DebitLocked(ctx, u.ID, decimal.NewFromInt(700))
	})
	if err != nil {
		t.Fatalf("debit locked: %v", err)
	}

	w, _ := st.GetWallet(ctx, u.ID)
	if !w.Balance.Equal(decimal.NewFromInt(300)) || !w.Locked.IsZero() {
		t.Errorf("wallet = balance %s locked %s, want 300/0", w.Balance, w.Locked)
	}
}

func TestDebitLocked_GuardsLockedAmount(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	u := newFundedUser(t, st, 1000)

	err := st.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.LockFunds(ctx, u.ID, decimal.NewFromInt(100)); err != nil {
			return err
		}
		return tx.DebitLocked(ctx, u.ID, decimal.NewFromInt(200))
	})
	if !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}
}

func TestMarkAuctionSettled_StampsOnce(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	u := newFundedUser(t, st, 0)

	auction := &domain.Auction{
		ID:        uuid.New(),
		AssetID:   uuid.New(),
		SellerID:  u.ID,
		Status:    domain.StatusEnded,
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
	}
	err := st.WithinTx(ctx, func(tx store.Tx) error {
		return tx.InsertAuction(ctx, auction)
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := st.WithinTx(ctx, func(tx store.Tx) error {
		return tx.MarkAuctionSettled(ctx, auction.ID, time.Now().UTC())
	}); err != nil {
		t.Fatalf("first stamp: %v", err)
	}

	err = st.WithinTx(ctx, func(tx store.Tx) error {
		return tx.MarkAuctionSettled(ctx, auction.ID, time.Now().UTC())
	})
	if !errors.Is(err, domain.ErrAlreadySettled) {
		t.Fatalf("second stamp: err = %v, want ErrAlreadySettled", err)
	}

	pending, err := st.ListEndedUnsettled(ctx, 10)
	if err != nil {
		t.Fatalf("list unsettled: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("settled auction still listed as pending")
	}
}

func TestUpdateAuctionStatus_GuardedTransition(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	u := newFundedUser(t, st, 0)

	auction := &domain.Auction{
		ID:       uuid.New(),
		AssetID:  uuid.New(),
		SellerID: u.ID,
		Status:   domain.StatusScheduled,
	}
	if err := st.WithinTx(ctx, func(tx store.Tx) error {
		return tx.InsertAuction(ctx, auction)
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// live → ended on a scheduled auction: the guard refuses.
	err := st.WithinTx(ctx, func(tx store.Tx) error {
		return tx.UpdateAuctionStatus(ctx, auction.ID, domain.StatusLive, domain.StatusEnded)
	})
	if !errors.Is(err, domain.ErrAuctionNotLive) {
		t.Errorf("err = %v, want ErrAuctionNotLive", err)
	}

	a, _ := st.GetAuction(ctx, auction.ID)
	if a.Status != domain.StatusScheduled {
		t.Errorf("status mutated to %s by failed transition", a.Status)
	}
}

func TestInsertEscrow_OncePerAuction(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	buyer := newFundedUser(t, st, 0)
	seller := newFundedUser(t, st, 0)
	auctionID := uuid.New()

	mk := func() *domain.Escrow {
		return &domain.Escrow{
			ID:        uuid.New(),
			AuctionID: auctionID,
			BuyerID:   buyer.ID,
			SellerID:  seller.ID,
			Amount:    decimal.NewFromInt(100),
			Status:    domain.EscrowHolding,
		}
	}

	if err := st.WithinTx(ctx, func(tx store.Tx) error {
		return tx.InsertEscrow(ctx, mk())
	}); err != nil {
		t.Fatalf("first escrow: %v", err)
	}
	err := st.WithinTx(ctx, func(tx store.Tx) error {
		return tx.InsertEscrow(ctx, mk())
	})
	if !errors.Is(err, domain.ErrAlreadySettled) {
		t.Errorf("second escrow: err = %v, want ErrAlreadySettled", err)
	}
}
