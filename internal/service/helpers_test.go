// Package service_test exercises the transaction engine against the in-memory
// store.  The fixtures below build the smallest world each test needs: users
// with funded wallets, an approved asset, and an auction in the right state.
package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/config"
	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
	"github.com/openlot/auctionhouse/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "test-access-secret-abcdefghijklmnop",
			RefreshSecret: "test-refresh-secret-abcdefghijklmnop",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
		},
		Auction: config.AuctionConfig{
			MinLeadTime: 5 * time.Minute,
			MaxDuration: 24 * time.Hour,
		},
		Wallet: config.WalletConfig{
			SignupBonus: 0,
			MinDeposit:  1,
		},
	}
}

var userSeq int

// seedUser creates an active user with the given role and wallet balance.
func seedUser(t *testing.T, st store.Store, role domain.UserRole, balance int64) *domain.User {
	t.Helper()
	userSeq++
	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("user%d@example.com", userSeq),
		Username:     fmt.Sprintf("user%d", userSeq),
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.CreateUserWithWallet(context.Background(), u, decimal.NewFromInt(balance)); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedAsset creates an asset for owner in the given review state.
func seedAsset(t *testing.T, st store.Store, owner *domain.User, status domain.AssetStatus) *domain.Asset {
	t.Helper()
	now := time.Now().UTC()
	a := &domain.Asset{
		ID:        uuid.New(),
		OwnerID:   owner.ID,
		Title:     "Vintage pocket watch",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateAsset(context.Background(), a); err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	return a
}

// seedAuction inserts an auction for seller directly in the given status,
// bypassing the lifecycle rules so tests can start from any state.
func seedAuction(t *testing.T, st store.Store, seller *domain.User, status domain.AuctionStatus) *domain.Auction {
	t.Helper()
	asset := seedAsset(t, st, seller, domain.AssetStatusApproved)
	now := time.Now().UTC()
	a := &domain.Auction{
		ID:        uuid.New(),
		AssetID:   asset.ID,
		SellerID:  seller.ID,
		Status:    status,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := st.WithinTx(context.Background(), func(tx store.Tx) error {
		return tx.InsertAuction(context.Background(), a)
	})
	if err != nil {
		t.Fatalf("seed auction: %v", err)
	}
	return a
}

// placeBid is a shorthand for a bid placement that must succeed.
func placeBid(t *testing.T, bids *service.BidService, auctionID, bidderID uuid.UUID, amount int64) *domain.PlaceBidResult {
	t.Helper()
	res, err := bids.PlaceBid(context.Background(), domain.PlaceBidRequest{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    decimal.NewFromInt(amount),
	})
	if err != nil {
		t.Fatalf("place bid %d: %v", amount, err)
	}
	return res
}

// wallet fetches the current wallet snapshot for a user.
func wallet(t *testing.T, st store.Store, userID uuid.UUID) *domain.Wallet {
	t.Helper()
	w, err := st.GetWallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return w
}

// wantDecimal fails the test if got != want.
func wantDecimal(t *testing.T, label string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("%s = %s, want %d", label, got, want)
	}
}
