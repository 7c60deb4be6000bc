package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/config"
	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/store"
)

// WalletService exposes the read side of the wallet ledger plus funding.
// Lock/unlock discipline lives inside the bid, settlement, and dispute
// transactions — no caller can move locked funds directly.
type WalletService struct {
	store store.Store
	cfg   *config.Config
}

// NewWalletService creates a WalletService.
func NewWalletService(st store.Store, cfg *config.Config) *WalletService {
	return &WalletService{store: st, cfg: cfg}
}

// GetWallet returns the user's wallet snapshot.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.store.GetWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("wallet_service.GetWallet: %w", err)
	}
	return w, nil
}

// GetAvailable returns balance - locked for the user.
func (s *WalletService) GetAvailable(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	w, err := s.store.GetWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet_service.GetAvailable: %w", err)
	}
	return w.Available(), nil
}

// Deposit credits the user's balance and records a ledger entry, atomically.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, error) {
	minDeposit := decimal.NewFromFloat(s.cfg.Wallet.MinDeposit)
	if amount.LessThanOrEqual(decimal.Zero) || amount.LessThan(minDeposit) {
		return nil, domain.ErrInvalidAmount
	}

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		wallet, err := tx.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.CreditBalance(ctx, userID, amount); err != nil {
			return err
		}
		return tx.AppendWalletEntry(ctx, &domain.WalletEntry{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			Type:        domain.EntryDeposit,
			Amount:      amount,
			Description: fmt.Sprintf("Deposit %s", amount.StringFixed(2)),
			CreatedAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetWallet(ctx, userID)
}

// GetEntries returns paginated ledger history for the user's wallet.
func (s *WalletService) GetEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.WalletEntry, error) {
	entries, err := s.store.WalletEntries(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wallet_service.GetEntries: %w", err)
	}
	return entries, nil
}
