// Package store defines the persistence contract the transaction engine runs
// against, together with a PostgreSQL implementation (sqlx) and an in-memory
// implementation used by unit tests.  Every money-moving operation executes
// inside WithinTx; the implementations guarantee that concurrent transactions
// touching the same rows serialize (row locks in Postgres, a store-wide mutex
// in memory).
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/domain"
)

// Tx is the transactional view handed to WithinTx callbacks.  Reads inside a
// Tx observe the transaction's own writes and hold row locks where the
// implementation needs them (GetWalletForUpdate, GetAuctionForUpdate).
//
// LockFunds and UnlockFunds are guarded mutations: they fail without touching
// the row when the wallet invariant 0 ≤ locked ≤ balance would break.
// LockFunds fails with domain.ErrInsufficientFunds; UnlockFunds fails with
// domain.ErrInvariantViolation — a negative lock is a bug to report, never a
// value to clamp.
type Tx interface {
	// Wallets
	GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	LockFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	UnlockFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	// DebitLocked removes amount from both balance and locked in one guarded
	// step: the money leaves the wallet entirely instead of becoming spendable
	// again.  Settlement uses this to convert a winning bid's lock into an
	// escrow hold.  Fails with domain.ErrInvariantViolation when locked does
	// not cover the amount.
	DebitLocked(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	CreditBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	AppendWalletEntry(ctx context.Context, entry *domain.WalletEntry) error

	// Assets
	GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
	UpdateAssetStatus(ctx context.Context, id uuid.UUID, status domain.AssetStatus, reviewedBy uuid.UUID) error

	// Auctions
	GetAuctionForUpdate(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	HasNonCancelledAuction(ctx context.Context, assetID uuid.UUID) (bool, error)
	InsertAuction(ctx context.Context, a *domain.Auction) error
	// UpdateAuctionStatus performs a guarded transition: the row is updated
	// only when its current status equals from.  Zero rows affected means the
	// persisted state moved on, and domain.ErrAuctionNot* is returned.
	UpdateAuctionStatus(ctx context.Context, id uuid.UUID, from, to domain.AuctionStatus) error
	// MarkAuctionSettled stamps settled_at; guarded so a second stamp fails
	// with domain.ErrAlreadySettled.
	MarkAuctionSettled(ctx context.Context, id uuid.UUID, at time.Time) error

	// Bids
	HighestBid(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error)
	InsertBid(ctx context.Context, b *domain.Bid) error

	// Escrows
	GetEscrowByAuction(ctx context.Context, auctionID uuid.UUID) (*domain.Escrow, error)
	GetEscrowForUpdate(ctx context.Context, id uuid.UUID) (*domain.Escrow, error)
	InsertEscrow(ctx context.Context, e *domain.Escrow) error
	UpdateEscrowStatus(ctx context.Context, id uuid.UUID, from, to domain.EscrowStatus) error

	// Disputes
	GetDisputeByEscrow(ctx context.Context, escrowID uuid.UUID) (*domain.Dispute, error)
	GetDisputeForUpdate(ctx context.Context, id uuid.UUID) (*domain.Dispute, error)
	InsertDispute(ctx context.Context, d *domain.Dispute) error
	MarkDisputeResolved(ctx context.Context, id uuid.UUID, resolution domain.Resolution, adminID uuid.UUID, at time.Time) error

	// Audit
	AppendAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error
}

// Store is the root persistence handle injected into services.  WithinTx runs
// fn atomically: when fn returns an error nothing persists, otherwise
// everything does.  The remaining methods are plain reads and writes that do
// not participate in the engine's invariants.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Users
	CreateUserWithWallet(ctx context.Context, u *domain.User, openingBalance decimal.Decimal) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Wallets
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	WalletEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.WalletEntry, error)

	// Assets
	CreateAsset(ctx context.Context, a *domain.Asset) error
	GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
	ListAssets(ctx context.Context, status domain.AssetStatus, limit, offset int) ([]*domain.Asset, error)

	// Auctions
	GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	ListAuctions(ctx context.Context, status domain.AuctionStatus, limit, offset int) ([]*domain.Auction, error)
	// ListScheduledDue / ListLiveDue feed the scheduler: auctions whose start
	// (respectively end) time has passed but whose status has not moved yet.
	ListScheduledDue(ctx context.Context, now time.Time) ([]*domain.Auction, error)
	ListLiveDue(ctx context.Context, now time.Time) ([]*domain.Auction, error)
	// ListEndedUnsettled returns ended auctions not yet stamped settled, so
	// the scheduler can retry settlements that previously failed.
	ListEndedUnsettled(ctx context.Context, limit int) ([]*domain.Auction, error)

	// Bids
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error)

	// Escrows / disputes / audit
	GetEscrow(ctx context.Context, id uuid.UUID) (*domain.Escrow, error)
	GetDispute(ctx context.Context, id uuid.UUID) (*domain.Dispute, error)
	ListDisputes(ctx context.Context, status domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error)
	ListAuditLog(ctx context.Context, limit, offset int) ([]*domain.AuditLogEntry, error)

	// Notifications
	InsertNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error)
}
