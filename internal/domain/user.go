package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// UserRole
// ──────────────────────────────────────────────────────────────────────────────

// UserRole controls access levels in the back-office.
type UserRole string

const (
	RoleUser     UserRole = "user"     // buyer or seller
	RoleAdmin    UserRole = "admin"    // full back-office access
	RoleOps      UserRole = "ops"      // operations: asset review, settlement
	RoleReadOnly UserRole = "readonly" // read-only back-office access
)

// CanAccessBackoffice returns true for all non-standard roles.
func (r UserRole) CanAccessBackoffice() bool {
	return r != RoleUser
}

// CanResolveDisputes returns true for roles allowed to move escrowed money.
func (r UserRole) CanResolveDisputes() bool {
	return r == RoleAdmin || r == RoleOps
}

// CanReviewAssets returns true for roles allowed to approve or reject
// listings.  Readonly back-office accounts can browse the queue but not
// mutate it.
func (r UserRole) CanReviewAssets() bool {
	return r == RoleAdmin || r == RoleOps
}

// ──────────────────────────────────────────────────────────────────────────────
// User
// ──────────────────────────────────────────────────────────────────────────────

// User is the domain entity for registered accounts.
type User struct {
	ID           uuid.UUID `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	Username     string    `json:"username"   db:"username"`
	PasswordHash string    `json:"-"          db:"password_hash"` // never serialised
	Role         UserRole  `json:"role"       db:"role"`
	IsActive     bool      `json:"is_active"  db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Wallet
// ──────────────────────────────────────────────────────────────────────────────

// Wallet holds a user's platform balance.  Invariant: 0 ≤ locked ≤ balance,
// enforced by the store's guarded mutations — the struct itself is a snapshot.
type Wallet struct {
	ID        uuid.UUID       `json:"id"         db:"id"`
	UserID    uuid.UUID       `json:"user_id"    db:"user_id"`
	Balance   decimal.Decimal `json:"balance"    db:"balance"`
	Locked    decimal.Decimal `json:"locked"     db:"locked"` // reserved for active bids
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Available returns the balance that is free to bid with (not locked).
func (w *Wallet) Available() decimal.Decimal {
	return w.Balance.Sub(w.Locked)
}

// ──────────────────────────────────────────────────────────────────────────────
// WalletEntry
// ──────────────────────────────────────────────────────────────────────────────

// EntryType enumerates wallet ledger entry types.
type EntryType string

const (
	EntryDeposit       EntryType = "deposit"
	EntryBidLock       EntryType = "bid_lock"
	EntryBidUnlock     EntryType = "bid_unlock"
	EntryEscrowHold    EntryType = "escrow_hold"    // locked funds converted to escrow
	EntryEscrowRefund  EntryType = "escrow_refund"  // dispute resolved in buyer's favour
	EntryEscrowRelease EntryType = "escrow_release" // dispute resolved in seller's favour
)

// WalletEntry is an immutable record for every wallet mutation, written in the
// same transaction as the mutation itself.
type WalletEntry struct {
	ID          uuid.UUID       `json:"id"          db:"id"`
	WalletID    uuid.UUID       `json:"wallet_id"   db:"wallet_id"`
	Type        EntryType       `json:"type"        db:"type"`
	Amount      decimal.Decimal `json:"amount"      db:"amount"`
	RefID       *uuid.UUID      `json:"ref_id"      db:"ref_id"` // bid, escrow, or dispute ID
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"created_at"  db:"created_at"`
}
