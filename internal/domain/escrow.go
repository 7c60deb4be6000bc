package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Escrow
// ──────────────────────────────────────────────────────────────────────────────

// EscrowStatus is the state of a platform-held escrow.  Holding is the only
// non-terminal status.
type EscrowStatus string

const (
	EscrowHolding  EscrowStatus = "holding"
	EscrowReleased EscrowStatus = "released" // paid out to the seller
	EscrowRefunded EscrowStatus = "refunded" // returned to the buyer
)

// Escrow represents platform-held funds for one settled auction.  Created at
// most once per auction, only by settlement; the winner's locked funds move
// here rather than back into their balance.
type Escrow struct {
	ID        uuid.UUID       `json:"id"         db:"id"`
	AuctionID uuid.UUID       `json:"auction_id" db:"auction_id"`
	BuyerID   uuid.UUID       `json:"buyer_id"   db:"buyer_id"`
	SellerID  uuid.UUID       `json:"seller_id"  db:"seller_id"`
	Amount    decimal.Decimal `json:"amount"     db:"amount"`
	Status    EscrowStatus    `json:"status"     db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// IsHolding reports whether the escrowed funds are still in the platform's
// hands (dispute window open).
func (e *Escrow) IsHolding() bool {
	return e.Status == EscrowHolding
}

// ──────────────────────────────────────────────────────────────────────────────
// Settlement
// ──────────────────────────────────────────────────────────────────────────────

// SettlementStatus is the outcome of a settlement attempt.
type SettlementStatus string

const (
	SettlementSettled SettlementStatus = "SETTLED"
	SettlementNoBids  SettlementStatus = "NO_BIDS"
)

// SettlementResult reports what settling an ended auction produced.  Escrow
// is nil when Status is SettlementNoBids.
type SettlementResult struct {
	Status SettlementStatus `json:"status"`
	Escrow *Escrow          `json:"escrow,omitempty"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Dispute
// ──────────────────────────────────────────────────────────────────────────────

// DisputeStatus is the state of a buyer-raised dispute.
type DisputeStatus string

const (
	DisputeOpen           DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
)

// Resolution is the admin decision on an open dispute.
type Resolution string

const (
	ResolutionRefund  Resolution = "REFUND"  // buyer gets the escrowed amount back
	ResolutionRelease Resolution = "RELEASE" // seller receives the escrowed amount
)

// IsValid reports whether the resolution is one of the closed enumeration.
func (r Resolution) IsValid() bool {
	return r == ResolutionRefund || r == ResolutionRelease
}

// Dispute is a buyer's challenge against a holding escrow.  At most one per
// escrow; resolvable exactly once.
type Dispute struct {
	ID         uuid.UUID     `json:"id"          db:"id"`
	EscrowID   uuid.UUID     `json:"escrow_id"   db:"escrow_id"`
	BuyerID    uuid.UUID     `json:"buyer_id"    db:"buyer_id"`
	Reason     string        `json:"reason"      db:"reason"`
	Status     DisputeStatus `json:"status"      db:"status"`
	Resolution *Resolution   `json:"resolution"  db:"resolution"`
	ResolvedBy *uuid.UUID    `json:"resolved_by" db:"resolved_by"`
	CreatedAt  time.Time     `json:"created_at"  db:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at" db:"resolved_at"`
}

// IsOpen reports whether the dispute still awaits an admin decision.
func (d *Dispute) IsOpen() bool {
	return d.Status == DisputeOpen
}

// ──────────────────────────────────────────────────────────────────────────────
// AuditLogEntry
// ──────────────────────────────────────────────────────────────────────────────

// AuditLogEntry is an append-only record of an admin-triggered money movement.
type AuditLogEntry struct {
	ID        uuid.UUID       `json:"id"        db:"id"`
	ActorID   uuid.UUID       `json:"actor_id"  db:"actor_id"`
	Action    string          `json:"action"    db:"action"`
	EscrowID  *uuid.UUID      `json:"escrow_id" db:"escrow_id"`
	Amount    decimal.Decimal `json:"amount"    db:"amount"`
	Metadata  string          `json:"metadata"  db:"metadata"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
