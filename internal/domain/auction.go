package domain

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// AuctionStatus
// ──────────────────────────────────────────────────────────────────────────────

// AuctionStatus is the lifecycle state of an auction.  Scheduled auctions go
// live and end on the clock (driven by the scheduler); sellers may cancel only
// while still scheduled.  Cancelled and ended are terminal.
type AuctionStatus string

const (
	StatusScheduled AuctionStatus = "scheduled"
	StatusLive      AuctionStatus = "live"
	StatusEnded     AuctionStatus = "ended"
	StatusCancelled AuctionStatus = "cancelled"
)

// IsTerminal reports whether no further lifecycle transition is possible.
func (s AuctionStatus) IsTerminal() bool {
	return s == StatusEnded || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
// scheduled → live | cancelled, live → ended.
func (s AuctionStatus) CanTransitionTo(next AuctionStatus) bool {
	switch s {
	case StatusScheduled:
		return next == StatusLive || next == StatusCancelled
	case StatusLive:
		return next == StatusEnded
	default:
		return false
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Auction
// ──────────────────────────────────────────────────────────────────────────────

// Auction is a time-boxed bidding window over one approved asset.  SettledAt
// is set exactly once by settlement, for both the escrow and the no-bids
// outcome.
type Auction struct {
	ID        uuid.UUID     `json:"id"         db:"id"`
	AssetID   uuid.UUID     `json:"asset_id"   db:"asset_id"`
	SellerID  uuid.UUID     `json:"seller_id"  db:"seller_id"`
	Status    AuctionStatus `json:"status"     db:"status"`
	StartTime time.Time     `json:"start_time" db:"start_time"`
	EndTime   time.Time     `json:"end_time"   db:"end_time"`
	SettledAt *time.Time    `json:"settled_at" db:"settled_at"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// IsLive reports whether bids are currently accepted.  Status is the single
// source of truth; the times are informational once the scheduler has flipped
// the status.
func (a *Auction) IsLive() bool {
	return a.Status == StatusLive
}

// TimeLeft returns the remaining bidding time, never negative.
func (a *Auction) TimeLeft() time.Duration {
	d := time.Until(a.EndTime)
	if d < 0 {
		return 0
	}
	return d
}

// ValidateWindow checks creation-time rules for the bidding window against
// the supplied clock reading: the auction must start at least minLead from
// now, end after it starts, and run no longer than maxDuration.
func (a *Auction) ValidateWindow(now time.Time, minLead, maxDuration time.Duration) error {
	if a.StartTime.Before(now.Add(minLead)) {
		return ErrInvalidAuctionWindow
	}
	if !a.EndTime.After(a.StartTime) {
		return ErrInvalidAuctionWindow
	}
	if a.EndTime.Sub(a.StartTime) > maxDuration {
		return ErrInvalidAuctionWindow
	}
	return nil
}
