package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind enumerates user-facing alerts produced by the engine.
type NotificationKind string

const (
	NotifyOutbid          NotificationKind = "OUTBID"
	NotifyAuctionWon      NotificationKind = "AUCTION_WON"
	NotifyDisputeResolved NotificationKind = "DISPUTE_RESOLVED"
)

// Notification is a user-facing alert queued strictly after the transaction
// that produced it commits.  Delivery failures are logged and swallowed,
// never rolled back into the primary operation.
type Notification struct {
	ID        uuid.UUID        `json:"id"         db:"id"`
	UserID    uuid.UUID        `json:"user_id"    db:"user_id"`
	Kind      NotificationKind `json:"kind"       db:"kind"`
	Body      string           `json:"body"       db:"body"`
	RefID     *uuid.UUID       `json:"ref_id"     db:"ref_id"` // auction, escrow, or dispute ID
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
