package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is an accepted offer on a live auction.  Bids are append-only and
// immutable; the accepted amounts for one auction form a strictly increasing
// sequence in acceptance order.
type Bid struct {
	ID        uuid.UUID       `json:"id"         db:"id"`
	AuctionID uuid.UUID       `json:"auction_id" db:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"  db:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"     db:"amount"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// PlaceBidRequest carries one bid attempt into the bid engine.
type PlaceBidRequest struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
}

// PlaceBidResult is returned after a successful placement.  Outbid carries
// the displaced highest bid, if any, so callers can notify its owner.
type PlaceBidResult struct {
	Bid    *Bid `json:"bid"`
	Outbid *Bid `json:"outbid,omitempty"`
}
