// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines the structs exchanged with connected clients.
package ws

import (
	"github.com/google/uuid"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeSubscribed   MsgType = "subscribed"
	MsgTypeUnsubscribed MsgType = "unsubscribed"
	MsgTypeError        MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// Inbound — clients manage their auction subscriptions.
// ──────────────────────────────────────────────────────────────────────────────

// SubscribeRequest is the only inbound message clients may send.  Action is
// "subscribe" or "unsubscribe"; everything else is discarded.
type SubscribeRequest struct {
	Action    string    `json:"action"`
	AuctionID uuid.UUID `json:"auction_id"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Outbound control messages.  Auction events (bids, status changes,
// settlements) are relayed verbatim from the events package.
// ──────────────────────────────────────────────────────────────────────────────

// AckMessage confirms a subscription change to one client.
type AckMessage struct {
	Type      MsgType   `json:"type"`
	AuctionID uuid.UUID `json:"auction_id"`
}

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
