// Package events relays post-commit engine events to live listeners.  The
// redis publisher fans out to other instances; the hub publisher feeds the
// in-process websocket hub.  Publishing is best-effort: failures are logged
// and never surface to the operation that produced the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openlot/auctionhouse/internal/domain"
)

// Event types carried on the wire.
const (
	TypeBidPlaced      = "BID_PLACED"
	TypeAuctionStatus  = "AUCTION_STATUS"
	TypeAuctionSettled = "AUCTION_SETTLED"
)

// Envelope is the wire format for all auction events, JSON-encoded onto the
// per-auction channel.
type Envelope struct {
	Type      string    `json:"type"`
	AuctionID uuid.UUID `json:"auction_id"`
	Payload   any       `json:"payload"`
	At        time.Time `json:"at"`
}

// Channel returns the redis pub/sub channel for one auction's events.
func Channel(auctionID uuid.UUID) string {
	return "auction:" + auctionID.String()
}

// ──────────────────────────────────────────────────────────────────────────────
// Redis publisher
// ──────────────────────────────────────────────────────────────────────────────

// NewRedisClient configures a redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// RedisPublisher publishes auction events to per-auction redis channels so
// that every server instance can relay them to its websocket clients.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a RedisPublisher over an established client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) publish(auctionID uuid.UUID, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("events: marshal %s: %v", env.Type, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.client.Publish(ctx, Channel(auctionID), data).Err(); err != nil {
		log.Printf("events: publish %s to %s: %v", env.Type, Channel(auctionID), err)
	}
}

// PublishBidPlaced publishes a BID_PLACED event.
func (p *RedisPublisher) PublishBidPlaced(auctionID uuid.UUID, bid *domain.Bid) {
	p.publish(auctionID, Envelope{
		Type:      TypeBidPlaced,
		AuctionID: auctionID,
		Payload:   bid,
		At:        time.Now().UTC(),
	})
}

// PublishAuctionStatus publishes an AUCTION_STATUS event.
func (p *RedisPublisher) PublishAuctionStatus(auctionID uuid.UUID, status domain.AuctionStatus) {
	p.publish(auctionID, Envelope{
		Type:      TypeAuctionStatus,
		AuctionID: auctionID,
		Payload:   map[string]string{"status": string(status)},
		At:        time.Now().UTC(),
	})
}

// PublishSettled publishes an AUCTION_SETTLED event.
func (p *RedisPublisher) PublishSettled(auctionID uuid.UUID, escrow *domain.Escrow) {
	p.publish(auctionID, Envelope{
		Type:      TypeAuctionSettled,
		AuctionID: auctionID,
		Payload:   escrow,
		At:        time.Now().UTC(),
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Hub publisher
// ──────────────────────────────────────────────────────────────────────────────

// Broadcaster is the slice of the websocket hub the publisher needs.
type Broadcaster interface {
	BroadcastToAuction(auctionID uuid.UUID, data []byte)
}

// HubPublisher relays events straight into the in-process websocket hub.
// Used on its own when redis is disabled, or alongside the redis publisher.
type HubPublisher struct {
	hub Broadcaster
}

// NewHubPublisher creates a HubPublisher.
func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) publish(auctionID uuid.UUID, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("events: marshal %s: %v", env.Type, err)
		return
	}
	p.hub.BroadcastToAuction(auctionID, data)
}

// PublishBidPlaced relays a BID_PLACED event to the hub.
func (p *HubPublisher) PublishBidPlaced(auctionID uuid.UUID, bid *domain.Bid) {
	p.publish(auctionID, Envelope{Type: TypeBidPlaced, AuctionID: auctionID, Payload: bid, At: time.Now().UTC()})
}

// PublishAuctionStatus relays an AUCTION_STATUS event to the hub.
func (p *HubPublisher) PublishAuctionStatus(auctionID uuid.UUID, status domain.AuctionStatus) {
	p.publish(auctionID, Envelope{
		Type:      TypeAuctionStatus,
		AuctionID: auctionID,
		Payload:   map[string]string{"status": string(status)},
		At:        time.Now().UTC(),
	})
}

// PublishSettled relays an AUCTION_SETTLED event to the hub.
func (p *HubPublisher) PublishSettled(auctionID uuid.UUID, escrow *domain.Escrow) {
	p.publish(auctionID, Envelope{Type: TypeAuctionSettled, AuctionID: auctionID, Payload: escrow, At: time.Now().UTC()})
}

// ──────────────────────────────────────────────────────────────────────────────
// Multi publisher
// ──────────────────────────────────────────────────────────────────────────────

// Publisher is the full event surface implemented by every publisher here.
type Publisher interface {
	PublishBidPlaced(auctionID uuid.UUID, bid *domain.Bid)
	PublishAuctionStatus(auctionID uuid.UUID, status domain.AuctionStatus)
	PublishSettled(auctionID uuid.UUID, escrow *domain.Escrow)
}

// Multi fans one event out to several publishers.
type Multi []Publisher

// PublishBidPlaced fans out to all publishers.
func (m Multi) PublishBidPlaced(auctionID uuid.UUID, bid *domain.Bid) {
	for _, p := range m {
		p.PublishBidPlaced(auctionID, bid)
	}
}

// PublishAuctionStatus fans out to all publishers.
func (m Multi) PublishAuctionStatus(auctionID uuid.UUID, status domain.AuctionStatus) {
	for _, p := range m {
		p.PublishAuctionStatus(auctionID, status)
	}
}

// PublishSettled fans out to all publishers.
func (m Multi) PublishSettled(auctionID uuid.UUID, escrow *domain.Escrow) {
	for _, p := range m {
		p.PublishSettled(auctionID, escrow)
	}
}
