package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/openlot/auctionhouse/internal/domain"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisPublisherBidPlaced(t *testing.T) {
	client := setupRedis(t)
	pub := NewRedisPublisher(client)

	auctionID := uuid.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, Channel(auctionID))
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx) // wait for the subscription confirmation
	require.NoError(t, err)

	bid := &domain.Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BidderID:  uuid.New(),
		Amount:    decimal.NewFromInt(700),
		CreatedAt: time.Now().UTC(),
	}
	pub.PublishBidPlaced(auctionID, bid)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
	require.Equal(t, TypeBidPlaced, env.Type)
	require.Equal(t, auctionID, env.AuctionID)
}

type recordingHub struct {
	auctionID uuid.UUID
	messages  [][]byte
}

func (h *recordingHub) BroadcastToAuction(auctionID uuid.UUID, data []byte) {
	h.auctionID = auctionID
	h.messages = append(h.messages, data)
}

func TestHubPublisherStatus(t *testing.T) {
	hub := &recordingHub{}
	pub := NewHubPublisher(hub)

	auctionID := uuid.New()
	pub.PublishAuctionStatus(auctionID, domain.StatusLive)

	require.Equal(t, auctionID, hub.auctionID)
	require.Len(t, hub.messages, 1)

	var env Envelope
	require.NoError(t, json.Unmarshal(hub.messages[0], &env))
	require.Equal(t, TypeAuctionStatus, env.Type)
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recordingHub{}, &recordingHub{}
	multi := Multi{NewHubPublisher(a), NewHubPublisher(b)}

	auctionID := uuid.New()
	multi.PublishSettled(auctionID, &domain.Escrow{
		ID:        uuid.New(),
		AuctionID: auctionID,
		Amount:    decimal.NewFromInt(700),
		Status:    domain.EscrowHolding,
	})

	require.Len(t, a.messages, 1)
	require.Len(t, b.messages, 1)
}
