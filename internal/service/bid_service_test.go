package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
	"github.com/openlot/auctionhouse/internal/store"
)

func TestPlaceBid_LocksFunds(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	bidder := seedUser(t, st, domain.RoleUser, 1000)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	res := placeBid(t, bids, auction.ID, bidder.ID, 500)

	if res.Bid == nil || !res.Bid.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("bid result = %+v, want amount 500", res.Bid)
	}
	if res.Outbid != nil {
		t.Errorf("first bid should displace nobody, got outbid %+v", res.Outbid)
	}

	w := wallet(t, st, bidder.ID)
	wantDecimal(t, "balance", w.Balance, 1000)
	wantDecimal(t, "locked", w.Locked, 500)
}

func TestPlaceBid_OutbidReleasesPreviousLock(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	alice := seedUser(t, st, domain.RoleUser, 1000)
	bob := seedUser(t, st, domain.RoleUser, 2000)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	placeBid(t, bids, auction.ID, alice.ID, 500)
	res := placeBid(t, bids, auction.ID, bob.ID, 700)

	if res.Outbid == nil || res.Outbid.BidderID != alice.ID {
		t.Fatalf("expected alice's bid displaced, got %+v", res.Outbid)
	}

	// The displaced bidder's lock is gone; the new bidder carries the full lock.
	wantDecimal(t, "alice locked", wallet(t, st, alice.ID).Locked, 0)
	wantDecimal(t, "bob locked", wallet(t, st, bob.ID).Locked, 700)
	wantDecimal(t, "alice balance", wallet(t, st, alice.ID).Balance, 1000)
}

func TestPlaceBid_SelfTopUpLocksDelta(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	bidder := seedUser(t, st, domain.RoleUser, 1000)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	placeBid(t, bids, auction.ID, bidder.ID, 500)
	placeBid(t, bids, auction.ID, bidder.ID, 800)

	// Total lock equals the latest bid, not the sum of both.
	wantDecimal(t, "locked after top-up", wallet(t, st, bidder.ID).Locked, 800)
}

func TestPlaceBid_RejectsNonIncreasingAmount(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	alice := seedUser(t, st, domain.RoleUser, 1000)
	bob := seedUser(t, st, domain.RoleUser, 1000)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	placeBid(t, bids, auction.ID, alice.ID, 500)

	for _, amount := range []int64{500, 499} {
		_, err := bids.PlaceBid(context.Background(), domain.PlaceBidRequest{
			AuctionID: auction.ID,
			BidderID:  bob.ID,
			Amount:    decimal.NewFromInt(amount),
		})
		if !errors.Is(err, domain.ErrBidTooLow) {
			t.Errorf("bid %d after 500: err = %v, want ErrBidTooLow", amount, err)
		}
	}
	// The rejected bidder's wallet stays untouched.
	wantDecimal(t, "bob locked", wallet(t, st, bob.ID).Locked, 0)
}

func TestPlaceBid_RejectsSeller(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	seller := seedUser(t, st, domain.RoleUser, 5000)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	_, err := bids.PlaceBid(context.Background(), domain.PlaceBidRequest{
		AuctionID: auction.ID,
		BidderID:  seller.ID,
		Amount:    decimal.NewFromInt(100),
	})
	if !errors.Is(err, domain.ErrSelfBid) {
		t.Errorf("seller bidding on own auction: err = %v, want ErrSelfBid", err)
	}
}

func TestPlaceBid_InsufficientFunds_NothingPersists(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	bidder := seedUser(t, st, domain.RoleUser, 100)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	_, err := bids.PlaceBid(context.Background(), domain.PlaceBidRequest{
		AuctionID: auction.ID,
		BidderID:  bidder.ID,
		Amount:    decimal.NewFromInt(150),
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// No bid row, no wallet movement.
	history, err := st.ListBids(context.Background(), auction.ID)
	if err != nil {
		t.Fatalf("list bids: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("rejected bid left %d bid rows", len(history))
	}
	w := wallet(t, st, bidder.ID)
	wantDecimal(t, "balance", w.Balance, 100)
	wantDecimal(t, "locked", w.Locked, 0)
}

func TestPlaceBid_RejectsWhenNotLive(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	bidder := seedUser(t, st, domain.RoleUser, 1000)

	for _, status := range []domain.AuctionStatus{domain.StatusScheduled, domain.StatusEnded, domain.StatusCancelled} {
		auction := seedAuction(t, st, seller, status)
		_, err := bids.PlaceBid(context.Background(), domain.PlaceBidRequest{
			AuctionID: auction.ID,
			BidderID:  bidder.ID,
			Amount:    decimal.NewFromInt(100),
		})
		if !errors.Is(err, domain.ErrAuctionNotLive) {
			t.Errorf("bid on %s auction: err = %v, want ErrAuctionNotLive", status, err)
		}
	}
}

func TestPlaceBid_RejectsNonPositiveAmount(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	bidder := seedUser(t, st, domain.RoleUser, 1000)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	for _, amount := range []int64{0, -5} {
		_, err := bids.PlaceBid(context.Background(), domain.PlaceBidRequest{
			AuctionID: auction.ID,
			BidderID:  bidder.ID,
			Amount:    decimal.NewFromInt(amount),
		})
		if !errors.Is(err, domain.ErrBidTooLow) {
			t.Errorf("bid %d: err = %v, want ErrBidTooLow", amount, err)
		}
	}
}

// TestPlaceBid_ConcurrentBidders slams one auction with concurrent bids and
// checks the committed state afterwards: the history is strictly increasing,
// exactly one bidder holds a lock, and that lock equals the highest amount.
func TestPlaceBid_ConcurrentBidders(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)
	seller := seedUser(t, st, domain.RoleUser, 0)
	auction := seedAuction(t, st, seller, domain.StatusLive)

	const bidders = 20
	users := make([]*domain.User, bidders)
	for i := range users {
		users[i] = seedUser(t, st, domain.RoleUser, 10000)
	}

	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(bidderID uuid.UUID, amount int64) {
			defer wg.Done()
			// Races are expected: most of these lose to a higher committed bid.
			_, _ = bids.PlaceBid(context.Background(), domain.PlaceBidRequest{
				AuctionID: auction.ID,
				BidderID:  bidderID,
				Amount:    decimal.NewFromInt(amount),
			})
		}(u.ID, int64(100+i*10))
	}
	wg.Wait()

	history, err := st.ListBids(context.Background(), auction.ID)
	if err != nil {
		t.Fatalf("list bids: %v", err)
	}
	if len(history) == 0 {
		t.Fatal("no bid was accepted")
	}
	for i := 1; i < len(history); i++ {
		if !history[i].Amount.GreaterThan(history[i-1].Amount) {
			t.Errorf("bid history not strictly increasing: %s then %s",
				history[i-1].Amount, history[i].Amount)
		}
	}

	highest := history[len(history)-1]
	lockedWallets := 0
	for _, u := range users {
		w := wallet(t, st, u.ID)
		if w.Locked.IsZero() {
			continue
		}
		lockedWallets++
		if u.ID != highest.BidderID || !w.Locked.Equal(highest.Amount) {
			t.Errorf("wallet %s locked %s; only the highest bidder (%s) may hold a lock of %s",
				u.ID, w.Locked, highest.BidderID, highest.Amount)
		}
	}
	if lockedWallets != 1 {
		t.Errorf("%d wallets hold locks, want exactly 1", lockedWallets)
	}
}

func TestListBids_UnknownAuction(t *testing.T) {
	st := store.NewMemory()
	bids := service.NewBidService(st)

	_, err := bids.ListBids(context.Background(), seedUser(t, st, domain.RoleUser, 0).ID)
	if !errors.Is(err, domain.ErrAuctionNotFound) {
		t.Errorf("err = %v, want ErrAuctionNotFound", err)
	}
}
