package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/domain"
)

// ── Lifecycle transitions ─────────────────────────────────────────────────────

func TestAuctionStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to domain.AuctionStatus
		want     bool
	}{
		{domain.StatusScheduled, domain.StatusLive, true},
		{domain.StatusScheduled, domain.StatusCancelled, true},
		{domain.StatusScheduled, domain.StatusEnded, false},
		{domain.StatusLive, domain.StatusEnded, true},
		{domain.StatusLive, domain.StatusCancelled, false},
		{domain.StatusLive, domain.StatusScheduled, false},
		{domain.StatusEnded, domain.StatusLive, false},
		{domain.StatusCancelled, domain.StatusLive, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s → %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAuctionStatus_IsTerminal(t *testing.T) {
	if domain.StatusScheduled.IsTerminal() || domain.StatusLive.IsTerminal() {
		t.Error("scheduled/live must not be terminal")
	}
	if !domain.StatusEnded.IsTerminal() || !domain.StatusCancelled.IsTerminal() {
		t.Error("ended/cancelled must be terminal")
	}
}

// ── Window validation ─────────────────────────────────────────────────────────

func TestAuction_ValidateWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	minLead := 5 * time.Minute
	maxDuration := 24 * time.Hour

	valid := &domain.Auction{
		StartTime: now.Add(time.Hour),
		EndTime:   now.Add(3 * time.Hour),
	}
	if err := valid.ValidateWindow(now, minLead, maxDuration); err != nil {
		t.Errorf("valid window rejected: %v", err)
	}

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"starts in the past", now.Add(-time.Hour), now.Add(time.Hour)},
		{"starts within lead time", now.Add(time.Minute), now.Add(time.Hour)},
		{"ends before start", now.Add(time.Hour), now.Add(30 * time.Minute)},
		{"zero duration", now.Add(time.Hour), now.Add(time.Hour)},
		{"runs past max duration", now.Add(time.Hour), now.Add(26 * time.Hour)},
	}
	for _, tc := range cases {
		a := &domain.Auction{StartTime: tc.start, EndTime: tc.end}
		if err := a.ValidateWindow(now, minLead, maxDuration); err != domain.ErrInvalidAuctionWindow {
			t.Errorf("%s: err = %v, want ErrInvalidAuctionWindow", tc.name, err)
		}
	}
}

// ── Wallet math ───────────────────────────────────────────────────────────────

func TestWallet_Available(t *testing.T) {
	w := &domain.Wallet{
		Balance: decimal.NewFromInt(1000),
		Locked:  decimal.NewFromInt(300),
	}
	if !w.Available().Equal(decimal.NewFromInt(700)) {
		t.Errorf("Available() = %s, want 700", w.Available())
	}
}

// ── Roles ─────────────────────────────────────────────────────────────────────

func TestUserRole_Permissions(t *testing.T) {
	if domain.RoleUser.CanAccessBackoffice() {
		t.Error("plain users must not access the backoffice")
	}
	for _, r := range []domain.UserRole{domain.RoleAdmin, domain.RoleOps, domain.RoleReadOnly} {
		if !r.CanAccessBackoffice() {
			t.Errorf("%s should access the backoffice", r)
		}
	}
	if !domain.RoleAdmin.CanResolveDisputes() || !domain.RoleOps.CanResolveDisputes() {
		t.Error("admin and ops should resolve disputes")
	}
	if domain.RoleReadOnly.CanResolveDisputes() || domain.RoleUser.CanResolveDisputes() {
		t.Error("readonly and user must not resolve disputes")
	}
	if !domain.RoleAdmin.CanReviewAssets() || !domain.RoleOps.CanReviewAssets() {
		t.Error("admin and ops should review assets")
	}
	if domain.RoleReadOnly.CanReviewAssets() || domain.RoleUser.CanReviewAssets() {
		t.Error("readonly and user must not review assets")
	}
}

// ── Resolutions ───────────────────────────────────────────────────────────────

func TestResolution_IsValid(t *testing.T) {
	if !domain.ResolutionRefund.IsValid() || !domain.ResolutionRelease.IsValid() {
		t.Error("REFUND and RELEASE are valid resolutions")
	}
	for _, r := range []domain.Resolution{"", "SPLIT", "refund"} {
		if r.IsValid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}
