package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/service"
	"github.com/openlot/auctionhouse/internal/store"
)

func TestRegister_CreatesUserWithWallet(t *testing.T) {
	st := store.NewMemory()
	cfg := testConfig()
	cfg.Wallet.SignupBonus = 100
	auth := service.NewAuthService(st, cfg)

	resp, err := auth.Register(context.Background(), service.RegisterRequest{
		Username: "collector",
		Email:    "collector@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("registration returned empty tokens")
	}
	if resp.User.Role != domain.RoleUser {
		t.Errorf("role = %s, want user", resp.User.Role)
	}

	wantDecimal(t, "signup bonus", wallet(t, st, resp.User.ID).Balance, 100)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	st := store.NewMemory()
	auth := service.NewAuthService(st, testConfig())

	req := service.RegisterRequest{Username: "first", Email: "dup@example.com", Password: "password123"}
	if _, err := auth.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	req.Username = "second"
	_, err := auth.Register(context.Background(), req)
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin_RoundTrip(t *testing.T) {
	st := store.NewMemory()
	auth := service.NewAuthService(st, testConfig())
	ctx := context.Background()

	reg, err := auth.Register(ctx, service.RegisterRequest{
		Username: "seller42", Email: "seller42@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := auth.Login(ctx, "seller42@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.ID != reg.User.ID {
		t.Errorf("login returned user %s, want %s", resp.User.ID, reg.User.ID)
	}

	claims, err := auth.ParseAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != reg.User.ID.String() {
		t.Errorf("token subject = %s, want %s", claims.Subject, reg.User.ID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	st := store.NewMemory()
	auth := service.NewAuthService(st, testConfig())
	ctx := context.Background()

	if _, err := auth.Register(ctx, service.RegisterRequest{
		Username: "victim", Email: "victim@example.com", Password: "password123",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := auth.Login(ctx, "victim@example.com", "wrongpassword")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	// Unknown email maps to the same error, no enumeration.
	_, err = auth.Login(ctx, "nobody@example.com", "password123")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestParseAccessToken_RejectsRefreshToken(t *testing.T) {
	st := store.NewMemory()
	auth := service.NewAuthService(st, testConfig())

	reg, err := auth.Register(context.Background(), service.RegisterRequest{
		Username: "tokenuser", Email: "tokenuser@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// A refresh token must not pass as an access token: different secret,
	// different type claim.
	if _, err := auth.ParseAccessToken(reg.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("refresh token accepted as access token: err = %v", err)
	}
}

func TestRefreshToken_IssuesNewPair(t *testing.T) {
	st := store.NewMemory()
	auth := service.NewAuthService(st, testConfig())
	ctx := context.Background()

	reg, err := auth.Register(ctx, service.RegisterRequest{
		Username: "refresher", Email: "refresher@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	access, refresh, err := auth.RefreshToken(ctx, reg.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" || refresh == "" {
		t.Error("refresh returned empty tokens")
	}
	if _, err := auth.ParseAccessToken(access); err != nil {
		t.Errorf("new access token invalid: %v", err)
	}

	// The access token is not usable for refreshing.
	if _, _, err := auth.RefreshToken(ctx, reg.AccessToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("access token accepted for refresh: err = %v", err)
	}
}

func TestParseAccessToken_Garbage(t *testing.T) {
	auth := service.NewAuthService(store.NewMemory(), testConfig())

	for _, tok := range []string{"", "not.a.jwt", "a.b.c"} {
		if _, err := auth.ParseAccessToken(tok); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("token %q: err = %v, want ErrTokenInvalid", tok, err)
		}
	}
}
