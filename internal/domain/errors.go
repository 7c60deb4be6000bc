package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Auction errors
var (
	// ErrAuctionNotFound is returned when no auction matches the given criteria.
	ErrAuctionNotFound = errors.New("auction not found")

	// ErrAuctionNotLive is returned when a bid is placed on an auction that is
	// not in StatusLive.
	ErrAuctionNotLive = errors.New("auction is not live")

	// ErrAuctionNotScheduled is returned when a cancel is attempted on an
	// auction that has already left StatusScheduled.
	ErrAuctionNotScheduled = errors.New("auction is no longer scheduled")

	// ErrAuctionNotEnded is returned when settlement is attempted before the
	// auction has ended.
	ErrAuctionNotEnded = errors.New("auction has not ended")

	// ErrAssetNotApproved is returned when an auction is created against an
	// asset that is not in AssetStatusApproved.
	ErrAssetNotApproved = errors.New("asset is not approved for auction")

	// ErrAssetAlreadyListed is returned when the asset already has a
	// non-cancelled auction.
	ErrAssetAlreadyListed = errors.New("asset already has an active auction")

	// ErrInvalidAuctionWindow is returned when the start/end times violate the
	// lead-time or duration rules.
	ErrInvalidAuctionWindow = errors.New("invalid auction time window")
)

// Bid errors
var (
	// ErrBidTooLow is returned when the bid does not exceed the current
	// highest bid (or is not positive on a fresh auction).
	ErrBidTooLow = errors.New("bid must exceed the current highest bid")

	// ErrSelfBid is returned when a seller bids on their own auction.
	ErrSelfBid = errors.New("seller cannot bid on own auction")
)

// Settlement / escrow / dispute errors
var (
	// ErrEscrowNotFound is returned when no escrow matches the given criteria.
	ErrEscrowNotFound = errors.New("escrow not found")

	// ErrAlreadySettled is returned when an auction already has an escrow.
	ErrAlreadySettled = errors.New("auction is already settled")

	// ErrEscrowNotHolding is returned when a dispute operation targets an
	// escrow that is no longer holding funds.
	ErrEscrowNotHolding = errors.New("escrow is not holding funds")

	// ErrDisputeNotFound is returned when no dispute matches the given criteria.
	ErrDisputeNotFound = errors.New("dispute not found")

	// ErrDisputeExists is returned when the escrow already has a dispute.
	ErrDisputeExists = errors.New("escrow already has a dispute")

	// ErrDisputeResolved is returned when a resolution is attempted on a
	// dispute that is not open.
	ErrDisputeResolved = errors.New("dispute is already resolved")

	// ErrInvalidResolution is returned when the resolution is neither REFUND
	// nor RELEASE.
	ErrInvalidResolution = errors.New("invalid resolution: must be REFUND or RELEASE")

	// ErrDisputeReasonRequired is returned when a dispute is raised with an
	// empty reason.
	ErrDisputeReasonRequired = errors.New("dispute reason is required")
)

// User / wallet errors
var (
	// ErrUserNotFound is returned when no user matches the given criteria.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on registration when the email already exists.
	ErrEmailTaken = errors.New("email address is already registered")

	// ErrUsernameTaken is returned on registration when the username already exists.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserInactive is returned when a deactivated account attempts to
	// authenticate.
	ErrUserInactive = errors.New("user account is deactivated")

	// ErrWalletNotFound is returned when no wallet exists for the requested user.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientFunds is returned when a wallet's available balance
	// (balance - locked) cannot cover the requested lock.
	ErrInsufficientFunds = errors.New("insufficient available funds")

	// ErrInvalidAmount is returned when a monetary amount is zero, negative,
	// or unparsable.
	ErrInvalidAmount = errors.New("amount must be a positive decimal")

	// ErrInvariantViolation signals a contradiction in money-tracking state:
	// an unlock that would drive locked negative, or a settlement that finds
	// the winner's locked funds below the winning amount.  It indicates a bug,
	// is never auto-corrected, and is presented to users as a generic failure.
	ErrInvariantViolation = errors.New("wallet invariant violation")
)

// Asset errors
var (
	// ErrAssetNotFound is returned when no asset matches the given criteria.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAssetTitleRequired is returned when an asset is submitted with an
	// empty title.
	ErrAssetTitleRequired = errors.New("asset title is required")

	// ErrAssetAlreadyReviewed is returned when review is attempted on an
	// asset that has already left pending.
	ErrAssetAlreadyReviewed = errors.New("asset has already been reviewed")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the authenticated user lacks the required
	// role or does not own the target entity.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrTokenExpired is returned when a JWT or refresh token has passed its TTL.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound can stay in sync automatically.
var notFoundErrors = []error{
	ErrAuctionNotFound,
	ErrEscrowNotFound,
	ErrDisputeNotFound,
	ErrUserNotFound,
	ErrWalletNotFound,
	ErrAssetNotFound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors. Use this instead of comparing error values
// directly when translating domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict
// (duplicate settlement, double resolution, stale lifecycle state).
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrEmailTaken,
		ErrUsernameTaken,
		ErrAlreadySettled,
		ErrDisputeExists,
		ErrDisputeResolved,
		ErrAuctionNotLive,
		ErrAuctionNotScheduled,
		ErrAuctionNotEnded,
		ErrEscrowNotHolding,
		ErrAssetAlreadyListed,
		ErrAssetAlreadyReviewed,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrInvalidCredentials,
		ErrUserInactive,
	}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
