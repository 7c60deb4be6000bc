package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/domain"
)

// Postgres implements Store on top of *sqlx.DB.  All money columns are
// NUMERIC; decimal.Decimal maps to them exactly, so no float ever touches a
// monetary value.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open sqlx handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// WithinTx runs fn inside a single database transaction.  Row locks taken by
// the *ForUpdate reads serialize concurrent transactions on the same wallet
// or auction; the loser of a race re-reads committed state, which is how a
// stale bid gets rejected instead of silently accepted.
func (p *Postgres) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	dbtx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store.WithinTx: begin: %w", err)
	}

	if err = fn(&pgTx{tx: dbtx}); err != nil {
		_ = dbtx.Rollback()
		return err
	}

	if err = dbtx.Commit(); err != nil {
		return fmt.Errorf("store.WithinTx: commit: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Non-transactional reads and writes
// ──────────────────────────────────────────────────────────────────────────────

// CreateUserWithWallet inserts the user row and their wallet atomically.  The
// wallet exists from registration onward and is only ever mutated through the
// guarded Tx operations.
func (p *Postgres) CreateUserWithWallet(ctx context.Context, u *domain.User, openingBalance decimal.Decimal) error {
	return p.WithinTx(ctx, func(tx Tx) error {
		pg := tx.(*pgTx)
		query := `
			INSERT INTO users (id, email, username, password_hash, role, is_active, created_at, updated_at)
			VALUES (:id, :email, :username, :password_hash, :role, :is_active, :created_at, :updated_at)`
		if _, err := pg.tx.NamedExecContext(ctx, query, u); err != nil {
			errStr := err.Error()
			if strings.Contains(errStr, "users_email_key") {
				return domain.ErrEmailTaken
			}
			if strings.Contains(errStr, "users_username_key") {
				return domain.ErrUsernameTaken
			}
			return fmt.Errorf("store.CreateUserWithWallet: user: %w", err)
		}
		_, err := pg.tx.ExecContext(ctx, `
			INSERT INTO wallets (id, user_id, balance, locked, created_at, updated_at)
			VALUES ($1, $2, $3, 0, $4, $4)`,
			uuid.New(), u.ID, openingBalance, u.CreatedAt)
		if err != nil {
			return fmt.Errorf("store.CreateUserWithWallet: wallet: %w", err)
		}
		return nil
	})
}

// GetUserByID fetches a user by primary key.
func (p *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := p.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("store.GetUserByID: %w", err)
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := p.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("store.GetUserByEmail: %w", err)
	}
	return &u, nil
}

// GetWallet fetches the wallet belonging to a specific user.
func (p *Postgres) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	err := p.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("store.GetWallet: %w", err)
	}
	return &w, nil
}

// WalletEntries returns paginated ledger entries for a user's wallet.
func (p *Postgres) WalletEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.WalletEntry, error) {
	var entries []*domain.WalletEntry
	err := p.db.SelectContext(ctx, &entries, `
		SELECT we.*
		FROM wallet_entries we
		JOIN wallets w ON w.id = we.wallet_id
		WHERE w.user_id = $1
		ORDER BY we.created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store.WalletEntries: %w", err)
	}
	return entries, nil
}

// CreateAsset inserts a new asset in pending review state.
func (p *Postgres) CreateAsset(ctx context.Context, a *domain.Asset) error {
	query := `
		INSERT INTO assets (id, owner_id, title, status, reviewed_by, created_at, updated_at)
		VALUES (:id, :owner_id, :title, :status, :reviewed_by, :created_at, :updated_at)`
	if _, err := p.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("store.CreateAsset: %w", err)
	}
	return nil
}

// GetAsset fetches an asset by primary key.
func (p *Postgres) GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	var a domain.Asset
	err := p.db.GetContext(ctx, &a, `SELECT * FROM assets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("store.GetAsset: %w", err)
	}
	return &a, nil
}

// ListAssets returns paginated assets filtered by status.  status="" means all.
func (p *Postgres) ListAssets(ctx context.Context, status domain.AssetStatus, limit, offset int) ([]*domain.Asset, error) {
	var assets []*domain.Asset
	var err error
	if status != "" {
		err = p.db.SelectContext(ctx, &assets, `
			SELECT * FROM assets WHERE status = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			string(status), limit, offset)
	} else {
		err = p.db.SelectContext(ctx, &assets, `
			SELECT * FROM assets
			ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("store.ListAssets: %w", err)
	}
	return assets, nil
}

// GetAuction fetches an auction by primary key.
func (p *Postgres) GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	var a domain.Auction
	err := p.db.GetContext(ctx, &a, `SELECT * FROM auctions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("store.GetAuction: %w", err)
	}
	return &a, nil
}

// ListAuctions returns paginated auctions filtered by status.  status="" means all.
func (p *Postgres) ListAuctions(ctx context.Context, status domain.AuctionStatus, limit, offset int) ([]*domain.Auction, error) {
	var auctions []*domain.Auction
	var err error
	if status != "" {
		err = p.db.SelectContext(ctx, &auctions, `
			SELECT * FROM auctions WHERE status = $1
			ORDER BY start_time DESC LIMIT $2 OFFSET $3`,
			string(status), limit, offset)
	} else {
		err = p.db.SelectContext(ctx, &auctions, `
			SELECT * FROM auctions
			ORDER BY start_time DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("store.ListAuctions: %w", err)
	}
	return auctions, nil
}

// ListScheduledDue returns scheduled auctions whose start time has passed.
func (p *Postgres) ListScheduledDue(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	var auctions []*domain.Auction
	err := p.db.SelectContext(ctx, &auctions, `
		SELECT * FROM auctions
		WHERE status = 'scheduled' AND start_time <= $1
		ORDER BY start_time ASC`,
		now)
	if err != nil {
		return nil, fmt.Errorf("store.ListScheduledDue: %w", err)
	}
	return auctions, nil
}

// ListLiveDue returns live auctions whose end time has passed.
func (p *Postgres) ListLiveDue(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	var auctions []*domain.Auction
	err := p.db.SelectContext(ctx, &auctions, `
		SELECT * FROM auctions
		WHERE status = 'live' AND end_time <= $1
		ORDER BY end_time ASC`,
		now)
	if err != nil {
		return nil, fmt.Errorf("store.ListLiveDue: %w", err)
	}
	return auctions, nil
}

// ListEndedUnsettled returns ended auctions not yet stamped by settlement.
func (p *Postgres) ListEndedUnsettled(ctx context.Context, limit int) ([]*domain.Auction, error) {
	var auctions []*domain.Auction
	err := p.db.SelectContext(ctx, &auctions, `
		SELECT * FROM auctions
		WHERE status = 'ended' AND settled_at IS NULL
		ORDER BY end_time ASC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("store.ListEndedUnsettled: %w", err)
	}
	return auctions, nil
}

// ListBids returns a full auction's bid history in acceptance order.
func (p *Postgres) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	var bids []*domain.Bid
	err := p.db.SelectContext(ctx, &bids,
		`SELECT * FROM bids WHERE auction_id = $1 ORDER BY created_at ASC`,
		auctionID)
	if err != nil {
		return nil, fmt.Errorf("store.ListBids: %w", err)
	}
	return bids, nil
}

// GetEscrow fetches an escrow by primary key.
func (p *Postgres) GetEscrow(ctx context.Context, id uuid.UUID) (*domain.Escrow, error) {
	var e domain.Escrow
	err := p.db.GetContext(ctx, &e, `SELECT * FROM escrows WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("store.GetEscrow: %w", err)
	}
	return &e, nil
}

// GetDispute fetches a dispute by primary key.
func (p *Postgres) GetDispute(ctx context.Context, id uuid.UUID) (*domain.Dispute, error) {
	var d domain.Dispute
	err := p.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("store.GetDispute: %w", err)
	}
	return &d, nil
}

// ListDisputes returns paginated disputes filtered by status.  status="" means all.
func (p *Postgres) ListDisputes(ctx context.Context, status domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error) {
	var disputes []*domain.Dispute
	var err error
	if status != "" {
		err = p.db.SelectContext(ctx, &disputes, `
			SELECT * FROM disputes WHERE status = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			string(status), limit, offset)
	} else {
		err = p.db.SelectContext(ctx, &disputes, `
			SELECT * FROM disputes
			ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("store.ListDisputes: %w", err)
	}
	return disputes, nil
}

// ListAuditLog returns the newest admin money-movement records first.
func (p *Postgres) ListAuditLog(ctx context.Context, limit, offset int) ([]*domain.AuditLogEntry, error) {
	var entries []*domain.AuditLogEntry
	err := p.db.SelectContext(ctx, &entries, `
		SELECT * FROM audit_log
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store.ListAuditLog: %w", err)
	}
	return entries, nil
}

// InsertNotification persists a queued user alert.
func (p *Postgres) InsertNotification(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, kind, body, ref_id, created_at)
		VALUES (:id, :user_id, :kind, :body, :ref_id, :created_at)`
	if _, err := p.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("store.InsertNotification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's alerts, newest first.
func (p *Postgres) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	var ns []*domain.Notification
	err := p.db.SelectContext(ctx, &ns, `
		SELECT * FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store.ListNotifications: %w", err)
	}
	return ns, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// pgTx — transactional operations
// ──────────────────────────────────────────────────────────────────────────────

type pgTx struct {
	tx *sqlx.Tx
}

// GetWalletForUpdate locks the wallet row for the rest of the transaction.
func (t *pgTx) GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	err := t.tx.GetContext(ctx, &w,
		`SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("store.GetWalletForUpdate: %w", err)
	}
	return &w, nil
}

// LockFunds reserves amount against the wallet.  The WHERE clause is the
// invariant guard: the update only lands when balance - locked still covers
// the amount, so a concurrent lock can never overdraw the wallet.
func (t *pgTx) LockFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE wallets
		SET locked = locked + $1, updated_at = now()
		WHERE user_id = $2 AND balance - locked >= $1`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("store.LockFunds: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := t.GetWalletForUpdate(ctx, userID); err != nil {
			return err
		}
		return domain.ErrInsufficientFunds
	}
	return nil
}

// UnlockFunds releases amount from the wallet's locked funds.  A result that
// would drive locked negative is an invariant violation: the guarded UPDATE
// touches nothing and the caller's transaction aborts.
func (t *pgTx) UnlockFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE wallets
		SET locked = locked - $1, updated_at = now()
		WHERE user_id = $2 AND locked >= $1`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("store.UnlockFunds: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := t.GetWalletForUpdate(ctx, userID); err != nil {
			return err
		}
		return domain.ErrInvariantViolation
	}
	return nil
}

// DebitLocked removes amount from both balance and locked: the money leaves
// the wallet for an escrow hold.  Guarded the same way as UnlockFunds.
func (t *pgTx) DebitLocked(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance - $1, locked = locked - $1, updated_at = now()
		WHERE user_id = $2 AND locked >= $1`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("store.DebitLocked: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := t.GetWalletForUpdate(ctx, userID); err != nil {
			return err
		}
		return domain.ErrInvariantViolation
	}
	return nil
}

// CreditBalance adds amount to the wallet's balance.
func (t *pgTx) CreditBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance + $1, updated_at = now()
		WHERE user_id = $2`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("store.CreditBalance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

// AppendWalletEntry records a ledger entry inside the transaction.
func (t *pgTx) AppendWalletEntry(ctx context.Context, entry *domain.WalletEntry) error {
	query := `
		INSERT INTO wallet_entries (id, wallet_id, type, amount, ref_id, description, created_at)
		VALUES (:id, :wallet_id, :type, :amount, :ref_id, :description, :created_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("store.AppendWalletEntry: %w", err)
	}
	return nil
}

// GetAsset reads an asset inside the transaction.
func (t *pgTx) GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	var a domain.Asset
	err := t.tx.GetContext(ctx, &a, `SELECT * FROM assets WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("store.tx.GetAsset: %w", err)
	}
	return &a, nil
}

// UpdateAssetStatus records the reviewer's decision.
func (t *pgTx) UpdateAssetStatus(ctx context.Context, id uuid.UUID, status domain.AssetStatus, reviewedBy uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE assets
		SET status = $1, reviewed_by = $2, updated_at = now()
		WHERE id = $3`,
		string(status), reviewedBy, id)
	if err != nil {
		return fmt.Errorf("store.UpdateAssetStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

// GetAuctionForUpdate locks the auction row; every bid on the same auction
// serializes behind this lock.
func (t *pgTx) GetAuctionForUpdate(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	var a domain.Auction
	err := t.tx.GetContext(ctx, &a,
		`SELECT * FROM auctions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("store.GetAuctionForUpdate: %w", err)
	}
	return &a, nil
}

// HasNonCancelledAuction reports whether the asset is already listed.
func (t *pgTx) HasNonCancelledAuction(ctx context.Context, assetID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM auctions
			WHERE asset_id = $1 AND status <> 'cancelled'
		)`,
		assetID)
	if err != nil {
		return false, fmt.Errorf("store.HasNonCancelledAuction: %w", err)
	}
	return exists, nil
}

// InsertAuction persists a new auction inside the transaction.
func (t *pgTx) InsertAuction(ctx context.Context, a *domain.Auction) error {
	query := `
		INSERT INTO auctions (id, asset_id, seller_id, status, start_time, end_time, created_at, updated_at)
		VALUES (:id, :asset_id, :seller_id, :status, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("store.InsertAuction: %w", err)
	}
	return nil
}

// UpdateAuctionStatus performs the guarded lifecycle transition.
func (t *pgTx) UpdateAuctionStatus(ctx context.Context, id uuid.UUID, from, to domain.AuctionStatus) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE auctions
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("store.UpdateAuctionStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The persisted status moved on (or the auction vanished); report
		// a state conflict matched to the expected source state.
		switch from {
		case domain.StatusScheduled:
			return domain.ErrAuctionNotScheduled
		case domain.StatusLive:
			return domain.ErrAuctionNotLive
		default:
			return domain.ErrAuctionNotFound
		}
	}
	return nil
}

// MarkAuctionSettled stamps settled_at once; a second stamp is a conflict.
func (t *pgTx) MarkAuctionSettled(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE auctions
		SET settled_at = $1, updated_at = now()
		WHERE id = $2 AND settled_at IS NULL`,
		at, id)
	if err != nil {
		return fmt.Errorf("store.MarkAuctionSettled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadySettled
	}
	return nil
}

// HighestBid returns the auction's current highest bid, or nil when no bid
// has been accepted yet.
func (t *pgTx) HighestBid(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	var b domain.Bid
	err := t.tx.GetContext(ctx, &b, `
		SELECT * FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at DESC
		LIMIT 1`,
		auctionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store.HighestBid: %w", err)
	}
	return &b, nil
}

// InsertBid appends an accepted bid inside the transaction.
func (t *pgTx) InsertBid(ctx context.Context, b *domain.Bid) error {
	query := `
		INSERT INTO bids (id, auction_id, bidder_id, amount, created_at)
		VALUES (:id, :auction_id, :bidder_id, :amount, :created_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("store.InsertBid: %w", err)
	}
	return nil
}

// GetEscrowByAuction returns the auction's escrow, or nil when none exists.
func (t *pgTx) GetEscrowByAuction(ctx context.Context, auctionID uuid.UUID) (*domain.Escrow, error) {
	var e domain.Escrow
	err := t.tx.GetContext(ctx, &e,
		`SELECT * FROM escrows WHERE auction_id = $1`, auctionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store.GetEscrowByAuction: %w", err)
	}
	return &e, nil
}

// GetEscrowForUpdate locks the escrow row for the rest of the transaction.
func (t *pgTx) GetEscrowForUpdate(ctx context.Context, id uuid.UUID) (*domain.Escrow, error) {
	var e domain.Escrow
	err := t.tx.GetContext(ctx, &e,
		`SELECT * FROM escrows WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("store.GetEscrowForUpdate: %w", err)
	}
	return &e, nil
}

// InsertEscrow persists a new escrow hold.  The unique index on auction_id is
// the at-most-once settlement backstop.
func (t *pgTx) InsertEscrow(ctx context.Context, e *domain.Escrow) error {
	query := `
		INSERT INTO escrows (id, auction_id, buyer_id, seller_id, amount, status, created_at, updated_at)
		VALUES (:id, :auction_id, :buyer_id, :seller_id, :amount, :status, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, e); err != nil {
		if strings.Contains(err.Error(), "escrows_auction_id_key") {
			return domain.ErrAlreadySettled
		}
		return fmt.Errorf("store.InsertEscrow: %w", err)
	}
	return nil
}

// UpdateEscrowStatus performs a guarded escrow transition.
func (t *pgTx) UpdateEscrowStatus(ctx context.Context, id uuid.UUID, from, to domain.EscrowStatus) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE escrows
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("store.UpdateEscrowStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrEscrowNotHolding
	}
	return nil
}

// GetDisputeByEscrow returns the escrow's dispute, or nil when none exists.
func (t *pgTx) GetDisputeByEscrow(ctx context.Context, escrowID uuid.UUID) (*domain.Dispute, error) {
	var d domain.Dispute
	err := t.tx.GetContext(ctx, &d,
		`SELECT * FROM disputes WHERE escrow_id = $1`, escrowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store.GetDisputeByEscrow: %w", err)
	}
	return &d, nil
}

// GetDisputeForUpdate locks the dispute row for the rest of the transaction.
func (t *pgTx) GetDisputeForUpdate(ctx context.Context, id uuid.UUID) (*domain.Dispute, error) {
	var d domain.Dispute
	err := t.tx.GetContext(ctx, &d,
		`SELECT * FROM disputes WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("store.GetDisputeForUpdate: %w", err)
	}
	return &d, nil
}

// InsertDispute persists a new open dispute.  The unique index on escrow_id
// enforces at most one dispute per escrow.
func (t *pgTx) InsertDispute(ctx context.Context, d *domain.Dispute) error {
	query := `
		INSERT INTO disputes (id, escrow_id, buyer_id, reason, status, resolution, resolved_by, created_at, resolved_at)
		VALUES (:id, :escrow_id, :buyer_id, :reason, :status, :resolution, :resolved_by, :created_at, :resolved_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, d); err != nil {
		if strings.Contains(err.Error(), "disputes_escrow_id_key") {
			return domain.ErrDisputeExists
		}
		return fmt.Errorf("store.InsertDispute: %w", err)
	}
	return nil
}

// MarkDisputeResolved records the admin decision; guarded on status='open' so
// a dispute resolves exactly once.
func (t *pgTx) MarkDisputeResolved(ctx context.Context, id uuid.UUID, resolution domain.Resolution, adminID uuid.UUID, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE disputes
		SET status = 'resolved', resolution = $1, resolved_by = $2, resolved_at = $3
		WHERE id = $4 AND status = 'open'`,
		string(resolution), adminID, at, id)
	if err != nil {
		return fmt.Errorf("store.MarkDisputeResolved: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDisputeResolved
	}
	return nil
}

// AppendAuditLog writes an admin money-movement record inside the transaction.
func (t *pgTx) AppendAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (id, actor_id, action, escrow_id, amount, metadata, created_at)
		VALUES (:id, :actor_id, :action, :escrow_id, :amount, :metadata, :created_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("store.AppendAuditLog: %w", err)
	}
	return nil
}
