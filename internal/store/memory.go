package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlot/auctionhouse/internal/domain"
)

// Memory is a concurrency-safe in-memory Store used by unit tests.  A single
// mutex serializes every transaction, which models the row-lock serialization
// the Postgres store provides on contended rows: of two racing WithinTx calls,
// one observes the other's committed effects.  Rollback works by snapshotting
// all state at transaction start and restoring it when fn fails.
type Memory struct {
	mu sync.Mutex

	users         map[uuid.UUID]domain.User
	wallets       map[uuid.UUID]domain.Wallet // keyed by user ID
	walletEntries []domain.WalletEntry
	assets        map[uuid.UUID]domain.Asset
	auctions      map[uuid.UUID]domain.Auction
	bids          []domain.Bid
	escrows       map[uuid.UUID]domain.Escrow
	disputes      map[uuid.UUID]domain.Dispute
	auditLog      []domain.AuditLogEntry
	notifications []domain.Notification
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]domain.User),
		wallets:  make(map[uuid.UUID]domain.Wallet),
		assets:   make(map[uuid.UUID]domain.Asset),
		auctions: make(map[uuid.UUID]domain.Auction),
		escrows:  make(map[uuid.UUID]domain.Escrow),
		disputes: make(map[uuid.UUID]domain.Dispute),
	}
}

// snapshot captures all mutable state for rollback.
type snapshot struct {
	users         map[uuid.UUID]domain.User
	wallets       map[uuid.UUID]domain.Wallet
	walletEntries []domain.WalletEntry
	assets        map[uuid.UUID]domain.Asset
	auctions      map[uuid.UUID]domain.Auction
	bids          []domain.Bid
	escrows       map[uuid.UUID]domain.Escrow
	disputes      map[uuid.UUID]domain.Dispute
	auditLog      []domain.AuditLogEntry
	notifications []domain.Notification
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *Memory) takeSnapshot() snapshot {
	return snapshot{
		users:         cloneMap(m.users),
		wallets:       cloneMap(m.wallets),
		walletEntries: append([]domain.WalletEntry(nil), m.walletEntries...),
		assets:        cloneMap(m.assets),
		auctions:      cloneMap(m.auctions),
		bids:          append([]domain.Bid(nil), m.bids...),
		escrows:       cloneMap(m.escrows),
		disputes:      cloneMap(m.disputes),
		auditLog:      append([]domain.AuditLogEntry(nil), m.auditLog...),
		notifications: append([]domain.Notification(nil), m.notifications...),
	}
}

func (m *Memory) restore(s snapshot) {
	m.users = s.users
	m.wallets = s.wallets
	m.walletEntries = s.walletEntries
	m.assets = s.assets
	m.auctions = s.auctions
	m.bids = s.bids
	m.escrows = s.escrows
	m.disputes = s.disputes
	m.auditLog = s.auditLog
	m.notifications = s.notifications
}

// WithinTx runs fn while holding the store mutex.  On error every mutation fn
// made is rolled back, so the all-or-nothing contract matches Postgres.
func (m *Memory) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.takeSnapshot()
	if err := fn(&memTx{s: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Non-transactional reads and writes
// ──────────────────────────────────────────────────────────────────────────────

// CreateUserWithWallet inserts the user and an opening-balance wallet.
func (m *Memory) CreateUserWithWallet(_ context.Context, u *domain.User, openingBalance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
		if existing.Username == u.Username {
			return domain.ErrUsernameTaken
		}
	}
	m.users[u.ID] = *u
	m.wallets[u.ID] = domain.Wallet{
		ID:        uuid.New(),
		UserID:    u.ID,
		Balance:   openingBalance,
		Locked:    decimal.Zero,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.CreatedAt,
	}
	return nil
}

// GetUserByID fetches a user by primary key.
func (m *Memory) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email.
func (m *Memory) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// GetWallet returns a snapshot of the user's wallet.
func (m *Memory) GetWallet(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return &w, nil
}

// WalletEntries returns the user's ledger entries, newest first.
func (m *Memory) WalletEntries(_ context.Context, userID uuid.UUID, limit, offset int) ([]*domain.WalletEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	var out []*domain.WalletEntry
	for i := range m.walletEntries {
		if m.walletEntries[i].WalletID == w.ID {
			e := m.walletEntries[i]
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

// CreateAsset inserts a new asset.
func (m *Memory) CreateAsset(_ context.Context, a *domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.ID] = *a
	return nil
}

// GetAsset fetches an asset by primary key.
func (m *Memory) GetAsset(_ context.Context, id uuid.UUID) (*domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return &a, nil
}

// ListAssets returns assets filtered by status, newest first.
func (m *Memory) ListAssets(_ context.Context, status domain.AssetStatus, limit, offset int) ([]*domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Asset
	for _, a := range m.assets {
		if status == "" || a.Status == status {
			asset := a
			out = append(out, &asset)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

// GetAuction fetches an auction by primary key.
func (m *Memory) GetAuction(_ context.Context, id uuid.UUID) (*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return &a, nil
}

// ListAuctions returns auctions filtered by status, latest start first.
func (m *Memory) ListAuctions(_ context.Context, status domain.AuctionStatus, limit, offset int) ([]*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Auction
	for _, a := range m.auctions {
		if status == "" || a.Status == status {
			auction := a
			out = append(out, &auction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return paginate(out, limit, offset), nil
}

// ListScheduledDue returns scheduled auctions whose start time has passed.
func (m *Memory) ListScheduledDue(_ context.Context, now time.Time) ([]*domain.Auction, error) {
	return m.listDue(domain.StatusScheduled, func(a domain.Auction) bool {
		return !a.StartTime.After(now)
	})
}

// ListLiveDue returns live auctions whose end time has passed.
func (m *Memory) ListLiveDue(_ context.Context, now time.Time) ([]*domain.Auction, error) {
	return m.listDue(domain.StatusLive, func(a domain.Auction) bool {
		return !a.EndTime.After(now)
	})
}

func (m *Memory) listDue(status domain.AuctionStatus, due func(domain.Auction) bool) ([]*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Auction
	for _, a := range m.auctions {
		if a.Status == status && due(a) {
			auction := a
			out = append(out, &auction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// ListEndedUnsettled returns ended auctions not yet stamped by settlement.
func (m *Memory) ListEndedUnsettled(_ context.Context, limit int) ([]*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Auction
	for _, a := range m.auctions {
		if a.Status == domain.StatusEnded && a.SettledAt == nil {
			auction := a
			out = append(out, &auction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ListBids returns an auction's bid history in acceptance order.
func (m *Memory) ListBids(_ context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Bid
	for i := range m.bids {
		if m.bids[i].AuctionID == auctionID {
			b := m.bids[i]
			out = append(out, &b)
		}
	}
	return out, nil
}

// GetEscrow fetches an escrow by primary key.
func (m *Memory) GetEscrow(_ context.Context, id uuid.UUID) (*domain.Escrow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.escrows[id]
	if !ok {
		return nil, domain.ErrEscrowNotFound
	}
	return &e, nil
}

// GetDispute fetches a dispute by primary key.
func (m *Memory) GetDispute(_ context.Context, id uuid.UUID) (*domain.Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disputes[id]
	if !ok {
		return nil, domain.ErrDisputeNotFound
	}
	return &d, nil
}

// ListDisputes returns disputes filtered by status, newest first.
func (m *Memory) ListDisputes(_ context.Context, status domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Dispute
	for _, d := range m.disputes {
		if status == "" || d.Status == status {
			dispute := d
			out = append(out, &dispute)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

// ListAuditLog returns admin money-movement records, newest first.
func (m *Memory) ListAuditLog(_ context.Context, limit, offset int) ([]*domain.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.AuditLogEntry, 0, len(m.auditLog))
	for i := range m.auditLog {
		e := m.auditLog[i]
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

// InsertNotification persists a queued user alert.
func (m *Memory) InsertNotification(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *n)
	return nil
}

// ListNotifications returns a user's alerts, newest first.
func (m *Memory) ListNotifications(_ context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Notification
	for i := range m.notifications {
		if m.notifications[i].UserID == userID {
			n := m.notifications[i]
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ──────────────────────────────────────────────────────────────────────────────
// memTx — transactional operations (store mutex already held)
// ──────────────────────────────────────────────────────────────────────────────

type memTx struct {
	s *Memory
}

func (t *memTx) GetWalletForUpdate(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	w, ok := t.s.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return &w, nil
}

func (t *memTx) LockFunds(_ context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	w, ok := t.s.wallets[userID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	if w.Available().LessThan(amount) {
		return domain.ErrInsufficientFunds
	}
	w.Locked = w.Locked.Add(amount)
	w.UpdatedAt = time.Now().UTC()
	t.s.wallets[userID] = w
	return nil
}

func (t *memTx) UnlockFunds(_ context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	w, ok := t.s.wallets[userID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	if w.Locked.LessThan(amount) {
		return domain.ErrInvariantViolation
	}
	w.Locked = w.Locked.Sub(amount)
	w.UpdatedAt = time.Now().UTC()
	t.s.wallets[userID] = w
	return nil
}

func (t *memTx) DebitLocked(_ context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	w, ok := t.s.wallets[userID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	if w.Locked.LessThan(amount) {
		return domain.ErrInvariantViolation
	}
	w.Balance = w.Balance.Sub(amount)
	w.Locked = w.Locked.Sub(amount)
	w.UpdatedAt = time.Now().UTC()
	t.s.wallets[userID] = w
	return nil
}

func (t *memTx) CreditBalance(_ context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	w, ok := t.s.wallets[userID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now().UTC()
	t.s.wallets[userID] = w
	return nil
}

func (t *memTx) AppendWalletEntry(_ context.Context, entry *domain.WalletEntry) error {
	t.s.walletEntries = append(t.s.walletEntries, *entry)
	return nil
}

func (t *memTx) GetAsset(_ context.Context, id uuid.UUID) (*domain.Asset, error) {
	a, ok := t.s.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return &a, nil
}

func (t *memTx) UpdateAssetStatus(_ context.Context, id uuid.UUID, status domain.AssetStatus, reviewedBy uuid.UUID) error {
	a, ok := t.s.assets[id]
	if !ok {
		return domain.ErrAssetNotFound
	}
	a.Status = status
	a.ReviewedBy = &reviewedBy
	a.UpdatedAt = time.Now().UTC()
	t.s.assets[id] = a
	return nil
}

func (t *memTx) GetAuctionForUpdate(_ context.Context, id uuid.UUID) (*domain.Auction, error) {
	a, ok := t.s.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return &a, nil
}

func (t *memTx) HasNonCancelledAuction(_ context.Context, assetID uuid.UUID) (bool, error) {
	for _, a := range t.s.auctions {
		if a.AssetID == assetID && a.Status != domain.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertAuction(_ context.Context, a *domain.Auction) error {
	t.s.auctions[a.ID] = *a
	return nil
}

func (t *memTx) UpdateAuctionStatus(_ context.Context, id uuid.UUID, from, to domain.AuctionStatus) error {
	a, ok := t.s.auctions[id]
	if !ok || a.Status != from {
		switch from {
		case domain.StatusScheduled:
			return domain.ErrAuctionNotScheduled
		case domain.StatusLive:
			return domain.ErrAuctionNotLive
		default:
			return domain.ErrAuctionNotFound
		}
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	t.s.auctions[id] = a
	return nil
}

func (t *memTx) MarkAuctionSettled(_ context.Context, id uuid.UUID, at time.Time) error {
	a, ok := t.s.auctions[id]
	if !ok || a.SettledAt != nil {
		return domain.ErrAlreadySettled
	}
	settled := at
	a.SettledAt = &settled
	a.UpdatedAt = time.Now().UTC()
	t.s.auctions[id] = a
	return nil
}

func (t *memTx) HighestBid(_ context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	var highest *domain.Bid
	for i := range t.s.bids {
		b := t.s.bids[i]
		if b.AuctionID != auctionID {
			continue
		}
		if highest == nil || b.Amount.GreaterThan(highest.Amount) {
			bid := b
			highest = &bid
		}
	}
	return highest, nil
}

func (t *memTx) InsertBid(_ context.Context, b *domain.Bid) error {
	t.s.bids = append(t.s.bids, *b)
	return nil
}

func (t *memTx) GetEscrowByAuction(_ context.Context, auctionID uuid.UUID) (*domain.Escrow, error) {
	for _, e := range t.s.escrows {
		if e.AuctionID == auctionID {
			escrow := e
			return &escrow, nil
		}
	}
	return nil, nil
}

func (t *memTx) GetEscrowForUpdate(_ context.Context, id uuid.UUID) (*domain.Escrow, error) {
	e, ok := t.s.escrows[id]
	if !ok {
		return nil, domain.ErrEscrowNotFound
	}
	return &e, nil
}

func (t *memTx) InsertEscrow(_ context.Context, e *domain.Escrow) error {
	for _, existing := range t.s.escrows {
		if existing.AuctionID == e.AuctionID {
			return domain.ErrAlreadySettled
		}
	}
	t.s.escrows[e.ID] = *e
	return nil
}

func (t *memTx) UpdateEscrowStatus(_ context.Context, id uuid.UUID, from, to domain.EscrowStatus) error {
	e, ok := t.s.escrows[id]
	if !ok || e.Status != from {
		return domain.ErrEscrowNotHolding
	}
	e.Status = to
	e.UpdatedAt = time.Now().UTC()
	t.s.escrows[id] = e
	return nil
}

func (t *memTx) GetDisputeByEscrow(_ context.Context, escrowID uuid.UUID) (*domain.Dispute, error) {
	for _, d := range t.s.disputes {
		if d.EscrowID == escrowID {
			dispute := d
			return &dispute, nil
		}
	}
	return nil, nil
}

func (t *memTx) GetDisputeForUpdate(_ context.Context, id uuid.UUID) (*domain.Dispute, error) {
	d, ok := t.s.disputes[id]
	if !ok {
		return nil, domain.ErrDisputeNotFound
	}
	return &d, nil
}

func (t *memTx) InsertDispute(_ context.Context, d *domain.Dispute) error {
	for _, existing := range t.s.disputes {
		if existing.EscrowID == d.EscrowID {
			return domain.ErrDisputeExists
		}
	}
	t.s.disputes[d.ID] = *d
	return nil
}

func (t *memTx) MarkDisputeResolved(_ context.Context, id uuid.UUID, resolution domain.Resolution, adminID uuid.UUID, at time.Time) error {
	d, ok := t.s.disputes[id]
	if !ok {
		return domain.ErrDisputeNotFound
	}
	if d.Status != domain.DisputeOpen {
		return domain.ErrDisputeResolved
	}
	d.Status = domain.DisputeStatusResolved
	d.Resolution = &resolution
	d.ResolvedBy = &adminID
	d.ResolvedAt = &at
	t.s.disputes[id] = d
	return nil
}

func (t *memTx) AppendAuditLog(_ context.Context, entry *domain.AuditLogEntry) error {
	t.s.auditLog = append(t.s.auditLog, *entry)
	return nil
}
