package accounts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/doughjo-app/doughjo/internal/shared"
)

// Manager holds one user's account collection and its derived aggregate
// balance. All store traffic for that collection goes through it.
//
// The aggregate is never mutated independently: add and delete adjust it
// incrementally (the in-memory list is not yet consistent at that point),
// every other path recomputes it from the full collection.
type Manager struct {
	mu     sync.Mutex
	logger *slog.Logger
	repo   RepositoryPort
	userID string

	accounts        []Account
	totalBalance    decimal.Decimal
	mode            Mode
	demoInitialized bool
	loaded          bool

	// loadGen invalidates in-flight loads that were superseded by a newer
	// one, so a slow response cannot overwrite fresher state.
	loadGen uint64
}

// NewManager constructs a manager for one user. A nil repo means the store
// is not configured for this deployment.
func NewManager(logger *slog.Logger, repo RepositoryPort, userID string) *Manager {
	mode := ModeConnected
	if repo == nil {
		mode = ModeUnconfigured
	}
	return &Manager{
		logger:       logger,
		repo:         repo,
		userID:       userID,
		mode:         mode,
		totalBalance: decimal.Zero,
	}
}

// EnsureLoaded performs the initial load exactly once.
func (m *Manager) EnsureLoaded(ctx context.Context) error {
	m.mu.Lock()
	loaded := m.loaded
	m.mu.Unlock()
	if loaded {
		return nil
	}
	return m.Load(ctx)
}

// Load replaces the in-memory collection from the store and recomputes the
// aggregate balance. Store failures and empty results fall back to the demo
// set; the fallback populates only once per session so user-modified demo
// state survives repeated failures.
func (m *Manager) Load(ctx context.Context) error {
	if m.userID == "" {
		m.mu.Lock()
		m.accounts = nil
		m.totalBalance = decimal.Zero
		m.loaded = true
		m.mu.Unlock()
		return shared.ErrNotAuthenticated
	}

	m.mu.Lock()
	if m.repo == nil {
		m.enterDemoLocked(ModeUnconfigured)
		m.mu.Unlock()
		return nil
	}
	m.loadGen++
	gen := m.loadGen
	m.mu.Unlock()

	rows, err := m.repo.ListActive(ctx, m.userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.loadGen {
		// A newer load finished (or started) after this one; its result wins.
		return nil
	}
	if err != nil {
		m.logger.Warn("load accounts, falling back to demo data",
			slog.String("user_id", m.userID), slog.Any("error", err))
		m.enterDemoLocked(ModeDemo)
		return nil
	}
	if len(rows) == 0 {
		m.enterDemoLocked(ModeDemo)
		return nil
	}
	m.accounts = rows
	m.mode = ModeConnected
	m.totalBalance = sumBalances(rows)
	m.loaded = true
	return nil
}

// Add persists a newly linked account, prepends it to the collection and
// bumps the aggregate by its balance.
func (m *Manager) Add(ctx context.Context, draft Draft) (Account, error) {
	if m.userID == "" {
		return Account{}, shared.ErrNotAuthenticated
	}
	if m.repo == nil {
		return Account{}, shared.ErrStoreNotConfigured
	}

	account := Account{
		ID:                  uuid.NewString(),
		UserID:              m.userID,
		AggregatorAccountID: draft.AggregatorAccountID,
		AccessToken:         draft.AccessToken,
		Name:                draft.Name,
		Type:                draft.Type,
		Subtype:             draft.Subtype,
		Balance:             draft.Balance,
		InstitutionName:     draft.InstitutionName,
		InstitutionID:       draft.InstitutionID,
		Mask:                draft.Mask,
		IsActive:            true,
	}
	inserted, err := m.repo.Insert(ctx, account)
	if err != nil {
		return Account{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = append([]Account{inserted}, m.accounts...)
	m.totalBalance = m.totalBalance.Add(balanceOf(inserted))
	m.mode = ModeConnected
	m.loaded = true
	return inserted, nil
}

// Update persists a partial update, replaces the matching entry and
// recomputes the aggregate from the full collection to rule out drift.
func (m *Manager) Update(ctx context.Context, id string, changes Changes) (Account, error) {
	if m.userID == "" {
		return Account{}, shared.ErrNotAuthenticated
	}
	if m.repo == nil {
		return Account{}, shared.ErrStoreNotConfigured
	}

	updated, err := m.repo.Update(ctx, id, m.userID, changes)
	if err != nil {
		return Account{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.accounts {
		if m.accounts[i].ID == id {
			m.accounts[i] = updated
			break
		}
	}
	m.totalBalance = sumBalances(m.accounts)
	return updated, nil
}

// Delete soft-deletes remotely when connected and removes the entry from the
// collection either way, reducing the aggregate by its last-known balance.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if m.userID == "" {
		return shared.ErrNotAuthenticated
	}

	m.mu.Lock()
	idx := -1
	for i := range m.accounts {
		if m.accounts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return shared.ErrNotFound
	}
	mode := m.mode
	m.mu.Unlock()

	if mode == ModeConnected && m.repo != nil {
		if err := m.repo.SoftDelete(ctx, id, m.userID); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.accounts {
		if m.accounts[i].ID == id {
			m.totalBalance = m.totalBalance.Sub(balanceOf(m.accounts[i]))
			m.accounts = append(m.accounts[:i], m.accounts[i+1:]...)
			break
		}
	}
	return nil
}

// Sync refreshes one account. Demo balances are fixed, so a demo sync only
// touches the timestamp fields; a real sync touches the remote timestamp and
// then reloads the full collection so the balance reflects whatever the
// aggregator last reported there.
func (m *Manager) Sync(ctx context.Context, id string) error {
	if m.userID == "" {
		return shared.ErrNotAuthenticated
	}

	m.mu.Lock()
	if m.mode != ModeConnected || m.repo == nil {
		defer m.mu.Unlock()
		now := time.Now().UTC()
		for i := range m.accounts {
			if m.accounts[i].ID == id {
				m.accounts[i].LastSyncedAt = now
				m.accounts[i].UpdatedAt = now
				return nil
			}
		}
		return shared.ErrNotFound
	}
	m.mu.Unlock()

	if err := m.repo.TouchSync(ctx, id, m.userID); err != nil {
		return err
	}
	return m.Load(ctx)
}

// Refresh reloads the collection, or bulk-touches demo timestamps without
// ever mutating demo balances.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.mode != ModeConnected || m.repo == nil {
		now := time.Now().UTC()
		for i := range m.accounts {
			m.accounts[i].LastSyncedAt = now
			m.accounts[i].UpdatedAt = now
		}
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	return m.Load(ctx)
}

// Accounts returns a copy of the current collection.
func (m *Manager) Accounts() []Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Account, len(m.accounts))
	copy(out, m.accounts)
	return out
}

// TotalBalance returns the derived aggregate balance.
func (m *Manager) TotalBalance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBalance.InexactFloat64()
}

// Mode reports the current data-source mode.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// UsingDemoData reports whether the collection holds the fallback set.
func (m *Manager) UsingDemoData() bool {
	return m.Mode() != ModeConnected
}

func (m *Manager) enterDemoLocked(mode Mode) {
	if !m.demoInitialized {
		m.accounts = DemoAccounts(m.userID)
		m.demoInitialized = true
	}
	m.mode = mode
	m.totalBalance = sumBalances(m.accounts)
	m.loaded = true
}

// sumBalances aggregates with decimal arithmetic so repeated adds and
// subtracts cannot accumulate float error. A missing balance counts as zero.
func sumBalances(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for i := range accounts {
		total = total.Add(balanceOf(accounts[i]))
	}
	return total
}

func balanceOf(account Account) decimal.Decimal {
	if account.Balance == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*account.Balance)
}
