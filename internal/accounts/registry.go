package accounts

import (
	"log/slog"
	"sync"

	"github.com/doughjo-app/doughjo/internal/shared"
)

// Registry hands out the per-user Manager for the current session. Managers
// live for the duration of the process; Drop releases one on logout.
type Registry struct {
	mu       sync.Mutex
	logger   *slog.Logger
	repo     RepositoryPort
	managers map[string]*Manager
}

// NewRegistry constructs a registry. A nil repo puts every manager in the
// unconfigured mode.
func NewRegistry(logger *slog.Logger, repo RepositoryPort) *Registry {
	return &Registry{
		logger:   logger,
		repo:     repo,
		managers: make(map[string]*Manager),
	}
}

// For returns the manager for the given user, creating it on first use.
func (r *Registry) For(userID string) (*Manager, error) {
	if userID == "" {
		return nil, shared.ErrNotAuthenticated
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.managers[userID]; ok {
		return m, nil
	}
	m := NewManager(r.logger, r.repo, userID)
	r.managers[userID] = m
	return m, nil
}

// Drop releases a user's manager and its in-memory state.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, userID)
}
