package profile

import (
	"log/slog"
	"sync"

	"github.com/doughjo-app/doughjo/internal/shared"
)

// Registry hands out the per-user profile Manager.
type Registry struct {
	mu       sync.Mutex
	logger   *slog.Logger
	repo     RepositoryPort
	managers map[string]*Manager
}

// NewRegistry constructs a registry. A nil repo keeps every manager
// memory-only.
func NewRegistry(logger *slog.Logger, repo RepositoryPort) *Registry {
	return &Registry{
		logger:   logger,
		repo:     repo,
		managers: make(map[string]*Manager),
	}
}

// For returns the manager for the given identity, creating it on first use.
func (r *Registry) For(meta AuthMeta) (*Manager, error) {
	if meta.UserID == "" {
		return nil, shared.ErrNotAuthenticated
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.managers[meta.UserID]; ok {
		return m, nil
	}
	m := NewManager(r.logger, r.repo, meta)
	r.managers[meta.UserID] = m
	return m, nil
}

// Drop releases a user's manager and its in-memory state.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, userID)
}
