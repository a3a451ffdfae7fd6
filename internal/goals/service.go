package goals

import (
	"context"

	"github.com/google/uuid"

	"github.com/doughjo-app/doughjo/internal/shared"
)

// Service handles goal business logic. A nil repo means the store is not
// configured; every operation then short-circuits without side effects.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the user's goals, newest first. Without a configured store
// there is nothing to list.
func (s *Service) List(ctx context.Context, userID string) ([]Goal, error) {
	if userID == "" {
		return nil, shared.ErrNotAuthenticated
	}
	if s.repo == nil {
		return []Goal{}, nil
	}
	return s.repo.ListByUser(ctx, userID)
}

// Create persists a new goal with defaulted status and priority.
func (s *Service) Create(ctx context.Context, userID string, goal Goal) (Goal, error) {
	if userID == "" {
		return Goal{}, shared.ErrNotAuthenticated
	}
	if s.repo == nil {
		return Goal{}, shared.ErrStoreNotConfigured
	}
	goal.ID = uuid.NewString()
	goal.UserID = userID
	if goal.Status == "" {
		goal.Status = StatusActive
	}
	if goal.Priority == "" {
		goal.Priority = PriorityMedium
	}
	return s.repo.Insert(ctx, goal)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, userID, id string, changes Changes) (Goal, error) {
	if userID == "" {
		return Goal{}, shared.ErrNotAuthenticated
	}
	if s.repo == nil {
		return Goal{}, shared.ErrStoreNotConfigured
	}
	return s.repo.Update(ctx, id, userID, changes)
}

// Delete removes a goal.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return shared.ErrNotAuthenticated
	}
	if s.repo == nil {
		return shared.ErrStoreNotConfigured
	}
	return s.repo.Delete(ctx, id, userID)
}

// UpdateStatus is a shortcut for flipping a goal between active, paused and
// completed.
func (s *Service) UpdateStatus(ctx context.Context, userID, id, status string) (Goal, error) {
	return s.Update(ctx, userID, id, Changes{Status: &status})
}

// UpdatePriority is a shortcut for changing the priority level.
func (s *Service) UpdatePriority(ctx context.Context, userID, id, priority string) (Goal, error) {
	return s.Update(ctx, userID, id, Changes{Priority: &priority})
}
