package goals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doughjo-app/doughjo/internal/shared"
)

type stubRepo struct {
	listResult []Goal
	listErr    error

	inserted   *Goal
	updatedID  string
	updateArgs Changes
	deletedID  string
}

func (s *stubRepo) ListByUser(ctx context.Context, userID string) ([]Goal, error) {
	return s.listResult, s.listErr
}

func (s *stubRepo) Insert(ctx context.Context, goal Goal) (Goal, error) {
	s.inserted = &goal
	return goal, nil
}

func (s *stubRepo) Update(ctx context.Context, id, userID string, changes Changes) (Goal, error) {
	s.updatedID = id
	s.updateArgs = changes
	return Goal{ID: id, UserID: userID}, nil
}

func (s *stubRepo) Delete(ctx context.Context, id, userID string) error {
	s.deletedID = id
	return nil
}

func TestListWithoutStoreReturnsEmpty(t *testing.T) {
	svc := NewService(nil)
	goals, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestListRequiresUser(t *testing.T) {
	svc := NewService(&stubRepo{})
	_, err := svc.List(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestCreateDefaultsStatusAndPriority(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), "user-1", Goal{
		Name:         "Emergency Fund",
		TargetAmount: 10000,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user-1", created.UserID)
	assert.Equal(t, StatusActive, created.Status)
	assert.Equal(t, PriorityMedium, created.Priority)
	require.NotNil(t, repo.inserted)
	assert.Equal(t, created.ID, repo.inserted.ID)
}

func TestCreateKeepsExplicitStatusAndPriority(t *testing.T) {
	svc := NewService(&stubRepo{})

	created, err := svc.Create(context.Background(), "user-1", Goal{
		Name:     "Vacation",
		Status:   StatusPaused,
		Priority: PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, created.Status)
	assert.Equal(t, PriorityHigh, created.Priority)
}

func TestMutationsWithoutStoreFail(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", Goal{Name: "x"})
	require.ErrorIs(t, err, shared.ErrStoreNotConfigured)

	_, err = svc.Update(ctx, "user-1", "goal-1", Changes{})
	require.ErrorIs(t, err, shared.ErrStoreNotConfigured)

	require.ErrorIs(t, svc.Delete(ctx, "user-1", "goal-1"), shared.ErrStoreNotConfigured)
}

func TestUpdateStatusSetsOnlyStatus(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.UpdateStatus(context.Background(), "user-1", "goal-1", StatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, "goal-1", repo.updatedID)
	require.NotNil(t, repo.updateArgs.Status)
	assert.Equal(t, StatusCompleted, *repo.updateArgs.Status)
	assert.Nil(t, repo.updateArgs.Priority)
	assert.Nil(t, repo.updateArgs.SavedAmount)
}

func TestUpdatePrioritySetsOnlyPriority(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.UpdatePriority(context.Background(), "user-1", "goal-1", PriorityLow)
	require.NoError(t, err)

	require.NotNil(t, repo.updateArgs.Priority)
	assert.Equal(t, PriorityLow, *repo.updateArgs.Priority)
	assert.Nil(t, repo.updateArgs.Status)
}

func TestDeleteForwardsToStore(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "goal-1"))
	assert.Equal(t, "goal-1", repo.deletedID)
}
