package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	touchedUser string
	touchedAll  bool
	err         error
}

func (s *stubStore) TouchSyncForUser(ctx context.Context, userID string) error {
	s.touchedUser = userID
	return s.err
}

func (s *stubStore) TouchSyncAllActive(ctx context.Context) error {
	s.touchedAll = true
	return s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleAccountSync(t *testing.T) {
	store := &stubStore{}
	handler := NewAccountSyncHandler(store, testLogger())

	task, err := NewAccountSyncTask(AccountSyncPayload{UserID: "user-1"})
	require.NoError(t, err)

	require.NoError(t, handler.HandleAccountSync(context.Background(), task))
	assert.Equal(t, "user-1", store.touchedUser)
}

func TestHandleAccountSyncSkipsMalformedPayload(t *testing.T) {
	store := &stubStore{}
	handler := NewAccountSyncHandler(store, testLogger())

	task := asynq.NewTask(TaskTypeAccountSync, []byte("not json"))
	err := handler.HandleAccountSync(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, store.touchedUser)
}

func TestHandleAccountSyncSkipsEmptyUser(t *testing.T) {
	handler := NewAccountSyncHandler(&stubStore{}, testLogger())

	task, err := NewAccountSyncTask(AccountSyncPayload{})
	require.NoError(t, err)
	require.ErrorIs(t, handler.HandleAccountSync(context.Background(), task), asynq.SkipRetry)
}

func TestHandleAccountSyncWithoutStoreIsNoOp(t *testing.T) {
	handler := NewAccountSyncHandler(nil, testLogger())

	task, err := NewAccountSyncTask(AccountSyncPayload{UserID: "user-1"})
	require.NoError(t, err)
	require.NoError(t, handler.HandleAccountSync(context.Background(), task))
}

func TestHandleAccountSyncPropagatesStoreError(t *testing.T) {
	store := &stubStore{err: errors.New("down")}
	handler := NewAccountSyncHandler(store, testLogger())

	task, err := NewAccountSyncTask(AccountSyncPayload{UserID: "user-1"})
	require.NoError(t, err)
	require.Error(t, handler.HandleAccountSync(context.Background(), task))
}

func TestHandleAccountRefreshAll(t *testing.T) {
	store := &stubStore{}
	handler := NewAccountSyncHandler(store, testLogger())

	require.NoError(t, handler.HandleAccountRefreshAll(context.Background(), NewAccountRefreshAllTask()))
	assert.True(t, store.touchedAll)
}
