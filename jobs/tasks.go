// Package jobs defines background tasks processed by the Asynq worker.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAccountSync refreshes balances for a single user's linked accounts.
	TaskTypeAccountSync = "accounts:sync"
	// TaskTypeAccountRefreshAll touches sync timestamps across every active account.
	TaskTypeAccountRefreshAll = "accounts:refresh_all"
)

// AccountSyncPayload identifies the user whose accounts should be synced.
type AccountSyncPayload struct {
	UserID string `json:"user_id"`
}

// NewAccountSyncTask constructs an Asynq task for a single user sync.
func NewAccountSyncTask(payload AccountSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAccountSync, data, asynq.Queue(QueueDefault)), nil
}

// NewAccountRefreshAllTask constructs the nightly refresh task.
func NewAccountRefreshAllTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAccountRefreshAll, nil, asynq.Queue(QueueDefault))
}

// AccountStore is the slice of account persistence the worker needs.
type AccountStore interface {
	TouchSyncForUser(ctx context.Context, userID string) error
	TouchSyncAllActive(ctx context.Context) error
}

// AccountSyncHandler processes account sync tasks against the store.
type AccountSyncHandler struct {
	store  AccountStore
	logger *slog.Logger
}

// NewAccountSyncHandler constructs the handler. store may be nil when the
// database is not configured; tasks then complete as no-ops.
func NewAccountSyncHandler(store AccountStore, logger *slog.Logger) *AccountSyncHandler {
	return &AccountSyncHandler{store: store, logger: logger}
}

// HandleAccountSync processes TaskTypeAccountSync tasks.
func (h *AccountSyncHandler) HandleAccountSync(ctx context.Context, t *asynq.Task) error {
	var payload AccountSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.UserID == "" {
		return asynq.SkipRetry
	}
	if h.store == nil {
		return nil
	}
	if err := h.store.TouchSyncForUser(ctx, payload.UserID); err != nil {
		h.logger.Error("account sync", slog.String("user_id", payload.UserID), slog.Any("error", err))
		return err
	}
	h.logger.Info("account sync completed", slog.String("user_id", payload.UserID))
	return nil
}

// HandleAccountRefreshAll processes TaskTypeAccountRefreshAll tasks.
func (h *AccountSyncHandler) HandleAccountRefreshAll(ctx context.Context, t *asynq.Task) error {
	if h.store == nil {
		return nil
	}
	if err := h.store.TouchSyncAllActive(ctx); err != nil {
		h.logger.Error("account refresh all", slog.Any("error", err))
		return err
	}
	h.logger.Info("account refresh all completed")
	return nil
}
