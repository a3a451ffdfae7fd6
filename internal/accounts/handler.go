package accounts

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/doughjo-app/doughjo/internal/aggregator"
	"github.com/doughjo-app/doughjo/internal/platform/httpx"
	"github.com/doughjo-app/doughjo/internal/shared"
	"github.com/doughjo-app/doughjo/jobs"
)

// Handler exposes the account collection over the JSON API.
type Handler struct {
	logger     *slog.Logger
	registry   *Registry
	aggregator aggregator.Client
	queue      *asynq.Client
	validator  *validator.Validate
}

// NewHandler builds Handler instance. queue may be nil when background jobs
// are disabled.
func NewHandler(logger *slog.Logger, registry *Registry, agg aggregator.Client, queue *asynq.Client) *Handler {
	return &Handler{
		logger:     logger,
		registry:   registry,
		aggregator: agg,
		queue:      queue,
		validator:  validator.New(),
	}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/link", h.link)
	r.Post("/refresh", h.refresh)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/sync", h.sync)
}

type collectionResponse struct {
	Accounts      []Account `json:"accounts"`
	TotalBalance  float64   `json:"total_balance"`
	Mode          Mode      `json:"mode"`
	UsingDemoData bool      `json:"using_demo_data"`
}

func (h *Handler) manager(r *http.Request) (*Manager, error) {
	return h.registry.For(shared.UserIDFromContext(r.Context()))
}

func (h *Handler) respondCollection(w http.ResponseWriter, m *Manager, status int) {
	httpx.JSON(w, status, collectionResponse{
		Accounts:      m.Accounts(),
		TotalBalance:  m.TotalBalance(),
		Mode:          m.Mode(),
		UsingDemoData: m.UsingDemoData(),
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := m.EnsureLoaded(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondCollection(w, m, http.StatusOK)
}

type linkRequest struct {
	PublicToken string `json:"public_token" validate:"required"`
}

func (h *Handler) link(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req linkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	token, err := h.aggregator.ExchangePublicToken(r.Context(), req.PublicToken)
	if err != nil {
		h.logger.Error("exchange public token", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Aggregator Error", "token exchange failed")
		return
	}
	descriptors, err := h.aggregator.FetchAccounts(r.Context(), token)
	if err != nil {
		h.logger.Error("fetch linked accounts", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Aggregator Error", "account fetch failed")
		return
	}

	if err := m.EnsureLoaded(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	for _, d := range descriptors {
		_, err := m.Add(r.Context(), Draft{
			AggregatorAccountID: d.AccountID,
			AccessToken:         token,
			Name:                d.Name,
			Type:                d.Type,
			Subtype:             d.Subtype,
			Balance:             d.Balance,
			InstitutionName:     d.InstitutionName,
			InstitutionID:       d.InstitutionID,
			Mask:                d.Mask,
		})
		if errors.Is(err, ErrDuplicateAccount) {
			continue
		}
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
	}

	h.enqueueSync(shared.UserIDFromContext(r.Context()))
	h.respondCollection(w, m, http.StatusCreated)
}

type updateRequest struct {
	Name    *string  `json:"name" validate:"omitempty,min=1,max=120"`
	Subtype *string  `json:"subtype" validate:"omitempty,min=1,max=60"`
	Balance *float64 `json:"balance"`
	Mask    *string  `json:"mask" validate:"omitempty,len=4"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := m.Update(r.Context(), chi.URLParam(r, "id"), Changes{
		Name:    req.Name,
		Subtype: req.Subtype,
		Balance: req.Balance,
		Mask:    req.Mask,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := m.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := m.Sync(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondCollection(w, m, http.StatusOK)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := m.Refresh(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondCollection(w, m, http.StatusOK)
}

func (h *Handler) enqueueSync(userID string) {
	if h.queue == nil || userID == "" {
		return
	}
	task, err := jobs.NewAccountSyncTask(jobs.AccountSyncPayload{UserID: userID})
	if err != nil {
		h.logger.Warn("build account sync task", slog.Any("error", err))
		return
	}
	if _, err := h.queue.Enqueue(task); err != nil {
		h.logger.Warn("enqueue account sync", slog.Any("error", err))
	}
}
