package goals

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/doughjo-app/doughjo/internal/platform/httpx"
	"github.com/doughjo-app/doughjo/internal/shared"
)

// Handler exposes goal CRUD over the JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers goal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Put("/{id}/status", h.updateStatus)
	r.Put("/{id}/priority", h.updatePriority)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.List(r.Context(), shared.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"goals": goals})
}

type createRequest struct {
	Name         string     `json:"name" validate:"required,max=120"`
	Description  string     `json:"description" validate:"max=500"`
	TargetAmount float64    `json:"target_amount" validate:"required,gt=0"`
	SavedAmount  float64    `json:"saved_amount" validate:"gte=0"`
	TargetDate   *time.Time `json:"target_date"`
	GoalType     string     `json:"goal_type" validate:"max=60"`
	Priority     string     `json:"priority_level" validate:"omitempty,oneof=low medium high"`
	Status       string     `json:"status" validate:"omitempty,oneof=active paused completed"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	goal, err := h.service.Create(r.Context(), shared.UserIDFromContext(r.Context()), Goal{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		TargetDate:   req.TargetDate,
		GoalType:     req.GoalType,
		Priority:     req.Priority,
		Status:       req.Status,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, goal)
}

type goalUpdateRequest struct {
	Name         *string    `json:"name" validate:"omitempty,min=1,max=120"`
	Description  *string    `json:"description" validate:"omitempty,max=500"`
	TargetAmount *float64   `json:"target_amount" validate:"omitempty,gt=0"`
	SavedAmount  *float64   `json:"saved_amount" validate:"omitempty,gte=0"`
	TargetDate   *time.Time `json:"target_date"`
	GoalType     *string    `json:"goal_type" validate:"omitempty,max=60"`
	Priority     *string    `json:"priority_level" validate:"omitempty,oneof=low medium high"`
	Status       *string    `json:"status" validate:"omitempty,oneof=active paused completed"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req goalUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	goal, err := h.service.Update(r.Context(), shared.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), Changes{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		TargetDate:   req.TargetDate,
		GoalType:     req.GoalType,
		Priority:     req.Priority,
		Status:       req.Status,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, goal)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), shared.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused completed"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	goal, err := h.service.UpdateStatus(r.Context(), shared.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, goal)
}

type priorityRequest struct {
	Priority string `json:"priority_level" validate:"required,oneof=low medium high"`
}

func (h *Handler) updatePriority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	goal, err := h.service.UpdatePriority(r.Context(), shared.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.Priority)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, goal)
}
