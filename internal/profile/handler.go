package profile

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/doughjo-app/doughjo/internal/platform/httpx"
	"github.com/doughjo-app/doughjo/internal/shared"
)

// Session value keys written at login so the manager can synthesize a
// profile from auth metadata.
const (
	SessionKeyEmail    = "email"
	SessionKeyFullName = "full_name"
)

// Handler exposes profile and XP endpoints over the JSON API.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, registry *Registry) *Handler {
	return &Handler{logger: logger, registry: registry, validator: validator.New()}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Patch("/", h.update)
	r.Put("/preferences", h.updatePreferences)
	r.Put("/privacy", h.updatePrivacy)
	r.Put("/theme", h.updateTheme)
	r.Post("/xp/award", h.awardXP)
}

func (h *Handler) manager(r *http.Request) (*Manager, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return h.registry.For(AuthMeta{
		UserID:   sess.User(),
		Email:    sess.Get(SessionKeyEmail),
		FullName: sess.Get(SessionKeyFullName),
	})
}

type profileResponse struct {
	Profile         *UserProfile     `json:"profile"`
	ExtendedProfile *ExtendedProfile `json:"extended_profile"`
	XP              *XP              `json:"xp"`
	FullName        string           `json:"full_name"`
	DisplayName     string           `json:"display_name"`
	Initials        string           `json:"initials"`
}

func (h *Handler) respondProfile(w http.ResponseWriter, m *Manager, status int) {
	httpx.JSON(w, status, profileResponse{
		Profile:         m.Profile(),
		ExtendedProfile: m.Extended(),
		XP:              m.Ledger(),
		FullName:        m.FullName(),
		DisplayName:     m.DisplayName(),
		Initials:        m.Initials(),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := m.EnsureLoaded(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondProfile(w, m, http.StatusOK)
}

type profileUpdateRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=60"`
	LastName    *string `json:"last_name" validate:"omitempty,max=60"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req profileUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := m.UpdateProfile(r.Context(), ProfileChanges{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var patch NotificationPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	extended, err := m.UpdateNotificationPreferences(r.Context(), patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, extended)
}

func (h *Handler) updatePrivacy(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var patch PrivacyPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	extended, err := m.UpdatePrivacySettings(r.Context(), patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, extended)
}

type themeRequest struct {
	Theme string `json:"theme_preferences" validate:"required,oneof=light dark system"`
}

func (h *Handler) updateTheme(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req themeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	extended, err := m.UpdateTheme(r.Context(), req.Theme)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, extended)
}

type awardRequest struct {
	Points int    `json:"points" validate:"required,gt=0"`
	Badge  string `json:"badge" validate:"omitempty,max=60"`
}

func (h *Handler) awardXP(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req awardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	xp, err := m.AwardXP(r.Context(), req.Points, req.Badge)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, xp)
}
