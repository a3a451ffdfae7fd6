package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/doughjo-app/doughjo/internal/auth"
	"github.com/doughjo-app/doughjo/internal/shared"
	_ "github.com/doughjo-app/doughjo/testing"
)

type stubUserRepo struct {
	user *auth.User
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) CreateUser(ctx context.Context, user auth.User) (*auth.User, error) {
	if s.user != nil && s.user.Email == user.Email {
		return nil, auth.ErrEmailTaken
	}
	user.IsActive = true
	s.user = &user
	return &user, nil
}

type dropRecorder struct {
	dropped []string
}

func (d *dropRecorder) Drop(userID string) {
	d.dropped = append(d.dropped, userID)
}

func newHandler(t *testing.T, repo auth.Repository, droppers ...auth.SessionDropper) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), sessionManager, csrfManager, droppers...)
	return handler, sessionManager
}

func mountAndServe(h *auth.Handler, w http.ResponseWriter, r *http.Request) {
	router := chi.NewRouter()
	router.Route("/auth", h.MountRoutes)
	router.ServeHTTP(w, r)
}

func withSession(t *testing.T, sm *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	return req.WithContext(ctx), sess
}

func seededUser(t *testing.T) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           "user-1",
		Email:        "casey@example.com",
		PasswordHash: string(hash),
		FirstName:    "Casey",
		LastName:     "Morgan",
		IsActive:     true,
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	handler, sm := newHandler(t, &stubUserRepo{user: seededUser(t)})

	body := `{"email":"casey@example.com","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req, sess := withSession(t, sm, req)
	res := httptest.NewRecorder()

	mountAndServe(handler, res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var out struct {
		UserID    string `json:"user_id"`
		FullName  string `json:"full_name"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.Equal(t, "user-1", out.UserID)
	assert.Equal(t, "Casey Morgan", out.FullName)
	assert.NotEmpty(t, out.CSRFToken)
	assert.Equal(t, "user-1", sess.User())
	assert.Equal(t, "casey@example.com", sess.Get("email"))
}

func TestLoginBadPassword(t *testing.T) {
	handler, sm := newHandler(t, &stubUserRepo{user: seededUser(t)})

	body := `{"email":"casey@example.com","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req, sess := withSession(t, sm, req)
	res := httptest.NewRecorder()

	mountAndServe(handler, res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Empty(t, sess.User())
}

func TestLoginRejectsInvalidPayload(t *testing.T) {
	handler, sm := newHandler(t, &stubUserRepo{})

	body := `{"email":"not-an-email","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req, _ = withSession(t, sm, req)
	res := httptest.NewRecorder()

	mountAndServe(handler, res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestSignupCreatesUserAndSession(t *testing.T) {
	repo := &stubUserRepo{}
	handler, sm := newHandler(t, repo)

	body := `{"email":"new@example.com","password":"hunter2hunter2","first_name":"Jamie","last_name":"Lee"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	req, sess := withSession(t, sm, req)
	res := httptest.NewRecorder()

	mountAndServe(handler, res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, repo.user)
	assert.Equal(t, "new@example.com", repo.user.Email)
	assert.NotEqual(t, "hunter2hunter2", repo.user.PasswordHash)
	assert.Equal(t, repo.user.ID, sess.User())
	assert.Equal(t, "Jamie Lee", sess.Get("full_name"))
}

func TestSignupDuplicateEmail(t *testing.T) {
	handler, sm := newHandler(t, &stubUserRepo{user: seededUser(t)})

	body := `{"email":"casey@example.com","password":"hunter2hunter2","first_name":"Casey"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	req, _ = withSession(t, sm, req)
	res := httptest.NewRecorder()

	mountAndServe(handler, res, req)

	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestLogoutDropsManagersAndDestroysSession(t *testing.T) {
	recorder := &dropRecorder{}
	handler, sm := newHandler(t, &stubUserRepo{user: seededUser(t)}, recorder)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req, sess := withSession(t, sm, req)
	sess.SetUser("user-1")
	res := httptest.NewRecorder()

	mountAndServe(handler, res, req)

	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, []string{"user-1"}, recorder.dropped)
}

func TestCSRFEndpointServesAnonymousSessions(t *testing.T) {
	handler, sm := newHandler(t, &stubUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/auth/csrf", nil)
	req, _ = withSession(t, sm, req)
	res := httptest.NewRecorder()

	mountAndServe(handler, res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.NotEmpty(t, out["csrf_token"])
}
