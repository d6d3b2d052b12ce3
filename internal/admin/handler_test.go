package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepsafe/internal/audit"
	"keepsafe/internal/auth/models"
	authstore "keepsafe/internal/auth/store"
	"keepsafe/internal/platform/middleware"
	"keepsafe/internal/token"
	dErrors "keepsafe/pkg/domain-errors"
)

type stubAuthService struct {
	user  *models.User
	token string
	err   error
}

func (s *stubAuthService) AdminLogin(context.Context, models.LoginRequest) (*models.User, string, error) {
	return s.user, s.token, s.err
}

type recordingVault struct {
	deletedOwners []string
	err           error
}

func (v *recordingVault) DeleteAllForOwner(_ context.Context, ownerID string) error {
	if v.err != nil {
		return v.err
	}
	v.deletedOwners = append(v.deletedOwners, ownerID)
	return nil
}

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event audit.Event) {
	p.events = append(p.events, event)
}

type adminFixture struct {
	router    http.Handler
	users     *authstore.InMemoryStore
	vault     *recordingVault
	publisher *recordingPublisher
	tokens    *token.JWTService
}

func newAdminFixture(t *testing.T, auth AuthService) *adminFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &adminFixture{
		users:     authstore.NewInMemoryStore(),
		vault:     &recordingVault{},
		publisher: &recordingPublisher{},
		tokens:    token.NewJWTService("test-signing-key", "keepsafe", 15*time.Minute),
	}

	h := New(f.users, f.vault, auth, audit.NewInMemoryStore(), f.publisher, logger)

	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(token.NewMiddlewareAdapter(f.tokens), logger))
		r.Use(middleware.RequireRole(models.RoleAdmin, logger))
		h.RegisterProtected(r)
	})
	f.router = r
	return f
}

func (f *adminFixture) bearerFor(t *testing.T, userID, role string) string {
	t.Helper()
	signed, err := f.tokens.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *adminFixture) do(method, target, authorization string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRouteGate(t *testing.T) {
	f := newAdminFixture(t, &stubAuthService{})

	t.Run("no token is 401", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/admin/users", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid non-admin token is 403", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/admin/users", f.bearerFor(t, "user-1", models.RoleUser), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin token is 200", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/admin/users", f.bearerFor(t, "admin-1", models.RoleAdmin), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdminLogin(t *testing.T) {
	t.Run("success returns user and token", func(t *testing.T) {
		f := newAdminFixture(t, &stubAuthService{
			user:  &models.User{ID: "admin-1", Role: models.RoleAdmin},
			token: "signed-token",
		})

		rec := f.do(http.MethodPost, "/admin/login", "",
			models.LoginRequest{Email: "root@example.com", Password: "password-123"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "signed-token", resp.Token)
		assert.Equal(t, "admin-1", resp.User.ID)
	})

	t.Run("service error maps through the envelope", func(t *testing.T) {
		f := newAdminFixture(t, &stubAuthService{
			err: dErrors.New(dErrors.CodeForbidden, "insufficient privileges"),
		})

		rec := f.do(http.MethodPost, "/admin/login", "",
			models.LoginRequest{Email: "plain@example.com", Password: "password-123"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAdminListUsers(t *testing.T) {
	f := newAdminFixture(t, &stubAuthService{})
	ctx := context.Background()

	require.NoError(t, f.users.Create(ctx, &models.User{ID: "u1", Email: "a@example.com"}))
	require.NoError(t, f.users.Create(ctx, &models.User{ID: "u2", Email: "b@example.com"}))

	rec := f.do(http.MethodGet, "/admin/users", f.bearerFor(t, "admin-1", models.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Users, 2)
}

func TestAdminDeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades vault records before removing the account", func(t *testing.T) {
		f := newAdminFixture(t, &stubAuthService{})
		require.NoError(t, f.users.Create(ctx, &models.User{ID: "victim", Email: "v@example.com"}))

		rec := f.do(http.MethodDelete, "/admin/user/victim",
			f.bearerFor(t, "admin-1", models.RoleAdmin), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, []string{"victim"}, f.vault.deletedOwners)
		_, err := f.users.FindByID(ctx, "victim")
		assert.ErrorIs(t, err, authstore.ErrNotFound)

		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, audit.ActionAdminDeleteUser, f.publisher.events[0].Action)
		assert.Equal(t, "admin-1", f.publisher.events[0].ActorID)
		assert.Equal(t, "victim", f.publisher.events[0].ItemID)
	})

	t.Run("unknown user is 404 and nothing is cascaded", func(t *testing.T) {
		f := newAdminFixture(t, &stubAuthService{})

		rec := f.do(http.MethodDelete, "/admin/user/ghost",
			f.bearerFor(t, "admin-1", models.RoleAdmin), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, f.vault.deletedOwners)
	})

	t.Run("cascade failure keeps the account", func(t *testing.T) {
		f := newAdminFixture(t, &stubAuthService{})
		f.vault.err = dErrors.New(dErrors.CodeInternal, "cascade failed")
		require.NoError(t, f.users.Create(ctx, &models.User{ID: "victim", Email: "v@example.com"}))

		rec := f.do(http.MethodDelete, "/admin/user/victim",
			f.bearerFor(t, "admin-1", models.RoleAdmin), nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		_, err := f.users.FindByID(ctx, "victim")
		assert.NoError(t, err)
	})
}

func TestAdminListAudit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditLog := audit.NewInMemoryStore()
	ctx := context.Background()
	for _, action := range []string{audit.ActionLogin, audit.ActionVaultAdd, audit.ActionVaultDeleteItem} {
		require.NoError(t, auditLog.Append(ctx, audit.NewEvent(ctx, "user-1", action)))
	}

	tokens := token.NewJWTService("test-signing-key", "keepsafe", 15*time.Minute)
	h := New(authstore.NewInMemoryStore(), &recordingVault{}, &stubAuthService{}, auditLog, &recordingPublisher{}, logger)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(token.NewMiddlewareAdapter(tokens), logger))
		r.Use(middleware.RequireRole(models.RoleAdmin, logger))
		h.RegisterProtected(r)
	})

	signed, err := tokens.GenerateAccessToken("admin-1", models.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/audit?limit=2", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []audit.Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Events, 2)
	assert.Equal(t, audit.ActionVaultDeleteItem, resp.Events[0].Action)
}
