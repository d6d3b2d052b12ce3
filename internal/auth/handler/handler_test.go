package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepsafe/internal/auth/handler"
	"keepsafe/internal/auth/models"
	dErrors "keepsafe/pkg/domain-errors"
)

// stubService scripts per-method results; the zero value answers everything
// with success and empty payloads.
type stubService struct {
	user *models.User
	tok  string
	err  error

	forgotEmails []string
	resetReqs    []models.ResetPasswordRequest
}

func (s *stubService) CreateAccount(context.Context, models.CreateAccountRequest) (*models.User, string, error) {
	return s.user, s.tok, s.err
}

func (s *stubService) Login(context.Context, models.LoginRequest) (*models.User, string, error) {
	return s.user, s.tok, s.err
}

func (s *stubService) ForgotPassword(_ context.Context, email string) error {
	s.forgotEmails = append(s.forgotEmails, email)
	return s.err
}

func (s *stubService) ResetPassword(_ context.Context, req models.ResetPasswordRequest) error {
	s.resetReqs = append(s.resetReqs, req)
	return s.err
}

func (s *stubService) CurrentUser(context.Context) (*models.User, error) {
	return s.user, s.err
}

func (s *stubService) UpdatePassword(context.Context, models.UpdatePasswordRequest) error {
	return s.err
}

func (s *stubService) Renew(context.Context, models.RenewRequest) (*models.User, error) {
	return s.user, s.err
}

func newRouter(svc handler.Service) http.Handler {
	h := handler.New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterPublic(r)
	h.RegisterProtected(r)
	return r
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAccountResponse(t *testing.T) {
	t.Run("success is 201 with user and token", func(t *testing.T) {
		svc := &stubService{
			user: &models.User{ID: "u1", Email: "asha@example.com"},
			tok:  "signed-token",
		}
		rec := do(t, newRouter(svc), http.MethodPost, "/create-account", models.CreateAccountRequest{
			Email: "asha@example.com", Password: "long-enough-password",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Message string      `json:"message"`
			Token   string      `json:"token"`
			User    models.User `json:"user"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "account created", resp.Message)
		assert.Equal(t, "signed-token", resp.Token)
		assert.Equal(t, "u1", resp.User.ID)
	})

	t.Run("payment rejection maps to 400", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeBadRequest, "payment verification failed")}
		rec := do(t, newRouter(svc), http.MethodPost, "/create-account", models.CreateAccountRequest{})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "bad_request", resp.Error)
		assert.Equal(t, "payment verification failed", resp.Message)
	})

	t.Run("duplicate email maps to 409", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeConflict, "an account with this email already exists")}
		rec := do(t, newRouter(svc), http.MethodPost, "/create-account", models.CreateAccountRequest{})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		router := newRouter(&stubService{})
		req := httptest.NewRequest(http.MethodPost, "/create-account", bytes.NewReader([]byte("{oops")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginResponse(t *testing.T) {
	t.Run("invalid credentials are 401", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")}
		rec := do(t, newRouter(svc), http.MethodPost, "/login", models.LoginRequest{
			Email: "asha@example.com", Password: "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("locked account is 403", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeForbidden, "account temporarily locked, try again later")}
		rec := do(t, newRouter(svc), http.MethodPost, "/login", models.LoginRequest{})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestForgotPasswordAlwaysReportsSuccess(t *testing.T) {
	svc := &stubService{}
	rec := do(t, newRouter(svc), http.MethodPost, "/forgot-password",
		models.ForgotPasswordRequest{Email: "ghost@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "if the account exists, a reset email has been sent", resp.Message)
	assert.Equal(t, []string{"ghost@example.com"}, svc.forgotEmails)
}

func TestResetPassword(t *testing.T) {
	t.Run("valid token resets", func(t *testing.T) {
		svc := &stubService{}
		rec := do(t, newRouter(svc), http.MethodPost, "/reset-password",
			models.ResetPasswordRequest{Token: "tok", NewPassword: "brand-new-password"})
		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, svc.resetReqs, 1)
		assert.Equal(t, "tok", svc.resetReqs[0].Token)
	})

	t.Run("consumed token is 400", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeBadRequest, "invalid or expired reset token")}
		rec := do(t, newRouter(svc), http.MethodPost, "/reset-password",
			models.ResetPasswordRequest{Token: "used", NewPassword: "brand-new-password"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRenewResponse(t *testing.T) {
	svc := &stubService{user: &models.User{ID: "u1", Status: models.StatusActive}}
	rec := do(t, newRouter(svc), http.MethodPost, "/renew", models.RenewRequest{
		OrderID: "order_1", PaymentID: "pay_1", Signature: "sig",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "plan renewed", resp.Message)
	assert.Equal(t, models.StatusActive, resp.User.Status)
}
