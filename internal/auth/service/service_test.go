package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"keepsafe/internal/auth/lockout"
	"keepsafe/internal/auth/models"
	"keepsafe/internal/auth/reset"
	"keepsafe/internal/auth/store"
	"keepsafe/internal/payment"
	"keepsafe/internal/token"
	dErrors "keepsafe/pkg/domain-errors"
	"keepsafe/pkg/requestcontext"
)

const paymentSecret = "test-payment-secret"

type sentMail struct {
	to, subject, body string
}

type captureMailer struct {
	sent []sentMail
	fail error
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type AuthServiceSuite struct {
	suite.Suite
	users    *store.InMemoryStore
	lockouts *lockout.MemoryStore
	resets   *reset.MemoryStore
	mail     *captureMailer
	service  *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.users = store.NewInMemoryStore()
	s.lockouts = lockout.NewMemoryStore()
	s.resets = reset.NewMemoryStore()
	s.mail = &captureMailer{}

	tokens := token.NewJWTService("test-signing-key", "keepsafe", 15*time.Minute)
	gateway := payment.NewHMACGateway("key-id", paymentSecret)

	var err error
	s.service, err = New(s.users, tokens, gateway, s.lockouts, s.resets,
		WithMailer(s.mail),
	)
	s.Require().NoError(err)
}

// sign reproduces the gateway callback signature for a verified payment.
func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(paymentSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func signupRequest(email string) models.CreateAccountRequest {
	return models.CreateAccountRequest{
		Email:     email,
		Password:  "long-enough-password",
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: sign("order_1", "pay_1"),
	}
}

func (s *AuthServiceSuite) TestCreateAccount() {
	ctx := context.Background()

	s.Run("verified payment creates an active account", func() {
		user, accessToken, err := s.service.CreateAccount(ctx, signupRequest("asha@example.com"))
		s.Require().NoError(err)
		s.NotEmpty(accessToken)
		s.Equal(models.RoleUser, user.Role)
		s.Equal(models.StatusActive, user.Status)
		s.NotEmpty(user.PasswordHash)
		s.True(user.PlanExpiresAt.After(time.Now().Add(364 * 24 * time.Hour)))
	})

	s.Run("bad signature creates nothing", func() {
		req := signupRequest("mallory@example.com")
		req.Signature = "forged"
		_, _, err := s.service.CreateAccount(ctx, req)
		s.Require().Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
		s.Equal("payment verification failed", dErrors.MessageOf(err))

		_, err = s.users.FindByEmail(ctx, "mallory@example.com")
		s.ErrorIs(err, store.ErrNotFound)
	})

	s.Run("invalid email rejected", func() {
		req := signupRequest("not-an-email")
		_, _, err := s.service.CreateAccount(ctx, req)
		s.Require().Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("short password rejected", func() {
		req := signupRequest("short@example.com")
		req.Password = "tiny"
		_, _, err := s.service.CreateAccount(ctx, req)
		s.Require().Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("duplicate email conflicts", func() {
		_, _, err := s.service.CreateAccount(ctx, signupRequest("dup@example.com"))
		s.Require().NoError(err)

		_, _, err = s.service.CreateAccount(ctx, signupRequest("dup@example.com"))
		s.Require().Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("name derives from email when omitted", func() {
		user, _, err := s.service.CreateAccount(ctx, signupRequest("ravi.kumar@example.com"))
		s.Require().NoError(err)
		s.NotEmpty(user.FirstName)
	})
}

func (s *AuthServiceSuite) TestLogin() {
	ctx := context.Background()
	_, _, err := s.service.CreateAccount(ctx, signupRequest("asha@example.com"))
	s.Require().NoError(err)

	s.Run("valid credentials return a token", func() {
		user, accessToken, err := s.service.Login(ctx, models.LoginRequest{
			Email: "asha@example.com", Password: "long-enough-password",
		})
		s.Require().NoError(err)
		s.NotEmpty(accessToken)
		s.Equal("asha@example.com", user.Email)
	})

	s.Run("unknown email and wrong password are indistinguishable", func() {
		_, _, errUnknown := s.service.Login(ctx, models.LoginRequest{
			Email: "ghost@example.com", Password: "whatever-password",
		})
		_, _, errWrong := s.service.Login(ctx, models.LoginRequest{
			Email: "asha@example.com", Password: "wrong-password",
		})

		s.Require().Error(errUnknown)
		s.Require().Error(errWrong)
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(errUnknown))
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(errWrong))
		s.Equal(dErrors.MessageOf(errUnknown), dErrors.MessageOf(errWrong))
	})

	s.Run("repeated failures lock the account", func() {
		for i := 0; i < lockout.MaxFailures; i++ {
			_, _, err := s.service.Login(ctx, models.LoginRequest{
				Email: "asha@example.com", Password: "wrong-password",
			})
			s.Require().Error(err)
		}

		_, _, err := s.service.Login(ctx, models.LoginRequest{
			Email: "asha@example.com", Password: "long-enough-password",
		})
		s.Require().Error(err)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("successful login clears the failure count", func() {
		s.Require().NoError(s.lockouts.Clear(ctx, "asha@example.com"))
		for i := 0; i < lockout.MaxFailures-1; i++ {
			_, _, err := s.service.Login(ctx, models.LoginRequest{
				Email: "asha@example.com", Password: "wrong-password",
			})
			s.Require().Error(err)
		}

		_, _, err := s.service.Login(ctx, models.LoginRequest{
			Email: "asha@example.com", Password: "long-enough-password",
		})
		s.Require().NoError(err)

		locked, err := s.lockouts.IsLocked(ctx, "asha@example.com")
		s.Require().NoError(err)
		s.False(locked)
	})
}

func (s *AuthServiceSuite) TestAdminLogin() {
	ctx := context.Background()
	_, _, err := s.service.CreateAccount(ctx, signupRequest("plain@example.com"))
	s.Require().NoError(err)

	s.Run("valid non-admin credentials are forbidden, not unauthorized", func() {
		_, _, err := s.service.AdminLogin(ctx, models.LoginRequest{
			Email: "plain@example.com", Password: "long-enough-password",
		})
		s.Require().Error(err)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("admin role passes", func() {
		admin, _, err := s.service.CreateAccount(ctx, signupRequest("root@example.com"))
		s.Require().NoError(err)
		admin.Role = models.RoleAdmin
		s.Require().NoError(s.users.Update(ctx, admin))

		user, accessToken, err := s.service.AdminLogin(ctx, models.LoginRequest{
			Email: "root@example.com", Password: "long-enough-password",
		})
		s.Require().NoError(err)
		s.NotEmpty(accessToken)
		s.Equal(models.RoleAdmin, user.Role)
	})
}

func (s *AuthServiceSuite) TestForgotAndResetPassword() {
	ctx := context.Background()
	user, _, err := s.service.CreateAccount(ctx, signupRequest("asha@example.com"))
	s.Require().NoError(err)

	s.Run("unknown email reports success and sends nothing", func() {
		s.Require().NoError(s.service.ForgotPassword(ctx, "ghost@example.com"))
		s.Empty(s.mail.sent)
	})

	s.Run("known email gets a reset mail and the token works once", func() {
		s.Require().NoError(s.service.ForgotPassword(ctx, "asha@example.com"))
		s.Require().Len(s.mail.sent, 1)
		s.Equal("asha@example.com", s.mail.sent[0].to)

		// The service only hands the token to the mailer; mint one directly
		// to exercise consumption.
		resetToken, err := s.resets.Create(ctx, user.ID)
		s.Require().NoError(err)

		s.Require().NoError(s.service.ResetPassword(ctx, models.ResetPasswordRequest{
			Token: resetToken, NewPassword: "brand-new-password",
		}))

		_, _, err = s.service.Login(ctx, models.LoginRequest{
			Email: "asha@example.com", Password: "brand-new-password",
		})
		s.Require().NoError(err)

		err = s.service.ResetPassword(ctx, models.ResetPasswordRequest{
			Token: resetToken, NewPassword: "another-password",
		})
		s.Require().Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("mail failure surfaces as upstream", func() {
		s.mail.fail = context.DeadlineExceeded
		defer func() { s.mail.fail = nil }()

		err := s.service.ForgotPassword(ctx, "asha@example.com")
		s.Require().Error(err)
		s.Equal(dErrors.CodeUpstream, dErrors.CodeOf(err))
	})
}

func (s *AuthServiceSuite) TestUpdatePassword() {
	ctx := context.Background()
	user, _, err := s.service.CreateAccount(ctx, signupRequest("asha@example.com"))
	s.Require().NoError(err)
	ctx = requestcontext.WithUserID(ctx, user.ID)

	s.Run("wrong current password is unauthorized", func() {
		err := s.service.UpdatePassword(ctx, models.UpdatePasswordRequest{
			CurrentPassword: "wrong-password",
			NewPassword:     "brand-new-password",
		})
		s.Require().Error(err)
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	s.Run("correct current password rotates the hash", func() {
		s.Require().NoError(s.service.UpdatePassword(ctx, models.UpdatePasswordRequest{
			CurrentPassword: "long-enough-password",
			NewPassword:     "brand-new-password",
		}))

		_, _, err := s.service.Login(ctx, models.LoginRequest{
			Email: "asha@example.com", Password: "brand-new-password",
		})
		s.Require().NoError(err)
	})
}

func (s *AuthServiceSuite) TestCurrentUser() {
	ctx := context.Background()
	user, _, err := s.service.CreateAccount(ctx, signupRequest("asha@example.com"))
	s.Require().NoError(err)

	got, err := s.service.CurrentUser(requestcontext.WithUserID(ctx, user.ID))
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)

	_, err = s.service.CurrentUser(requestcontext.WithUserID(ctx, "deleted-user"))
	s.Require().Error(err)
	s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func (s *AuthServiceSuite) TestRenew() {
	ctx := context.Background()
	user, _, err := s.service.CreateAccount(ctx, signupRequest("asha@example.com"))
	s.Require().NoError(err)
	ctx = requestcontext.WithUserID(ctx, user.ID)

	s.Run("bad signature renews nothing", func() {
		_, err := s.service.Renew(ctx, models.RenewRequest{
			OrderID: "order_2", PaymentID: "pay_2", Signature: "forged",
		})
		s.Require().Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("active plan extends from the current expiry", func() {
		before, err := s.users.FindByID(ctx, user.ID)
		s.Require().NoError(err)

		renewed, err := s.service.Renew(ctx, models.RenewRequest{
			OrderID: "order_2", PaymentID: "pay_2", Signature: sign("order_2", "pay_2"),
		})
		s.Require().NoError(err)
		s.Equal(before.PlanExpiresAt.Add(PlanDuration), renewed.PlanExpiresAt)
	})

	s.Run("expired plan extends from now", func() {
		stale, err := s.users.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		stale.PlanExpiresAt = time.Now().Add(-24 * time.Hour)
		stale.Status = models.StatusExpired
		s.Require().NoError(s.users.Update(ctx, stale))

		now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		renewed, err := s.service.Renew(requestcontext.WithTime(ctx, now), models.RenewRequest{
			OrderID: "order_3", PaymentID: "pay_3", Signature: sign("order_3", "pay_3"),
		})
		s.Require().NoError(err)
		s.Equal(now.Add(PlanDuration), renewed.PlanExpiresAt)
		s.Equal(models.StatusActive, renewed.Status)
	})
}
