package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"keepsafe/internal/audit"
	"keepsafe/internal/auth/lockout"
	"keepsafe/internal/auth/models"
	"keepsafe/internal/auth/reset"
	"keepsafe/internal/auth/store"
	"keepsafe/internal/payment"
	"keepsafe/internal/platform/metrics"
	"keepsafe/internal/token"
	dErrors "keepsafe/pkg/domain-errors"
	"keepsafe/pkg/email"
	"keepsafe/pkg/requestcontext"
)

// PlanDuration is how long one payment keeps an account active.
const PlanDuration = 365 * 24 * time.Hour

const minPasswordLength = 8

// Mailer is the slice of the mail boundary this service needs.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AuditPublisher is the seam to the audit pipeline.
type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event)
}

type Service struct {
	users    store.UserStore
	tokens   *token.JWTService
	payments payment.Gateway
	lockouts lockout.Store
	resets   reset.Store
	mail     Mailer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMailer(m Mailer) Option {
	return func(s *Service) { s.mail = m }
}

func New(users store.UserStore, tokens *token.JWTService, payments payment.Gateway,
	lockouts lockout.Store, resets reset.Store, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if tokens == nil {
		return nil, errors.New("token service is required")
	}
	svc := &Service{
		users:    users,
		tokens:   tokens,
		payments: payments,
		lockouts: lockouts,
		resets:   resets,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateAccount registers a paying user. The account exists only after the
// payment signature verifies; there is no unpaid intermediate state.
func (s *Service) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (*models.User, string, error) {
	if !email.IsValidAddress(req.Email) {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, "", dErrors.Newf(dErrors.CodeBadRequest, "password must be at least %d characters", minPasswordLength)
	}
	if s.payments == nil || !s.payments.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.WarnContext(ctx, "signup payment verification failed",
			"order_id", req.OrderID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "payment verification failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to create account", err)
	}

	firstName, lastName := req.FirstName, req.LastName
	if firstName == "" {
		firstName, lastName = email.DeriveNameFromEmail(req.Email)
	}

	user := &models.User{
		ID:            uuid.NewString(),
		Email:         req.Email,
		FirstName:     firstName,
		LastName:      lastName,
		PasswordHash:  string(hash),
		Role:          models.RoleUser,
		Status:        models.StatusActive,
		PlanExpiresAt: requestcontext.Now(ctx).Add(PlanDuration),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if dErrors.Is(err, dErrors.CodeConflict) {
			return nil, "", err
		}
		s.logger.ErrorContext(ctx, "failed to create user",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to create account", err)
	}

	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	s.publishAudit(ctx, user.ID, audit.ActionAccountCreated)

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to issue token", err)
	}
	return user, accessToken, nil
}

// Login authenticates with email and password. Failures are
// indistinguishable between unknown email and wrong password.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	return s.login(ctx, req, "")
}

// AdminLogin additionally requires the admin role: valid non-admin
// credentials earn a 403, not a 401.
func (s *Service) AdminLogin(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	return s.login(ctx, req, models.RoleAdmin)
}

func (s *Service) login(ctx context.Context, req models.LoginRequest, requiredRole string) (*models.User, string, error) {
	if s.lockouts != nil {
		locked, err := s.lockouts.IsLocked(ctx, req.Email)
		if err != nil {
			s.logger.ErrorContext(ctx, "lockout check failed", "error", err)
		} else if locked {
			return nil, "", dErrors.New(dErrors.CodeForbidden, "account temporarily locked, try again later")
		}
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.recordLoginFailure(ctx, req.Email)
			return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "login failed", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.recordLoginFailure(ctx, req.Email)
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	if requiredRole != "" && user.Role != requiredRole {
		return nil, "", dErrors.New(dErrors.CodeForbidden, "insufficient privileges")
	}

	if s.lockouts != nil {
		if err := s.lockouts.Clear(ctx, req.Email); err != nil {
			s.logger.ErrorContext(ctx, "lockout clear failed", "error", err)
		}
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to issue token", err)
	}

	s.publishAudit(ctx, user.ID, audit.ActionLogin)
	return user, accessToken, nil
}

func (s *Service) recordLoginFailure(ctx context.Context, identifier string) {
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
	if s.lockouts != nil {
		if err := s.lockouts.RecordFailure(ctx, identifier); err != nil {
			s.logger.ErrorContext(ctx, "lockout record failed", "error", err)
		}
	}
	if s.audit != nil {
		// Failed logins have no authenticated actor; the event records only
		// request metadata.
		s.audit.Publish(ctx, audit.NewEvent(ctx, "", audit.ActionLoginFailed))
	}
}

// ForgotPassword always reports success so the endpoint cannot be used to
// probe which emails have accounts.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to process request", err)
	}
	if s.resets == nil || s.mail == nil {
		return nil
	}

	resetToken, err := s.resets.Create(ctx, user.ID)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to process request", err)
	}

	body := "Use this token to reset your password within " + reset.TTL.String() + ": " + resetToken
	if err := s.mail.Send(ctx, user.Email, "Password reset", body); err != nil {
		s.logger.ErrorContext(ctx, "reset mail send failed",
			"user_id", user.ID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return dErrors.Wrap(dErrors.CodeUpstream, "failed to send reset email", err)
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeBadRequest, "password must be at least %d characters", minPasswordLength)
	}
	if s.resets == nil {
		return reset.ErrInvalidToken
	}

	userID, err := s.resets.Consume(ctx, req.Token)
	if err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return reset.ErrInvalidToken
	}

	return s.setPassword(ctx, user, req.NewPassword)
}

// CurrentUser returns the authenticated principal's profile.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	userID := requestcontext.UserID(ctx)
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load profile", err)
	}
	return user, nil
}

// UpdatePassword changes the password after re-verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, req models.UpdatePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeBadRequest, "password must be at least %d characters", minPasswordLength)
	}

	user, err := s.users.FindByID(ctx, requestcontext.UserID(ctx))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to update password", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
	}

	return s.setPassword(ctx, user, req.NewPassword)
}

func (s *Service) setPassword(ctx context.Context, user *models.User, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to update password", err)
	}
	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to update password", err)
	}
	s.publishAudit(ctx, user.ID, audit.ActionPasswordChanged)
	return nil
}

// Renew extends the plan after payment verification. The extension is
// anchored at whichever is later: now or the current expiry.
func (s *Service) Renew(ctx context.Context, req models.RenewRequest) (*models.User, error) {
	if s.payments == nil || !s.payments.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payment verification failed")
	}

	user, err := s.users.FindByID(ctx, requestcontext.UserID(ctx))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to renew", err)
	}

	anchor := requestcontext.Now(ctx)
	if user.PlanExpiresAt.After(anchor) {
		anchor = user.PlanExpiresAt
	}
	user.PlanExpiresAt = anchor.Add(PlanDuration)
	user.Status = models.StatusActive

	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to renew", err)
	}
	s.publishAudit(ctx, user.ID, audit.ActionAccountRenewed)
	return user, nil
}

func (s *Service) publishAudit(ctx context.Context, userID, action string) {
	if s.audit == nil {
		return
	}
	s.audit.Publish(ctx, audit.NewEvent(ctx, userID, action))
}
