// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements registration, login and the credential lifecycle:
// email verification, approval and password changes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"codeberg.org/oliverandrich/shopdesk/internal/config"
	"codeberg.org/oliverandrich/shopdesk/internal/metrics"
	"codeberg.org/oliverandrich/shopdesk/internal/models"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
	"codeberg.org/oliverandrich/shopdesk/internal/services/email"
	"codeberg.org/oliverandrich/shopdesk/internal/services/password"
	"codeberg.org/oliverandrich/shopdesk/internal/services/token"
)

var (
	ErrDuplicateIdentity     = errors.New("identity already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrEmailNotVerified      = errors.New("email address not verified")
	ErrNotApproved           = errors.New("account awaiting approval")
	ErrInvalidUsername       = errors.New("invalid username")
	ErrInvalidEmail          = errors.New("invalid email format")
	ErrNoEmail               = errors.New("account has no email address")
	ErrInvalidRole           = models.ErrInvalidRole
)

const tracerName = "codeberg.org/oliverandrich/shopdesk/internal/services/auth"

// Mailer hands a message to the notification side channel. Implementations
// must not block on delivery.
type Mailer interface {
	Dispatch(ctx context.Context, recipient, subject, body string) error
}

type Service struct {
	repo      *repository.Repository
	auth      config.AuthConfig
	tokenCfg  config.TokenConfig
	baseURL   string
	hasher    *password.Hasher
	validator *password.Validator
	tokens    *token.Service
	mailer    Mailer
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	dummyHash string
}

// NewService creates the auth service. mailer and m may be nil.
func NewService(repo *repository.Repository, cfg *config.Config, tokens *token.Service, mailer Mailer, m *metrics.Metrics) *Service {
	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	return &Service{
		repo:      repo,
		auth:      cfg.Auth,
		tokenCfg:  cfg.Token,
		baseURL:   cfg.Server.BaseURL,
		hasher:    hasher,
		validator: password.NewValidator(cfg.Auth.PasswordMinLength, passwordOptions(cfg.Auth)...),
		tokens:    tokens,
		mailer:    mailer,
		metrics:   m,
		tracer:    otel.Tracer(tracerName),
		dummyHash: hasher.DummyHash(),
	}
}

func passwordOptions(cfg config.AuthConfig) []password.ValidatorOption {
	var opts []password.ValidatorOption
	if cfg.PasswordRequireDigit {
		opts = append(opts, password.WithRequireDigit())
	}
	if cfg.PasswordCheckCommon {
		opts = append(opts, password.WithCommonPasswordCheck())
	}
	if cfg.PasswordCheckSimilarity {
		opts = append(opts, password.WithSimilarityCheck())
	}
	return opts
}

// PasswordValidator returns the password validator for use in handlers.
func (s *Service) PasswordValidator() *password.Validator {
	return s.validator
}

// RegisterParams holds the parameters for account registration.
// Email is optional; Role defaults to customer.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Register creates a new account. Accounts with an email address are sent a
// verification link; a failing notification never fails the registration.
func (s *Service) Register(ctx context.Context, params RegisterParams) (account *models.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer func() { endSpan(span, err) }()

	account, err = s.create(ctx, params, false)
	if err != nil {
		s.metrics.Registration(registrationOutcome(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int64("account.id", account.ID))
	s.metrics.Registration("success")
	slog.InfoContext(ctx, "register_success", "account_id", account.ID, "username", account.Username, "role", account.Role)

	if account.HasEmail() {
		if sendErr := s.sendVerification(ctx, account); sendErr != nil {
			slog.WarnContext(ctx, "verification_send_failed", "account_id", account.ID, "error", sendErr)
		}
	}

	return account, nil
}

// CreateAdmin creates an approved, verified admin account without sending
// any notification.
func (s *Service) CreateAdmin(ctx context.Context, username, emailAddr, plaintext string) (*models.Account, error) {
	account, err := s.create(ctx, RegisterParams{
		Username: username,
		Email:    emailAddr,
		Password: plaintext,
		Role:     string(models.RoleAdmin),
	}, true)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "admin_created", "account_id", account.ID, "username", account.Username)
	return account, nil
}

// EnsureAdmin ensures at least one admin exists. An existing account with
// the given username is promoted instead of creating a new one.
func (s *Service) EnsureAdmin(ctx context.Context, username, emailAddr, plaintext string) error {
	count, err := s.repo.CountAccountsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err = s.CreateAdmin(ctx, username, emailAddr, plaintext)
	if !errors.Is(err, ErrDuplicateIdentity) {
		return err
	}

	existing, err := s.repo.GetAccountByIdentity(ctx, models.NormalizeIdentity(username))
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	existing.Role = models.RoleAdmin
	existing.IsApproved = true
	existing.IsEmailVerified = true
	if err := s.repo.UpdateAccount(ctx, existing); err != nil {
		return fmt.Errorf("failed to promote account: %w", err)
	}
	slog.InfoContext(ctx, "admin_promoted", "account_id", existing.ID, "username", existing.Username)
	return nil
}

// create validates params, hashes the password and inserts the account.
// Trusted accounts skip the approval and verification lifecycle.
func (s *Service) create(ctx context.Context, params RegisterParams, trusted bool) (*models.Account, error) {
	username := models.NormalizeIdentity(params.Username)
	if username == "" || strings.ContainsAny(username, "@ \t\r\n") {
		return nil, ErrInvalidUsername
	}

	role := models.RoleCustomer
	if strings.TrimSpace(params.Role) != "" {
		parsed, err := models.ParseRole(params.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		role = parsed
	}

	var emailAddr *string
	if strings.TrimSpace(params.Email) != "" {
		addr, err := mail.ParseAddress(params.Email)
		if err != nil {
			return nil, ErrInvalidEmail
		}
		normalized := models.NormalizeIdentity(addr.Address)
		emailAddr = &normalized
	}

	attrs := []string{username}
	if emailAddr != nil {
		attrs = append(attrs, *emailAddr)
	}
	if err := s.validator.Validate(params.Password, attrs...); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username:        username,
		Email:           emailAddr,
		PasswordHash:    hash,
		Role:            role,
		IsApproved:      trusted,
		IsEmailVerified: trusted,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			slog.WarnContext(ctx, "register_failed", "username", username, "reason", "duplicate_identity")
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// Login authenticates an account by username or email address. Unknown
// identities and wrong passwords are indistinguishable to the caller.
// The returned account's role is the one the session must carry.
func (s *Service) Login(ctx context.Context, identity, plaintext string) (account *models.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer func() { endSpan(span, err) }()

	identity = models.NormalizeIdentity(identity)
	account, err = s.repo.GetAccountByIdentity(ctx, identity)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		s.hasher.Verify(s.dummyHash, plaintext)
		return nil, s.loginFailed(ctx, identity, "unknown_identity", "invalid_credentials", ErrInvalidCredentials)
	}

	if !s.hasher.Verify(account.PasswordHash, plaintext) {
		return nil, s.loginFailed(ctx, identity, "invalid_password", "invalid_credentials", ErrInvalidCredentials)
	}

	if s.auth.RequireEmailVerification && !account.IsEmailVerified {
		return nil, s.loginFailed(ctx, identity, "email_not_verified", "email_not_verified", ErrEmailNotVerified)
	}

	if s.auth.RequiresApproval(string(account.Role)) && !account.IsApproved {
		return nil, s.loginFailed(ctx, identity, "not_approved", "not_approved", ErrNotApproved)
	}

	span.SetAttributes(attribute.Int64("account.id", account.ID), attribute.String("account.role", string(account.Role)))
	s.metrics.Login("success")
	slog.InfoContext(ctx, "login_success", "account_id", account.ID, "username", account.Username, "role", account.Role)
	return account, nil
}

func (s *Service) loginFailed(ctx context.Context, identity, reason, outcome string, err error) error {
	s.metrics.Login(outcome)
	slog.WarnContext(ctx, "login_failed", "identity", identity, "reason", reason)
	return err
}

// Logout records the end of a session. Clearing the cookie is up to the caller.
func (s *Service) Logout(ctx context.Context, accountID int64) {
	if accountID == 0 {
		slog.DebugContext(ctx, "logout_anonymous")
		return
	}
	slog.InfoContext(ctx, "logout", "account_id", accountID)
}

// VerifyEmail redeems a verification token. Expired, tampered, replayed and
// superseded tokens all yield ErrInvalidOrExpiredToken and change nothing.
func (s *Service) VerifyEmail(ctx context.Context, tok string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.VerifyEmail")
	defer func() { endSpan(span, err) }()

	account, payload, err := s.redeem(ctx, tok, token.PurposeEmailVerification, s.tokenCfg.VerificationMaxAge)
	if err != nil {
		return err
	}

	err = s.repo.MarkEmailVerified(ctx, account.ID, payload.ID, token.PurposeEmailVerification)
	switch {
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrNotFound):
		slog.WarnContext(ctx, "verify_email_failed", "account_id", account.ID, "reason", "token_used")
		return ErrInvalidOrExpiredToken
	case err != nil:
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	slog.InfoContext(ctx, "email_verified", "account_id", account.ID)
	return nil
}

// ResendVerification issues a fresh verification token. Earlier tokens of the
// account stop being accepted. Verified accounts are left alone.
func (s *Service) ResendVerification(ctx context.Context, accountID int64) error {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if !account.HasEmail() {
		return ErrNoEmail
	}
	if account.IsEmailVerified {
		slog.DebugContext(ctx, "verification_skipped", "account_id", accountID, "reason", "already_verified")
		return nil
	}
	return s.sendVerification(ctx, account)
}

// Approve marks an account as approved by an administrator.
func (s *Service) Approve(ctx context.Context, accountID int64) error {
	if err := s.repo.SetAccountApproved(ctx, accountID, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to approve account: %w", err)
	}
	slog.InfoContext(ctx, "account_approved", "account_id", accountID)
	return nil
}

// ChangePassword changes the password of an account whose current password is known.
func (s *Service) ChangePassword(ctx context.Context, accountID int64, current, next string) error {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	if !s.hasher.Verify(account.PasswordHash, current) {
		slog.WarnContext(ctx, "password_change_failed", "account_id", accountID, "reason", "invalid_password")
		return ErrInvalidCredentials
	}

	if err := s.validator.Validate(next, account.Username, account.EmailAddress()); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdateAccountPassword(ctx, accountID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.InfoContext(ctx, "password_changed", "account_id", accountID)
	return nil
}

// RequestPasswordReset sends a reset link when an account with the address
// exists. Unknown addresses succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = models.NormalizeIdentity(emailAddr)
	account, err := s.repo.GetAccountByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.InfoContext(ctx, "password_reset_unknown_email")
			return nil
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	tok, err := s.tokens.Issue(token.Payload{AccountID: account.ID, Email: emailAddr}, token.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	subject, body := email.PasswordResetMessage(ctx, s.baseURL, account.Username, tok, s.tokenCfg.ResetMaxAge)
	if err := s.dispatch(ctx, emailAddr, subject, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "password_reset_requested", "account_id", account.ID)
	return nil
}

// ResetPassword sets a new password using a reset token. A token works once.
func (s *Service) ResetPassword(ctx context.Context, tok, next string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.ResetPassword")
	defer func() { endSpan(span, err) }()

	account, payload, err := s.redeem(ctx, tok, token.PurposePasswordReset, s.tokenCfg.ResetMaxAge)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(next, account.Username, account.EmailAddress()); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.repo.ResetAccountPassword(ctx, account.ID, hash, payload.ID, token.PurposePasswordReset)
	switch {
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrNotFound):
		slog.WarnContext(ctx, "password_reset_failed", "account_id", account.ID, "reason", "token_used")
		return ErrInvalidOrExpiredToken
	case err != nil:
		return fmt.Errorf("failed to reset password: %w", err)
	}

	slog.InfoContext(ctx, "password_reset", "account_id", account.ID)
	return nil
}

// redeem checks a token and returns the account it was issued to. The
// account's current email must still match the address in the token.
func (s *Service) redeem(ctx context.Context, tok, purpose string, maxAge time.Duration) (*models.Account, *token.Payload, error) {
	payload, err := s.tokens.Redeem(tok, purpose, maxAge)
	if err != nil {
		slog.WarnContext(ctx, "token_rejected", "purpose", purpose, "reason", err.Error())
		return nil, nil, ErrInvalidOrExpiredToken
	}

	used, err := s.repo.IsTokenRedeemed(ctx, payload.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check token: %w", err)
	}
	if used {
		slog.WarnContext(ctx, "token_rejected", "purpose", purpose, "reason", "replayed", "account_id", payload.AccountID)
		return nil, nil, ErrInvalidOrExpiredToken
	}

	account, err := s.repo.GetAccountByID(ctx, payload.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidOrExpiredToken
		}
		return nil, nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !account.HasEmail() || account.EmailAddress() != payload.Email {
		slog.WarnContext(ctx, "token_rejected", "purpose", purpose, "reason", "email_mismatch", "account_id", account.ID)
		return nil, nil, ErrInvalidOrExpiredToken
	}
	return account, payload, nil
}

func (s *Service) sendVerification(ctx context.Context, account *models.Account) error {
	jti := token.NewID()
	tok, err := s.tokens.Issue(token.Payload{
		AccountID: account.ID,
		Email:     account.EmailAddress(),
		ID:        jti,
	}, token.PurposeEmailVerification)
	if err != nil {
		return fmt.Errorf("failed to issue verification token: %w", err)
	}

	if err := s.repo.SetVerificationToken(ctx, account.ID, jti); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}
	account.VerificationToken = &jti

	subject, body := email.VerificationMessage(ctx, s.baseURL, account.Username, tok, s.tokenCfg.VerificationMaxAge)
	if err := s.dispatch(ctx, account.EmailAddress(), subject, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "verification_sent", "account_id", account.ID)
	return nil
}

func (s *Service) dispatch(ctx context.Context, recipient, subject, body string) error {
	if s.mailer == nil {
		slog.WarnContext(ctx, "notification_dropped", "reason", "no_mailer")
		return nil
	}
	if err := s.mailer.Dispatch(ctx, recipient, subject, body); err != nil {
		s.metrics.Notification("dropped")
		return fmt.Errorf("failed to dispatch notification: %w", err)
	}
	return nil
}

func registrationOutcome(err error) string {
	if errors.Is(err, ErrDuplicateIdentity) {
		return "duplicate"
	}
	var verr *password.ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrInvalidUsername) ||
		errors.Is(err, ErrInvalidEmail) || errors.Is(err, ErrInvalidRole) {
		return "invalid"
	}
	return "error"
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
