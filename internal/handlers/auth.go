// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shopdesk/internal/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/errutil"
	"codeberg.org/oliverandrich/shopdesk/internal/i18n"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
	authsvc "codeberg.org/oliverandrich/shopdesk/internal/services/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/services/session"
)

// AuthHandlers contains handlers for registration, login and the credential lifecycle.
type AuthHandlers struct {
	svc      *authsvc.Service
	sessions *session.Manager
	repo     *repository.Repository
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(svc *authsvc.Service, sess *session.Manager, repo *repository.Repository) *AuthHandlers {
	return &AuthHandlers{
		svc:      svc,
		sessions: sess,
		repo:     repo,
	}
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// Register creates an account.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	account, err := h.svc.Register(c.Request().Context(), authsvc.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return messageWith(c, http.StatusCreated, "user_registered", "account", account)
}

// LoginRequest is the request body for login. Either username or email identifies the account.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse tells the client where the account's home is.
type LoginResponse struct {
	Message     string `json:"message"`
	Role        string `json:"role"`
	RedirectURL string `json:"redirect_url"`
}

// Login authenticates the client and sets the session cookie.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	identity := req.Username
	if identity == "" {
		identity = req.Email
	}

	ctx := c.Request().Context()
	account, err := h.svc.Login(ctx, identity, req.Password)
	if err != nil {
		return err
	}

	cookie, err := h.sessions.Create(account.ID, account.Username, account.Role)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, LoginResponse{
		Message:     i18n.T(ctx, "login_success"),
		Role:        account.Role.String(),
		RedirectURL: account.Role.HomePath(),
	})
}

// Logout clears the session cookie. Logging out without a session succeeds too.
func (h *AuthHandlers) Logout(c echo.Context) error {
	var accountID int64
	if p := auth.GetPrincipal(c.Request().Context()); p != nil {
		accountID = p.AccountID
	}
	h.svc.Logout(c.Request().Context(), accountID)
	c.SetCookie(h.sessions.Clear())
	return message(c, http.StatusOK, "logout_success")
}

// Me returns the account behind the current session.
func (h *AuthHandlers) Me(c echo.Context) error {
	p, err := auth.RequireAuthenticated(c.Request().Context())
	if err != nil {
		return err
	}

	account, err := h.repo.GetAccountByID(c.Request().Context(), p.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.ErrUnauthenticated
		}
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// VerifyEmail redeems the token from the verification link.
func (h *AuthHandlers) VerifyEmail(c echo.Context) error {
	if err := h.svc.VerifyEmail(c.Request().Context(), c.QueryParam("token")); err != nil {
		return err
	}
	return message(c, http.StatusOK, "email_verified")
}

// ResendVerification sends a fresh verification link to the current account.
func (h *AuthHandlers) ResendVerification(c echo.Context) error {
	p, err := auth.RequireAuthenticated(c.Request().Context())
	if err != nil {
		return err
	}
	if err := h.svc.ResendVerification(c.Request().Context(), p.AccountID); err != nil {
		return err
	}
	return message(c, http.StatusAccepted, "verification_sent")
}

// ForgotPasswordRequest is the request body for requesting a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword answers 202 whether or not the address is registered.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.svc.RequestPasswordReset(ctx, req.Email); err != nil {
		errutil.LogError(ctx, nil, "password_reset_request_failed", err)
	}
	return message(c, http.StatusAccepted, "reset_requested")
}

// ResetPasswordRequest is the request body for setting a new password with a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ResetPassword sets a new password using a reset token.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return message(c, http.StatusOK, "password_reset")
}

// ChangePasswordRequest is the request body for changing the current password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// ChangePassword changes the password of the current account.
func (h *AuthHandlers) ChangePassword(c echo.Context) error {
	p, err := auth.RequireAuthenticated(c.Request().Context())
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.ChangePassword(c.Request().Context(), p.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return message(c, http.StatusOK, "password_changed")
}
