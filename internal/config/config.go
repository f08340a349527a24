// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Session  SessionConfig
	Token    TokenConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	Metrics  MetricsConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string // SQLite path or postgres:// URL
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Session max age in seconds
	HashKey    string // 32-byte hex string for HMAC signing
	BlockKey   string // 32-byte hex string for AES encryption (optional)
}

type TokenConfig struct {
	Secret             string        // 32-byte hex string for signing verification tokens
	VerificationMaxAge time.Duration // Max age of email verification tokens
	ResetMaxAge        time.Duration // Max age of password reset tokens
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical
	RequireEmailVerification bool
	RequireApproval          bool
	ApprovalRoles            []string // roles that need manual approval when RequireApproval is set
	PasswordMinLength        int
	PasswordRequireDigit     bool
	PasswordCheckCommon      bool // reject passwords from the built-in common list
	PasswordCheckSimilarity  bool // reject passwords that resemble the username or email
	BcryptCost               int
	RevalidateSessions       bool // re-check the live account on every request

	// Bootstrap admin, created on startup when no admin exists.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Enabled reports whether an SMTP host is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			HashKey:    cmd.String("session-hash-key"),
			BlockKey:   cmd.String("session-block-key"),
		},
		Token: TokenConfig{
			Secret:             cmd.String("token-secret"),
			VerificationMaxAge: cmd.Duration("token-verification-max-age"),
			ResetMaxAge:        cmd.Duration("token-reset-max-age"),
		},
		Auth: AuthConfig{
			RequireEmailVerification: cmd.Bool("require-email-verification"),
			RequireApproval:          cmd.Bool("require-approval"),
			ApprovalRoles:            SplitList(cmd.String("approval-roles")),
			PasswordMinLength:        int(cmd.Int("password-min-length")),
			PasswordRequireDigit:     cmd.Bool("password-require-digit"),
			PasswordCheckCommon:      cmd.Bool("password-check-common"),
			PasswordCheckSimilarity:  cmd.Bool("password-check-similarity"),
			BcryptCost:               int(cmd.Int("bcrypt-cost")),
			RevalidateSessions:       cmd.Bool("revalidate-sessions"),
			AdminUsername:            cmd.String("admin-username"),
			AdminEmail:               cmd.String("admin-email"),
			AdminPassword:            cmd.String("admin-password"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Metrics: MetricsConfig{
			Enabled: cmd.Bool("metrics"),
			Path:    cmd.String("metrics-path"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}
	cfg.Server.BaseURL = strings.TrimSuffix(cfg.Server.BaseURL, "/")

	return cfg
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.Server.BaseURL, "https://")
}

// IsDevelopment reports whether the server runs on a local address.
// Missing secrets are only generated in development.
func (c *Config) IsDevelopment() bool {
	return IsLocalhost(c.Server.Host)
}

// RequiresApproval reports whether accounts with the given role must be approved
// by an admin before they can log in.
func (c AuthConfig) RequiresApproval(role string) bool {
	if !c.RequireApproval {
		return false
	}
	for _, r := range c.ApprovalRoles {
		if r == role {
			return true
		}
	}
	return false
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port

	// Hide default port in URL
	if port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

// SplitList splits a comma-separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// sources builds the value source chain env var > TOML key.
func sources(envKey, tomlKey string, src altsrc.Sourcer) cli.ValueSourceChain {
	chain := cli.EnvVars(envKey)
	chain.Chain = append(chain.Chain, toml.TOML(tomlKey, src))
	return chain
}

// Flags returns all CLI flags. Every flag can also be set through an
// environment variable or a key in the TOML config file.
func Flags() []cli.Flag {
	var configFile string
	src := altsrc.NewStringPtrSourcer(&configFile)

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Value:       "config.toml",
			Usage:       "Path to configuration file",
			Destination: &configFile,
			Sources:     cli.EnvVars("CONFIG"),
		},
		// Server flags
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: sources("HOST", "server.host", src),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: sources("PORT", "server.port", src),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application (used in emailed links)",
			Sources: sources("BASE_URL", "server.base_url", src),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: sources("MAX_BODY_SIZE", "server.max_body_size", src),
		},
		// Log flags
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: sources("LOG_LEVEL", "log.level", src),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: sources("LOG_FORMAT", "log.format", src),
		},
		// Database flags
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/shopdesk.db",
			Usage:   "SQLite database path or postgres:// URL",
			Sources: sources("DATABASE_DSN", "database.dsn", src),
		},
		// Session flags
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_session",
			Usage:   "Session cookie name",
			Sources: sources("SESSION_COOKIE_NAME", "session.cookie_name", src),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   86400, // 24 hours in seconds
			Usage:   "Session max age in seconds",
			Sources: sources("SESSION_MAX_AGE", "session.max_age", src),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session hash key (32-byte hex, auto-generated if empty in dev)",
			Sources: sources("SESSION_HASH_KEY", "session.hash_key", src),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session block key for encryption (32-byte hex, optional)",
			Sources: sources("SESSION_BLOCK_KEY", "session.block_key", src),
		},
		// Token flags
		&cli.StringFlag{
			Name:    "token-secret",
			Usage:   "Signing secret for verification tokens (32-byte hex, auto-generated if empty in dev)",
			Sources: sources("TOKEN_SECRET", "token.secret", src),
		},
		&cli.DurationFlag{
			Name:    "token-verification-max-age",
			Value:   24 * time.Hour,
			Usage:   "How long email verification links stay valid",
			Sources: sources("TOKEN_VERIFICATION_MAX_AGE", "token.verification_max_age", src),
		},
		&cli.DurationFlag{
			Name:    "token-reset-max-age",
			Value:   time.Hour,
			Usage:   "How long password reset links stay valid",
			Sources: sources("TOKEN_RESET_MAX_AGE", "token.reset_max_age", src),
		},
		// Auth flags
		&cli.BoolFlag{
			Name:    "require-email-verification",
			Usage:   "Refuse login until the account's email address is verified",
			Sources: sources("REQUIRE_EMAIL_VERIFICATION", "auth.require_email_verification", src),
		},
		&cli.BoolFlag{
			Name:    "require-approval",
			Value:   true,
			Usage:   "Refuse login for approval roles until an admin approves the account",
			Sources: sources("REQUIRE_APPROVAL", "auth.require_approval", src),
		},
		&cli.StringFlag{
			Name:    "approval-roles",
			Value:   "admin",
			Usage:   "Comma-separated roles that need admin approval",
			Sources: sources("APPROVAL_ROLES", "auth.approval_roles", src),
		},
		&cli.IntFlag{
			Name:    "password-min-length",
			Value:   1,
			Usage:   "Minimum password length",
			Sources: sources("PASSWORD_MIN_LENGTH", "auth.password_min_length", src),
		},
		&cli.BoolFlag{
			Name:    "password-require-digit",
			Usage:   "Require at least one digit in passwords",
			Sources: sources("PASSWORD_REQUIRE_DIGIT", "auth.password_require_digit", src),
		},
		&cli.BoolFlag{
			Name:    "password-check-common",
			Usage:   "Reject commonly used passwords",
			Sources: sources("PASSWORD_CHECK_COMMON", "auth.password_check_common", src),
		},
		&cli.BoolFlag{
			Name:    "password-check-similarity",
			Usage:   "Reject passwords similar to the username or email",
			Sources: sources("PASSWORD_CHECK_SIMILARITY", "auth.password_check_similarity", src),
		},
		&cli.IntFlag{
			Name:    "bcrypt-cost",
			Value:   12,
			Usage:   "bcrypt work factor",
			Sources: sources("BCRYPT_COST", "auth.bcrypt_cost", src),
		},
		&cli.BoolFlag{
			Name:    "revalidate-sessions",
			Usage:   "Reload the account on every request and drop sessions whose role changed",
			Sources: sources("REVALIDATE_SESSIONS", "auth.revalidate_sessions", src),
		},
		&cli.StringFlag{
			Name:    "admin-username",
			Usage:   "Username of the bootstrap admin account",
			Sources: sources("ADMIN_USERNAME", "auth.admin_username", src),
		},
		&cli.StringFlag{
			Name:    "admin-email",
			Usage:   "Email of the bootstrap admin account",
			Sources: sources("ADMIN_EMAIL", "auth.admin_email", src),
		},
		&cli.StringFlag{
			Name:    "admin-password",
			Usage:   "Password of the bootstrap admin account",
			Sources: sources("ADMIN_PASSWORD", "auth.admin_password", src),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (emails are logged when empty)",
			Sources: sources("SMTP_HOST", "smtp.host", src),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: sources("SMTP_PORT", "smtp.port", src),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: sources("SMTP_USERNAME", "smtp.username", src),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: sources("SMTP_PASSWORD", "smtp.password", src),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address",
			Sources: sources("SMTP_FROM", "smtp.from", src),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "Shopdesk",
			Usage:   "Sender display name",
			Sources: sources("SMTP_FROM_NAME", "smtp.from_name", src),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: sources("SMTP_TLS", "smtp.tls", src),
		},
		// Metrics flags
		&cli.BoolFlag{
			Name:    "metrics",
			Value:   true,
			Usage:   "Expose Prometheus metrics",
			Sources: sources("METRICS", "metrics.enabled", src),
		},
		&cli.StringFlag{
			Name:    "metrics-path",
			Value:   "/metrics",
			Usage:   "Path of the Prometheus endpoint",
			Sources: sources("METRICS_PATH", "metrics.path", src),
		},
	}
}
