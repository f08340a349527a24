// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/oliverandrich/shopdesk/internal/config"
	"codeberg.org/oliverandrich/shopdesk/internal/server"
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Server Scenario Suite")
}

// testEnv is one running server backed by a fresh in-memory database.
type testEnv struct {
	srv  *server.Server
	http *httptest.Server
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "localhost", Port: 0, BaseURL: "http://localhost", MaxBodySize: 1},
		Log:      config.LogConfig{Level: "error", Format: "text"},
		Database: config.DatabaseConfig{DSN: ":memory:"},
		Session:  config.SessionConfig{CookieName: "_session", MaxAge: 3600},
		Token:    config.TokenConfig{VerificationMaxAge: 24 * time.Hour, ResetMaxAge: time.Hour},
		Auth: config.AuthConfig{
			RequireApproval:   true,
			ApprovalRoles:     []string{"admin"},
			PasswordMinLength: 1,
			BcryptCost:        bcrypt.MinCost,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func startEnv(mutate ...func(*config.Config)) *testEnv {
	cfg := testConfig()
	for _, fn := range mutate {
		fn(cfg)
	}

	srv, err := server.New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	Expect(err).NotTo(HaveOccurred())

	env := &testEnv{srv: srv, http: httptest.NewServer(srv.Handler())}
	DeferCleanup(func() {
		env.http.Close()
		Expect(srv.Close(context.Background())).To(Succeed())
	})
	return env
}

// client returns an HTTP client with its own cookie jar, i.e. one browser.
func (e *testEnv) client() *http.Client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    string
}

func (e *testEnv) call(c *http.Client, method, path, body string) response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.http.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())

	r := response{status: resp.StatusCode, header: resp.Header, raw: string(raw)}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(raw, &r.body)
	}
	return r
}
