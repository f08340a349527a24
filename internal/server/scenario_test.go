// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"codeberg.org/oliverandrich/shopdesk/internal/config"
	"codeberg.org/oliverandrich/shopdesk/internal/models"
)

var _ = Describe("Shop desk", func() {
	var env *testEnv

	BeforeEach(func() {
		env = startEnv()
	})

	Describe("a customer session", func() {
		It("grants the customer area and nothing else", func() {
			alice := env.client()

			r := env.call(alice, http.MethodPost, "/auth/register",
				`{"username":"alice","email":"alice@example.com","password":"pw1","role":"customer"}`)
			Expect(r.status).To(Equal(http.StatusCreated))

			r = env.call(alice, http.MethodPost, "/auth/login",
				`{"username":"alice","password":"pw1"}`)
			Expect(r.status).To(Equal(http.StatusOK))
			Expect(r.body).To(HaveKeyWithValue("role", "customer"))
			Expect(r.body).To(HaveKeyWithValue("redirect_url", "/customer/dashboard"))

			Expect(env.call(alice, http.MethodGet, "/customer/dashboard", "").status).To(Equal(http.StatusOK))
			Expect(env.call(alice, http.MethodGet, "/customer/products", "").status).To(Equal(http.StatusOK))

			r = env.call(alice, http.MethodGet, "/admin/dashboard", "")
			Expect(r.status).To(Equal(http.StatusForbidden))
			Expect(r.body).To(HaveKeyWithValue("error", "forbidden"))
			Expect(env.call(alice, http.MethodGet, "/staff/inventory", "").status).To(Equal(http.StatusForbidden))

			r = env.call(alice, http.MethodGet, "/auth/me", "")
			Expect(r.status).To(Equal(http.StatusOK))

			Expect(env.call(alice, http.MethodPost, "/auth/logout", "").status).To(Equal(http.StatusOK))

			r = env.call(alice, http.MethodGet, "/customer/dashboard", "")
			Expect(r.status).To(Equal(http.StatusUnauthorized))
			Expect(r.body).To(HaveKeyWithValue("error", "unauthenticated"))
		})

		It("logs in by email as well", func() {
			alice := env.client()
			env.call(alice, http.MethodPost, "/auth/register",
				`{"username":"alice","email":"alice@example.com","password":"pw1"}`)

			r := env.call(alice, http.MethodPost, "/auth/login",
				`{"email":"ALICE@example.com","password":"pw1"}`)
			Expect(r.status).To(Equal(http.StatusOK))
		})

		It("rejects a wrong password without creating a session", func() {
			alice := env.client()
			env.call(alice, http.MethodPost, "/auth/register",
				`{"username":"alice","password":"pw1"}`)

			r := env.call(alice, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong-one"}`)
			Expect(r.status).To(Equal(http.StatusUnauthorized))
			Expect(r.body).To(HaveKeyWithValue("error", "invalid_credentials"))

			Expect(env.call(alice, http.MethodGet, "/customer/dashboard", "").status).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("registration", func() {
		It("keeps a single account when the same identity registers twice", func() {
			bob := env.client()
			body := `{"username":"bob","password":"pw2","role":"admin"}`

			Expect(env.call(bob, http.MethodPost, "/auth/register", body).status).To(Equal(http.StatusCreated))

			r := env.call(bob, http.MethodPost, "/auth/register", body)
			Expect(r.status).To(Equal(http.StatusBadRequest))
			Expect(r.body).To(HaveKeyWithValue("error", "duplicate_identity"))

			accounts, err := env.srv.Repository().ListAccounts(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(1))
			Expect(accounts[0].Username).To(Equal("bob"))
			Expect(accounts[0].Role).To(Equal(models.RoleAdmin))
		})

		It("accepts a plain password under the default policy", func() {
			r := env.call(env.client(), http.MethodPost, "/auth/register",
				`{"username":"new_user","password":"password"}`)
			Expect(r.status).To(Equal(http.StatusCreated))

			account, err := env.srv.Repository().GetAccountByIdentity(context.Background(), "new_user")
			Expect(err).NotTo(HaveOccurred())
			Expect(account.Role).To(Equal(models.RoleCustomer))
			Expect(account.IsApproved).To(BeFalse())
			Expect(account.IsEmailVerified).To(BeFalse())
			Expect(account.PasswordHash).NotTo(Equal("password"))
		})
	})

	Describe("an admin session", func() {
		BeforeEach(func() {
			_, err := env.srv.Auth().CreateAdmin(context.Background(), "root", "root@example.com", "pw3")
			Expect(err).NotTo(HaveOccurred())
		})

		It("manages products and accounts", func() {
			admin := env.client()
			Expect(env.call(admin, http.MethodPost, "/auth/login",
				`{"username":"root","password":"pw3"}`).status).To(Equal(http.StatusOK))

			Expect(env.call(admin, http.MethodGet, "/admin/dashboard", "").status).To(Equal(http.StatusOK))

			r := env.call(admin, http.MethodPost, "/admin/products", `{"name":"Widget","price":9.5,"stock":3}`)
			Expect(r.status).To(Equal(http.StatusCreated))

			r = env.call(admin, http.MethodGet, "/admin/accounts", "")
			Expect(r.status).To(Equal(http.StatusOK))
			Expect(r.raw).To(ContainSubstring(`"username":"root"`))

			Expect(env.call(admin, http.MethodGet, "/staff/inventory", "").status).To(Equal(http.StatusOK))
			Expect(env.call(admin, http.MethodGet, "/customer/dashboard", "").status).To(Equal(http.StatusForbidden))
		})
	})

	Describe("approval", func() {
		It("holds a self-registered admin back until approved", func() {
			bob := env.client()
			Expect(env.call(bob, http.MethodPost, "/auth/register",
				`{"username":"bob","password":"pw2","role":"admin"}`).status).To(Equal(http.StatusCreated))

			r := env.call(bob, http.MethodPost, "/auth/login", `{"username":"bob","password":"pw2"}`)
			Expect(r.status).To(Equal(http.StatusForbidden))
			Expect(r.body).To(HaveKeyWithValue("error", "not_approved"))
			Expect(env.call(bob, http.MethodGet, "/admin/dashboard", "").status).To(Equal(http.StatusUnauthorized))

			account, err := env.srv.Repository().GetAccountByIdentity(context.Background(), "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(env.srv.Auth().Approve(context.Background(), account.ID)).To(Succeed())

			r = env.call(bob, http.MethodPost, "/auth/login", `{"username":"bob","password":"pw2"}`)
			Expect(r.status).To(Equal(http.StatusOK))
			Expect(r.body).To(HaveKeyWithValue("role", "admin"))
			Expect(env.call(bob, http.MethodGet, "/admin/dashboard", "").status).To(Equal(http.StatusOK))
		})

		Context("when staff need approval too", func() {
			BeforeEach(func() {
				env = startEnv(func(cfg *config.Config) {
					cfg.Auth.ApprovalRoles = []string{"staff"}
				})
			})

			It("holds staff back until an admin approves them", func() {
				carol := env.client()
				r := env.call(carol, http.MethodPost, "/auth/register",
					`{"username":"carol","password":"pw3","role":"staff"}`)
				Expect(r.status).To(Equal(http.StatusCreated))

				r = env.call(carol, http.MethodPost, "/auth/login", `{"username":"carol","password":"pw3"}`)
				Expect(r.status).To(Equal(http.StatusForbidden))
				Expect(r.body).To(HaveKeyWithValue("error", "not_approved"))

				account, err := env.srv.Repository().GetAccountByIdentity(context.Background(), "carol")
				Expect(err).NotTo(HaveOccurred())
				Expect(account.Role).To(Equal(models.RoleStaff))
				Expect(env.srv.Auth().Approve(context.Background(), account.ID)).To(Succeed())

				r = env.call(carol, http.MethodPost, "/auth/login", `{"username":"carol","password":"pw3"}`)
				Expect(r.status).To(Equal(http.StatusOK))
				Expect(r.body).To(HaveKeyWithValue("redirect_url", "/staff/inventory"))
				Expect(env.call(carol, http.MethodGet, "/staff/inventory", "").status).To(Equal(http.StatusOK))
			})
		})
	})

	Describe("operational endpoints", func() {
		It("reports health", func() {
			r := env.call(env.client(), http.MethodGet, "/health", "")
			Expect(r.status).To(Equal(http.StatusOK))
			Expect(r.body).To(HaveKeyWithValue("status", "ok"))
		})

		It("exposes counters for logins and gate denials", func() {
			c := env.client()
			env.call(c, http.MethodPost, "/auth/login", `{"username":"ghost","password":"whatever1"}`)
			env.call(c, http.MethodGet, "/admin/dashboard", "")

			r := env.call(c, http.MethodGet, "/metrics", "")
			Expect(r.status).To(Equal(http.StatusOK))
			Expect(r.raw).To(ContainSubstring(`shopdesk_auth_logins_total{outcome="invalid_credentials"} 1`))
			Expect(r.raw).To(ContainSubstring(`shopdesk_gate_denials_total{reason="unauthenticated"} 1`))
		})

		It("redirects trailing slashes on the same host", func() {
			r := env.call(env.client(), http.MethodGet, "/health/", "")
			Expect(r.status).To(Equal(http.StatusMovedPermanently))
			Expect(r.header.Get("Location")).To(Equal("/health"))

			r = env.call(env.client(), http.MethodGet, "//evil.example/", "")
			Expect(r.status).To(Equal(http.StatusMovedPermanently))
			Expect(r.header.Get("Location")).To(Equal("/evil.example"))
		})
	})
})
