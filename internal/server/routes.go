// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shopdesk/internal/config"
	"codeberg.org/oliverandrich/shopdesk/internal/handlers"
	"codeberg.org/oliverandrich/shopdesk/internal/metrics"
	"codeberg.org/oliverandrich/shopdesk/internal/middleware"
	"codeberg.org/oliverandrich/shopdesk/internal/models"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
	authsvc "codeberg.org/oliverandrich/shopdesk/internal/services/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/services/session"
)

func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	repo *repository.Repository,
	svc *authsvc.Service,
	sessions *session.Manager,
	m *metrics.Metrics,
) {
	h := handlers.New(repo)
	ah := handlers.NewAuth(svc, sessions, repo)

	e.GET("/health", h.Health)
	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(m.Handler()))
	}

	authenticated := middleware.RequireAuth(m)

	a := e.Group("/auth")
	a.POST("/register", ah.Register)
	a.POST("/login", ah.Login)
	a.POST("/logout", ah.Logout)
	a.GET("/verify-email", ah.VerifyEmail)
	a.POST("/verify-email/resend", ah.ResendVerification, authenticated)
	a.POST("/password/forgot", ah.ForgotPassword)
	a.POST("/password/reset", ah.ResetPassword)
	a.POST("/password/change", ah.ChangePassword, authenticated)
	a.GET("/me", ah.Me, authenticated)

	customer := e.Group("/customer", middleware.RequireRole(m, models.RoleCustomer))
	customer.GET("/dashboard", h.CustomerDashboard)
	customer.GET("/products", h.ListProducts)

	admin := e.Group("/admin", middleware.RequireRole(m, models.RoleAdmin))
	admin.GET("/dashboard", h.AdminDashboard)
	admin.GET("/products", h.ListProducts)
	admin.POST("/products", h.CreateProduct)
	admin.GET("/products/:id", h.GetProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.GET("/accounts", ah.ListAccounts)
	admin.POST("/accounts/:id/approve", ah.ApproveAccount)
	admin.GET("/customers", h.ListCustomers)
	admin.POST("/customers", h.CreateCustomer)
	admin.GET("/staff", h.ListStaff)
	admin.POST("/staff", h.CreateStaff)

	staff := e.Group("/staff", middleware.RequireAnyRole(m, models.RoleStaff, models.RoleAdmin))
	staff.GET("/inventory", h.ListInventory)
	staff.POST("/inventory", h.CreateInventoryItem)
	staff.GET("/inventory/:sku", h.GetInventoryItem)
	staff.PUT("/inventory/:sku", h.UpdateInventoryItem)
	staff.DELETE("/inventory/:sku", h.DeleteInventoryItem)
	staff.GET("/transactions", h.ListTransactions)
	staff.POST("/transactions", h.CreateTransaction)
}
