// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shopdesk/internal/models"
)

// ProductRequest is the request body for creating and updating products.
type ProductRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Price float64 `json:"price" validate:"gte=0"`
	Stock int64   `json:"stock" validate:"gte=0"`
}

func (r *ProductRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

// ListProducts returns all products.
func (h *Handlers) ListProducts(c echo.Context) error {
	products, err := h.repo.ListProducts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct returns one product.
func (h *Handlers) GetProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.repo.GetProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product.
func (h *Handlers) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product := &models.Product{Name: req.Name, Price: req.Price, Stock: req.Stock}
	if err := h.repo.CreateProduct(c.Request().Context(), product); err != nil {
		return err
	}
	return messageWith(c, http.StatusCreated, "product_created", "product", product)
}

// UpdateProduct replaces name, price and stock of a product.
func (h *Handlers) UpdateProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	product, err := h.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	product.Name = req.Name
	product.Price = req.Price
	product.Stock = req.Stock
	if err := h.repo.UpdateProduct(ctx, product); err != nil {
		return err
	}
	return messageWith(c, http.StatusOK, "product_updated", "product", product)
}

// DeleteProduct removes a product.
func (h *Handlers) DeleteProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.repo.DeleteProduct(c.Request().Context(), id); err != nil {
		return err
	}
	return message(c, http.StatusOK, "product_deleted")
}

// InventoryItemRequest is the request body for inventory items. SKU is taken
// from the path on updates.
type InventoryItemRequest struct {
	SKU         string `json:"sku" validate:"max=64"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Quantity    int64  `json:"quantity" validate:"gte=0"`
}

func (r *InventoryItemRequest) normalize() {
	r.SKU = strings.TrimSpace(r.SKU)
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

// ListInventory returns all inventory items.
func (h *Handlers) ListInventory(c echo.Context) error {
	items, err := h.repo.ListInventoryItems(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// GetInventoryItem returns one inventory item.
func (h *Handlers) GetInventoryItem(c echo.Context) error {
	item, err := h.repo.GetInventoryItem(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// CreateInventoryItem adds an inventory item. SKUs are unique.
func (h *Handlers) CreateInventoryItem(c echo.Context) error {
	var req InventoryItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.SKU == "" {
		return errBadRequest
	}

	item := &models.InventoryItem{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
	}
	if err := h.repo.CreateInventoryItem(c.Request().Context(), item); err != nil {
		return err
	}
	return messageWith(c, http.StatusCreated, "inventory_item_created", "item", item)
}

// UpdateInventoryItem replaces name, description and quantity of an item.
func (h *Handlers) UpdateInventoryItem(c echo.Context) error {
	var req InventoryItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item := &models.InventoryItem{
		SKU:         c.Param("sku"),
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
	}
	if err := h.repo.UpdateInventoryItem(c.Request().Context(), item); err != nil {
		return err
	}
	return messageWith(c, http.StatusOK, "inventory_item_updated", "item", item)
}

// DeleteInventoryItem removes an inventory item.
func (h *Handlers) DeleteInventoryItem(c echo.Context) error {
	if err := h.repo.DeleteInventoryItem(c.Request().Context(), c.Param("sku")); err != nil {
		return err
	}
	return message(c, http.StatusOK, "inventory_item_deleted")
}

// ContactRequest is the request body for customers and staff members.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Contact string `json:"contact" validate:"max=200"`
}

func (r *ContactRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = models.NormalizeIdentity(r.Email)
	r.Contact = strings.TrimSpace(r.Contact)
}

func (r *ContactRequest) contact() *models.Contact {
	return &models.Contact{Name: r.Name, Email: r.Email, Contact: r.Contact}
}

// ListCustomers returns all customers.
func (h *Handlers) ListCustomers(c echo.Context) error {
	customers, err := h.repo.ListCustomers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customers)
}

// CreateCustomer adds a customer record.
func (h *Handlers) CreateCustomer(c echo.Context) error {
	var req ContactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	customer := req.contact()
	if err := h.repo.CreateCustomer(c.Request().Context(), customer); err != nil {
		return err
	}
	return messageWith(c, http.StatusCreated, "customer_created", "customer", customer)
}

// ListStaff returns all staff members.
func (h *Handlers) ListStaff(c echo.Context) error {
	staff, err := h.repo.ListStaff(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, staff)
}

// CreateStaff adds a staff record.
func (h *Handlers) CreateStaff(c echo.Context) error {
	var req ContactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	staff := req.contact()
	if err := h.repo.CreateStaff(c.Request().Context(), staff); err != nil {
		return err
	}
	return messageWith(c, http.StatusCreated, "staff_created", "staff", staff)
}

// TransactionRequest is the request body for recording a transaction.
type TransactionRequest struct {
	CustomerID int64   `json:"customer_id" validate:"required,gt=0"`
	StaffID    *int64  `json:"staff_id" validate:"omitnil,gt=0"`
	ProductID  *int64  `json:"product_id" validate:"omitnil,gt=0"`
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	Amount     float64 `json:"amount"`
	Category   string  `json:"category" validate:"required,max=100"`
}

func (r *TransactionRequest) normalize() {
	r.Date = strings.TrimSpace(r.Date)
	r.Category = strings.TrimSpace(r.Category)
}

// ListTransactions returns all transactions, or those of one customer when
// the customer_id query parameter is set.
func (h *Handlers) ListTransactions(c echo.Context) error {
	ctx := c.Request().Context()
	if c.QueryParam("customer_id") != "" {
		id, err := queryID(c, "customer_id")
		if err != nil {
			return err
		}
		txs, err := h.repo.ListTransactionsByCustomer(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, txs)
	}

	txs, err := h.repo.ListTransactions(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, txs)
}

// CreateTransaction records a transaction. Unknown customers, staff members
// or products are rejected with 400.
func (h *Handlers) CreateTransaction(c echo.Context) error {
	var req TransactionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return errBadRequest
	}

	tx := &models.Transaction{
		CustomerID: req.CustomerID,
		StaffID:    req.StaffID,
		ProductID:  req.ProductID,
		Date:       date,
		Amount:     req.Amount,
		Category:   req.Category,
	}
	if err := h.repo.CreateTransaction(c.Request().Context(), tx); err != nil {
		return err
	}
	return messageWith(c, http.StatusCreated, "transaction_created", "transaction", tx)
}
