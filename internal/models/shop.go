// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

type Product struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     float64   `db:"price" json:"price"`
	Stock     int64     `db:"stock" json:"stock"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InventoryItem is a stock keeping unit held by the shop.
type InventoryItem struct {
	SKU         string `db:"sku" json:"sku"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Quantity    int64  `db:"quantity" json:"quantity"`
}

// Contact is the shared shape of customer and staff records.
type Contact struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Email   string `db:"email" json:"email"`
	Contact string `db:"contact" json:"contact"`
}

type Customer = Contact

type Staff = Contact

type Transaction struct { //nolint:govet // fieldalignment: readability over optimization
	ID         int64     `db:"id" json:"id"`
	CustomerID int64     `db:"customer_id" json:"customer_id"`
	StaffID    *int64    `db:"staff_id" json:"staff_id,omitempty"`
	ProductID  *int64    `db:"product_id" json:"product_id,omitempty"`
	Date       time.Time `db:"date" json:"date"`
	Amount     float64   `db:"amount" json:"amount"`
	Category   string    `db:"category" json:"category"`
}
