// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/shopdesk/internal/models"
)

// ===== Products =====

// CreateProduct inserts a product and fills in its ID and timestamps.
func (r *Repository) CreateProduct(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	query := r.db.Rebind(`INSERT INTO products (name, price, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	return mapError("create_product", r.db.GetContext(ctx, &p.ID, query, p.Name, p.Price, p.Stock, now, now))
}

// GetProduct retrieves a product by ID.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	query := r.db.Rebind(`SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = ?`)
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, mapError("get_product", err)
	}
	return &p, nil
}

// ListProducts returns all products ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products,
		`SELECT id, name, price, stock, created_at, updated_at FROM products ORDER BY name, id`)
	return products, mapError("list_products", err)
}

// UpdateProduct writes name, price and stock of a product.
func (r *Repository) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`UPDATE products SET name = ?, price = ?, stock = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Price, p.Stock, p.UpdatedAt, p.ID)
	if err != nil {
		return mapError("update_product", err)
	}
	return expectAffected("update_product", res)
}

// DeleteProduct removes a product. Products referenced by transactions
// cannot be deleted and yield ErrInvalidReference.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return mapError("delete_product", err)
	}
	return expectAffected("delete_product", res)
}

// ===== Inventory =====

// CreateInventoryItem inserts an item. An existing SKU yields ErrDuplicate.
func (r *Repository) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	query := r.db.Rebind(`INSERT INTO inventory_items (sku, name, description, quantity) VALUES (?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, item.SKU, item.Name, item.Description, item.Quantity)
	return mapError("create_inventory_item", err)
}

// GetInventoryItem retrieves an item by SKU.
func (r *Repository) GetInventoryItem(ctx context.Context, sku string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	query := r.db.Rebind(`SELECT sku, name, description, quantity FROM inventory_items WHERE sku = ?`)
	if err := r.db.GetContext(ctx, &item, query, sku); err != nil {
		return nil, mapError("get_inventory_item", err)
	}
	return &item, nil
}

// ListInventoryItems returns all items ordered by SKU.
func (r *Repository) ListInventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	err := r.db.SelectContext(ctx, &items,
		`SELECT sku, name, description, quantity FROM inventory_items ORDER BY sku`)
	return items, mapError("list_inventory_items", err)
}

// UpdateInventoryItem writes name, description and quantity of an item.
func (r *Repository) UpdateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	query := r.db.Rebind(`UPDATE inventory_items SET name = ?, description = ?, quantity = ? WHERE sku = ?`)
	res, err := r.db.ExecContext(ctx, query, item.Name, item.Description, item.Quantity, item.SKU)
	if err != nil {
		return mapError("update_inventory_item", err)
	}
	return expectAffected("update_inventory_item", res)
}

// DeleteInventoryItem removes an item by SKU.
func (r *Repository) DeleteInventoryItem(ctx context.Context, sku string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM inventory_items WHERE sku = ?`), sku)
	if err != nil {
		return mapError("delete_inventory_item", err)
	}
	return expectAffected("delete_inventory_item", res)
}

// ===== Customers and staff =====

// CreateCustomer inserts a customer record.
func (r *Repository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return r.createContact(ctx, "customers", c)
}

// GetCustomer retrieves a customer by ID.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return r.getContact(ctx, "customers", id)
}

// ListCustomers returns all customers ordered by name.
func (r *Repository) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return r.listContacts(ctx, "customers")
}

// CreateStaff inserts a staff record.
func (r *Repository) CreateStaff(ctx context.Context, s *models.Staff) error {
	return r.createContact(ctx, "staff", s)
}

// GetStaff retrieves a staff member by ID.
func (r *Repository) GetStaff(ctx context.Context, id int64) (*models.Staff, error) {
	return r.getContact(ctx, "staff", id)
}

// ListStaff returns all staff members ordered by name.
func (r *Repository) ListStaff(ctx context.Context) ([]models.Staff, error) {
	return r.listContacts(ctx, "staff")
}

// table is always one of the constant names above.
func (r *Repository) createContact(ctx context.Context, table string, c *models.Contact) error {
	query := r.db.Rebind(`INSERT INTO ` + table + ` (name, email, contact) VALUES (?, ?, ?) RETURNING id`)
	return mapError("create_"+table, r.db.GetContext(ctx, &c.ID, query, c.Name, c.Email, c.Contact))
}

func (r *Repository) getContact(ctx context.Context, table string, id int64) (*models.Contact, error) {
	var c models.Contact
	query := r.db.Rebind(`SELECT id, name, email, contact FROM ` + table + ` WHERE id = ?`)
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, mapError("get_"+table, err)
	}
	return &c, nil
}

func (r *Repository) listContacts(ctx context.Context, table string) ([]models.Contact, error) {
	contacts := []models.Contact{}
	err := r.db.SelectContext(ctx, &contacts, `SELECT id, name, email, contact FROM `+table+` ORDER BY name, id`)
	return contacts, mapError("list_"+table, err)
}

// ===== Transactions =====

// CreateTransaction inserts a transaction. An unknown customer, staff member
// or product yields ErrInvalidReference.
func (r *Repository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	query := r.db.Rebind(`INSERT INTO transactions (customer_id, staff_id, product_id, date, amount, category)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.GetContext(ctx, &t.ID, query, t.CustomerID, t.StaffID, t.ProductID, t.Date, t.Amount, t.Category)
	return mapError("create_transaction", err)
}

// ListTransactions returns all transactions, most recent first.
func (r *Repository) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	err := r.db.SelectContext(ctx, &txs, `SELECT id, customer_id, staff_id, product_id, date, amount, category
		FROM transactions ORDER BY date DESC, id DESC`)
	return txs, mapError("list_transactions", err)
}

// ListTransactionsByCustomer returns the transactions of one customer, most recent first.
func (r *Repository) ListTransactionsByCustomer(ctx context.Context, customerID int64) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	query := r.db.Rebind(`SELECT id, customer_id, staff_id, product_id, date, amount, category
		FROM transactions WHERE customer_id = ? ORDER BY date DESC, id DESC`)
	err := r.db.SelectContext(ctx, &txs, query, customerID)
	return txs, mapError("list_transactions", err)
}
