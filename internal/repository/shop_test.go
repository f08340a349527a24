// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/shopdesk/internal/models"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
	"codeberg.org/oliverandrich/shopdesk/internal/testutil"
)

func TestProductCRUD(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	p := &models.Product{Name: "Widget", Price: 9.99, Stock: 3}
	require.NoError(t, repo.CreateProduct(ctx, p))
	assert.NotZero(t, p.ID)

	got, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.InDelta(t, 9.99, got.Price, 0.0001)

	got.Stock = 10
	require.NoError(t, repo.UpdateProduct(ctx, got))

	list, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(10), list[0].Stock)

	require.NoError(t, repo.DeleteProduct(ctx, p.ID))
	_, err = repo.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteProduct(ctx, p.ID), repository.ErrNotFound)
}

func TestInventoryCRUD(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	item := &models.InventoryItem{SKU: "SKU-1", Name: "Bolt", Description: "M4", Quantity: 100}
	require.NoError(t, repo.CreateInventoryItem(ctx, item))
	assert.ErrorIs(t, repo.CreateInventoryItem(ctx, item), repository.ErrDuplicate)

	item.Quantity = 42
	require.NoError(t, repo.UpdateInventoryItem(ctx, item))

	got, err := repo.GetInventoryItem(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Quantity)

	items, err := repo.ListInventoryItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.DeleteInventoryItem(ctx, "SKU-1"))
	assert.ErrorIs(t, repo.DeleteInventoryItem(ctx, "SKU-1"), repository.ErrNotFound)
}

func TestCustomersAndStaff(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	c := testutil.NewTestCustomer(t, repo, "carol")
	s := &models.Staff{Name: "sam", Email: "sam@example.com", Contact: "555-0101"}
	require.NoError(t, repo.CreateStaff(ctx, s))

	customers, err := repo.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, c.ID, customers[0].ID)

	staff, err := repo.ListStaff(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 1)

	gotStaff, err := repo.GetStaff(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "sam", gotStaff.Name)

	_, err = repo.GetCustomer(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateTransaction(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	c := testutil.NewTestCustomer(t, repo, "carol")
	tx := &models.Transaction{
		CustomerID: c.ID,
		Date:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:     25.5,
		Category:   "sale",
	}
	require.NoError(t, repo.CreateTransaction(ctx, tx))
	assert.NotZero(t, tx.ID)

	list, err := repo.ListTransactionsByCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sale", list[0].Category)
	assert.Nil(t, list[0].StaffID)
	assert.Equal(t, 2025, list[0].Date.Year())

	all, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateTransaction_UnknownCustomer(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	err := repo.CreateTransaction(context.Background(), &models.Transaction{
		CustomerID: 999,
		Date:       time.Now(),
		Amount:     1,
		Category:   "sale",
	})

	assert.ErrorIs(t, err, repository.ErrInvalidReference)
}

func TestDeleteProduct_Referenced(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	c := testutil.NewTestCustomer(t, repo, "carol")
	p := &models.Product{Name: "Widget", Price: 1, Stock: 1}
	require.NoError(t, repo.CreateProduct(ctx, p))
	require.NoError(t, repo.CreateTransaction(ctx, &models.Transaction{
		CustomerID: c.ID, ProductID: &p.ID, Date: time.Now(), Amount: 1, Category: "sale",
	}))

	assert.ErrorIs(t, repo.DeleteProduct(ctx, p.ID), repository.ErrInvalidReference)
}
