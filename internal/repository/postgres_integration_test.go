// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/shopdesk/internal/database"
	"codeberg.org/oliverandrich/shopdesk/internal/models"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
)

func TestPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Repository PostgreSQL Suite")
}

var (
	pgContainer *postgres.PostgresContainer
	pgDB        *sqlx.DB
)

var _ = BeforeSuite(func() {
	ctx := context.Background()

	var err error
	pgContainer, err = postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("shopdesk_test"),
		postgres.WithUsername("shopdesk"),
		postgres.WithPassword("shopdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	pgDB, err = database.OpenContext(ctx, connStr)
	Expect(err).NotTo(HaveOccurred())
	Expect(database.DialectFor(pgDB)).To(Equal(database.DialectPostgres))
})

var _ = AfterSuite(func() {
	if pgDB != nil {
		_ = pgDB.Close()
	}
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
})

func truncateAll(ctx context.Context) {
	_, err := pgDB.ExecContext(ctx, `TRUNCATE redeemed_tokens, transactions, inventory_items,
		products, customers, staff, accounts RESTART IDENTITY CASCADE`)
	Expect(err).NotTo(HaveOccurred())
}

var _ = Describe("Repository on PostgreSQL", func() {
	var (
		ctx  context.Context
		repo *repository.Repository
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx)
		repo = repository.New(pgDB)
	})

	newAccount := func(username string) *models.Account {
		email := username + "@example.com"
		return &models.Account{
			Username:     username,
			Email:        &email,
			PasswordHash: "hash",
			Role:         models.RoleCustomer,
			IsApproved:   true,
		}
	}

	Describe("accounts", func() {
		It("maps unique violations to ErrDuplicate", func() {
			Expect(repo.CreateAccount(ctx, newAccount("alice"))).To(Succeed())
			Expect(repo.CreateAccount(ctx, newAccount("alice"))).To(MatchError(repository.ErrDuplicate))

			count, err := repo.CountAccountsByRole(ctx, models.RoleCustomer)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("finds accounts by username or email", func() {
			alice := newAccount("alice")
			Expect(repo.CreateAccount(ctx, alice)).To(Succeed())

			byName, err := repo.GetAccountByIdentity(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(byName.ID).To(Equal(alice.ID))

			byEmail, err := repo.GetAccountByIdentity(ctx, "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(alice.ID))

			_, err = repo.GetAccountByIdentity(ctx, "nobody")
			Expect(err).To(MatchError(repository.ErrNotFound))
		})

		It("redeems a verification token exactly once", func() {
			alice := newAccount("alice")
			Expect(repo.CreateAccount(ctx, alice)).To(Succeed())
			Expect(repo.SetVerificationToken(ctx, alice.ID, "jti-1")).To(Succeed())

			Expect(repo.MarkEmailVerified(ctx, alice.ID, "jti-1", "email_verification")).To(Succeed())
			Expect(repo.MarkEmailVerified(ctx, alice.ID, "jti-1", "email_verification")).
				To(MatchError(repository.ErrDuplicate))

			got, err := repo.GetAccountByID(ctx, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.IsEmailVerified).To(BeTrue())
			Expect(got.VerificationToken).To(BeNil())

			redeemed, err := repo.IsTokenRedeemed(ctx, "jti-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(redeemed).To(BeTrue())
		})

		It("leaves the account untouched for a superseded token", func() {
			alice := newAccount("alice")
			Expect(repo.CreateAccount(ctx, alice)).To(Succeed())
			Expect(repo.SetVerificationToken(ctx, alice.ID, "jti-2")).To(Succeed())

			Expect(repo.MarkEmailVerified(ctx, alice.ID, "jti-1", "email_verification")).
				To(MatchError(repository.ErrNotFound))

			redeemed, err := repo.IsTokenRedeemed(ctx, "jti-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(redeemed).To(BeFalse())
		})
	})

	Describe("shop records", func() {
		It("maps foreign key violations to ErrInvalidReference", func() {
			tx := &models.Transaction{
				CustomerID: 999,
				Date:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				Amount:     10,
				Category:   "sale",
			}
			Expect(repo.CreateTransaction(ctx, tx)).To(MatchError(repository.ErrInvalidReference))
		})

		It("refuses to delete a referenced product", func() {
			customer := &models.Customer{Name: "Acme", Email: "acme@example.com"}
			Expect(repo.CreateCustomer(ctx, customer)).To(Succeed())
			product := &models.Product{Name: "Widget", Price: 2.5, Stock: 1}
			Expect(repo.CreateProduct(ctx, product)).To(Succeed())

			tx := &models.Transaction{
				CustomerID: customer.ID,
				ProductID:  &product.ID,
				Date:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				Amount:     2.5,
				Category:   "sale",
			}
			Expect(repo.CreateTransaction(ctx, tx)).To(Succeed())
			Expect(repo.DeleteProduct(ctx, product.ID)).To(MatchError(repository.ErrInvalidReference))
		})

		It("rejects a duplicate SKU", func() {
			item := &models.InventoryItem{SKU: "SKU-1", Name: "Bolt", Quantity: 5}
			Expect(repo.CreateInventoryItem(ctx, item)).To(Succeed())
			Expect(repo.CreateInventoryItem(ctx, item)).To(MatchError(repository.ErrDuplicate))
		})
	})
})
