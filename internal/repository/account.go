// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/shopdesk/internal/models"
)

const accountColumns = `id, username, email, password_hash, role, is_approved, is_email_verified,
	verification_token, created_at, updated_at`

// CreateAccount inserts a new account and fills in its ID and timestamps.
// A username or email already in use yields ErrDuplicate.
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := r.db.Rebind(`INSERT INTO accounts
		(username, email, password_hash, role, is_approved, is_email_verified, verification_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.GetContext(ctx, &account.ID, query,
		account.Username, account.Email, account.PasswordHash, string(account.Role),
		account.IsApproved, account.IsEmailVerified, account.VerificationToken, now, now)
	return mapError("create_account", err)
}

// GetAccountByID retrieves an account by ID.
func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	query := r.db.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`)
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, mapError("get_account", err)
	}
	return &account, nil
}

// GetAccountByIdentity retrieves an account by username or email address.
// The identity must already be normalised.
func (r *Repository) GetAccountByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	var account models.Account
	query := r.db.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE username = ? OR email = ?
		ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END LIMIT 1`)
	if err := r.db.GetContext(ctx, &account, query, identity, identity, identity); err != nil {
		return nil, mapError("get_account_by_identity", err)
	}
	return &account, nil
}

// GetAccountByEmail retrieves an account by email address.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	query := r.db.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`)
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, mapError("get_account_by_email", err)
	}
	return &account, nil
}

// ListAccounts returns all accounts, newest first.
func (r *Repository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts := []models.Account{}
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, mapError("list_accounts", err)
	}
	return accounts, nil
}

// CountAccountsByRole returns the number of accounts holding role.
func (r *Repository) CountAccountsByRole(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	query := r.db.Rebind(`SELECT count(*) FROM accounts WHERE role = ?`)
	if err := r.db.GetContext(ctx, &count, query, string(role)); err != nil {
		return 0, mapError("count_accounts", err)
	}
	return count, nil
}

// UpdateAccount writes every mutable field of account.
func (r *Repository) UpdateAccount(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`UPDATE accounts SET email = ?, password_hash = ?, role = ?, is_approved = ?,
		is_email_verified = ?, verification_token = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		account.Email, account.PasswordHash, string(account.Role), account.IsApproved,
		account.IsEmailVerified, account.VerificationToken, account.UpdatedAt, account.ID)
	if err != nil {
		return mapError("update_account", err)
	}
	return expectAffected("update_account", res)
}

// SetAccountApproved sets the approval flag of an account.
func (r *Repository) SetAccountApproved(ctx context.Context, id int64, approved bool) error {
	query := r.db.Rebind(`UPDATE accounts SET is_approved = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, approved, time.Now().UTC(), id)
	if err != nil {
		return mapError("approve_account", err)
	}
	return expectAffected("approve_account", res)
}

// SetVerificationToken records the JWT ID of the latest verification token
// issued to the account. Older tokens stop being accepted.
func (r *Repository) SetVerificationToken(ctx context.Context, id int64, jti string) error {
	query := r.db.Rebind(`UPDATE accounts SET verification_token = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, jti, time.Now().UTC(), id)
	if err != nil {
		return mapError("set_verification_token", err)
	}
	return expectAffected("set_verification_token", res)
}

// UpdateAccountPassword replaces the password hash of an account.
func (r *Repository) UpdateAccountPassword(ctx context.Context, id int64, passwordHash string) error {
	query := r.db.Rebind(`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return mapError("update_password", err)
	}
	return expectAffected("update_password", res)
}

// MarkEmailVerified redeems a verification token and flips the verified flag
// in one transaction. It fails with ErrDuplicate when the token was already
// redeemed and with ErrNotFound when jti is not the account's outstanding token.
// Nothing is changed on failure.
func (r *Repository) MarkEmailVerified(ctx context.Context, id int64, jti, purpose string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		if err := redeemToken(ctx, tx, jti, purpose, id, now); err != nil {
			return err
		}

		query := tx.Rebind(`UPDATE accounts SET is_email_verified = ?, verification_token = NULL, updated_at = ?
			WHERE id = ? AND verification_token = ?`)
		res, err := tx.ExecContext(ctx, query, true, now, id, jti)
		if err != nil {
			return mapError("mark_email_verified", err)
		}
		return expectAffected("mark_email_verified", res)
	})
}

// ResetAccountPassword redeems a password reset token and stores the new hash
// in one transaction. A replayed token yields ErrDuplicate.
func (r *Repository) ResetAccountPassword(ctx context.Context, id int64, passwordHash, jti, purpose string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		if err := redeemToken(ctx, tx, jti, purpose, id, now); err != nil {
			return err
		}

		query := tx.Rebind(`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`)
		res, err := tx.ExecContext(ctx, query, passwordHash, now, id)
		if err != nil {
			return mapError("reset_password", err)
		}
		return expectAffected("reset_password", res)
	})
}

// IsTokenRedeemed reports whether a token ID has already been used.
func (r *Repository) IsTokenRedeemed(ctx context.Context, jti string) (bool, error) {
	var count int64
	query := r.db.Rebind(`SELECT count(*) FROM redeemed_tokens WHERE jti = ?`)
	if err := r.db.GetContext(ctx, &count, query, jti); err != nil {
		return false, mapError("is_token_redeemed", err)
	}
	return count > 0, nil
}

func redeemToken(ctx context.Context, tx *sqlx.Tx, jti, purpose string, accountID int64, at time.Time) error {
	query := tx.Rebind(`INSERT INTO redeemed_tokens (jti, purpose, account_id, redeemed_at) VALUES (?, ?, ?, ?)`)
	_, err := tx.ExecContext(ctx, query, jti, purpose, accountID, at)
	return mapError("redeem_token", err)
}
