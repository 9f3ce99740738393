package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/utils"
)

// AccountRepo persists account records in the `accounts` table.
// Emails are normalized to lower case before every read or write so
// uniqueness is case-insensitive.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create hashes the password and inserts the account, returning its ID.
// The unique index on accounts.email makes the uniqueness check atomic
// with the insert; a concurrent duplicate surfaces as ErrEmailExists.
func (r *AccountRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (email, password_hash) VALUES (?,?)",
		email, hash)
	if err != nil {
		// MySQL 1062 = duplicate entry for a unique key.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email. A missing account
// is reported as ErrNotFound so callers never branch on sql.ErrNoRows.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at,updated_at FROM accounts WHERE email=? LIMIT 1",
		email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Account{}, ErrNotFound
	}
	return a, err
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at,updated_at FROM accounts WHERE id=? LIMIT 1",
		id).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Account{}, ErrNotFound
	}
	return a, err
}
