package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nans-shop/apiserver/types"
)

// AccountRepository handles persistence for user and admin accounts.
// It is parameterized over the account variant: each variant lives in
// its own table with its own email uniqueness constraint.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func tableFor(variant types.AccountVariant) (string, error) {
	switch variant {
	case types.AccountUser:
		return "users", nil
	case types.AccountAdmin:
		return "admins", nil
	default:
		return "", fmt.Errorf("unknown account variant %q", variant)
	}
}

func (r *AccountRepository) GetByEmail(ctx context.Context, variant types.AccountVariant, email string) (types.Account, error) {
	table, err := tableFor(variant)
	if err != nil {
		return types.Account{}, err
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM %s
		WHERE email = $1`, table)
	return r.scanOne(ctx, variant, query, email)
}

func (r *AccountRepository) GetByID(ctx context.Context, variant types.AccountVariant, id string) (types.Account, error) {
	table, err := tableFor(variant)
	if err != nil {
		return types.Account{}, err
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM %s
		WHERE id = $1`, table)
	return r.scanOne(ctx, variant, query, id)
}

// Create inserts the account and assigns it an opaque id. A unique
// violation on the email column is returned as ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, variant types.AccountVariant, account types.Account) (types.Account, error) {
	table, err := tableFor(variant)
	if err != nil {
		return types.Account{}, err
	}

	now := time.Now()
	account.ID = uuid.NewString()
	account.Variant = variant
	account.CreatedAt = now
	account.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, table)
	if _, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	); err != nil {
		return types.Account{}, mapUniqueViolation(err)
	}
	return account, nil
}

func (r *AccountRepository) scanOne(ctx context.Context, variant types.AccountVariant, query string, arg any) (types.Account, error) {
	var account types.Account
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	account.Variant = variant
	return account, nil
}
