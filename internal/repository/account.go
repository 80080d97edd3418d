package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/resumatic/backend/internal/domain"
)

// AccountRepository handles database operations for accounts.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	return &AccountRepository{db: tx}
}

const accountColumns = `id, auth_user_id, email, name, tier, current_position, target_position, city, profile_completion, created_at, updated_at`

// Create inserts a new account. Callers racing on the same auth_user_id
// should treat a unique violation as success and re-read.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (id, auth_user_id, email, name, tier, profile_completion, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		a.ID, a.AuthUserID, a.Email, a.Name, a.Tier, a.ProfileCompletion, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindByAuthID returns the account for an external auth identifier.
func (r *AccountRepository) FindByAuthID(ctx context.Context, authUserID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE auth_user_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, authUserID))
}

// FindByID returns an account by row ID.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// UpdateTier sets the account's tier.
func (r *AccountRepository) UpdateTier(ctx context.Context, id string, tier domain.Tier) error {
	_, err := r.db.Exec(ctx,
		`UPDATE accounts SET tier = $1, updated_at = NOW() WHERE id = $2`, tier, id)
	if err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}
	return nil
}

// UpdateBasicInfo updates the free-text profile fields and the derived
// completion percentage.
func (r *AccountRepository) UpdateBasicInfo(ctx context.Context, a *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, current_position = $2, target_position = $3, city = $4,
		    profile_completion = $5, updated_at = $6
		WHERE id = $7
	`
	_, err := r.db.Exec(ctx, query,
		a.Name, a.CurrentRole, a.TargetPosition, a.City, a.ProfileCompletion, time.Now(), a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update basic info: %w", err)
	}
	return nil
}

func (r *AccountRepository) scanOne(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.AuthUserID, &a.Email, &a.Name, &a.Tier,
		&a.CurrentRole, &a.TargetPosition, &a.City, &a.ProfileCompletion,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return &a, nil
}
