package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/resumatic/backend/internal/domain"
)

// QuotaRepository handles database operations for monthly upload counters.
type QuotaRepository struct {
	db DBTX
}

// NewQuotaRepository creates a new QuotaRepository.
func NewQuotaRepository(db DBTX) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// FindPeriod returns the counter for (account, year, month), or nil if none
// exists yet.
func (r *QuotaRepository) FindPeriod(ctx context.Context, accountID string, year, month int) (*domain.UploadQuota, error) {
	query := `
		SELECT id, account_id, year, month, upload_count, created_at, updated_at
		FROM upload_quota WHERE account_id = $1 AND year = $2 AND month = $3
	`
	row := r.db.QueryRow(ctx, query, accountID, year, month)

	var q domain.UploadQuota
	err := row.Scan(&q.ID, &q.AccountID, &q.Year, &q.Month, &q.UploadCount, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quota record: %w", err)
	}
	return &q, nil
}

// Insert creates a fresh counter at zero for (account, year, month). The
// unique constraint catches concurrent first-use; callers re-fetch on a
// unique violation.
func (r *QuotaRepository) Insert(ctx context.Context, accountID string, year, month int) (*domain.UploadQuota, error) {
	query := `
		INSERT INTO upload_quota (id, account_id, year, month, upload_count)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, account_id, year, month, upload_count, created_at, updated_at
	`
	row := r.db.QueryRow(ctx, query, uuid.New().String(), accountID, year, month)

	var q domain.UploadQuota
	err := row.Scan(&q.ID, &q.AccountID, &q.Year, &q.Month, &q.UploadCount, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota record: %w", err)
	}
	return &q, nil
}

// Increment atomically adds one to the counter and returns the new count.
// A single-row update, so concurrent increments serialize on the row.
func (r *QuotaRepository) Increment(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		UPDATE upload_quota
		SET upload_count = upload_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING upload_count
	`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to increment quota: %w", err)
	}
	return count, nil
}
