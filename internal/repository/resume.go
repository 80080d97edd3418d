package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/resumatic/backend/internal/domain"
)

// ResumeRepository handles database operations for uploaded resumes.
type ResumeRepository struct {
	db DBTX
}

// NewResumeRepository creates a new ResumeRepository.
func NewResumeRepository(db DBTX) *ResumeRepository {
	return &ResumeRepository{db: db}
}

const resumeColumns = `id, account_id, file_name, file_path, file_size, is_current, version_label, analysis, analyzed_at, created_at`

// Create inserts a new resume row.
func (r *ResumeRepository) Create(ctx context.Context, res *domain.Resume) error {
	query := `
		INSERT INTO resumes (id, account_id, file_name, file_path, file_size, is_current, version_label)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		res.ID, res.AccountID, res.FileName, res.FilePath, res.FileSize, res.IsCurrent, res.VersionLabel,
	)
	if err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}
	return nil
}

// DemoteCurrent marks every resume for the account as not current. Called
// before inserting a new upload so only one resume is current at a time.
func (r *ResumeRepository) DemoteCurrent(ctx context.Context, accountID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE resumes SET is_current = FALSE WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to demote current resumes: %w", err)
	}
	return nil
}

// FindByID returns one resume scoped to the owning account.
func (r *ResumeRepository) FindByID(ctx context.Context, accountID, id string) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1 AND account_id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, id, accountID))
}

// FindCurrent returns the account's current resume, or nil.
func (r *ResumeRepository) FindCurrent(ctx context.Context, accountID string) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE account_id = $1 AND is_current = TRUE
		ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, query, accountID))
}

// ListByAccount returns all resumes for an account, newest first.
func (r *ResumeRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE account_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []*domain.Resume
	for rows.Next() {
		res, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, res)
	}
	return resumes, nil
}

// SaveAnalysis stores the analysis JSON on the resume row.
func (r *ResumeRepository) SaveAnalysis(ctx context.Context, id string, analysis []byte) error {
	_, err := r.db.Exec(ctx,
		`UPDATE resumes SET analysis = $1, analyzed_at = NOW() WHERE id = $2`, analysis, id)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

func (r *ResumeRepository) scanOne(row pgx.Row) (*domain.Resume, error) {
	res, err := scanResume(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find resume: %w", err)
	}
	return res, nil
}

func (r *ResumeRepository) scanRow(row pgx.Row) (*domain.Resume, error) {
	res, err := scanResume(row)
	if err != nil {
		return nil, fmt.Errorf("failed to scan resume: %w", err)
	}
	return res, nil
}

func scanResume(row pgx.Row) (*domain.Resume, error) {
	var res domain.Resume
	err := row.Scan(
		&res.ID, &res.AccountID, &res.FileName, &res.FilePath, &res.FileSize,
		&res.IsCurrent, &res.VersionLabel, &res.Analysis, &res.AnalyzedAt, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
