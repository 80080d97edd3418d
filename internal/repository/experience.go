package repository

import (
	"context"
	"fmt"

	"github.com/resumatic/backend/internal/domain"
)

// ExperienceRepository handles database operations for work experience entries.
type ExperienceRepository struct {
	db DBTX
}

// NewExperienceRepository creates a new ExperienceRepository.
func NewExperienceRepository(db DBTX) *ExperienceRepository {
	return &ExperienceRepository{db: db}
}

// Create inserts a new work experience entry.
func (r *ExperienceRepository) Create(ctx context.Context, e *domain.WorkExperience) error {
	query := `
		INSERT INTO work_experiences (id, account_id, company_name, job_title, start_date, end_date, is_current, description, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.AccountID, e.CompanyName, e.JobTitle, e.StartDate, e.EndDate, e.IsCurrent, e.Description, e.Location,
	)
	if err != nil {
		return fmt.Errorf("failed to create work experience: %w", err)
	}
	return nil
}

// Update rewrites an experience entry scoped to its owning account and
// returns whether a row matched.
func (r *ExperienceRepository) Update(ctx context.Context, e *domain.WorkExperience) (bool, error) {
	query := `
		UPDATE work_experiences
		SET company_name = $1, job_title = $2, start_date = $3, end_date = $4,
		    is_current = $5, description = $6, location = $7
		WHERE id = $8 AND account_id = $9
	`
	tag, err := r.db.Exec(ctx, query,
		e.CompanyName, e.JobTitle, e.StartDate, e.EndDate, e.IsCurrent, e.Description, e.Location,
		e.ID, e.AccountID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update work experience: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByAccount returns all experience entries for an account, most recent
// start date first.
func (r *ExperienceRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.WorkExperience, error) {
	query := `
		SELECT id, account_id, company_name, job_title, start_date, end_date, is_current, description, location, created_at
		FROM work_experiences WHERE account_id = $1 ORDER BY start_date DESC NULLS LAST
	`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work experiences: %w", err)
	}
	defer rows.Close()

	var entries []*domain.WorkExperience
	for rows.Next() {
		var e domain.WorkExperience
		if err := rows.Scan(&e.ID, &e.AccountID, &e.CompanyName, &e.JobTitle, &e.StartDate, &e.EndDate, &e.IsCurrent, &e.Description, &e.Location, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work experience: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}
