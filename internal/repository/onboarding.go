package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/resumatic/backend/internal/domain"
)

// OnboardingRepository handles database operations for the onboarding ledger.
type OnboardingRepository struct {
	db DBTX
}

// NewOnboardingRepository creates a new OnboardingRepository.
func NewOnboardingRepository(db DBTX) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

// ListByAccount returns all steps for an account ordered by step number.
func (r *OnboardingRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.OnboardingStep, error) {
	query := `
		SELECT id, account_id, step_number, step_name, completed, completed_at, created_at
		FROM onboarding_progress WHERE account_id = $1 ORDER BY step_number ASC
	`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list onboarding steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.OnboardingStep
	for rows.Next() {
		var s domain.OnboardingStep
		if err := rows.Scan(&s.ID, &s.AccountID, &s.StepNumber, &s.StepName, &s.Completed, &s.CompletedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan onboarding step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// InsertStep inserts one step. A unique violation on (account_id, step_name)
// means the step already exists; callers treat that as success.
func (r *OnboardingRepository) InsertStep(ctx context.Context, accountID string, step domain.OnboardingStep) error {
	var completedAt *time.Time
	if step.Completed {
		now := time.Now().UTC()
		completedAt = &now
	}
	query := `
		INSERT INTO onboarding_progress (id, account_id, step_number, step_name, completed, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		uuid.New().String(), accountID, step.StepNumber, step.StepName, step.Completed, completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert onboarding step: %w", err)
	}
	return nil
}

// InsertSteps inserts a set of steps for an account in one round trip.
// The first conflicting row aborts the whole statement, which is fine: the
// baseline set is only ever written as a unit.
func (r *OnboardingRepository) InsertSteps(ctx context.Context, accountID string, steps []domain.OnboardingStep) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO onboarding_progress (id, account_id, step_number, step_name, completed, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, s := range steps {
		var completedAt *time.Time
		if s.Completed {
			completedAt = &now
		}
		if _, err := r.db.Exec(ctx, query,
			uuid.New().String(), accountID, s.StepNumber, s.StepName, s.Completed, completedAt,
		); err != nil {
			return fmt.Errorf("failed to insert onboarding step %q: %w", s.StepName, err)
		}
	}
	return nil
}

// CompleteStep marks the step matching (account, step name) completed and
// returns whether a row matched. Already-completed steps match too, so a
// repeat call is a harmless no-op with found = true.
func (r *OnboardingRepository) CompleteStep(ctx context.Context, accountID, stepName string) (found bool, err error) {
	query := `
		UPDATE onboarding_progress
		SET completed = TRUE,
		    completed_at = COALESCE(completed_at, NOW())
		WHERE account_id = $1 AND step_name = $2
	`
	tag, err := r.db.Exec(ctx, query, accountID, stepName)
	if err != nil {
		return false, fmt.Errorf("failed to complete step: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// HasSteps reports whether any ledger rows exist for the account.
func (r *OnboardingRepository) HasSteps(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM onboarding_progress WHERE account_id = $1)`, accountID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check onboarding progress: %w", err)
	}
	return exists, nil
}
