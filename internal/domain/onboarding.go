package domain

import "time"

// Canonical onboarding step names. The ledger writer and every reader share
// this single enumeration; step numbers are the ordering keys.
const (
	StepSignUp          = "sign-up"
	StepBasicInfo       = "basic-information"
	StepResumeUpload    = "resume-upload"
	StepAnalysisResults = "analysis-results"
	StepDashboardTour   = "dashboard-tour"
)

const (
	StepNumberSignUp          = 1
	StepNumberBasicInfo       = 2
	StepNumberResumeUpload    = 3
	StepNumberAnalysisResults = 4
	StepNumberDashboardTour   = 5
)

// OnboardingStep is one named milestone for one account. Once completed it
// is never un-completed.
type OnboardingStep struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"-"`
	StepNumber  int        `json:"step_number"`
	StepName    string     `json:"step_name"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"-"`
}

// BaselineSteps returns the step set seeded at account creation: sign-up is
// pre-completed, everything else pending.
func BaselineSteps() []OnboardingStep {
	return []OnboardingStep{
		{StepNumber: StepNumberSignUp, StepName: StepSignUp, Completed: true},
		{StepNumber: StepNumberBasicInfo, StepName: StepBasicInfo},
		{StepNumber: StepNumberResumeUpload, StepName: StepResumeUpload},
		{StepNumber: StepNumberAnalysisResults, StepName: StepAnalysisResults},
	}
}

// CurrentStep returns the step number of the first incomplete step in steps
// (assumed sorted ascending by step number), or len(steps)+1 once every
// step is completed.
func CurrentStep(steps []OnboardingStep) int {
	for _, s := range steps {
		if !s.Completed {
			return s.StepNumber
		}
	}
	return len(steps) + 1
}

// ProgressResponse is the per-account onboarding view consumed by the UI.
type ProgressResponse struct {
	Steps       []OnboardingStep `json:"steps"`
	CurrentStep int              `json:"current_step"`
	UserType    Tier             `json:"user_type"`
}

// CompleteStepRequest is the input for marking a step completed.
type CompleteStepRequest struct {
	StepNumber int    `json:"step_number" validate:"required,min=1"`
	StepName   string `json:"step_name" validate:"required"`
	Completed  bool   `json:"completed"`
}
