package domain

import "time"

// Resume upload constraints. Only PDFs within these bounds are accepted.
const (
	MaxResumeSize = 10 * 1024 * 1024
	MinResumeSize = 1024
)

// Resume is one uploaded resume file. At most one resume per account is
// current at a time; member uploads additionally carry a version label.
type Resume struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"-"`
	FileName     string    `json:"fileName"`
	FilePath     string    `json:"-"` // object storage key
	FileSize     int64     `json:"fileSize"`
	IsCurrent    bool      `json:"isCurrent"`
	VersionLabel string    `json:"versionLabel,omitempty"`
	Analysis     []byte    `json:"-"` // last analysis result, JSON
	AnalyzedAt   *time.Time `json:"analyzedAt,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WorkExperience is one manually entered job history entry.
type WorkExperience struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"-"`
	CompanyName string     `json:"companyName"`
	JobTitle    string     `json:"jobTitle"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	IsCurrent   bool       `json:"isCurrent"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// WorkExperienceRequest is the input for creating or updating an experience entry.
type WorkExperienceRequest struct {
	CompanyName string `json:"companyName" validate:"required,max=200"`
	JobTitle    string `json:"jobTitle" validate:"required,max=200"`
	StartDate   string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	IsCurrent   bool   `json:"isCurrent"`
	Description string `json:"description" validate:"max=2000"`
	Location    string `json:"location" validate:"max=200"`
}

// BasicInfo is contact information extracted from a resume.
type BasicInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ExtractedExperience is one job entry the analyzer pulled from the resume text.
type ExtractedExperience struct {
	CompanyName string `json:"companyName"`
	JobTitle    string `json:"jobTitle"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	IsCurrent   bool   `json:"isCurrent"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// AnalysisResult is the structured output of one resume analysis.
type AnalysisResult struct {
	BasicInfo              BasicInfo             `json:"basicInfo"`
	Skills                 []string              `json:"skills"`
	Experiences            []ExtractedExperience `json:"experiences"`
	GrammarCorrections     string                `json:"grammarCorrections"`
	CareerAdvice           []string              `json:"careerAdvice"`
	ImprovementSuggestions string                `json:"improvementSuggestions"`
}

// UploadResponse is returned after a successful resume upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	ResumeID string `json:"resume_id"`
	Message  string `json:"message"`
}
