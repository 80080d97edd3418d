package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/service"
)

// ResumeHandler serves resume upload, analysis, and retrieval.
type ResumeHandler struct {
	accounts *service.AccountService
	resumes  *service.ResumeService
}

// NewResumeHandler creates a new ResumeHandler.
func NewResumeHandler(accounts *service.AccountService, resumes *service.ResumeService) *ResumeHandler {
	return &ResumeHandler{accounts: accounts, resumes: resumes}
}

// Upload handles POST /api/resumes. The resume PDF arrives as the "file"
// part of a multipart form.
func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	if err := r.ParseMultipartForm(domain.MaxResumeSize); err != nil {
		Error(w, domain.ErrBadRequest("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, domain.ErrBadRequest("missing file field"))
		return
	}
	defer file.Close()

	if !isPDF(header.Header.Get("Content-Type"), header.Filename) {
		Error(w, domain.ErrBadRequest("only PDF files are accepted"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, domain.MaxResumeSize+1))
	if err != nil {
		Error(w, domain.ErrBadRequest("failed to read uploaded file"))
		return
	}

	resume, err := h.resumes.Upload(r.Context(), account, header.Filename, data)
	if err != nil {
		var quotaErr *service.QuotaExceededError
		if errors.As(err, &quotaErr) {
			JSON(w, http.StatusForbidden, map[string]interface{}{
				"error":   "monthly upload limit reached",
				"quota":   quotaErr.Status,
				"upgrade": "upgrade to premium for unlimited uploads",
			})
			return
		}
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, domain.UploadResponse{
		Success:  true,
		ResumeID: resume.ID,
		Message:  "resume uploaded successfully",
	})
}

// Analyze handles POST /api/resumes/{id}/analyze.
func (h *ResumeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	result, err := h.resumes.Analyze(r.Context(), account, chi.URLParam(r, "id"))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, result)
}

// Current handles GET /api/resumes/current.
func (h *ResumeHandler) Current(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	resume, err := h.resumes.Current(r.Context(), account.ID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resume)
}

// List handles GET /api/resumes. Members see their full version history,
// everyone else at most the current upload.
func (h *ResumeHandler) List(w http.ResponseWriter, r *http.Request) {
	account, err := requireAccount(r, h.accounts)
	if err != nil {
		Error(w, err)
		return
	}

	resumes, err := h.resumes.List(r.Context(), account)
	if err != nil {
		Error(w, err)
		return
	}
	if resumes == nil {
		resumes = []*domain.Resume{}
	}

	JSON(w, http.StatusOK, resumes)
}

func isPDF(contentType, fileName string) bool {
	if contentType == "application/pdf" {
		return true
	}
	// Some clients send a generic content type; fall back to the extension.
	return contentType == "application/octet-stream" &&
		strings.HasSuffix(strings.ToLower(fileName), ".pdf")
}
