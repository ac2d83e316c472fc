// Package api holds the external request/response contracts. Domain types
// never cross the HTTP boundary directly.
package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status     string `json:"status"`
	IssueCount int    `json:"issue_count,omitempty"`
	DraftCount int    `json:"draft_count,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// requests---------------------

type CreateCaseRequest struct {
	Title         string `json:"title" validate:"required"`
	VisaType      string `json:"visa_type" validate:"required"`
	Petitioner    string `json:"petitioner"`
	Beneficiary   string `json:"beneficiary,omitempty"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
}

type CaseActionRequest struct {
	Action string `json:"action" validate:"required" example:"archive"`
}

type CreateKnowledgeRequest struct {
	Title    string `json:"title" validate:"required"`
	DocType  string `json:"doc_type" validate:"required"`
	VisaType string `json:"visa_type,omitempty"`
	Category string `json:"category,omitempty"`
	Content  string `json:"content,omitempty"`
}

type ApproveDraftRequest struct {
	Feedback string `json:"feedback,omitempty"`
}

type EditDraftRequest struct {
	UserId        string `json:"user_id"`
	EditedContent string `json:"edited_content" validate:"required"`
}

type LockRequest struct {
	UserId  string `json:"user_id" validate:"required"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// responses---------------------

type SearchResult struct {
	Content       string  `json:"content"`
	Similarity    float64 `json:"similarity"`
	DocumentId    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title,omitempty"`
	DocType       string  `json:"doc_type,omitempty"`
	VisaType      string  `json:"visa_type,omitempty"`
	Category      string  `json:"category,omitempty"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

type SimilarCase struct {
	CaseId     string  `json:"case_id"`
	Similarity float64 `json:"similarity"`
	Excerpt    string  `json:"excerpt"`
}

type SimilarCasesResponse struct {
	CaseId  string        `json:"case_id"`
	Matches []SimilarCase `json:"matches"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
