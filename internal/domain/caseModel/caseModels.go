package caseModel

import (
	"context"
	"time"
)

type CaseStatus string

type ProgressStage string

const (
	StatusDraft     CaseStatus = "draft"
	StatusAnalyzing CaseStatus = "analyzing"
	StatusReview    CaseStatus = "review"
	StatusResponded CaseStatus = "responded"
	StatusArchived  CaseStatus = "archived"

	StageExtracting ProgressStage = "extracting"
	StageAnalyzing  ProgressStage = "analyzing"
	StageSaving     ProgressStage = "saving"
	StageComplete   ProgressStage = "complete"
	StageFailed     ProgressStage = "failed"
)

// Progress is the free-form pipeline status clients poll while an analysis
// run is in flight. Updates are last-writer-wins.
type Progress struct {
	Stage     ProgressStage `json:"stage"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type Case struct {
	Id            string     `json:"id"`
	TenantId      string     `json:"tenant_id"`
	Title         string     `json:"title"`
	VisaType      string     `json:"visa_type"`
	Petitioner    string     `json:"petitioner"`
	Beneficiary   string     `json:"beneficiary,omitempty"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	Status        CaseStatus `json:"status"`
	Progress      Progress   `json:"progress"`
	CreatedTime   time.Time  `json:"created_time"`
	UpdatedTime   time.Time  `json:"updated_time"`
}

type CaseStore interface {
	GetCase(ctx context.Context, tenantId string, caseId string) (Case, bool)
	SaveCase(ctx context.Context, c Case) error
	UpdateProgress(ctx context.Context, tenantId string, caseId string, p Progress) error
}
