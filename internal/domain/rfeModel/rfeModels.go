package rfeModel

import (
	"context"
	"time"
)

type IssueType string

type Priority string

type DraftStatus string

const (
	IssueSpecialtyOccupation          IssueType = "specialty_occupation"
	IssueBeneficiaryQualifications    IssueType = "beneficiary_qualifications"
	IssueEmployerEmployeeRelationship IssueType = "employer_employee_relationship"
	IssueWageLevel                    IssueType = "wage_level"
	IssueMaintenanceOfStatus          IssueType = "maintenance_of_status"
	IssueAvailabilityOfWork           IssueType = "availability_of_work"
	IssueRightToControl               IssueType = "right_to_control"
	IssueGeneral                      IssueType = "general"

	PriorityRequired    Priority = "required"
	PriorityRecommended Priority = "recommended"
	PriorityOptional    Priority = "optional"

	DraftStatusDraft    DraftStatus = "draft"
	DraftStatusEditing  DraftStatus = "editing"
	DraftStatusReviewed DraftStatus = "reviewed"
	DraftStatusApproved DraftStatus = "approved"
)

var knownIssueTypes = map[IssueType]bool{
	IssueSpecialtyOccupation:          true,
	IssueBeneficiaryQualifications:    true,
	IssueEmployerEmployeeRelationship: true,
	IssueWageLevel:                    true,
	IssueMaintenanceOfStatus:          true,
	IssueAvailabilityOfWork:           true,
	IssueRightToControl:               true,
	IssueGeneral:                      true,
}

// ParseIssueType maps a model-provided section type onto the fixed taxonomy,
// falling back to "general" for anything unrecognized.
func ParseIssueType(s string) IssueType {
	t := IssueType(s)
	if knownIssueTypes[t] {
		return t
	}
	return IssueGeneral
}

// ParsePriority falls back to "recommended" on unrecognized input.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityRequired, PriorityRecommended, PriorityOptional:
		return Priority(s)
	default:
		return PriorityRecommended
	}
}

// ClampConfidence bounds a model-reported confidence into [0.0, 1.0].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Issue is one distinct problem raised by an RFE notice. Issues are created
// only by the analysis orchestrator; a re-run replaces all of them for the
// case in one transaction.
type Issue struct {
	Id           string         `json:"id"`
	TenantId     string         `json:"tenant_id"`
	CaseId       string         `json:"case_id"`
	Position     int            `json:"position"`
	Type         IssueType      `json:"type"`
	Title        string         `json:"title"`
	OriginalText string         `json:"original_text"`
	Summary      string         `json:"summary"`
	CitationRef  string         `json:"citation_ref,omitempty"`
	Confidence   float64        `json:"confidence"`
	Analysis     map[string]any `json:"analysis,omitempty"`
}

type EvidenceRequirement struct {
	Id           string   `json:"id"`
	TenantId     string   `json:"tenant_id"`
	CaseId       string   `json:"case_id"`
	IssueId      string   `json:"issue_id"`
	Priority     Priority `json:"priority"`
	DocumentName string   `json:"document_name"`
	Description  string   `json:"description,omitempty"`
	Guidance     string   `json:"guidance,omitempty"`
	IsCollected  bool     `json:"is_collected"`
	Position     int      `json:"position"`
}

// DraftResponse is one version of the written rebuttal for an issue.
// Regeneration inserts a new version row; existing rows are never mutated
// except for status, edited/final content and the lock fields.
type DraftResponse struct {
	Id                 string      `json:"id"`
	TenantId           string      `json:"tenant_id"`
	CaseId             string      `json:"case_id"`
	IssueId            string      `json:"issue_id"`
	Position           int         `json:"position"`
	Version            int         `json:"version"`
	Title              string      `json:"title"`
	Status             DraftStatus `json:"status"`
	AIGeneratedContent string      `json:"ai_generated_content,omitempty"`
	EditedContent      string      `json:"edited_content,omitempty"`
	FinalContent       string      `json:"final_content,omitempty"`
	AttorneyFeedback   string      `json:"attorney_feedback,omitempty"`
	LockedBy           string      `json:"locked_by,omitempty"`
	LockedAt           time.Time   `json:"locked_at,omitzero"`
	CreatedTime        time.Time   `json:"created_time"`
}

type IssueStore interface {
	// ReplaceCaseIssues deletes all issues and evidence requirements for the
	// case and inserts the new set in one atomic operation.
	ReplaceCaseIssues(ctx context.Context, tenantId string, caseId string, issues []Issue, evidence []EvidenceRequirement) error
	ListCaseIssues(ctx context.Context, tenantId string, caseId string) ([]Issue, error)
	GetIssue(ctx context.Context, tenantId string, issueId string) (Issue, bool)
	ListIssueEvidence(ctx context.Context, tenantId string, issueId string) ([]EvidenceRequirement, error)
}

type DraftStore interface {
	// ListIssueDrafts returns all versions for the issue ordered by version.
	ListIssueDrafts(ctx context.Context, tenantId string, issueId string) ([]DraftResponse, error)
	InsertDraft(ctx context.Context, d DraftResponse) error
	GetDraft(ctx context.Context, tenantId string, draftId string) (DraftResponse, bool)
	SaveDraft(ctx context.Context, d DraftResponse) error
}
