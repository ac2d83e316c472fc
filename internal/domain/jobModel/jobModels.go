package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusComplete  JobStatus = "COMPLETE"
	JobStatusError     JobStatus = "Error"
	JobStatusDiscarded JobStatus = "DISCARDED"

	AnalysisInit     InternalStatus = "AnalysisInit"
	Extracting       InternalStatus = "Extracting"
	CompletionCall   InternalStatus = "CompletionAPI"
	SavingIssues     InternalStatus = "SavingIssues"
	DraftingInit     InternalStatus = "DraftingInit"
	RetrievalCall    InternalStatus = "Retrieval"
	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeCaseAnalysis    JobType = "CaseAnalysis"
	JobTypeDraftGeneration JobType = "DraftGeneration"
	JobTypeKnowledgeIngest JobType = "KnowledgeIngest"
)

type Job struct {
	Id          string         `json:"id"`
	TenantId    string         `json:"tenant_id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	Attempts    int            `json:"attempts"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitzero"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	CaseId         string `json:"case_id,omitempty"`
	IssueId        string `json:"issue_id,omitempty"`
	KnowledgeDocId string `json:"knowledge_doc_id,omitempty"`

	// results, filled by the worker
	IssueCount int `json:"issue_count,omitempty"`
	DraftCount int `json:"draft_count,omitempty"`
	ChunkCount int `json:"chunk_count,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
