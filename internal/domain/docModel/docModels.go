package docModel

import (
	"context"
	"time"
)

type DocStatus string

type DocKind string

const (
	DocStatusPending    DocStatus = "pending"
	DocStatusProcessing DocStatus = "processing"
	DocStatusCompleted  DocStatus = "completed"
	DocStatusFailed     DocStatus = "failed"

	DocKindNotice   DocKind = "notice"
	DocKindEvidence DocKind = "evidence"
	DocKindExhibit  DocKind = "exhibit"
)

// SourceDocument is one uploaded file belonging to a case. Raw bytes live in
// blob storage under BlobKey; only the Extraction Gateway mutates the
// extracted text, status and failure fields.
type SourceDocument struct {
	Id             string    `json:"id"`
	TenantId       string    `json:"tenant_id"`
	CaseId         string    `json:"case_id"`
	Name           string    `json:"name"`
	ContentType    string    `json:"content_type"`
	Kind           DocKind   `json:"kind"`
	BlobKey        string    `json:"blob_key"`
	ExtractedText  string    `json:"extracted_text,omitempty"`
	Status         DocStatus `json:"status"`
	FailureMessage string    `json:"failure_message,omitempty"`
	FailedAt       time.Time `json:"failed_at,omitzero"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// KnowledgeDocument is firm knowledge material (policy memos, regulations,
// winning response templates) that feeds the retrieval index.
type KnowledgeDocument struct {
	Id          string    `json:"id"`
	TenantId    string    `json:"tenant_id"`
	Title       string    `json:"title"`
	DocType     string    `json:"doc_type"`
	VisaType    string    `json:"visa_type,omitempty"`
	Category    string    `json:"category,omitempty"`
	Content     string    `json:"content,omitempty"`
	BlobKey     string    `json:"blob_key,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	UpdatedTime time.Time `json:"updated_time"`
}

// ChunkMetadata travels with every vector. Empty visa/category means the
// chunk is untagged and matches any retrieval filter. CaseId is set only for
// indexed case notices and backs similar-case discovery.
type ChunkMetadata struct {
	DocType  string `json:"doc_type,omitempty"`
	VisaType string `json:"visa_type,omitempty"`
	Category string `json:"category,omitempty"`
	Title    string `json:"title,omitempty"`
	CaseId   string `json:"case_id,omitempty"`
}

type Chunk struct {
	Id         string        `json:"chunk_id"`
	DocumentId string        `json:"document_id"`
	TenantId   string        `json:"tenant_id"`
	Content    string        `json:"content"`
	ChunkIndex int           `json:"chunk_index"`
	Metadata   ChunkMetadata `json:"metadata"`
}

type DocumentStore interface {
	GetDocument(ctx context.Context, tenantId string, docId string) (SourceDocument, bool)
	SaveDocument(ctx context.Context, doc SourceDocument) error
	ListCaseDocuments(ctx context.Context, tenantId string, caseId string, kind DocKind) ([]SourceDocument, error)
}

type KnowledgeStore interface {
	GetKnowledgeDocument(ctx context.Context, tenantId string, docId string) (KnowledgeDocument, bool)
	SaveKnowledgeDocument(ctx context.Context, doc KnowledgeDocument) error
}
