package analysis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/blob"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/store"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/caseModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/rfeModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/extract"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/llm"
)

const specialtyResponse = `{
  "sections": [
    {
      "title": "Specialty Occupation",
      "section_type": "specialty_occupation",
      "original_text": "The petitioner has not established that the proffered position qualifies as a specialty occupation.",
      "summary": "USCIS questions whether the role requires a bachelor's degree in a specific specialty.",
      "cfr_reference": "8 CFR 214.2(h)(4)(iii)(A)",
      "confidence_score": 0.92,
      "evidence_needed": [
        {
          "document_name": "Detailed job description",
          "description": "Duties mapped to degree-level knowledge",
          "guidance": "Break duties into percentages",
          "priority": "required"
        }
      ]
    }
  ]
}`

type fakeCompleter struct {
	response string
	err      error
	calls    int
	lastReq  llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type capturingBroadcaster struct {
	topics []string
}

func (b *capturingBroadcaster) Publish(ctx context.Context, topic string, message any) error {
	b.topics = append(b.topics, topic)
	return nil
}

type env struct {
	cases     *store.InMemoryCaseStore
	documents *store.InMemoryDocumentStore
	issues    *store.InMemoryIssueStore
	blobs     *blob.LocalStorage
	completer *fakeCompleter
	events    *capturingBroadcaster
	orch      *Orchestrator
}

func newEnv(t *testing.T, completer *fakeCompleter) *env {
	t.Helper()
	blobs, err := blob.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	e := &env{
		cases:     store.NewInMemoryCaseStore(),
		documents: store.NewInMemoryDocumentStore(),
		issues:    store.NewInMemoryIssueStore(),
		blobs:     blobs,
		completer: completer,
		events:    &capturingBroadcaster{},
	}
	gateway := extract.NewGateway(e.documents, blobs)
	e.orch = NewOrchestrator(e.cases, e.documents, e.issues, gateway, completer, nil, e.events)
	return e
}

func (e *env) addCase(t *testing.T, caseId string, status caseModel.CaseStatus) {
	t.Helper()
	require.NoError(t, e.cases.SaveCase(context.Background(), caseModel.Case{
		Id:         caseId,
		TenantId:   "tenant-1",
		Title:      "H-1B RFE",
		VisaType:   "H-1B",
		Petitioner: "Acme Corp",
		Status:     status,
	}))
}

func (e *env) addNotice(t *testing.T, caseId string, docId string, text string) {
	t.Helper()
	key := blob.NewKey(docId, "notice.txt")
	require.NoError(t, e.blobs.Upload(context.Background(), key, strings.NewReader(text)))
	require.NoError(t, e.documents.SaveDocument(context.Background(), docModel.SourceDocument{
		Id:          docId,
		TenantId:    "tenant-1",
		CaseId:      caseId,
		Name:        "notice.txt",
		ContentType: "text/plain",
		Kind:        docModel.DocKindNotice,
		BlobKey:     key,
		Status:      docModel.DocStatusPending,
		UploadedAt:  time.Now(),
	}))
}

func TestAnalyzeCaseEndToEnd(t *testing.T) {
	e := newEnv(t, &fakeCompleter{response: specialtyResponse})
	e.addCase(t, "case-1", caseModel.StatusAnalyzing)
	e.addNotice(t, "case-1", "doc-1", "The petitioner has not established that the proffered position qualifies as a specialty occupation.")

	count, err := e.orch.AnalyzeCase(context.Background(), "tenant-1", "case-1")

	require.NoError(t, err)
	assert.Equal(t, 1, count)

	issues, err := e.issues.ListCaseIssues(context.Background(), "tenant-1", "case-1")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, rfeModel.IssueSpecialtyOccupation, issues[0].Type)
	assert.Equal(t, 0.92, issues[0].Confidence)
	assert.Equal(t, "8 CFR 214.2(h)(4)(iii)(A)", issues[0].CitationRef)

	evidence, err := e.issues.ListIssueEvidence(context.Background(), "tenant-1", issues[0].Id)
	require.NoError(t, err)
	require.Len(t, evidence, 1)
	assert.Equal(t, rfeModel.PriorityRequired, evidence[0].Priority)

	c, ok := e.cases.GetCase(context.Background(), "tenant-1", "case-1")
	require.True(t, ok)
	assert.Equal(t, caseModel.StatusReview, c.Status)
	assert.Equal(t, caseModel.StageComplete, c.Progress.Stage)
	assert.Contains(t, e.events.topics, "case.analyzed")
}

func TestAnalyzeCaseNoTextStopsBeforeModelCall(t *testing.T) {
	completer := &fakeCompleter{response: specialtyResponse}
	e := newEnv(t, completer)
	e.addCase(t, "case-1", caseModel.StatusAnalyzing)

	_, err := e.orch.AnalyzeCase(context.Background(), "tenant-1", "case-1")

	var noText *errs.NoExtractableText
	require.ErrorAs(t, err, &noText)
	assert.Zero(t, completer.calls)

	c, _ := e.cases.GetCase(context.Background(), "tenant-1", "case-1")
	assert.Equal(t, caseModel.StageFailed, c.Progress.Stage)
	assert.Equal(t, "no text extracted", c.Progress.Error)
}

func TestAnalyzeCaseSkipsFailedDocuments(t *testing.T) {
	e := newEnv(t, &fakeCompleter{response: specialtyResponse})
	e.addCase(t, "case-1", caseModel.StatusAnalyzing)
	e.addNotice(t, "case-1", "doc-good", "specialty occupation concerns")
	// Document whose blob was never uploaded: extraction fails, run continues.
	require.NoError(t, e.documents.SaveDocument(context.Background(), docModel.SourceDocument{
		Id:          "doc-bad",
		TenantId:    "tenant-1",
		CaseId:      "case-1",
		ContentType: "text/plain",
		Kind:        docModel.DocKindNotice,
		BlobKey:     "missing/key.txt",
		Status:      docModel.DocStatusPending,
	}))

	count, err := e.orch.AnalyzeCase(context.Background(), "tenant-1", "case-1")

	require.NoError(t, err)
	assert.Equal(t, 1, count)

	bad, _ := e.documents.GetDocument(context.Background(), "tenant-1", "doc-bad")
	assert.Equal(t, docModel.DocStatusFailed, bad.Status)
}

func TestAnalyzeCaseMalformedResponse(t *testing.T) {
	e := newEnv(t, &fakeCompleter{response: "I could not produce JSON, sorry."})
	e.addCase(t, "case-1", caseModel.StatusAnalyzing)
	e.addNotice(t, "case-1", "doc-1", "notice text")

	_, err := e.orch.AnalyzeCase(context.Background(), "tenant-1", "case-1")

	var malformed *errs.MalformedResponse
	require.ErrorAs(t, err, &malformed)

	c, _ := e.cases.GetCase(context.Background(), "tenant-1", "case-1")
	assert.Equal(t, caseModel.StageFailed, c.Progress.Stage)
	assert.NotEmpty(t, c.Progress.Error)
}

func TestAnalyzeCaseMissingCaseDiscardable(t *testing.T) {
	e := newEnv(t, &fakeCompleter{response: specialtyResponse})

	_, err := e.orch.AnalyzeCase(context.Background(), "tenant-1", "nope")

	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestParseAnalysisResponseStripsFences(t *testing.T) {
	wrapped := "```json\n" + specialtyResponse + "\n```"

	parsed, err := parseAnalysisResponse(wrapped)

	require.NoError(t, err)
	require.Len(t, parsed.Sections, 1)
	assert.Equal(t, "Specialty Occupation", parsed.Sections[0].Title)
}

func TestBuildIssuesDefaults(t *testing.T) {
	sections := []noticeSection{
		{SectionType: "something_novel", ConfidenceScore: 1.5, EvidenceNeeded: []evidenceSection{{DocumentName: "Org chart", Priority: "urgent"}}},
		{Title: "Wages", SectionType: "wage_level", ConfidenceScore: -0.3},
	}

	issues, evidence := buildIssues("tenant-1", "case-1", sections)

	require.Len(t, issues, 2)
	assert.Equal(t, rfeModel.IssueGeneral, issues[0].Type)
	assert.Equal(t, "Issue 1", issues[0].Title)
	assert.Equal(t, 1.0, issues[0].Confidence)
	assert.Equal(t, 0, issues[0].Position)

	assert.Equal(t, rfeModel.IssueWageLevel, issues[1].Type)
	assert.Equal(t, 0.0, issues[1].Confidence)
	assert.Equal(t, 1, issues[1].Position)

	require.Len(t, evidence, 1)
	assert.Equal(t, rfeModel.PriorityRecommended, evidence[0].Priority)
	assert.Equal(t, issues[0].Id, evidence[0].IssueId)
}
