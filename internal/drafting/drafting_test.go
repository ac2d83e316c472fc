package drafting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/store"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/caseModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/rfeModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/llm"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/retrieval"
)

type scriptedCompleter struct {
	failFor map[string]bool
	prompts []string
}

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.prompts = append(s.prompts, req.UserPrompt)
	for marker := range s.failFor {
		if strings.Contains(req.UserPrompt, marker) {
			return "", &errs.ExternalServiceError{Service: "completion", Err: errors.New("timeout")}
		}
	}
	return "The petitioner respectfully submits that [BENEFICIARY NAME] qualifies.", nil
}

type fixedRetriever struct {
	results []retrieval.Result
	err     error
}

func (f *fixedRetriever) ContextForDrafting(ctx context.Context, tenantId string, query string, visaType string) ([]retrieval.Result, error) {
	return f.results, f.err
}

type draftEnv struct {
	cases     *store.InMemoryCaseStore
	issues    *store.InMemoryIssueStore
	drafts    *store.InMemoryDraftStore
	completer *scriptedCompleter
	engine    *Engine
}

func newDraftEnv(t *testing.T, retriever contextRetriever, completer *scriptedCompleter) *draftEnv {
	t.Helper()
	e := &draftEnv{
		cases:     store.NewInMemoryCaseStore(),
		issues:    store.NewInMemoryIssueStore(),
		drafts:    store.NewInMemoryDraftStore(),
		completer: completer,
	}
	require.NoError(t, e.cases.SaveCase(context.Background(), caseModel.Case{
		Id:         "case-1",
		TenantId:   "tenant-1",
		VisaType:   "H-1B",
		Petitioner: "Acme Corp",
		Status:     caseModel.StatusReview,
	}))
	e.engine = NewEngine(e.cases, e.issues, e.drafts, retriever, completer, nil)
	return e
}

func (e *draftEnv) addIssues(t *testing.T, issues ...rfeModel.Issue) {
	t.Helper()
	require.NoError(t, e.issues.ReplaceCaseIssues(context.Background(), "tenant-1", "case-1", issues, nil))
}

func issueAt(position int, id string, title string) rfeModel.Issue {
	return rfeModel.Issue{
		Id:           id,
		TenantId:     "tenant-1",
		CaseId:       "case-1",
		Position:     position,
		Type:         rfeModel.IssueSpecialtyOccupation,
		Title:        title,
		OriginalText: "original text for " + title,
		Summary:      "summary for " + title,
	}
}

func TestGenerateForCaseCreatesVersionOnePerIssue(t *testing.T) {
	e := newDraftEnv(t, &fixedRetriever{}, &scriptedCompleter{})
	e.addIssues(t, issueAt(0, "issue-a", "Degree requirement"), issueAt(1, "issue-b", "Wage level"))

	created, err := e.engine.GenerateForCase(context.Background(), "tenant-1", "case-1")

	require.NoError(t, err)
	assert.Equal(t, 2, created)

	for _, issueId := range []string{"issue-a", "issue-b"} {
		drafts, err := e.drafts.ListIssueDrafts(context.Background(), "tenant-1", issueId)
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, 1, drafts[0].Version)
		assert.Equal(t, rfeModel.DraftStatusDraft, drafts[0].Status)
		assert.NotEmpty(t, drafts[0].AIGeneratedContent)
	}
}

func TestGenerateForCaseSkipsIssuesWithExistingDrafts(t *testing.T) {
	e := newDraftEnv(t, &fixedRetriever{}, &scriptedCompleter{})
	e.addIssues(t, issueAt(0, "issue-a", "Degree requirement"), issueAt(1, "issue-b", "Wage level"))
	require.NoError(t, e.drafts.InsertDraft(context.Background(), rfeModel.DraftResponse{
		Id: "d-1", TenantId: "tenant-1", CaseId: "case-1", IssueId: "issue-a", Version: 1,
	}))

	created, err := e.engine.GenerateForCase(context.Background(), "tenant-1", "case-1")

	require.NoError(t, err)
	assert.Equal(t, 1, created)

	drafts, _ := e.drafts.ListIssueDrafts(context.Background(), "tenant-1", "issue-a")
	assert.Len(t, drafts, 1)
}

func TestGenerateForCaseCompletionFailureSkipsIssueOnly(t *testing.T) {
	completer := &scriptedCompleter{failFor: map[string]bool{"Wage level": true}}
	e := newDraftEnv(t, &fixedRetriever{}, completer)
	e.addIssues(t, issueAt(0, "issue-a", "Degree requirement"), issueAt(1, "issue-b", "Wage level"))

	created, err := e.engine.GenerateForCase(context.Background(), "tenant-1", "case-1")

	require.NoError(t, err)
	assert.Equal(t, 1, created)

	drafts, _ := e.drafts.ListIssueDrafts(context.Background(), "tenant-1", "issue-b")
	assert.Empty(t, drafts)
}

func TestRegenerateAppendsNextVersion(t *testing.T) {
	e := newDraftEnv(t, &fixedRetriever{}, &scriptedCompleter{})
	e.addIssues(t, issueAt(0, "issue-a", "Degree requirement"))
	for v := 1; v <= 2; v++ {
		require.NoError(t, e.drafts.InsertDraft(context.Background(), rfeModel.DraftResponse{
			Id: "d-" + string(rune('0'+v)), TenantId: "tenant-1", CaseId: "case-1",
			IssueId: "issue-a", Version: v, AIGeneratedContent: "older",
		}))
	}

	draft, err := e.engine.RegenerateIssue(context.Background(), "tenant-1", "issue-a")

	require.NoError(t, err)
	assert.Equal(t, 3, draft.Version)

	drafts, _ := e.drafts.ListIssueDrafts(context.Background(), "tenant-1", "issue-a")
	require.Len(t, drafts, 3)
	assert.Equal(t, "older", drafts[0].AIGeneratedContent)
	assert.Equal(t, "older", drafts[1].AIGeneratedContent)
}

func TestRegenerateMissingIssueDiscardable(t *testing.T) {
	e := newDraftEnv(t, &fixedRetriever{}, &scriptedCompleter{})

	_, err := e.engine.RegenerateIssue(context.Background(), "tenant-1", "ghost")

	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPromptIncludesKnowledgeContextBlock(t *testing.T) {
	retriever := &fixedRetriever{results: []retrieval.Result{
		{Chunk: docModel.Chunk{
			Content:  "A specialty occupation requires theoretical application of specialized knowledge.",
			Metadata: docModel.ChunkMetadata{Title: "H-1B Playbook", DocType: "template"},
		}, Similarity: 0.91},
	}}
	completer := &scriptedCompleter{}
	e := newDraftEnv(t, retriever, completer)
	e.addIssues(t, issueAt(0, "issue-a", "Degree requirement"))

	_, err := e.engine.GenerateForCase(context.Background(), "tenant-1", "case-1")

	require.NoError(t, err)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], knowledgeContextHeader)
	assert.Contains(t, completer.prompts[0], "H-1B Playbook")
	assert.Contains(t, completer.prompts[0], "Acme Corp")
}

func TestPromptOmitsContextBlockWhenNothingRetrieved(t *testing.T) {
	completer := &scriptedCompleter{}
	e := newDraftEnv(t, &fixedRetriever{}, completer)
	e.addIssues(t, issueAt(0, "issue-a", "Degree requirement"))

	_, err := e.engine.GenerateForCase(context.Background(), "tenant-1", "case-1")

	require.NoError(t, err)
	require.Len(t, completer.prompts, 1)
	assert.NotContains(t, completer.prompts[0], knowledgeContextHeader)
}

func TestApprovePrefersEditedContent(t *testing.T) {
	e := newDraftEnv(t, &fixedRetriever{}, &scriptedCompleter{})
	require.NoError(t, e.drafts.InsertDraft(context.Background(), rfeModel.DraftResponse{
		Id: "d-1", TenantId: "tenant-1", IssueId: "issue-a", Version: 1,
		AIGeneratedContent: "ai text", EditedContent: "edited text",
	}))

	approved, err := e.engine.Approve(context.Background(), "tenant-1", "d-1", "looks good")

	require.NoError(t, err)
	assert.Equal(t, rfeModel.DraftStatusApproved, approved.Status)
	assert.Equal(t, "edited text", approved.FinalContent)
	assert.Equal(t, "looks good", approved.AttorneyFeedback)
}

func TestApproveFallsBackToAIContent(t *testing.T) {
	e := newDraftEnv(t, &fixedRetriever{}, &scriptedCompleter{})
	require.NoError(t, e.drafts.InsertDraft(context.Background(), rfeModel.DraftResponse{
		Id: "d-1", TenantId: "tenant-1", IssueId: "issue-a", Version: 1,
		AIGeneratedContent: "ai text",
	}))

	approved, err := e.engine.Approve(context.Background(), "tenant-1", "d-1", "")

	require.NoError(t, err)
	assert.Equal(t, "ai text", approved.FinalContent)
}
