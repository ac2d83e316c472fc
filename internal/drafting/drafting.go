// Package drafting generates versioned response drafts for analyzed issues,
// grounding each prompt in retrieved firm knowledge.
package drafting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/caseModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/rfeModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/metrics"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/llm"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/retrieval"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

// Broadcaster publishes fire-and-forget collaboration events.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, message any) error
}

// contextRetriever supplies the knowledge chunks that ground a draft.
type contextRetriever interface {
	ContextForDrafting(ctx context.Context, tenantId string, query string, visaType string) ([]retrieval.Result, error)
}

type Engine struct {
	cases     caseModel.CaseStore
	issues    rfeModel.IssueStore
	drafts    rfeModel.DraftStore
	retriever contextRetriever
	completer llm.Provider
	events    Broadcaster
	logger    *logger_i.Logger
}

func NewEngine(
	cases caseModel.CaseStore,
	issues rfeModel.IssueStore,
	drafts rfeModel.DraftStore,
	retriever contextRetriever,
	completer llm.Provider,
	events Broadcaster,
) *Engine {
	return &Engine{
		cases:     cases,
		issues:    issues,
		drafts:    drafts,
		retriever: retriever,
		completer: completer,
		events:    events,
		logger:    logger_i.NewLogger("Drafting Engine"),
	}
}

// GenerateForCase creates a version-1 draft for every issue that has none
// yet, in position order. Issues that already gained a draft from a prior
// partially-successful run are skipped, which makes retries safe. Returns
// the number of drafts created.
func (e *Engine) GenerateForCase(ctx context.Context, tenantId string, caseId string) (int, error) {
	c, ok := e.cases.GetCase(ctx, tenantId, caseId)
	if !ok {
		return 0, fmt.Errorf("case %s: %w", caseId, errs.ErrNotFound)
	}
	issues, err := e.issues.ListCaseIssues(ctx, tenantId, caseId)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, issue := range issues {
		existing, err := e.drafts.ListIssueDrafts(ctx, tenantId, issue.Id)
		if err != nil {
			return created, err
		}
		if len(existing) > 0 {
			continue
		}
		if _, err := e.generate(ctx, c, issue, 1); err != nil {
			// One issue failing must not starve the rest.
			e.logger.Error("draft generation failed, skipping issue",
				"caseId", caseId, "issueId", issue.Id, "error", err.Error())
			continue
		}
		created++
	}

	e.broadcast(ctx, "drafts.generated", map[string]any{
		"case_id":     caseId,
		"draft_count": created,
	})
	return created, nil
}

// RegenerateIssue appends the next version for one issue. Prior versions are
// never touched.
func (e *Engine) RegenerateIssue(ctx context.Context, tenantId string, issueId string) (rfeModel.DraftResponse, error) {
	issue, ok := e.issues.GetIssue(ctx, tenantId, issueId)
	if !ok {
		return rfeModel.DraftResponse{}, fmt.Errorf("issue %s: %w", issueId, errs.ErrNotFound)
	}
	c, ok := e.cases.GetCase(ctx, tenantId, issue.CaseId)
	if !ok {
		return rfeModel.DraftResponse{}, fmt.Errorf("case %s: %w", issue.CaseId, errs.ErrNotFound)
	}

	existing, err := e.drafts.ListIssueDrafts(ctx, tenantId, issueId)
	if err != nil {
		return rfeModel.DraftResponse{}, err
	}
	maxVersion := 0
	for _, d := range existing {
		if d.Version > maxVersion {
			maxVersion = d.Version
		}
	}

	draft, err := e.generate(ctx, c, issue, maxVersion+1)
	if err != nil {
		return rfeModel.DraftResponse{}, err
	}
	e.broadcast(ctx, "draft.regenerated", map[string]any{
		"issue_id": issueId,
		"draft_id": draft.Id,
		"version":  draft.Version,
	})
	return draft, nil
}

// Approve finalizes a draft: edited content wins over the AI text, optional
// reviewer feedback is stored alongside.
func (e *Engine) Approve(ctx context.Context, tenantId string, draftId string, feedback string) (rfeModel.DraftResponse, error) {
	draft, ok := e.drafts.GetDraft(ctx, tenantId, draftId)
	if !ok {
		return rfeModel.DraftResponse{}, fmt.Errorf("draft %s: %w", draftId, errs.ErrNotFound)
	}

	draft.Status = rfeModel.DraftStatusApproved
	if draft.EditedContent != "" {
		draft.FinalContent = draft.EditedContent
	} else {
		draft.FinalContent = draft.AIGeneratedContent
	}
	draft.AttorneyFeedback = feedback
	if err := e.drafts.SaveDraft(ctx, draft); err != nil {
		return rfeModel.DraftResponse{}, err
	}

	e.broadcast(ctx, "draft.approved", map[string]any{
		"draft_id": draft.Id,
		"issue_id": draft.IssueId,
	})
	return draft, nil
}

func (e *Engine) generate(ctx context.Context, c caseModel.Case, issue rfeModel.Issue, version int) (rfeModel.DraftResponse, error) {
	evidence, err := e.issues.ListIssueEvidence(ctx, c.TenantId, issue.Id)
	if err != nil {
		return rfeModel.DraftResponse{}, err
	}

	query := strings.TrimSpace(issue.Title + " " + issue.OriginalText + " " + issue.Summary)
	var chunks []retrieval.Result
	if e.retriever != nil {
		chunks, err = e.retriever.ContextForDrafting(ctx, c.TenantId, query, c.VisaType)
		if err != nil {
			// Drafting still works ungrounded; note the gap and continue.
			e.logger.Warn("knowledge retrieval failed, drafting without context",
				"issueId", issue.Id, "error", err.Error())
			chunks = nil
		}
	}

	start := time.Now()
	content, err := e.completer.Complete(ctx, llm.Request{
		SystemPrompt:   draftingSystemPrompt,
		UserPrompt:     buildUserPrompt(c, issue, evidence, chunks),
		ResponseFormat: llm.FormatText,
		Temperature:    config.DraftingTemperature,
		MaxTokens:      config.DraftingMaxTokens,
	})
	metrics.CaptureExecutionMetrics("completion", time.Since(start))
	if err != nil {
		return rfeModel.DraftResponse{}, err
	}

	draft := rfeModel.DraftResponse{
		Id:                 uuid.NewString(),
		TenantId:           c.TenantId,
		CaseId:             c.Id,
		IssueId:            issue.Id,
		Position:           issue.Position,
		Version:            version,
		Title:              issue.Title,
		Status:             rfeModel.DraftStatusDraft,
		AIGeneratedContent: content,
		CreatedTime:        time.Now(),
	}
	if err := e.drafts.InsertDraft(ctx, draft); err != nil {
		return rfeModel.DraftResponse{}, err
	}
	metrics.CountDraftGenerated()
	return draft, nil
}

func buildUserPrompt(c caseModel.Case, issue rfeModel.Issue, evidence []rfeModel.EvidenceRequirement, chunks []retrieval.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Draft a response to the following RFE issue.\n\n")
	fmt.Fprintf(&b, "Visa type: %s\nPetitioner: %s\n\n", c.VisaType, c.Petitioner)
	if issue.CitationRef != "" {
		fmt.Fprintf(&b, "Regulation cited: %s\n", issue.CitationRef)
	}
	fmt.Fprintf(&b, "Issue raised (original notice text):\n%s\n\n", issue.OriginalText)
	fmt.Fprintf(&b, "Summary:\n%s\n", issue.Summary)

	if len(evidence) > 0 {
		b.WriteString("\nAvailable supporting evidence:\n")
		for _, ev := range evidence {
			fmt.Fprintf(&b, "- %s (%s): %s\n", ev.DocumentName, ev.Priority, ev.Description)
		}
	}

	if len(chunks) > 0 {
		b.WriteString("\n" + knowledgeContextHeader + "\n")
		for _, chunk := range chunks {
			fmt.Fprintf(&b, "\n[%s | %s]\n%s\n", chunk.Chunk.Metadata.Title, chunk.Chunk.Metadata.DocType, chunk.Chunk.Content)
		}
	}
	return b.String()
}

func (e *Engine) broadcast(ctx context.Context, topic string, message any) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, topic, message); err != nil {
		e.logger.Warn("broadcast failed", "topic", topic, "error", err.Error())
	}
}
