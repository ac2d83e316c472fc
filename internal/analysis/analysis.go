// Package analysis runs the case analysis pipeline: extract the RFE notice
// text, ask the completion model to break it into issues, and atomically
// replace the case's issues and evidence requirements.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/caseModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/rfeModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/extract"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/metrics"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/llm"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

const noticeSeparator = "\n\n---\n\n"

// Broadcaster publishes fire-and-forget collaboration events. Failures are
// logged, never propagated.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, message any) error
}

// noticeIndexer feeds the analyzed notice text into the case-notice vector
// collection so other cases can find this one as a precedent.
type noticeIndexer interface {
	IndexCaseNotice(ctx context.Context, tenantId string, caseId string, visaType string, noticeText string) (int, error)
}

type Orchestrator struct {
	cases     caseModel.CaseStore
	documents docModel.DocumentStore
	issues    rfeModel.IssueStore
	gateway   *extract.Gateway
	completer llm.Provider
	indexer   noticeIndexer
	events    Broadcaster
	logger    *logger_i.Logger
}

func NewOrchestrator(
	cases caseModel.CaseStore,
	documents docModel.DocumentStore,
	issues rfeModel.IssueStore,
	gateway *extract.Gateway,
	completer llm.Provider,
	indexer noticeIndexer,
	events Broadcaster,
) *Orchestrator {
	return &Orchestrator{
		cases:     cases,
		documents: documents,
		issues:    issues,
		gateway:   gateway,
		completer: completer,
		indexer:   indexer,
		events:    events,
		logger:    logger_i.NewLogger("Analysis Orchestrator"),
	}
}

// AnalyzeCase runs the full pipeline for one case and returns the number of
// issues stored. Progress is persisted at every stage so clients polling the
// case see extracting → analyzing → saving → complete, or failed with a
// reason. Errors are both recorded and returned so the job layer can apply
// its retry policy.
func (o *Orchestrator) AnalyzeCase(ctx context.Context, tenantId string, caseId string) (int, error) {
	log := o.logger.With("caseId", caseId)

	c, ok := o.cases.GetCase(ctx, tenantId, caseId)
	if !ok {
		return 0, fmt.Errorf("case %s: %w", caseId, errs.ErrNotFound)
	}

	o.setStage(ctx, tenantId, caseId, caseModel.StageExtracting)
	noticeText, err := o.extractNotices(ctx, tenantId, caseId)
	if err != nil {
		return 0, o.fail(ctx, tenantId, caseId, err)
	}
	if strings.TrimSpace(noticeText) == "" {
		return 0, o.fail(ctx, tenantId, caseId, &errs.NoExtractableText{CaseId: caseId})
	}

	o.setStage(ctx, tenantId, caseId, caseModel.StageAnalyzing)
	start := time.Now()
	raw, err := o.completer.Complete(ctx, llm.Request{
		SystemPrompt:   analysisSystemPrompt,
		UserPrompt:     analysisUserPromptHeader + noticeText,
		ResponseFormat: llm.FormatJSON,
		Temperature:    config.AnalysisTemperature,
		MaxTokens:      config.AnalysisMaxTokens,
	})
	metrics.CaptureExecutionMetrics("completion", time.Since(start))
	if err != nil {
		return 0, o.fail(ctx, tenantId, caseId, err)
	}
	parsed, err := parseAnalysisResponse(raw)
	if err != nil {
		return 0, o.fail(ctx, tenantId, caseId, err)
	}

	o.setStage(ctx, tenantId, caseId, caseModel.StageSaving)
	issues, evidence := buildIssues(tenantId, caseId, parsed.Sections)
	if err := o.issues.ReplaceCaseIssues(ctx, tenantId, caseId, issues, evidence); err != nil {
		return 0, o.fail(ctx, tenantId, caseId, err)
	}

	if caseModel.Can(c.Status, caseModel.ActionCompleteAnalysis) {
		next, _ := caseModel.Apply(c.Status, caseModel.ActionCompleteAnalysis)
		c.Status = next
		c.UpdatedTime = time.Now()
		if err := o.cases.SaveCase(ctx, c); err != nil {
			return 0, o.fail(ctx, tenantId, caseId, err)
		}
	}

	o.setStage(ctx, tenantId, caseId, caseModel.StageComplete)
	for _, issue := range issues {
		metrics.CountIssueDetected(string(issue.Type))
	}

	if o.indexer != nil {
		if _, err := o.indexer.IndexCaseNotice(ctx, tenantId, caseId, c.VisaType, noticeText); err != nil {
			log.Warn("case notice indexing failed", "error", err.Error())
		}
	}
	o.broadcast(ctx, "case.analyzed", map[string]any{
		"case_id":     caseId,
		"issue_count": len(issues),
	})

	log.Info("analysis complete", "issues", len(issues))
	return len(issues), nil
}

// extractNotices runs the gateway over every notice document. A per-document
// failure is logged and that document skipped; the run only dies if nothing
// at all was extracted.
func (o *Orchestrator) extractNotices(ctx context.Context, tenantId string, caseId string) (string, error) {
	docs, err := o.documents.ListCaseDocuments(ctx, tenantId, caseId, docModel.DocKindNotice)
	if err != nil {
		return "", err
	}

	var texts []string
	for _, doc := range docs {
		text, err := o.gateway.ExtractDocument(ctx, doc)
		if err != nil {
			o.logger.Error("notice extraction failed, skipping document",
				"caseId", caseId, "documentId", doc.Id, "error", err.Error())
			continue
		}
		if strings.TrimSpace(text) != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, noticeSeparator), nil
}

func buildIssues(tenantId string, caseId string, sections []noticeSection) ([]rfeModel.Issue, []rfeModel.EvidenceRequirement) {
	var issues []rfeModel.Issue
	var evidence []rfeModel.EvidenceRequirement
	for i, section := range sections {
		title := strings.TrimSpace(section.Title)
		if title == "" {
			title = fmt.Sprintf("Issue %d", i+1)
		}
		issue := rfeModel.Issue{
			Id:           uuid.NewString(),
			TenantId:     tenantId,
			CaseId:       caseId,
			Position:     i,
			Type:         rfeModel.ParseIssueType(section.SectionType),
			Title:        title,
			OriginalText: section.OriginalText,
			Summary:      section.Summary,
			CitationRef:  section.CfrReference,
			Confidence:   rfeModel.ClampConfidence(section.ConfidenceScore),
		}
		issues = append(issues, issue)

		for j, need := range section.EvidenceNeeded {
			evidence = append(evidence, rfeModel.EvidenceRequirement{
				Id:           uuid.NewString(),
				TenantId:     tenantId,
				CaseId:       caseId,
				IssueId:      issue.Id,
				Priority:     rfeModel.ParsePriority(need.Priority),
				DocumentName: need.DocumentName,
				Description:  need.Description,
				Guidance:     need.Guidance,
				Position:     j,
			})
		}
	}
	return issues, evidence
}

func (o *Orchestrator) setStage(ctx context.Context, tenantId string, caseId string, stage caseModel.ProgressStage) {
	err := o.cases.UpdateProgress(ctx, tenantId, caseId, caseModel.Progress{
		Stage:     stage,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		o.logger.Warn("progress update failed", "caseId", caseId, "stage", string(stage), "error", err.Error())
	}
}

// fail records the terminal failed stage with a human-readable reason and
// hands the original error back for the job layer's retry policy.
func (o *Orchestrator) fail(ctx context.Context, tenantId string, caseId string, cause error) error {
	o.logger.Error("analysis failed", "caseId", caseId, "error", cause.Error())
	err := o.cases.UpdateProgress(ctx, tenantId, caseId, caseModel.Progress{
		Stage:     caseModel.StageFailed,
		Error:     cause.Error(),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		o.logger.Warn("progress update failed", "caseId", caseId, "error", err.Error())
	}
	return cause
}

func (o *Orchestrator) broadcast(ctx context.Context, topic string, message any) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, topic, message); err != nil {
		o.logger.Warn("broadcast failed", "topic", topic, "error", err.Error())
	}
}
