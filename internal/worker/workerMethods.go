package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	jobmodel "github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/metrics"
)

func executeJob(j jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(j.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, j.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobExecutionBudget)
	defer cancel()
	log := logger.With("traceId", j.TraceId, "jobId", j.Id)
	log.Debug("Processing job", "jobType", string(j.JobType))

	saveJobState(ctx, j, jobmodel.JobStatusRunning)

	// External-service failures are retried with exponential backoff; a
	// missing case/issue/document discards the job instead.
	var err error
	backoff := config.JobInitialBackoff
	for attempt := 1; attempt <= config.JobMaxAttempts; attempt++ {
		j.Attempts = attempt
		err = runJob(ctx, &j)
		if err == nil || !errs.IsRetryable(err) {
			break
		}
		if attempt < config.JobMaxAttempts {
			log.Warn("Transient failure, retrying", "attempt", attempt, "error", err.Error())
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	j.EndTime = time.Now()
	switch {
	case err == nil:
		j.CurrentStep = jobmodel.Complete
		saveJobState(ctx, j, jobmodel.JobStatusComplete)
	case errors.Is(err, errs.ErrNotFound):
		log.Warn("Job references missing record, discarding", "error", err.Error())
		j.CurrentStep = jobmodel.Error
		j.Error = jobmodel.JobError{Message: err.Error()}
		saveJobState(ctx, j, jobmodel.JobStatusDiscarded)
	default:
		log.Error("Job failed", "error", err.Error())
		j.CurrentStep = jobmodel.Error
		j.Error = jobmodel.JobError{Message: err.Error(), Retry: errs.IsRetryable(err)}
		saveJobState(ctx, j, jobmodel.JobStatusError)
	}
}

func runJob(ctx context.Context, j *jobmodel.Job) error {
	switch j.JobType {
	case jobmodel.JobTypeCaseAnalysis:
		j.CurrentStep = jobmodel.AnalysisInit
		count, err := _pipelines.Analysis.AnalyzeCase(ctx, j.TenantId, j.JobPayload.CaseId)
		if err != nil {
			return err
		}
		j.JobPayload.IssueCount = count
		return nil

	case jobmodel.JobTypeDraftGeneration:
		j.CurrentStep = jobmodel.DraftingInit
		if j.JobPayload.IssueId != "" {
			if _, err := _pipelines.Drafting.RegenerateIssue(ctx, j.TenantId, j.JobPayload.IssueId); err != nil {
				return err
			}
			j.JobPayload.DraftCount = 1
			return nil
		}
		count, err := _pipelines.Drafting.GenerateForCase(ctx, j.TenantId, j.JobPayload.CaseId)
		if err != nil {
			return err
		}
		j.JobPayload.DraftCount = count
		return nil

	case jobmodel.JobTypeKnowledgeIngest:
		j.CurrentStep = jobmodel.IngestProcessing
		doc, ok := _pipelines.Knowledge.GetKnowledgeDocument(ctx, j.TenantId, j.JobPayload.KnowledgeDocId)
		if !ok {
			return fmt.Errorf("knowledge document %s: %w", j.JobPayload.KnowledgeDocId, errs.ErrNotFound)
		}
		count, err := _pipelines.Ingest.IngestKnowledgeDocument(ctx, doc)
		if err != nil {
			return err
		}
		j.JobPayload.ChunkCount = count
		return nil

	default:
		return fmt.Errorf("unknown job type %q: %w", j.JobType, errs.ErrNotFound)
	}
}

func saveJobState(ctx context.Context, j jobmodel.Job, jobStatus jobmodel.JobStatus) {
	j.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, j); err != nil {
		logger.Error("Failed to update job status", "err", err)
	}
}
