package handlers

import (
	"context"
	"sync"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/adapter/utils"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/collab"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/blob"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/caseModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/rfeModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/drafting"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/job"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/retrieval"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

var (
	handlerInstance *serviceRegistry //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

// Services is everything the HTTP surface needs. Wired once in main.
type Services struct {
	JobService *job.Service
	Cases      caseModel.CaseStore
	Documents  docModel.DocumentStore
	Knowledge  docModel.KnowledgeStore
	Issues     rfeModel.IssueStore
	Drafts     rfeModel.DraftStore
	Blobs      blob.Storage
	Retrieval  *retrieval.Engine
	Drafting   *drafting.Engine
	Locks      *collab.LockManager
}

type serviceRegistry struct {
	svc Services
}

func InitHandlers(services Services) {
	once.Do(func() {
		handlerInstance = &serviceRegistry{svc: services}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting request handlers")
	})
}

// enqueueJob hands a background job to the worker pool and returns its id.
func enqueueJob(ctx context.Context, tenantId string, jobType jobModel.JobType, payload jobModel.JobPayload) (string, error) {
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	newJob := jobModel.Job{
		Id:         utils.GetNewUUID(),
		TenantId:   tenantId,
		TraceId:    traceId,
		JobType:    jobType,
		JobPayload: payload,
	}
	logJH.Info("Enqueueing job", "jobId", newJob.Id, "jobType", string(jobType), "traceId", traceId)
	if err := handlerInstance.svc.JobService.Enqueue(ctx, newJob); err != nil {
		return "", err
	}
	return newJob.Id, nil
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.svc.JobService.JobStore.GetJob(ctxC, id)
	}
	return result, false
}
