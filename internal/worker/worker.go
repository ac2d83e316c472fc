// Package worker is the dynamic pool that executes queued jobs. Workers are
// created on dispatcher signals up to a ceiling and retire when idle.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/analysis"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/drafting"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/job"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/metrics"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

// Pipelines are the domain services a worker can drive.
type Pipelines struct {
	Analysis  *analysis.Orchestrator
	Drafting  *drafting.Engine
	Ingest    knowledgeIngester
	Knowledge docModel.KnowledgeStore
}

type knowledgeIngester interface {
	IngestKnowledgeDocument(ctx context.Context, doc docModel.KnowledgeDocument) (int, error)
}

var (
	_jobService        *job.Service
	_pipelines         Pipelines
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logger_i.Logger
	minWorkerCount     = config.MinWorkerCount
)

func InitServices(jobService *job.Service, pipelines Pipelines) {
	_jobService = jobService
	_pipelines = pipelines
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	go dispatcher()
}

func dispatcher() {
	createWorker()
	logger.Info("Dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
			logger.Info("Creating new worker", "WorkerCount :", currentWorkerCount)
			createWorker()
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	go worker()
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	logger.Info("Created new worker")
}

func worker() {
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			executeJob(currentJob)
			metrics.DecrementJobsInQueue()

		case <-stopWorkerChannel:
			removeWorker("Stop worker signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			if atomic.LoadInt64(&minWorkerCount) > 1 {
				removeWorker("Idle worker timeout - Removed worker")
				return
			}
		}
	}
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}
