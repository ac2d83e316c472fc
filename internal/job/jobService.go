// Package job owns the queue plumbing between the HTTP surface and the
// worker pool.
package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/metrics"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
	}
}

// Enqueue persists the job as QUEUED and hands it to the worker pool. The
// dispatcher signal is non-blocking; if nobody is listening a worker already
// exists.
func (s *Service) Enqueue(ctx context.Context, j jobModel.Job) error {
	j.Status = jobModel.JobStatusQueued
	j.CreatedTime = time.Now()
	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		return err
	}

	s.JobChannel <- j
	metrics.IncrementJobsInQueue()

	if atomic.AddInt64(&s.RequestCount, 1)%10 == 0 {
		select {
		case s.DispatcherChannel <- true:
			metrics.StartDispatcherSignalCount()
		default:
		}
	}
	return nil
}
