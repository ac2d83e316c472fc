package store

import (
	"context"
	"encoding/json"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/redisStore"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisJobStore(ctx context.Context) *RedisJobStore {
	redis := redisStore.GetRedisStore(ctx, config.RedisJobStore)
	if redis == nil {
		return nil
	}
	return &RedisJobStore{
		store:  redis,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "jobId", job.Id)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, job.Id, data, config.RedisJobStoreTTL)
	if err == nil {
		log.Debug("Saved job to Redis")
	}
	return err
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "jobId", jobId)
	val, err := s.store.Get(ctx, jobId)
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("Error reading job from Redis", "error", err.Error())
		return job, false
	}

	if err := json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("Stored job is not valid JSON", "error", err.Error())
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	err := s.store.Del(ctx, jobID)
	if err != nil {
		s.logger.Error("Error deleting job from Redis", "jobId", jobID, "error", err.Error())
		return
	}
	s.logger.Debug("Job deleted from Redis", "jobId", jobID)
}

func TestJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
