package adapter

import (
	"fmt"
	"time"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/api"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("jobs/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:     string(job.Status),
		IssueCount: job.JobPayload.IssueCount,
		DraftCount: job.JobPayload.DraftCount,
		ChunkCount: job.JobPayload.ChunkCount,
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
