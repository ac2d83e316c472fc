package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/adapter"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

var logRH *logger_i.Logger

// defaultTenant is used when no X-Tenant-Id header is sent; single-tenant
// deployments never set the header.
const defaultTenant = "default"

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logRH.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

func tenantFromRequest(r *http.Request) string {
	if tenant := r.Header.Get("X-Tenant-Id"); tenant != "" {
		return tenant
	}
	return defaultTenant
}

func traceFromContext(ctx context.Context) string {
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return traceId
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.Warn("context error", "error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
