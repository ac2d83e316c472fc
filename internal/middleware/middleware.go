package middleware

import (
	"net/http"
	"strconv"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/handlers"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/metrics"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
	id           string
}

var GetHandler = Wrap(handlers.GetHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)

var CreateCaseHandler = Wrap(handlers.CreateCaseHandler)
var GetCaseHandler = Wrap(handlers.GetCaseHandler)
var AnalyzeCaseHandler = Wrap(handlers.AnalyzeCaseHandler)
var CaseActionHandler = Wrap(handlers.CaseActionHandler)
var UploadDocumentHandler = Wrap(handlers.UploadDocumentHandler)
var ListIssuesHandler = Wrap(handlers.ListIssuesHandler)
var SimilarCasesHandler = Wrap(handlers.SimilarCasesHandler)

var CreateKnowledgeHandler = Wrap(handlers.CreateKnowledgeHandler)
var UploadKnowledgeHandler = Wrap(handlers.UploadKnowledgeHandler)
var SearchHandler = Wrap(handlers.SearchHandler)

var GenerateDraftsHandler = Wrap(handlers.GenerateDraftsHandler)
var RegenerateDraftHandler = Wrap(handlers.RegenerateDraftHandler)
var ListDraftsHandler = Wrap(handlers.ListDraftsHandler)
var EditDraftHandler = Wrap(handlers.EditDraftHandler)
var ApproveDraftHandler = Wrap(handlers.ApproveDraftHandler)

var LockDraftHandler = Wrap(handlers.LockDraftHandler)
var UnlockDraftHandler = Wrap(handlers.UnlockDraftHandler)
var UnsubscribeHandler = Wrap(handlers.UnsubscribeHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}
func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Info("New request received")
	re = injectTrace(re)
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re //stop if auth fails
	}
	re = rateLimiter(re)
	return re
}
