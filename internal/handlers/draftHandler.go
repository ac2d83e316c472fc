package handlers

import (
	"errors"
	"net/http"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/adapter"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/adapter/utils"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/api"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
)

// GenerateDraftsHandler godoc
// @Summary      Generate drafts for a case
// @Description  Queues draft generation for every analyzed issue that has no draft yet.
// @Tags         Drafts
// @Produce      json
// @Param        id   path      string  true  "Case ID"
// @Success      202  {object}  api.InitJobResponse
// @Failure      404  {object}  api.JobResponse  "Case not found"
// @Router       /cases/{id}/drafts [post]
func GenerateDraftsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	tenantId := tenantFromRequest(r)
	caseId := utils.GetChiURLParam(r, "id")

	if _, ok := handlerInstance.svc.Cases.GetCase(r.Context(), tenantId, caseId); !ok {
		WriteErrorResponse(w, http.StatusNotFound, caseId, "Case not found")
		return
	}

	jobId, err := enqueueJob(r.Context(), tenantId, jobModel.JobTypeDraftGeneration, jobModel.JobPayload{CaseId: caseId})
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, caseId, "could not queue draft generation")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(jobId))
}

// RegenerateDraftHandler godoc
// @Summary      Regenerate a draft for one issue
// @Description  Queues generation of the next draft version. Prior versions are kept.
// @Tags         Drafts
// @Produce      json
// @Param        id   path      string  true  "Issue ID"
// @Success      202  {object}  api.InitJobResponse
// @Failure      404  {object}  api.JobResponse  "Issue not found"
// @Router       /issues/{id}/drafts/regenerate [post]
func RegenerateDraftHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	tenantId := tenantFromRequest(r)
	issueId := utils.GetChiURLParam(r, "id")

	issue, ok := handlerInstance.svc.Issues.GetIssue(r.Context(), tenantId, issueId)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, issueId, "Issue not found")
		return
	}

	jobId, err := enqueueJob(r.Context(), tenantId, jobModel.JobTypeDraftGeneration, jobModel.JobPayload{
		CaseId:  issue.CaseId,
		IssueId: issueId,
	})
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, issueId, "could not queue regeneration")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(jobId))
}

// ListDraftsHandler godoc
// @Summary      List an issue's draft versions
// @Tags         Drafts
// @Produce      json
// @Param        id   path     string  true  "Issue ID"
// @Success      200  {array}  rfeModel.DraftResponse
// @Router       /issues/{id}/drafts [get]
func ListDraftsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	issueId := utils.GetChiURLParam(r, "id")
	drafts, err := handlerInstance.svc.Drafts.ListIssueDrafts(r.Context(), tenantFromRequest(r), issueId)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, issueId, "could not list drafts")
		return
	}
	writeJsonResponse(w, http.StatusOK, drafts)
}

// EditDraftHandler godoc
// @Summary      Save edited draft content
// @Tags         Drafts
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Draft ID"
// @Param        request  body      api.EditDraftRequest  true  "Editing user and content"
// @Success      200      {object}  rfeModel.DraftResponse
// @Failure      404      {object}  api.JobResponse  "Draft not found"
// @Failure      409      {object}  api.ErrorResponse  "Locked by someone else"
// @Router       /drafts/{id} [put]
func EditDraftHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	tenantId := tenantFromRequest(r)
	draftId := utils.GetChiURLParam(r, "id")

	var requestData api.EditDraftRequest
	if err := decodeBody(r, &requestData); err != nil || requestData.EditedContent == "" {
		WriteErrorResponse(w, http.StatusBadRequest, draftId, "edited_content is required")
		return
	}

	if err := handlerInstance.svc.Locks.CanEdit(r.Context(), tenantId, draftId, requestData.UserId); err != nil {
		var conflict *errs.LockConflict
		if errors.As(err, &conflict) {
			writeJsonResponse(w, http.StatusConflict, api.ErrorResponse{
				Code:    http.StatusConflict,
				Message: err.Error(),
			})
			return
		}
		WriteErrorResponse(w, http.StatusNotFound, draftId, "Draft not found")
		return
	}

	draft, ok := handlerInstance.svc.Drafts.GetDraft(r.Context(), tenantId, draftId)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, draftId, "Draft not found")
		return
	}
	draft.EditedContent = requestData.EditedContent
	if err := handlerInstance.svc.Drafts.SaveDraft(r.Context(), draft); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, draftId, "could not save draft")
		return
	}
	writeJsonResponse(w, http.StatusOK, draft)
}

// ApproveDraftHandler godoc
// @Summary      Approve a draft
// @Description  Marks the draft approved and finalizes its content.
// @Tags         Drafts
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true   "Draft ID"
// @Param        request  body      api.ApproveDraftRequest  false  "Optional reviewer feedback"
// @Success      200      {object}  rfeModel.DraftResponse
// @Failure      404      {object}  api.JobResponse  "Draft not found"
// @Router       /drafts/{id}/approve [post]
func ApproveDraftHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	draftId := utils.GetChiURLParam(r, "id")

	var requestData api.ApproveDraftRequest
	_ = decodeBody(r, &requestData)

	draft, err := handlerInstance.svc.Drafting.Approve(r.Context(), tenantFromRequest(r), draftId, requestData.Feedback)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, draftId, "Draft not found")
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, draftId, "could not approve draft")
		return
	}
	writeJsonResponse(w, http.StatusOK, draft)
}

// LockDraftHandler godoc
// @Summary      Acquire the edit lock on a draft
// @Description  Advisory lock for collaborative editing. Stale locks (5 min) are taken over.
// @Tags         Collaboration
// @Accept       json
// @Produce      json
// @Param        id       path      string           true  "Draft ID"
// @Param        request  body      api.LockRequest  true  "Requesting user"
// @Success      200      {object}  map[string]string
// @Failure      404      {object}  api.JobResponse  "Draft not found"
// @Failure      409      {object}  api.ErrorResponse  "Locked by someone else"
// @Router       /drafts/{id}/lock [post]
func LockDraftHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	draftId := utils.GetChiURLParam(r, "id")

	var requestData api.LockRequest
	if err := decodeBody(r, &requestData); err != nil || requestData.UserId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, draftId, "user_id is required")
		return
	}

	err := handlerInstance.svc.Locks.Acquire(r.Context(), tenantFromRequest(r), draftId, requestData.UserId)
	if err != nil {
		var conflict *errs.LockConflict
		if errors.As(err, &conflict) {
			writeJsonResponse(w, http.StatusConflict, api.ErrorResponse{
				Code:    http.StatusConflict,
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, errs.ErrNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, draftId, "Draft not found")
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, draftId, "could not acquire lock")
		return
	}
	writeJsonResponse(w, http.StatusOK, map[string]string{"locked_by": requestData.UserId})
}

// UnlockDraftHandler godoc
// @Summary      Release the edit lock on a draft
// @Description  Releases the lock if held by the caller or an admin; otherwise a silent no-op.
// @Tags         Collaboration
// @Accept       json
// @Produce      json
// @Param        id       path      string           true  "Draft ID"
// @Param        request  body      api.LockRequest  true  "Releasing user"
// @Success      204      "Released or no-op"
// @Failure      404      {object}  api.JobResponse  "Draft not found"
// @Router       /drafts/{id}/lock [delete]
func UnlockDraftHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	draftId := utils.GetChiURLParam(r, "id")

	var requestData api.LockRequest
	if err := decodeBody(r, &requestData); err != nil || requestData.UserId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, draftId, "user_id is required")
		return
	}

	err := handlerInstance.svc.Locks.Release(r.Context(), tenantFromRequest(r), draftId, requestData.UserId, requestData.IsAdmin)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, draftId, "Draft not found")
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, draftId, "could not release lock")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnsubscribeHandler godoc
// @Summary      Leave the collaborative session
// @Description  Releases every lock the departing user still holds.
// @Tags         Collaboration
// @Accept       json
// @Param        request  body  api.LockRequest  true  "Departing user"
// @Success      204  "Unsubscribed"
// @Router       /collab/unsubscribe [post]
func UnsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var requestData api.LockRequest
	if err := decodeBody(r, &requestData); err != nil || requestData.UserId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "user_id is required")
		return
	}

	handlerInstance.svc.Locks.Unsubscribe(r.Context(), tenantFromRequest(r), requestData.UserId)
	w.WriteHeader(http.StatusNoContent)
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a background job by its ID.
// @Tags         Jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.JobResponse  "Job not found"
// @Router       /jobs/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceFromContext(r.Context()))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}
