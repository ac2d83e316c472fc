package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/adapter"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/adapter/utils"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/api"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/blob"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/caseModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
)

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// CreateCaseHandler godoc
// @Summary      Create a case
// @Description  Creates a new RFE case in draft status.
// @Tags         Cases
// @Accept       json
// @Produce      json
// @Param        request  body      api.CreateCaseRequest  true  "Case details"
// @Success      201      {object}  caseModel.Case
// @Failure      400      {object}  api.JobResponse  "Invalid request data"
// @Router       /cases [post]
func CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var requestData api.CreateCaseRequest
	if err := decodeBody(r, &requestData); err != nil || requestData.Title == "" || requestData.VisaType == "" {
		logRH.Warn("Bad create case request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "title and visa_type are required")
		return
	}

	now := time.Now()
	newCase := caseModel.Case{
		Id:            utils.GetNewUUID(),
		TenantId:      tenantFromRequest(r),
		Title:         requestData.Title,
		VisaType:      requestData.VisaType,
		Petitioner:    requestData.Petitioner,
		Beneficiary:   requestData.Beneficiary,
		ReceiptNumber: requestData.ReceiptNumber,
		Status:        caseModel.StatusDraft,
		CreatedTime:   now,
		UpdatedTime:   now,
	}
	if err := handlerInstance.svc.Cases.SaveCase(r.Context(), newCase); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, newCase.Id, "could not save case")
		return
	}
	writeJsonResponse(w, http.StatusCreated, newCase)
}

// GetCaseHandler godoc
// @Summary      Get a case
// @Description  Returns the case including its status and analysis progress.
// @Tags         Cases
// @Produce      json
// @Param        id   path      string  true  "Case ID"
// @Success      200  {object}  caseModel.Case
// @Failure      404  {object}  api.JobResponse  "Case not found"
// @Router       /cases/{id} [get]
func GetCaseHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	caseId := utils.GetChiURLParam(r, "id")
	c, ok := handlerInstance.svc.Cases.GetCase(r.Context(), tenantFromRequest(r), caseId)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, caseId, "Case not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, c)
}

// AnalyzeCaseHandler godoc
// @Summary      Start case analysis
// @Description  Advances the case to analyzing and queues the analysis job.
// @Tags         Cases
// @Produce      json
// @Param        id   path      string  true  "Case ID"
// @Success      202  {object}  api.InitJobResponse
// @Failure      404  {object}  api.JobResponse  "Case not found"
// @Failure      409  {object}  api.JobResponse  "Case is not in a state that allows analysis"
// @Router       /cases/{id}/analyze [post]
func AnalyzeCaseHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	tenantId := tenantFromRequest(r)
	caseId := utils.GetChiURLParam(r, "id")

	c, ok := handlerInstance.svc.Cases.GetCase(r.Context(), tenantId, caseId)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, caseId, "Case not found")
		return
	}

	next, err := caseModel.Apply(c.Status, caseModel.ActionStartAnalysis)
	if err != nil {
		WriteErrorResponse(w, http.StatusConflict, caseId, err.Error())
		return
	}
	c.Status = next
	c.UpdatedTime = time.Now()
	if err := handlerInstance.svc.Cases.SaveCase(r.Context(), c); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, caseId, "could not save case")
		return
	}

	jobId, err := enqueueJob(r.Context(), tenantId, jobModel.JobTypeCaseAnalysis, jobModel.JobPayload{CaseId: caseId})
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, caseId, "could not queue analysis")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(jobId))
}

// CaseActionHandler godoc
// @Summary      Apply a case lifecycle action
// @Description  Applies mark_responded, archive or reopen against the case state machine.
// @Tags         Cases
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Case ID"
// @Param        request  body      api.CaseActionRequest  true  "Action to apply"
// @Success      200      {object}  caseModel.Case
// @Failure      404      {object}  api.JobResponse  "Case not found"
// @Failure      409      {object}  api.JobResponse  "Invalid transition"
// @Router       /cases/{id}/action [post]
func CaseActionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	tenantId := tenantFromRequest(r)
	caseId := utils.GetChiURLParam(r, "id")

	var requestData api.CaseActionRequest
	if err := decodeBody(r, &requestData); err != nil || requestData.Action == "" {
		WriteErrorResponse(w, http.StatusBadRequest, caseId, "action is required")
		return
	}

	c, ok := handlerInstance.svc.Cases.GetCase(r.Context(), tenantId, caseId)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, caseId, "Case not found")
		return
	}

	next, err := caseModel.Apply(c.Status, caseModel.CaseAction(requestData.Action))
	if err != nil {
		var invalid *errs.InvalidTransition
		if errors.As(err, &invalid) {
			WriteErrorResponse(w, http.StatusConflict, caseId, err.Error())
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, caseId, err.Error())
		return
	}
	c.Status = next
	c.UpdatedTime = time.Now()
	if err := handlerInstance.svc.Cases.SaveCase(r.Context(), c); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, caseId, "could not save case")
		return
	}
	writeJsonResponse(w, http.StatusOK, c)
}

// UploadDocumentHandler godoc
// @Summary      Upload a case document
// @Description  Receives a notice/evidence/exhibit file and stores it against the case.
// @Tags         Cases
// @Accept       multipart/form-data
// @Produce      json
// @Param        id        path      string  true   "Case ID"
// @Param        kind      formData  string  false  "Document kind: notice, evidence or exhibit (default notice)"
// @Param        document  formData  file    true   "The document file"
// @Success      201  {object}  docModel.SourceDocument
// @Failure      400  {object}  api.JobResponse  "Missing fields or file too large"
// @Router       /cases/{id}/documents [post]
func UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	tenantId := tenantFromRequest(r)
	caseId := utils.GetChiURLParam(r, "id")

	if _, ok := handlerInstance.svc.Cases.GetCase(r.Context(), tenantId, caseId); !ok {
		WriteErrorResponse(w, http.StatusNotFound, caseId, "Case not found")
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, caseId, "File too large or bad request")
		return
	}

	kind := docModel.DocKind(r.FormValue("kind"))
	switch kind {
	case "":
		kind = docModel.DocKindNotice
	case docModel.DocKindNotice, docModel.DocKindEvidence, docModel.DocKindExhibit:
	default:
		WriteErrorResponse(w, http.StatusBadRequest, caseId, "unknown document kind")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, caseId, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	docId := utils.GetNewUUID()
	blobKey := blob.NewKey(docId, fileMetadata.Filename)
	if err := handlerInstance.svc.Blobs.Upload(r.Context(), blobKey, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, caseId, "Storage error")
		return
	}

	doc := docModel.SourceDocument{
		Id:          docId,
		TenantId:    tenantId,
		CaseId:      caseId,
		Name:        fileMetadata.Filename,
		ContentType: fileMetadata.Header.Get("Content-Type"),
		Kind:        kind,
		BlobKey:     blobKey,
		Status:      docModel.DocStatusPending,
		UploadedAt:  time.Now(),
	}
	if err := handlerInstance.svc.Documents.SaveDocument(r.Context(), doc); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, caseId, "could not save document")
		return
	}
	writeJsonResponse(w, http.StatusCreated, doc)
}

// ListIssuesHandler godoc
// @Summary      List case issues
// @Description  Returns the issues produced by the latest analysis run, ordered by position.
// @Tags         Cases
// @Produce      json
// @Param        id   path     string  true  "Case ID"
// @Success      200  {array}  rfeModel.Issue
// @Router       /cases/{id}/issues [get]
func ListIssuesHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	caseId := utils.GetChiURLParam(r, "id")
	issues, err := handlerInstance.svc.Issues.ListCaseIssues(r.Context(), tenantFromRequest(r), caseId)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, caseId, "could not list issues")
		return
	}
	writeJsonResponse(w, http.StatusOK, issues)
}
