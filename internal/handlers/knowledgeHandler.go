package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/adapter"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/adapter/utils"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/api"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/blob"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/retrieval"
)

// CreateKnowledgeHandler godoc
// @Summary      Add a knowledge document
// @Description  Stores a knowledge document with inline content and queues it for indexing.
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Param        request  body      api.CreateKnowledgeRequest  true  "Knowledge document"
// @Success      202      {object}  api.InitJobResponse
// @Failure      400      {object}  api.JobResponse  "Invalid request data"
// @Router       /knowledge [post]
func CreateKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var requestData api.CreateKnowledgeRequest
	if err := decodeBody(r, &requestData); err != nil || requestData.Title == "" || requestData.DocType == "" {
		logRH.Warn("Bad knowledge request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "title and doc_type are required")
		return
	}

	doc := docModel.KnowledgeDocument{
		Id:          utils.GetNewUUID(),
		TenantId:    tenantFromRequest(r),
		Title:       requestData.Title,
		DocType:     requestData.DocType,
		VisaType:    requestData.VisaType,
		Category:    requestData.Category,
		Content:     requestData.Content,
		UpdatedTime: time.Now(),
	}
	saveAndQueueKnowledge(w, r, doc)
}

// UploadKnowledgeHandler godoc
// @Summary      Upload a knowledge file
// @Description  Receives a PDF/DOCX/text file, stores it and queues extraction plus indexing.
// @Tags         Knowledge
// @Accept       multipart/form-data
// @Produce      json
// @Param        title      formData  string  true   "Display title"
// @Param        doc_type   formData  string  true   "Document type, e.g. policy_memo, template"
// @Param        visa_type  formData  string  false  "Visa category tag"
// @Param        category   formData  string  false  "RFE category tag"
// @Param        document   formData  file    true   "The file to index"
// @Success      202  {object}  api.InitJobResponse
// @Failure      400  {object}  api.JobResponse  "Missing fields or file too large"
// @Router       /knowledge/upload [post]
func UploadKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	title := r.FormValue("title")
	docType := r.FormValue("doc_type")
	if title == "" || docType == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "title and doc_type are required")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, title, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	docId := utils.GetNewUUID()
	blobKey := blob.NewKey(docId, fileMetadata.Filename)
	if err := handlerInstance.svc.Blobs.Upload(r.Context(), blobKey, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, title, "Storage error")
		return
	}

	doc := docModel.KnowledgeDocument{
		Id:          docId,
		TenantId:    tenantFromRequest(r),
		Title:       title,
		DocType:     docType,
		VisaType:    r.FormValue("visa_type"),
		Category:    r.FormValue("category"),
		BlobKey:     blobKey,
		ContentType: fileMetadata.Header.Get("Content-Type"),
		UpdatedTime: time.Now(),
	}
	saveAndQueueKnowledge(w, r, doc)
}

func saveAndQueueKnowledge(w http.ResponseWriter, r *http.Request, doc docModel.KnowledgeDocument) {
	if err := handlerInstance.svc.Knowledge.SaveKnowledgeDocument(r.Context(), doc); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, doc.Id, "could not save knowledge document")
		return
	}
	jobId, err := enqueueJob(r.Context(), doc.TenantId, jobModel.JobTypeKnowledgeIngest, jobModel.JobPayload{KnowledgeDocId: doc.Id})
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, doc.Id, "could not queue indexing")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(jobId))
}

// SearchHandler godoc
// @Summary      Search the knowledge base
// @Description  Semantic search over indexed knowledge chunks with optional visa/category filters.
// @Tags         Knowledge
// @Produce      json
// @Param        q          query     string  true   "Free-text query"
// @Param        visa_type  query     string  false  "Visa category filter"
// @Param        category   query     string  false  "RFE category filter"
// @Param        limit      query     int     false  "Max results (default 10)"
// @Success      200  {object}  api.SearchResponse
// @Router       /knowledge/search [get]
func SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	hits, err := handlerInstance.svc.Retrieval.KnowledgeSearch(r.Context(), tenantFromRequest(r), query, retrieval.Filters{
		VisaType: r.URL.Query().Get("visa_type"),
		Category: r.URL.Query().Get("category"),
	}, limit)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadGateway, "", "search failed")
		return
	}

	response := api.SearchResponse{Query: query, Results: []api.SearchResult{}}
	for _, hit := range hits {
		result := api.SearchResult{
			Content:    hit.Chunk.Content,
			Similarity: hit.Similarity,
			DocumentId: hit.Chunk.DocumentId,
			DocType:    hit.Chunk.Metadata.DocType,
			VisaType:   hit.Chunk.Metadata.VisaType,
			Category:   hit.Chunk.Metadata.Category,
		}
		if hit.Document != nil {
			result.DocumentTitle = hit.Document.Title
		}
		response.Results = append(response.Results, result)
	}
	writeJsonResponse(w, http.StatusOK, response)
}

// SimilarCasesHandler godoc
// @Summary      Find similar cases
// @Description  Returns past cases whose RFE notices read like this case's, best match per case.
// @Tags         Cases
// @Produce      json
// @Param        id     path      string  true   "Case ID"
// @Param        limit  query     int     false  "Max distinct cases (default 10)"
// @Success      200  {object}  api.SimilarCasesResponse
// @Failure      404  {object}  api.JobResponse  "Case not found or has no extracted notice"
// @Router       /cases/{id}/similar [get]
func SimilarCasesHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	tenantId := tenantFromRequest(r)
	caseId := utils.GetChiURLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if _, ok := handlerInstance.svc.Cases.GetCase(r.Context(), tenantId, caseId); !ok {
		WriteErrorResponse(w, http.StatusNotFound, caseId, "Case not found")
		return
	}

	query := noticeQueryForCase(r, tenantId, caseId)
	if query == "" {
		WriteErrorResponse(w, http.StatusNotFound, caseId, "Case has no extracted notice text")
		return
	}

	matches, err := handlerInstance.svc.Retrieval.SimilarCases(r.Context(), tenantId, caseId, query, limit)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadGateway, caseId, "similar case search failed")
		return
	}

	response := api.SimilarCasesResponse{CaseId: caseId, Matches: []api.SimilarCase{}}
	for _, m := range matches {
		response.Matches = append(response.Matches, api.SimilarCase{
			CaseId:     m.CaseId,
			Similarity: m.Similarity,
			Excerpt:    m.Chunk.Content,
		})
	}
	writeJsonResponse(w, http.StatusOK, response)
}

// noticeQueryForCase concatenates the extracted text of the case's notice
// documents, truncated by the embedding adapter downstream.
func noticeQueryForCase(r *http.Request, tenantId string, caseId string) string {
	docs, err := handlerInstance.svc.Documents.ListCaseDocuments(r.Context(), tenantId, caseId, docModel.DocKindNotice)
	if err != nil {
		return ""
	}
	query := ""
	for _, doc := range docs {
		if doc.Status == docModel.DocStatusCompleted && doc.ExtractedText != "" {
			if query != "" {
				query += " "
			}
			query += doc.ExtractedText
		}
	}
	return query
}
