package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/collab"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/store"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/rfeModel"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

func setupEditEnv(t *testing.T) *store.InMemoryDraftStore {
	t.Helper()
	logger_i.Init()

	drafts := store.NewInMemoryDraftStore()
	require.NoError(t, drafts.InsertDraft(context.Background(), rfeModel.DraftResponse{
		Id: "d-1", TenantId: "default", IssueId: "issue-a", Version: 1,
		AIGeneratedContent: "generated rebuttal",
	}))
	InitHandlers(Services{
		Drafts: drafts,
		Locks:  collab.NewLockManager(drafts, nil),
	})
	// InitHandlers is once-per-process; later calls keep the first registry,
	// so reset the draft store it holds for each test
	handlerInstance.svc.Drafts = drafts
	handlerInstance.svc.Locks = collab.NewLockManager(drafts, nil)
	return drafts
}

func putDraftEdit(body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Put("/drafts/{id}", EditDraftHandler)

	req := httptest.NewRequest(http.MethodPut, "/drafts/d-1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestEditDraftSavesContent(t *testing.T) {
	drafts := setupEditEnv(t)

	rec := putDraftEdit(`{"user_id":"alice","edited_content":"revised rebuttal"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	d, ok := drafts.GetDraft(context.Background(), "default", "d-1")
	require.True(t, ok)
	assert.Equal(t, "revised rebuttal", d.EditedContent)
}

func TestEditDraftBlockedByAnotherHolder(t *testing.T) {
	drafts := setupEditEnv(t)
	d, _ := drafts.GetDraft(context.Background(), "default", "d-1")
	d.LockedBy = "alice"
	d.LockedAt = time.Now()
	require.NoError(t, drafts.SaveDraft(context.Background(), d))

	rec := putDraftEdit(`{"user_id":"bob","edited_content":"hijacked"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
	d, _ = drafts.GetDraft(context.Background(), "default", "d-1")
	assert.Empty(t, d.EditedContent)
}

func TestEditDraftAllowedForHolder(t *testing.T) {
	drafts := setupEditEnv(t)
	d, _ := drafts.GetDraft(context.Background(), "default", "d-1")
	d.LockedBy = "alice"
	d.LockedAt = time.Now()
	require.NoError(t, drafts.SaveDraft(context.Background(), d))

	rec := putDraftEdit(`{"user_id":"alice","edited_content":"holder edit"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	d, _ = drafts.GetDraft(context.Background(), "default", "d-1")
	assert.Equal(t, "holder edit", d.EditedContent)
}

func TestEditDraftAllowedWhenLockIsStale(t *testing.T) {
	drafts := setupEditEnv(t)
	d, _ := drafts.GetDraft(context.Background(), "default", "d-1")
	d.LockedBy = "alice"
	d.LockedAt = time.Now().Add(-6 * time.Minute)
	require.NoError(t, drafts.SaveDraft(context.Background(), d))

	rec := putDraftEdit(`{"user_id":"bob","edited_content":"stale takeover edit"}`)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestEditDraftRequiresContent(t *testing.T) {
	setupEditEnv(t)

	rec := putDraftEdit(`{"user_id":"alice"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
