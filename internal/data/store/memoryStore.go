// Package store holds the persistence implementations behind the domain
// store interfaces. The in-memory variants back small deployments and tests;
// job state can alternatively live in Redis.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/caseModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/rfeModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
)

func scoped(tenantId string, id string) string {
	return tenantId + "/" + id
}

type InMemoryCaseStore struct {
	mu    sync.RWMutex
	cases map[string]caseModel.Case
}

func NewInMemoryCaseStore() *InMemoryCaseStore {
	return &InMemoryCaseStore{cases: make(map[string]caseModel.Case)}
}

func (s *InMemoryCaseStore) GetCase(ctx context.Context, tenantId string, caseId string) (caseModel.Case, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[scoped(tenantId, caseId)]
	return c, ok
}

func (s *InMemoryCaseStore) SaveCase(ctx context.Context, c caseModel.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[scoped(c.TenantId, c.Id)] = c
	return nil
}

func (s *InMemoryCaseStore) UpdateProgress(ctx context.Context, tenantId string, caseId string, p caseModel.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[scoped(tenantId, caseId)]
	if !ok {
		return errs.ErrNotFound
	}
	c.Progress = p
	s.cases[scoped(tenantId, caseId)] = c
	return nil
}

func (s *InMemoryCaseStore) ListCases(ctx context.Context, tenantId string) []caseModel.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []caseModel.Case
	for _, c := range s.cases {
		if c.TenantId == tenantId {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedTime.Before(out[j].CreatedTime) })
	return out
}

type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]docModel.SourceDocument
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{docs: make(map[string]docModel.SourceDocument)}
}

func (s *InMemoryDocumentStore) GetDocument(ctx context.Context, tenantId string, docId string) (docModel.SourceDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[scoped(tenantId, docId)]
	return d, ok
}

func (s *InMemoryDocumentStore) SaveDocument(ctx context.Context, doc docModel.SourceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[scoped(doc.TenantId, doc.Id)] = doc
	return nil
}

func (s *InMemoryDocumentStore) ListCaseDocuments(ctx context.Context, tenantId string, caseId string, kind docModel.DocKind) ([]docModel.SourceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []docModel.SourceDocument
	for _, d := range s.docs {
		if d.TenantId != tenantId || d.CaseId != caseId {
			continue
		}
		if kind != "" && d.Kind != kind {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

type InMemoryKnowledgeStore struct {
	mu   sync.RWMutex
	docs map[string]docModel.KnowledgeDocument
}

func NewInMemoryKnowledgeStore() *InMemoryKnowledgeStore {
	return &InMemoryKnowledgeStore{docs: make(map[string]docModel.KnowledgeDocument)}
}

func (s *InMemoryKnowledgeStore) GetKnowledgeDocument(ctx context.Context, tenantId string, docId string) (docModel.KnowledgeDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[scoped(tenantId, docId)]
	return d, ok
}

func (s *InMemoryKnowledgeStore) SaveKnowledgeDocument(ctx context.Context, doc docModel.KnowledgeDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[scoped(doc.TenantId, doc.Id)] = doc
	return nil
}

type InMemoryIssueStore struct {
	mu       sync.RWMutex
	issues   map[string]rfeModel.Issue
	evidence map[string]rfeModel.EvidenceRequirement
}

func NewInMemoryIssueStore() *InMemoryIssueStore {
	return &InMemoryIssueStore{
		issues:   make(map[string]rfeModel.Issue),
		evidence: make(map[string]rfeModel.EvidenceRequirement),
	}
}

func (s *InMemoryIssueStore) ReplaceCaseIssues(ctx context.Context, tenantId string, caseId string, issues []rfeModel.Issue, evidence []rfeModel.EvidenceRequirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, issue := range s.issues {
		if issue.TenantId == tenantId && issue.CaseId == caseId {
			delete(s.issues, key)
		}
	}
	for key, ev := range s.evidence {
		if ev.TenantId == tenantId && ev.CaseId == caseId {
			delete(s.evidence, key)
		}
	}
	for _, issue := range issues {
		s.issues[scoped(tenantId, issue.Id)] = issue
	}
	for _, ev := range evidence {
		s.evidence[scoped(tenantId, ev.Id)] = ev
	}
	return nil
}

func (s *InMemoryIssueStore) ListCaseIssues(ctx context.Context, tenantId string, caseId string) ([]rfeModel.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rfeModel.Issue
	for _, issue := range s.issues {
		if issue.TenantId == tenantId && issue.CaseId == caseId {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *InMemoryIssueStore) GetIssue(ctx context.Context, tenantId string, issueId string) (rfeModel.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issue, ok := s.issues[scoped(tenantId, issueId)]
	return issue, ok
}

func (s *InMemoryIssueStore) ListIssueEvidence(ctx context.Context, tenantId string, issueId string) ([]rfeModel.EvidenceRequirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rfeModel.EvidenceRequirement
	for _, ev := range s.evidence {
		if ev.TenantId == tenantId && ev.IssueId == issueId {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

type InMemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string]rfeModel.DraftResponse
}

func NewInMemoryDraftStore() *InMemoryDraftStore {
	return &InMemoryDraftStore{drafts: make(map[string]rfeModel.DraftResponse)}
}

func (s *InMemoryDraftStore) ListIssueDrafts(ctx context.Context, tenantId string, issueId string) ([]rfeModel.DraftResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rfeModel.DraftResponse
	for _, d := range s.drafts {
		if d.TenantId == tenantId && d.IssueId == issueId {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *InMemoryDraftStore) InsertDraft(ctx context.Context, d rfeModel.DraftResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[scoped(d.TenantId, d.Id)] = d
	return nil
}

func (s *InMemoryDraftStore) GetDraft(ctx context.Context, tenantId string, draftId string) (rfeModel.DraftResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[scoped(tenantId, draftId)]
	return d, ok
}

func (s *InMemoryDraftStore) SaveDraft(ctx context.Context, d rfeModel.DraftResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[scoped(d.TenantId, d.Id)] = d
	return nil
}
