// Package retrieval answers "find the k most relevant knowledge chunks for
// this query". One engine backs three callers: knowledge search, RAG context
// for drafting, and similar-case discovery.
package retrieval

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/metrics"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/embedding"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

type Filters struct {
	VisaType string
	Category string
}

// Result is one ranked chunk. Similarity is 1 - cosine distance, rounded to
// 4 decimals.
type Result struct {
	Chunk      docModel.Chunk `json:"chunk"`
	Similarity float64        `json:"similarity"`
}

// KnowledgeHit is the display-friendly shape for plain knowledge search: the
// ranked chunk plus its resolved parent document.
type KnowledgeHit struct {
	Result
	Document *docModel.KnowledgeDocument `json:"document,omitempty"`
}

// CaseMatch is the best-scoring chunk for one distinct case.
type CaseMatch struct {
	CaseId     string         `json:"case_id"`
	Similarity float64        `json:"similarity"`
	Chunk      docModel.Chunk `json:"chunk"`
}

type Engine struct {
	embedder  embedding.Embedder
	vectors   vectorDB.Store
	knowledge docModel.KnowledgeStore
	overFetch int
	logger    *logger_i.Logger
}

func NewEngine(embedder embedding.Embedder, vectors vectorDB.Store, knowledge docModel.KnowledgeStore, overFetch int) *Engine {
	if overFetch < 1 {
		overFetch = config.SimilarCaseOverFetch
	}
	return &Engine{
		embedder:  embedder,
		vectors:   vectors,
		knowledge: knowledge,
		overFetch: overFetch,
		logger:    logger_i.NewLogger("Retrieval Engine"),
	}
}

// Search embeds the query and returns up to limit ranked knowledge chunks.
// An empty query short-circuits to an empty result with no external call.
func (e *Engine) Search(ctx context.Context, tenantId string, query string, f Filters, limit int) ([]Result, error) {
	return e.search(ctx, config.KnowledgeCollection, tenantId, query, f, limit)
}

func (e *Engine) search(ctx context.Context, collection string, tenantId string, query string, f Filters, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = config.DefaultSearchLimit
	}

	start := time.Now()
	vec, err := e.embedder.GetEmbedding(ctx, embedding.Truncate(query))
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return nil, err
	}

	start = time.Now()
	matches, err := e.vectors.Query(ctx, collection, vec, vectorDB.Filter{
		TenantId: tenantId,
		VisaType: f.VisaType,
		Category: f.Category,
	}, uint64(limit))
	metrics.CaptureExecutionMetrics("vector_search", time.Since(start))
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Chunk:      m.Chunk,
			Similarity: roundSimilarity(m.Distance),
		})
	}
	return results, nil
}

// KnowledgeSearch resolves each hit's parent knowledge document for display.
func (e *Engine) KnowledgeSearch(ctx context.Context, tenantId string, query string, f Filters, limit int) ([]KnowledgeHit, error) {
	results, err := e.Search(ctx, tenantId, query, f, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]KnowledgeHit, 0, len(results))
	for _, r := range results {
		hit := KnowledgeHit{Result: r}
		if doc, ok := e.knowledge.GetKnowledgeDocument(ctx, tenantId, r.Chunk.DocumentId); ok {
			hit.Document = &doc
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// ContextForDrafting returns raw chunks for prompt assembly, filtered by the
// case's visa category.
func (e *Engine) ContextForDrafting(ctx context.Context, tenantId string, query string, visaType string) ([]Result, error) {
	return e.Search(ctx, tenantId, query, Filters{VisaType: visaType}, config.DraftContextLimit)
}

// SimilarCases over-fetches raw neighbours from the case-notice collection,
// keeps the single best match per distinct case, excludes the querying case,
// and stops at limit. The over-fetch factor is a heuristic bound: if fewer
// distinct cases exist among the candidates the result is legitimately short.
func (e *Engine) SimilarCases(ctx context.Context, tenantId string, caseId string, query string, limit int) ([]CaseMatch, error) {
	if limit <= 0 {
		limit = config.DefaultSearchLimit
	}

	results, err := e.search(ctx, config.CaseNoticeCollection, tenantId, query, Filters{}, limit*e.overFetch)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var cases []CaseMatch
	for _, r := range results {
		matchCase := r.Chunk.Metadata.CaseId
		if matchCase == "" || matchCase == caseId || seen[matchCase] {
			continue
		}
		seen[matchCase] = true
		cases = append(cases, CaseMatch{
			CaseId:     matchCase,
			Similarity: r.Similarity,
			Chunk:      r.Chunk,
		})
		if len(cases) == limit {
			break
		}
	}
	return cases, nil
}

func roundSimilarity(distance float32) float64 {
	return math.Round((1-float64(distance))*10000) / 10000
}
