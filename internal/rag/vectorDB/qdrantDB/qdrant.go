package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQdrantClient(ctx context.Context, host string, port int) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		client, err := qdrant.NewClient(&qdrant.Config{
			Host:     host,
			Port:     port,
			UseTLS:   config.QdrantUseTLS,
			PoolSize: uint(config.QdrantPoolSize),
		})
		if err != nil {
			logger.Error("could not instantiate qdrant client", "error", err)
			return
		}
		qdrantInstance = client
		go closeQdrant(ctx, client)
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{QObj: qdrantInstance}
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return errors.New("empty collection name")
	}

	exists, err := db.QObj.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *ClientHolder) ReplaceDocument(ctx context.Context, collection string, documentId string, chunks []docModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	if err := db.DeleteDocument(ctx, collection, documentId); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.Id),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":     chunk.Content,
				"chunk_id":    chunk.Id,
				"chunk_index": chunk.ChunkIndex,
				"document_id": chunk.DocumentId,
				"tenant_id":   chunk.TenantId,
				"doc_type":    chunk.Metadata.DocType,
				"visa_type":   chunk.Metadata.VisaType,
				"category":    chunk.Metadata.Category,
				"title":       chunk.Metadata.Title,
				"case_id":     chunk.Metadata.CaseId,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) DeleteDocument(ctx context.Context, collection string, documentId string) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{qdrant.NewMatch("document_id", documentId)},
				},
			},
		},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) Query(ctx context.Context, collection string, vector []float32, filter vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		logger.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	matches := make([]vectorDB.Match, 0, len(result))
	for _, hit := range result {
		matches = append(matches, vectorDB.Match{
			Chunk: docModel.Chunk{
				Id:         hit.Payload["chunk_id"].GetStringValue(),
				DocumentId: hit.Payload["document_id"].GetStringValue(),
				TenantId:   hit.Payload["tenant_id"].GetStringValue(),
				Content:    hit.Payload["content"].GetStringValue(),
				ChunkIndex: int(hit.Payload["chunk_index"].GetIntegerValue()),
				Metadata: docModel.ChunkMetadata{
					DocType:  hit.Payload["doc_type"].GetStringValue(),
					VisaType: hit.Payload["visa_type"].GetStringValue(),
					Category: hit.Payload["category"].GetStringValue(),
					Title:    hit.Payload["title"].GetStringValue(),
					CaseId:   hit.Payload["case_id"].GetStringValue(),
				},
			},
			// qdrant scores cosine as similarity
			Distance: 1 - hit.Score,
		})
	}
	return matches, nil
}

// buildFilter expresses Filter.Matches in qdrant's language: tenant must
// match, and each tag filter becomes "equals OR untagged".
func buildFilter(f vectorDB.Filter) *qdrant.Filter {
	must := []*qdrant.Condition{qdrant.NewMatch("tenant_id", f.TenantId)}
	if f.VisaType != "" {
		must = append(must, anyOf("visa_type", f.VisaType))
	}
	if f.Category != "" {
		must = append(must, anyOf("category", f.Category))
	}
	return &qdrant.Filter{Must: must}
}

func anyOf(field string, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Filter{
			Filter: &qdrant.Filter{
				Should: []*qdrant.Condition{
					qdrant.NewMatch(field, value),
					qdrant.NewMatch(field, ""),
				},
			},
		},
	}
}
