// Package graphrag answers free-text queries against the formulation graph
// by combining the native vector index with a one-hop Cypher traversal,
// directly generalizing engine/rag.Service's embed → search → graph-enrich →
// assemble → cache shape from Qdrant+gRPC-chat onto a graph-native vector
// index and entity hydration instead of an LLM chat completion.
package graphrag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/cache"
	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/internal/graphstore"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/fn"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/metrics"
)

const (
	chunksIndex       = "chunks"
	resultCacheSize   = 100
	resultCacheTTL    = 300 * time.Second
	defaultStructured = 25
)

// Embedder is the narrow view of internal/llmclient.EmbeddingClient this
// service needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string, batchSize int) ([][]float32, error)
}

// ScoredChunk is one vector-index hit hydrated back into a Chunk.
type ScoredChunk struct {
	Chunk domain.Chunk `json:"chunk"`
	Score float64      `json:"score"`
}

// Entity is one graph node reached via one-hop traversal from a hit chunk.
type Entity struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Label      string            `json:"label"`
	Properties map[string]any    `json:"properties"`
}

// HybridResult combines the vector hits with their graph-neighborhood
// entities.
type HybridResult struct {
	Query    string        `json:"query"`
	Chunks   []ScoredChunk `json:"chunks"`
	Entities []Entity      `json:"entities"`
	Degraded string        `json:"degraded,omitempty"`
}

// Service retrieves hybrid (vector + graph) context for a query.
type Service struct {
	store    *graphstore.Store
	embedder Embedder
	results  *cache.Cache[string, *HybridResult]
}

func New(store *graphstore.Store, embedder Embedder, reg *metrics.Registry) *Service {
	return &Service{
		store:    store,
		embedder: embedder,
		results:  cache.New[string, *HybridResult](reg, "graphrag_result", resultCacheSize, resultCacheTTL),
	}
}

// Retrieve runs the five-step hybrid retrieval pipeline. If the embedding
// client is unavailable, it returns ErrGraphRAGUnavailable since no query
// vector can be produced. If the vector index itself is unavailable, it
// degrades to a keyword-based node traversal instead of failing outright.
func (s *Service) Retrieve(ctx context.Context, queryText string, topK, structuredLimit int) (*HybridResult, error) {
	if topK <= 0 {
		topK = 5
	}
	if structuredLimit <= 0 || structuredLimit > 100 {
		structuredLimit = defaultStructured
	}

	key := cacheKey(queryText, topK, structuredLimit)
	if cached, ok := s.results.Get(key); ok {
		return cached, nil
	}

	result, err := s.retrieveUncached(ctx, queryText, topK, structuredLimit)
	if err != nil {
		return nil, err
	}
	s.results.Set(key, result)
	return result, nil
}

// retrieveUncached runs the embed and vector-search steps as a traced
// fn.Then pipeline: the two steps are heterogeneously typed (query text in,
// scored chunks out) so they compose naturally as a two-stage Stage chain
// instead of a hand-rolled call sequence.
func (s *Service) retrieveUncached(ctx context.Context, queryText string, topK, structuredLimit int) (*HybridResult, error) {
	var degraded string

	embedStage := fn.Stage[string, []float32](func(ctx context.Context, text string) fn.Result[[]float32] {
		vectors, err := s.embedder.Embed(ctx, []string{text}, 1)
		if err != nil || len(vectors) == 0 {
			return fn.Err[[]float32](fmt.Errorf("%w: embedding client unavailable", domain.ErrGraphRAGUnavailable))
		}
		return fn.Ok(vectors[0])
	})

	searchStage := fn.Stage[[]float32, []ScoredChunk](func(ctx context.Context, vector []float32) fn.Result[[]ScoredChunk] {
		scored, vecErr := s.store.VectorQuery(ctx, chunksIndex, vector, topK)
		if vecErr != nil {
			nodes, kwErr := s.keywordFallback(ctx, queryText, topK)
			if kwErr != nil {
				return fn.Err[[]ScoredChunk](fmt.Errorf("%w: vector index and keyword fallback both failed", domain.ErrGraphRAGUnavailable))
			}
			degraded = "vector_index_unavailable_used_keyword_traversal"
			return fn.Ok(nodes)
		}
		return fn.Ok(chunksFromScored(scored))
	})

	retrieveChunks := fn.TracedStage("graphrag.retrieve_chunks", fn.Then(embedStage, searchStage))
	chunks, err := retrieveChunks(ctx, queryText).Unwrap()
	if err != nil {
		return nil, err
	}

	result := &HybridResult{Query: queryText, Chunks: chunks, Degraded: degraded}

	idStage := fn.MapStage(func(cs []ScoredChunk) []string {
		return fn.Map(cs, func(c ScoredChunk) string { return c.Chunk.ChunkID })
	})
	ids, _ := idStage(ctx, chunks).Unwrap()

	entities, err := s.hydrateEntities(ctx, ids, structuredLimit)
	if err == nil {
		result.Entities = entities
	}

	return result, nil
}

func chunksFromScored(scored []graphstore.ScoredNode) []ScoredChunk {
	out := make([]ScoredChunk, 0, len(scored))
	for _, sn := range scored {
		chunk := domain.Chunk{}
		if id, ok := sn.Node["chunkId"].(string); ok {
			chunk.ChunkID = id
		}
		if content, ok := sn.Node["content"].(string); ok {
			chunk.Content = content
		}
		out = append(out, ScoredChunk{Chunk: chunk, Score: sn.Score})
	}
	return out
}

// keywordFallback degrades to a plain CONTAINS match over Chunk content when
// the vector index is down, returning zero-score hits.
func (s *Service) keywordFallback(ctx context.Context, queryText string, topK int) ([]ScoredChunk, error) {
	rows, err := s.store.RunRead(ctx, `
		MATCH (c:Chunk) WHERE toLower(c.content) CONTAINS toLower($query)
		RETURN c.chunkId AS chunkId, c.content AS content LIMIT $limit
	`, map[string]any{"query": queryText, "limit": topK})
	if err != nil {
		return nil, err
	}
	out := make([]ScoredChunk, 0, len(rows))
	for _, row := range rows {
		chunk := domain.Chunk{}
		if id, ok := row["chunkId"].(string); ok {
			chunk.ChunkID = id
		}
		if content, ok := row["content"].(string); ok {
			chunk.Content = content
		}
		out = append(out, ScoredChunk{Chunk: chunk, Score: 0})
	}
	return out, nil
}

// hydrateEntities returns the entities directly linked to the hit chunks,
// capped at structuredLimit; the entities' own relationships are not loaded.
func (s *Service) hydrateEntities(ctx context.Context, chunkIDs []string, structuredLimit int) ([]Entity, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	rows, err := s.store.RunRead(ctx, `
		MATCH (c:Chunk) WHERE c.chunkId IN $chunkIds
		MATCH (c)--(e:GraphEntity)
		RETURN DISTINCT e.id AS id, e.type AS type, e.label AS label
		LIMIT $limit
	`, map[string]any{"chunkIds": chunkIDs, "limit": structuredLimit})
	if err != nil {
		return nil, err
	}
	out := make([]Entity, 0, len(rows))
	for _, row := range rows {
		e := Entity{}
		if v, ok := row["id"].(string); ok {
			e.ID = v
		}
		if v, ok := row["type"].(string); ok {
			e.Type = v
		}
		if v, ok := row["label"].(string); ok {
			e.Label = v
		}
		out = append(out, e)
	}
	return out, nil
}

func cacheKey(queryText string, topK, structuredLimit int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", queryText, topK, structuredLimit)))
	return hex.EncodeToString(h[:])
}
