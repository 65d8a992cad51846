package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/internal/graphrag"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/fn"
)

type aiQueryBody struct {
	Query        string             `json:"query"`
	IncludeGraph bool               `json:"include_graph"`
	ServiceMode  domain.ServiceMode `json:"service_mode"`
}

type aiQueryResponse struct {
	Answer                string   `json:"answer"`
	NodeHighlights        []string `json:"nodeHighlights"`
	RelationshipSummaries []string `json:"relationshipSummaries"`
	Recommendations       []string `json:"recommendations"`
	Sources               []string `json:"sources"`
	Confidence            float64  `json:"confidence"`
	ExecutionTimeMs       int64    `json:"execution_time_ms"`
}

// handleAIQuery wires GraphRAG retrieval to an optional completion call,
// per the online|offline|auto service mode in domain.ServiceMode.
func handleAIQuery(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var body aiQueryBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Query == "" {
			respondError(w, domain.NewValidationError("query", "", domain.ErrNoOperations), start)
			return
		}
		if body.ServiceMode == "" {
			body.ServiceMode = domain.ServiceModeAuto
		}

		result, err := d.GraphRAG.Retrieve(r.Context(), body.Query, 0, 0)
		if err != nil {
			respondError(w, err, start)
			return
		}

		useOnline := body.ServiceMode == domain.ServiceModeOnline
		if body.ServiceMode == domain.ServiceModeAuto && d.Completion != nil {
			useOnline = d.Completion.IsAvailable(r.Context())
		}

		answer := summarizeHybridResult(body.Query, result)
		if useOnline && d.Completion != nil {
			if text, err := d.Completion.Complete(r.Context(), buildQueryPrompt(body.Query, result)); err == nil && text != "" {
				answer = text
			}
		}

		resp := aiQueryResponse{
			Answer:          answer,
			NodeHighlights:  nodeHighlights(result),
			Sources:         sourcesFor(result),
			Confidence:      confidenceFor(result),
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}
		if body.IncludeGraph {
			resp.RelationshipSummaries = relationshipSummaries(result)
			resp.Recommendations = recommendationsFor(result)
		}

		writeSuccess(w, http.StatusOK, resp, nil, start)
	}
}

func buildQueryPrompt(query string, result *graphrag.HybridResult) string {
	var ctx strings.Builder
	for _, c := range result.Chunks {
		fmt.Fprintf(&ctx, "[%s] (score %.3f)\n%s\n", c.Chunk.ChunkID, c.Score, c.Chunk.Content)
	}
	for _, e := range result.Entities {
		fmt.Fprintf(&ctx, "entity %s (%s): %s\n", e.ID, e.Type, e.Label)
	}
	return fmt.Sprintf(
		"Answer the question using only the provided context. If the context is insufficient, say so.\nQuestion: %s\nContext:\n%s",
		query, ctx.String(),
	)
}

// summarizeHybridResult builds a deterministic, non-LLM answer from the
// retrieved chunks when no completion model is consulted.
func summarizeHybridResult(query string, result *graphrag.HybridResult) string {
	if len(result.Chunks) == 0 {
		return "No matching context was found for this query."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Based on %d retrieved passage(s): ", len(result.Chunks))
	top := result.Chunks[0].Chunk.Content
	if len(top) > 280 {
		top = top[:280] + "..."
	}
	b.WriteString(top)
	return b.String()
}

func nodeHighlights(result *graphrag.HybridResult) []string {
	return fn.Map(result.Entities, func(e graphrag.Entity) string { return e.Label })
}

func relationshipSummaries(result *graphrag.HybridResult) []string {
	return fn.Map(result.Entities, func(e graphrag.Entity) string {
		return fmt.Sprintf("%s is linked to a retrieved passage", e.Label)
	})
}

func recommendationsFor(result *graphrag.HybridResult) []string {
	typed := fn.UniqueBy(
		fn.Filter(result.Entities, func(e graphrag.Entity) bool { return e.Type != "" }),
		func(e graphrag.Entity) string { return e.Type },
	)
	return fn.Map(typed, func(e graphrag.Entity) string {
		return fmt.Sprintf("Review related %s entities for further context", e.Type)
	})
}

func sourcesFor(result *graphrag.HybridResult) []string {
	return fn.Map(result.Chunks, func(c graphrag.ScoredChunk) string { return c.Chunk.ChunkID })
}

func confidenceFor(result *graphrag.HybridResult) float64 {
	if len(result.Chunks) == 0 {
		return 0
	}
	sum := fn.Reduce(result.Chunks, 0.0, func(acc float64, c graphrag.ScoredChunk) float64 { return acc + c.Score })
	confidence := sum / float64(len(result.Chunks))
	if result.Degraded != "" {
		confidence *= 0.5
	}
	return confidence
}
