package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/graphstore"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/fn"
)

type healthResponse struct {
	Status            string `json:"status"`
	LLMAvailable      bool   `json:"llm_available"`
	StoreAvailable    bool   `json:"store_available"`
	GraphRAGAvailable bool   `json:"graphrag_available"`
}

func handleHealth(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// The LLM ping and the graph ping are independent round trips; fan
		// them out so a slow one doesn't serialize behind the other.
		checks := fn.FanOut(
			func() bool { return d.LLMAvailable != nil && d.LLMAvailable() },
			func() bool { return pingStore(r.Context(), d.Store) },
		)
		llmAvailable, storeAvailable := checks[0], checks[1]
		graphragAvailable := d.GraphRAG != nil

		status := "ok"
		if !storeAvailable {
			status = "degraded"
		}

		writeSuccess(w, http.StatusOK, healthResponse{
			Status:            status,
			LLMAvailable:      llmAvailable,
			StoreAvailable:    storeAvailable,
			GraphRAGAvailable: graphragAvailable,
		}, nil, start)
	}
}

func pingStore(ctx context.Context, store *graphstore.Store) bool {
	if store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := store.RunRead(ctx, "RETURN 1", nil)
	return err == nil
}
