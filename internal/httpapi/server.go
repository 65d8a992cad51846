package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/admission"
	"github.com/dparitosh/recipe-organizer-sub000/internal/graphrag"
	"github.com/dparitosh/recipe-organizer-sub000/internal/graphstore"
	"github.com/dparitosh/recipe-organizer-sub000/internal/history"
	"github.com/dparitosh/recipe-organizer-sub000/internal/llmclient"
	"github.com/dparitosh/recipe-organizer-sub000/internal/nutrition"
	"github.com/dparitosh/recipe-organizer-sub000/internal/orchestrator"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/metrics"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/mid"
)

// admissionWait is how long a request waits for a free admission ticket
// before the endpoint returns 429.
const admissionWait = 2 * time.Second

// Deps bundles every service the HTTP layer dispatches to.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Admission    *admission.Queue
	Nutrition    *nutrition.Service
	History      *history.Service
	GraphRAG     *graphrag.Service
	Store        *graphstore.Store
	Completion   *llmclient.CompletionClient
	LLMAvailable func() bool
	Registry     *metrics.Registry
	Logger       *slog.Logger
	CORSOrigin   string
}

// NewServer builds the fully wired HTTP handler: the nine endpoints from
// spec §6 behind the teacher's exact middleware stack, reused unmodified in
// composition order.
func NewServer(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.CORSOrigin == "" {
		d.CORSOrigin = "*"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/orchestration/run", handleRunOrchestration(d))
	mux.HandleFunc("GET /api/v1/orchestration/runs", handleListRuns(d))
	mux.HandleFunc("GET /api/v1/orchestration/runs/{runId}", handleGetRun(d))
	mux.HandleFunc("POST /api/v1/formulations/{formulationId}/nutrition-label", handleSaveNutritionLabel(d))
	mux.HandleFunc("GET /api/v1/formulations/{formulationId}/nutrition-labels", handleNutritionHistory(d))
	mux.HandleFunc("GET /api/v1/nutrition/label/{labelId}", handleGetLabel(d))
	mux.HandleFunc("POST /api/v1/ai/query", handleAIQuery(d))
	mux.HandleFunc("GET /api/v1/metrics", handleMetrics(d))
	mux.HandleFunc("GET /api/v1/health", handleHealth(d))

	return mid.Chain(mux,
		mid.Recover(d.Logger),
		mid.Logger(d.Logger),
		mid.CORS(d.CORSOrigin),
		mid.OTel("formulation-core"),
	)
}
