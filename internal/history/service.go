// Package history serves read-only orchestration run history. It never
// opens a write transaction.
package history

import (
	"context"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/internal/graphstore"
)

// ListFilter narrows a ListRuns query.
type ListFilter struct {
	Limit     int
	Offset    int
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

// Service lists and fetches OrchestrationRuns.
type Service struct {
	store *graphstore.Store
}

func New(store *graphstore.Store) *Service {
	return &Service{store: store}
}

// ListRuns returns run summaries ordered by timestamp descending, clamping
// limit to [1,100] (default 50) and offset to >= 0.
func (s *Service) ListRuns(ctx context.Context, f ListFilter) ([]domain.RunSummary, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	} else if limit > 100 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	cypher := `MATCH (run:OrchestrationRun) WHERE 1=1`
	params := map[string]any{"limit": limit, "offset": offset}

	if f.Status != "" {
		cypher += ` AND run.status = $status`
		params["status"] = f.Status
	}
	if f.StartDate != nil {
		cypher += ` AND run.timestamp >= $startDate`
		params["startDate"] = f.StartDate.Format(time.RFC3339)
	}
	if f.EndDate != nil {
		cypher += ` AND run.timestamp <= $endDate`
		params["endDate"] = f.EndDate.Format(time.RFC3339)
	}
	cypher += `
		OPTIONAL MATCH (run)-[:USED_RECIPE]->(recipe:RecipeVersion)
		OPTIONAL MATCH (run)-[:HAS_AGENT_INVOCATION]->(inv:AgentInvocation)
		WITH run, recipe, count(inv) AS agentCount,
		     sum(CASE WHEN inv.status = 'success' THEN 1 ELSE 0 END) AS successCount
		RETURN run, recipe.name AS recipeName, agentCount, successCount
		ORDER BY run.timestamp DESC SKIP $offset LIMIT $limit`

	rows, err := s.store.RunRead(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RunSummary, 0, len(rows))
	for _, row := range rows {
		node, ok := row["run"].(graphstore.Row)
		if !ok {
			continue
		}
		summary := domain.RunSummary{
			RunID:         stringField(node, "runId"),
			Status:        domain.RunStatus(stringField(node, "status")),
			TotalDuration: int64Field(node, "totalDuration_ms"),
			RecipeName:    stringFromAny(row["recipeName"]),
			AgentCount:    int(int64FromAny(row["agentCount"])),
			SuccessCount:  int(int64FromAny(row["successCount"])),
		}
		if t, ok := parseTimeField(node, "timestamp"); ok {
			summary.Timestamp = t
		}
		out = append(out, summary)
	}
	return out, nil
}

// GetRun fetches the run plus every linked artifact and the full invocation
// list sorted by sequence ascending; missing artifacts are left nil.
func (s *Service) GetRun(ctx context.Context, runID string) (*domain.RunDetail, error) {
	rows, err := s.store.RunRead(ctx, `
		MATCH (run:OrchestrationRun {runId: $runId})
		OPTIONAL MATCH (run)-[:USED_RECIPE]->(recipe:RecipeVersion)
		OPTIONAL MATCH (run)-[:HAS_CALCULATION]->(calc:CalculationResult)
		OPTIONAL MATCH (run)-[:HAS_GRAPH_SNAPSHOT]->(graph:GraphSnapshot)
		OPTIONAL MATCH (run)-[:HAS_VALIDATION]->(validation:ValidationReport)
		OPTIONAL MATCH (run)-[:HAS_UI_CONFIG]->(ui:UIConfig)
		OPTIONAL MATCH (run)-[:HAS_AGENT_INVOCATION]->(inv:AgentInvocation)
		RETURN run, recipe, calc, graph, validation, ui, inv
		ORDER BY inv.sequence ASC
	`, map[string]any{"runId": runID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}

	first, ok := rows[0]["run"].(graphstore.Row)
	if !ok {
		return nil, domain.ErrNotFound
	}

	detail := &domain.RunDetail{
		OrchestrationRun: domain.OrchestrationRun{
			RunID:         stringField(first, "runId"),
			Status:        domain.RunStatus(stringField(first, "status")),
			TotalDuration: int64Field(first, "totalDuration_ms"),
			UserRequest:   stringField(first, "userRequest"),
		},
	}
	if t, ok := parseTimeField(first, "timestamp"); ok {
		detail.Timestamp = t
	}

	invocations := make([]domain.AgentInvocation, 0, len(rows))
	for _, row := range rows {
		if detail.Recipe == nil {
			if node, ok := row["recipe"].(graphstore.Row); ok {
				r := toRecipeVersion(node)
				detail.Recipe = &r
			}
		}
		if detail.Calc == nil {
			if node, ok := row["calc"].(graphstore.Row); ok {
				c := toCalculationResult(node)
				detail.Calc = &c
			}
		}
		if detail.Graph == nil {
			if node, ok := row["graph"].(graphstore.Row); ok {
				g := toGraphSnapshot(node)
				detail.Graph = &g
			}
		}
		if detail.Validation == nil {
			if node, ok := row["validation"].(graphstore.Row); ok {
				v := toValidationReport(node)
				detail.Validation = &v
			}
		}
		if detail.UI == nil {
			if node, ok := row["ui"].(graphstore.Row); ok {
				u := toUIConfig(node)
				detail.UI = &u
			}
		}
		if node, ok := row["inv"].(graphstore.Row); ok {
			invocations = append(invocations, toAgentInvocation(node))
		}
	}
	detail.Invocations = invocations

	return detail, nil
}

func toRecipeVersion(node graphstore.Row) domain.RecipeVersion {
	rv := domain.RecipeVersion{
		RecipeID:    stringField(node, "recipeId"),
		Name:        stringField(node, "name"),
		YieldTarget: floatField(node, "yieldTarget"),
		YieldUnit:   stringField(node, "yieldUnit"),
	}
	if t, ok := parseTimeField(node, "createdAt"); ok {
		rv.CreatedAt = t
	}
	return rv
}

func toCalculationResult(node graphstore.Row) domain.CalculationResult {
	return domain.CalculationResult{
		CalcID:       stringField(node, "calcId"),
		BatchSize:    floatField(node, "batchSize"),
		BatchUnit:    stringField(node, "batchUnit"),
		OverallYield: floatField(node, "overallYield"),
		CostPerUnit:  floatField(node, "costPerUnit"),
	}
}

func toGraphSnapshot(node graphstore.Row) domain.GraphSnapshot {
	return domain.GraphSnapshot{SnapshotID: stringField(node, "snapshotId")}
}

func toValidationReport(node graphstore.Row) domain.ValidationReport {
	return domain.ValidationReport{
		ReportID:      stringField(node, "reportId"),
		OverallStatus: domain.ValidationStatus(stringField(node, "overallStatus")),
		MassBalanceOk: boolField(node, "massBalanceOk"),
		YieldOk:       boolField(node, "yieldOk"),
	}
}

func toUIConfig(node graphstore.Row) domain.UIConfig {
	return domain.UIConfig{
		UIConfigID: stringField(node, "uiConfigId"),
		Layout:     domain.Layout{Type: stringField(node, "layoutType")},
	}
}

func toAgentInvocation(node graphstore.Row) domain.AgentInvocation {
	return domain.AgentInvocation{
		Sequence:       int(int64FromAny(node["sequence"])),
		AgentName:      stringField(node, "agentName"),
		Status:         domain.AgentStatus(stringField(node, "status")),
		DurationMs:     int64Field(node, "duration_ms"),
		Error:          stringField(node, "error"),
		InputSnapshot:  stringField(node, "inputSnapshot"),
		OutputSnapshot: stringField(node, "outputSnapshot"),
	}
}

func stringField(node graphstore.Row, key string) string { return stringFromAny(node[key]) }

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

func boolField(node graphstore.Row, key string) bool {
	b, _ := node[key].(bool)
	return b
}

func floatField(node graphstore.Row, key string) float64 {
	switch v := node[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func int64Field(node graphstore.Row, key string) int64 { return int64FromAny(node[key]) }

func int64FromAny(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func parseTimeField(node graphstore.Row, key string) (time.Time, bool) {
	v, ok := node[key].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
