// Package persistence writes one completed (or partially completed)
// orchestration run to the graph store inside a single atomic transaction.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/internal/graphstore"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/fn"
)

// persistRetry matches §4.10: up to 3 attempts on transient store errors.
var persistRetry = fn.RetryOpts{MaxAttempts: 3, InitialWait: 100 * time.Millisecond, MaxWait: 2 * time.Second, Jitter: true}

// RunResult is everything one orchestration run produced, whether it
// succeeded, partially succeeded, or failed outright.
type RunResult struct {
	Run         domain.OrchestrationRun
	Recipe      *domain.RecipeVersion
	Calc        *domain.CalculationResult
	Graph       *domain.GraphSnapshot
	Validation  *domain.ValidationReport
	UI          *domain.UIConfig
	Invocations []domain.AgentInvocation
}

// PersistedIDs is the set of artifact IDs written for one run.
type PersistedIDs struct {
	RunID         string
	RecipeID      string
	CalcID        string
	SnapshotID    string
	ReportID      string
	UIConfigID    string
}

// Service persists OrchestrationRuns. All writes are MERGE-keyed on each
// artifact's primary key, so repeated calls with the same runId are no-ops.
type Service struct {
	store *graphstore.Store
}

func New(store *graphstore.Store) *Service {
	return &Service{store: store}
}

// Persist writes r in one transaction, retrying the whole transaction up to
// 3 times on transient store errors before raising PersistenceFailed.
func (s *Service) Persist(ctx context.Context, r *RunResult) (*PersistedIDs, error) {
	result := fn.Retry(ctx, persistRetry, func(ctx context.Context) fn.Result[*PersistedIDs] {
		ids, err := s.persistOnce(ctx, r)
		if err != nil {
			return fn.Err[*PersistedIDs](err)
		}
		return fn.Ok(ids)
	})

	ids, err := result.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}
	return ids, nil
}

func (s *Service) persistOnce(ctx context.Context, r *RunResult) (*PersistedIDs, error) {
	ids := &PersistedIDs{RunID: r.Run.RunID}

	_, err := s.store.RunWrite(ctx, func(tx graphstore.CypherRunner) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (run:OrchestrationRun {runId: $runId})
			SET run.status = $status, run.timestamp = $timestamp,
			    run.totalDuration_ms = $duration, run.userRequest = $userRequest
		`, map[string]any{
			"runId": r.Run.RunID, "status": string(r.Run.Status),
			"timestamp": r.Run.Timestamp.Format(time.RFC3339), "duration": r.Run.TotalDuration,
			"userRequest": r.Run.UserRequest,
		}); err != nil {
			return nil, err
		}

		for _, inv := range r.Invocations {
			if err := s.mergeInvocation(ctx, tx, r.Run.RunID, inv); err != nil {
				return nil, err
			}
		}

		if r.Recipe != nil {
			ids.RecipeID = r.Recipe.RecipeID
			if err := s.mergeRecipe(ctx, tx, r.Run.RunID, *r.Recipe); err != nil {
				return nil, err
			}
		}
		if r.Calc != nil {
			ids.CalcID = r.Calc.CalcID
			if err := s.mergeCalc(ctx, tx, r.Run.RunID, *r.Calc); err != nil {
				return nil, err
			}
		}
		if r.Graph != nil {
			ids.SnapshotID = r.Graph.SnapshotID
			if err := s.mergeGraphSnapshot(ctx, tx, r.Run.RunID, *r.Graph); err != nil {
				return nil, err
			}
		}
		if r.Validation != nil {
			ids.ReportID = r.Validation.ReportID
			if err := s.mergeValidation(ctx, tx, r.Run.RunID, *r.Validation); err != nil {
				return nil, err
			}
		}
		if r.UI != nil {
			ids.UIConfigID = r.UI.UIConfigID
			if err := s.mergeUIConfig(ctx, tx, r.Run.RunID, *r.UI); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Service) mergeInvocation(ctx context.Context, tx graphstore.CypherRunner, runID string, inv domain.AgentInvocation) error {
	_, err := tx.Run(ctx, `
		MATCH (run:OrchestrationRun {runId: $runId})
		MERGE (run)-[:HAS_AGENT_INVOCATION]->(a:AgentInvocation {runId: $runId, sequence: $sequence})
		SET a.agentName = $agentName, a.status = $status, a.duration_ms = $duration,
		    a.error = $error, a.inputSnapshot = $input, a.outputSnapshot = $output
	`, map[string]any{
		"runId": runID, "sequence": inv.Sequence, "agentName": inv.AgentName,
		"status": string(inv.Status), "duration": inv.DurationMs, "error": inv.Error,
		"input": inv.InputSnapshot, "output": inv.OutputSnapshot,
	})
	return err
}

func (s *Service) mergeRecipe(ctx context.Context, tx graphstore.CypherRunner, runID string, r domain.RecipeVersion) error {
	_, err := tx.Run(ctx, `
		MATCH (run:OrchestrationRun {runId: $runId})
		MERGE (rv:RecipeVersion {recipeId: $recipeId})
		SET rv.name = $name, rv.yieldTarget = $yieldTarget, rv.yieldUnit = $yieldUnit,
		    rv.createdAt = $createdAt
		MERGE (run)-[:USED_RECIPE]->(rv)
	`, map[string]any{
		"runId": runID, "recipeId": r.RecipeID, "name": r.Name,
		"yieldTarget": r.YieldTarget, "yieldUnit": r.YieldUnit,
		"createdAt": r.CreatedAt.Format(time.RFC3339),
	})
	return err
}

func (s *Service) mergeCalc(ctx context.Context, tx graphstore.CypherRunner, runID string, c domain.CalculationResult) error {
	_, err := tx.Run(ctx, `
		MATCH (run:OrchestrationRun {runId: $runId})
		MERGE (cr:CalculationResult {calcId: $calcId})
		SET cr.batchSize = $batchSize, cr.batchUnit = $batchUnit,
		    cr.overallYield = $overallYield, cr.costPerUnit = $costPerUnit
		MERGE (run)-[:HAS_CALCULATION]->(cr)
	`, map[string]any{
		"runId": runID, "calcId": c.CalcID, "batchSize": c.BatchSize,
		"batchUnit": c.BatchUnit, "overallYield": c.OverallYield, "costPerUnit": c.CostPerUnit,
	})
	return err
}

func (s *Service) mergeValidation(ctx context.Context, tx graphstore.CypherRunner, runID string, v domain.ValidationReport) error {
	_, err := tx.Run(ctx, `
		MATCH (run:OrchestrationRun {runId: $runId})
		MERGE (vr:ValidationReport {reportId: $reportId})
		SET vr.overallStatus = $status, vr.massBalanceOk = $massBalanceOk, vr.yieldOk = $yieldOk
		MERGE (run)-[:HAS_VALIDATION]->(vr)
	`, map[string]any{
		"runId": runID, "reportId": v.ReportID, "status": string(v.OverallStatus),
		"massBalanceOk": v.MassBalanceOk, "yieldOk": v.YieldOk,
	})
	return err
}

func (s *Service) mergeUIConfig(ctx context.Context, tx graphstore.CypherRunner, runID string, u domain.UIConfig) error {
	_, err := tx.Run(ctx, `
		MATCH (run:OrchestrationRun {runId: $runId})
		MERGE (ui:UIConfig {uiConfigId: $uiConfigId})
		SET ui.layoutType = $layoutType
		MERGE (run)-[:HAS_UI_CONFIG]->(ui)
	`, map[string]any{
		"runId": runID, "uiConfigId": u.UIConfigID, "layoutType": u.Layout.Type,
	})
	return err
}

// mergeGraphSnapshot merges each contained GraphEntity and links the run to
// it via GENERATED_ENTITY, directly generalizing
// engine/graph.GraphStore.SaveBatch's loop-over-slices-in-one-ExecuteWrite
// shape from components/edges to arbitrary node/edge kinds.
func (s *Service) mergeGraphSnapshot(ctx context.Context, tx graphstore.CypherRunner, runID string, g domain.GraphSnapshot) error {
	if _, err := tx.Run(ctx, `
		MATCH (run:OrchestrationRun {runId: $runId})
		MERGE (gs:GraphSnapshot {snapshotId: $snapshotId})
		MERGE (run)-[:HAS_GRAPH_SNAPSHOT]->(gs)
	`, map[string]any{"runId": runID, "snapshotId": g.SnapshotID}); err != nil {
		return err
	}

	for _, n := range g.Nodes {
		if _, err := tx.Run(ctx, `
			MATCH (run:OrchestrationRun {runId: $runId})
			MERGE (e:GraphEntity {id: $id})
			SET e.type = $type, e.label = $label, e.properties = $properties
			MERGE (run)-[:GENERATED_ENTITY]->(e)
		`, map[string]any{
			"runId": runID, "id": n.ID, "type": n.Type,
			"label": n.Label, "properties": flattenProps(n.Properties),
		}); err != nil {
			return err
		}
	}

	for _, e := range g.Edges {
		relType := sanitizeRelType(e.Type)
		cypher := `
			MATCH (a:GraphEntity {id: $source}), (b:GraphEntity {id: $target})
			MERGE (a)-[r:` + relType + ` {id: $id}]->(b)`
		if _, err := tx.Run(ctx, cypher, map[string]any{
			"source": e.Source, "target": e.Target, "id": e.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func flattenProps(props map[string]string) []string {
	out := make([]string, 0, len(props)*2)
	for k, v := range props {
		out = append(out, k, v)
	}
	return out
}

// sanitizeRelType ensures the relationship type is a valid Cypher
// identifier, grounded on engine/graph.sanitizeRelType.
func sanitizeRelType(t string) string {
	safe := make([]byte, 0, len(t))
	for i := 0; i < len(t); i++ {
		c := t[i]
		upper := c
		if c >= 'a' && c <= 'z' {
			upper = c - 32
		}
		if (upper >= 'A' && upper <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			safe = append(safe, upper)
		}
	}
	if len(safe) == 0 {
		return "RELATED_TO"
	}
	return string(safe)
}
