// Package nutrition versions and serves nutrition labels for a formulation.
// Concurrent writers are serialized by the store's (formulationId, version)
// uniqueness constraint rather than any application-level lock.
package nutrition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/internal/graphstore"
)

// Service manages NutritionLabel versions for a Formulation.
type Service struct {
	store *graphstore.Store
}

func New(store *graphstore.Store) *Service {
	return &Service{store: store}
}

// Save creates the next version of the label for formulationID. The version
// number is read-then-incremented inside the same write transaction the
// label is created in; the (formulationId, version) constraint is what
// actually prevents a duplicate version from committing under contention.
func (s *Service) Save(ctx context.Context, formulationID string, computed domain.NutritionLabel, generatedBy string) (*domain.NutritionLabel, error) {
	out, err := s.store.RunWrite(ctx, func(tx graphstore.CypherRunner) (any, error) {
		// Formulation identity is externally managed; lazily stub one in so
		// HAS_NUTRITION_LABEL always has a source node to attach to.
		if _, err := tx.Run(ctx, `
			MERGE (f:Formulation {id: $formulationId})
			ON CREATE SET f.status = "unmanaged"
		`, map[string]any{"formulationId": formulationID}); err != nil {
			return nil, err
		}

		rows, err := runAndCollect(ctx, tx, `
			MATCH (f:Formulation {id: $formulationId})
			OPTIONAL MATCH (f)-[:HAS_NUTRITION_LABEL]->(l:NutritionLabel)
			RETURN coalesce(max(l.version), 0) AS maxVersion
		`, map[string]any{"formulationId": formulationID})
		if err != nil {
			return nil, err
		}
		nextVersion := 1
		if len(rows) > 0 {
			if v, ok := rows[0]["maxVersion"].(int64); ok {
				nextVersion = int(v) + 1
			} else if v, ok := rows[0]["maxVersion"].(float64); ok {
				nextVersion = int(v) + 1
			}
		}

		label := computed
		label.LabelID = uuid.NewString()
		label.FormulationID = formulationID
		label.Version = nextVersion
		label.GeneratedAt = time.Now().UTC()
		label.GeneratedBy = generatedBy

		if _, err := tx.Run(ctx, `
			MATCH (f:Formulation {id: $formulationId})
			CREATE (l:NutritionLabel {
				labelId: $labelId, formulationId: $formulationId, version: $version,
				servingSize: $servingSize, servingSizeUnit: $servingSizeUnit,
				calories: $calories, generatedAt: $generatedAt, generatedBy: $generatedBy
			})
			CREATE (f)-[:HAS_NUTRITION_LABEL]->(l)
		`, map[string]any{
			"formulationId": formulationID, "labelId": label.LabelID, "version": label.Version,
			"servingSize": label.ServingSize, "servingSizeUnit": label.ServingSizeUnit,
			"calories": label.Calories, "generatedAt": label.GeneratedAt.Format(time.RFC3339),
			"generatedBy": label.GeneratedBy,
		}); err != nil {
			return nil, err
		}
		return &label, nil
	})
	if err != nil {
		return nil, err
	}
	label, _ := out.(*domain.NutritionLabel)
	return label, nil
}

// History lists up to limit labels for a formulation, newest version first.
func (s *Service) History(ctx context.Context, formulationID string, limit int) ([]domain.NutritionLabel, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.store.RunRead(ctx, `
		MATCH (f:Formulation {id: $formulationId})-[:HAS_NUTRITION_LABEL]->(l:NutritionLabel)
		RETURN l ORDER BY l.version DESC LIMIT $limit
	`, map[string]any{"formulationId": formulationID, "limit": limit})
	if err != nil {
		return nil, err
	}
	return rowsToLabels(rows)
}

// GetByID fetches a single label by its primary key.
func (s *Service) GetByID(ctx context.Context, labelID string) (*domain.NutritionLabel, error) {
	rows, err := s.store.RunRead(ctx, `
		MATCH (l:NutritionLabel {labelId: $labelId}) RETURN l
	`, map[string]any{"labelId": labelID})
	if err != nil {
		return nil, err
	}
	labels, err := rowsToLabels(rows)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, domain.ErrNotFound
	}
	return &labels[0], nil
}

func rowsToLabels(rows []graphstore.Row) ([]domain.NutritionLabel, error) {
	out := make([]domain.NutritionLabel, 0, len(rows))
	for _, row := range rows {
		node, ok := row["l"].(graphstore.Row)
		if !ok {
			return nil, fmt.Errorf("unexpected row shape for NutritionLabel: %+v", row)
		}
		var label domain.NutritionLabel
		if v, ok := node["labelId"].(string); ok {
			label.LabelID = v
		}
		if v, ok := node["formulationId"].(string); ok {
			label.FormulationID = v
		}
		if v, ok := node["version"].(int64); ok {
			label.Version = int(v)
		}
		if v, ok := node["servingSize"].(float64); ok {
			label.ServingSize = v
		}
		if v, ok := node["servingSizeUnit"].(string); ok {
			label.ServingSizeUnit = v
		}
		if v, ok := node["calories"].(float64); ok {
			label.Calories = v
		}
		if v, ok := node["generatedBy"].(string); ok {
			label.GeneratedBy = v
		}
		if v, ok := node["generatedAt"].(string); ok {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				label.GeneratedAt = t
			}
		}
		out = append(out, label)
	}
	return out, nil
}

// runAndCollect runs a read statement against a CypherRunner (session or
// in-transaction) and materializes all rows, mirroring
// graphstore.collectRows but usable from inside a write transaction where
// only a CypherRunner, not a full Store, is available.
func runAndCollect(ctx context.Context, tx graphstore.CypherRunner, cypher string, params map[string]any) ([]graphstore.Row, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	var rows []graphstore.Row
	for res.Next(ctx) {
		rec := res.Record()
		row := make(graphstore.Row)
		for _, key := range rec.Keys {
			v, _ := rec.Get(key)
			row[key] = v
		}
		rows = append(rows, row)
	}
	return rows, res.Err()
}
