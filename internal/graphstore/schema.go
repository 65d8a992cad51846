package graphstore

import "context"

// defaultEmbeddingDimension is the vector dimension of the "chunks" index
// used when Bootstrap is given a non-positive dimension.
const defaultEmbeddingDimension = 768

// NodeTypes is the closed schema set of primary-key-bearing node labels.
var NodeTypes = []string{
	"OrchestrationRun", "RecipeVersion", "CalculationResult", "GraphSnapshot",
	"ValidationReport", "UIConfig", "AgentInvocation", "Formulation",
	"NutritionLabel", "Chunk", "GraphEntity",
}

// EdgeTypes is the closed schema set of relationship types the persistence
// service and graph builder ever create.
var EdgeTypes = []string{
	"USED_RECIPE", "HAS_CALCULATION", "HAS_GRAPH_SNAPSHOT", "HAS_VALIDATION",
	"HAS_UI_CONFIG", "HAS_AGENT_INVOCATION", "GENERATED_ENTITY", "HAS_NUTRITION_LABEL",
}

var constraintKeys = map[string]string{
	"OrchestrationRun":  "runId",
	"RecipeVersion":     "recipeId",
	"CalculationResult": "calcId",
	"GraphSnapshot":     "snapshotId",
	"ValidationReport":  "reportId",
	"UIConfig":          "uiConfigId",
	"Formulation":       "id",
	"NutritionLabel":    "labelId",
	"Chunk":             "chunkId",
	"GraphEntity":       "id",
}

// Bootstrap issues idempotent constraint/index creation for every node
// primary key, the (formulationId, version) uniqueness constraint on
// NutritionLabel, and the "chunks" vector index.
func (s *Store) Bootstrap(ctx context.Context, embeddingDimension int) error {
	if embeddingDimension <= 0 {
		embeddingDimension = defaultEmbeddingDimension
	}

	for label, key := range constraintKeys {
		cypher := "CREATE CONSTRAINT IF NOT EXISTS FOR (n:" + label + ") REQUIRE n." + key + " IS UNIQUE"
		if _, err := s.RunRead(ctx, cypher, nil); err != nil {
			return err
		}
	}

	nutritionComposite := `CREATE CONSTRAINT IF NOT EXISTS FOR (n:NutritionLabel)
		REQUIRE (n.formulationId, n.version) IS UNIQUE`
	if _, err := s.RunRead(ctx, nutritionComposite, nil); err != nil {
		return err
	}

	vectorIndex := `CALL db.index.vector.createNodeIndex(
		'chunks', 'Chunk', 'embedding', $dimension, 'cosine')`
	if _, err := s.RunRead(ctx, vectorIndex, map[string]any{"dimension": embeddingDimension}); err != nil {
		return err
	}

	return nil
}
