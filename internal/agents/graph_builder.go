package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

// GraphBuilder assembles an in-memory GraphSnapshot from a recipe and its
// calculation result: one node per ingredient, one per process step, one
// for the recipe itself, plus cost/yield annotation nodes. Agents never
// write to the store directly — only the persistence service does.
type GraphBuilder struct{}

func NewGraphBuilder() *GraphBuilder { return &GraphBuilder{} }

func (a *GraphBuilder) Name() string                 { return "GraphBuilder" }
func (a *GraphBuilder) LatencyTarget() time.Duration { return 1200 * time.Millisecond }
func (a *GraphBuilder) MemoryTargetMB() int          { return 200 }

type triple struct{ source, typ, target string }

// builder accumulates the nodes and edges for one snapshot. Edges are
// de-duplicated by (source,type,target) triple; nodes are appended as given.
type builder struct {
	nodes []domain.GraphNode
	edges []domain.GraphEdge
	seen  map[triple]struct{}
}

func newBuilder() *builder {
	return &builder{seen: make(map[triple]struct{})}
}

func (b *builder) addNode(n domain.GraphNode) {
	b.nodes = append(b.nodes, n)
}

// addEdge rejects self-loops and duplicate (source,type,target) triples,
// returning whether the edge was added.
func (b *builder) addEdge(e domain.GraphEdge) bool {
	if e.Source == e.Target {
		return false
	}
	key := triple{e.Source, e.Type, e.Target}
	if _, dup := b.seen[key]; dup {
		return false
	}
	b.seen[key] = struct{}{}
	b.edges = append(b.edges, e)
	return true
}

func (a *GraphBuilder) Run(ctx context.Context, in GraphBuilderInput) (domain.GraphSnapshot, error) {
	b := newBuilder()

	recipeNodeID := "recipe:" + in.Recipe.RecipeID
	b.addNode(domain.GraphNode{
		ID: recipeNodeID, Type: "Recipe", Label: in.Recipe.Name,
		Properties: map[string]string{"recipeId": in.Recipe.RecipeID},
	})

	for _, ing := range in.Calc.ScaledIngredients {
		ingNodeID := "ingredient:" + ing.ID
		b.addNode(domain.GraphNode{
			ID: ingNodeID, Type: "Ingredient", Label: ing.Name,
			Properties: map[string]string{
				"quantity": fmt.Sprintf("%g", ing.Quantity),
				"unit":     ing.Unit,
			},
		})
		b.addEdge(domain.GraphEdge{
			ID: uuid.NewString(), Type: "CONTAINS", Source: recipeNodeID, Target: ingNodeID,
		})
	}

	for i, step := range in.Calc.StepYields {
		stepNodeID := fmt.Sprintf("step:%s:%d", in.Recipe.RecipeID, i)
		b.addNode(domain.GraphNode{
			ID: stepNodeID, Type: "ProcessStep", Label: step.Step,
			Properties: map[string]string{"yield": fmt.Sprintf("%g", step.Yield)},
		})
		b.addEdge(domain.GraphEdge{
			ID: uuid.NewString(), Type: "USES_PROCESS", Source: recipeNodeID, Target: stepNodeID,
		})
		b.addEdge(domain.GraphEdge{
			ID: uuid.NewString(), Type: "PRODUCES", Source: stepNodeID, Target: recipeNodeID,
		})
	}

	costNodeID := "cost:" + in.Recipe.RecipeID
	b.addNode(domain.GraphNode{
		ID: costNodeID, Type: "CostAnnotation", Label: "Cost",
		Properties: map[string]string{
			"material":    fmt.Sprintf("%g", in.Calc.CostBreakdown.Material),
			"costPerUnit": fmt.Sprintf("%g", in.Calc.CostPerUnit),
		},
	})
	b.addEdge(domain.GraphEdge{
		ID: uuid.NewString(), Type: "HAS_COST", Source: recipeNodeID, Target: costNodeID,
	})

	yieldNodeID := "yield:" + in.Recipe.RecipeID
	b.addNode(domain.GraphNode{
		ID: yieldNodeID, Type: "YieldAnnotation", Label: "Yield",
		Properties: map[string]string{"overallYield": fmt.Sprintf("%g", in.Calc.OverallYield)},
	})
	b.addEdge(domain.GraphEdge{
		ID: uuid.NewString(), Type: "PRODUCES", Source: recipeNodeID, Target: yieldNodeID,
	})

	return domain.GraphSnapshot{
		SnapshotID: uuid.NewString(),
		Nodes:      b.nodes,
		Edges:      b.edges,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
