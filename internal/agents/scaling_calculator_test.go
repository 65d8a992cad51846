package agents

import (
	"context"
	"math"
	"testing"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

func TestScalingCalculator_Run_Basic(t *testing.T) {
	a := NewScalingCalculator(nil, nil)
	recipe := domain.RecipeVersion{
		Ingredients: []domain.Ingredient{
			{ID: "1", Name: "Oat Flour", Pct: 85},
			{ID: "2", Name: "Whey", Pct: 15},
		},
	}
	in := ScalingCalculatorInput{Recipe: recipe, Target: domain.Batch{Size: 1000, Unit: "kg"}}

	out, err := a.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.ScaledIngredients) != 2 {
		t.Fatalf("expected 2 scaled ingredients, got %d", len(out.ScaledIngredients))
	}
	var total float64
	for _, s := range out.ScaledIngredients {
		total += s.Quantity
	}
	if math.Abs(total-1000) > 1 {
		t.Fatalf("expected scaled quantities to sum near 1000, got %v", total)
	}
	if out.OverallYield <= 0 || out.OverallYield > 100 {
		t.Fatalf("expected overall yield in (0,100], got %v", out.OverallYield)
	}
	if out.CostBreakdown.Material <= 0 {
		t.Fatalf("expected positive material cost, got %v", out.CostBreakdown.Material)
	}
}

func TestScalingCalculator_Run_InvalidBatch(t *testing.T) {
	a := NewScalingCalculator(nil, nil)
	in := ScalingCalculatorInput{
		Recipe: domain.RecipeVersion{Ingredients: []domain.Ingredient{{ID: "1", Name: "X", Pct: 100}}},
		Target: domain.Batch{Size: 0, Unit: "kg"},
	}
	if _, err := a.Run(context.Background(), in); err == nil {
		t.Fatal("expected error for zero batch size")
	}
}

func TestScalingCalculator_Run_CustomStepsMultiply(t *testing.T) {
	a := NewScalingCalculator(nil, nil)
	recipe := domain.RecipeVersion{Ingredients: []domain.Ingredient{{ID: "1", Name: "X", Pct: 100}}}
	in := ScalingCalculatorInput{
		Recipe: recipe,
		Target: domain.Batch{Size: 100, Unit: "kg"},
		Steps: []ProcessStepInput{
			{Name: "Mix", Yield: 95},
			{Name: "Bake", Yield: 90},
		},
	}
	out, err := a.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 95.0 / 100 * 90.0 / 100 * 100
	if math.Abs(out.OverallYield-want) > 0.01 {
		t.Fatalf("expected overall yield %v, got %v", want, out.OverallYield)
	}
	if len(out.StepYields) != 2 {
		t.Fatalf("expected 2 step yields, got %d", len(out.StepYields))
	}
}

func TestRoundForUnit_WholeCounts(t *testing.T) {
	if v := roundForUnit("pcs", 12.6); v != 13 {
		t.Fatalf("expected 13, got %v", v)
	}
}

func TestRoundForUnit_ThreeDecimalPlaces(t *testing.T) {
	if v := roundForUnit("mg", 1.23456); v != 1.235 {
		t.Fatalf("expected 1.235, got %v", v)
	}
}
