package agents

import (
	"context"
	"testing"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

func validCalc() domain.CalculationResult {
	return domain.CalculationResult{
		ScaledIngredients: []domain.ScaledIngredient{
			{ID: "1", Name: "Oat Flour", Quantity: 850, Unit: "kg"},
			{ID: "2", Name: "Whey", Quantity: 150, Unit: "kg"},
		},
		StepYields: []domain.StepYield{{Step: "Mixing", Yield: 98, InMass: 1000, OutMass: 980}},
		InputMass:  1000, OutputMass: 980, ByproductMass: 0, WasteMass: 20,
	}
}

func validRecipe() domain.RecipeVersion {
	return domain.RecipeVersion{
		Ingredients: []domain.Ingredient{
			{Name: "Oat Flour", Pct: 85},
			{Name: "Whey", Pct: 15},
		},
	}
}

func TestQAValidator_Run_AllPass(t *testing.T) {
	a := NewQAValidator()
	out, err := a.Run(context.Background(), QAValidatorInput{Recipe: validRecipe(), Calc: validCalc()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.OverallStatus != domain.ValidationPass {
		t.Fatalf("expected pass, got %s (checks=%+v)", out.OverallStatus, out.Checks)
	}
	if len(out.Checks) != 6 {
		t.Fatalf("expected 6 checks, got %d", len(out.Checks))
	}
}

func TestQAValidator_Run_MassBalanceFails(t *testing.T) {
	a := NewQAValidator()
	calc := validCalc()
	calc.OutputMass = 500 // way off from input 1000
	out, err := a.Run(context.Background(), QAValidatorInput{Recipe: validRecipe(), Calc: calc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.OverallStatus != domain.ValidationFail {
		t.Fatalf("expected fail, got %s", out.OverallStatus)
	}
	if out.MassBalanceOk {
		t.Fatal("expected MassBalanceOk=false")
	}
}

func TestQAValidator_Run_LowYieldWarns(t *testing.T) {
	a := NewQAValidator()
	calc := validCalc()
	calc.StepYields = []domain.StepYield{{Step: "Drying", Yield: 75, InMass: 1000, OutMass: 750}}
	out, err := a.Run(context.Background(), QAValidatorInput{Recipe: validRecipe(), Calc: calc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.OverallStatus != domain.ValidationWarn {
		t.Fatalf("expected warn for 75%% yield, got %s", out.OverallStatus)
	}
}

func TestQAValidator_Run_CriticalYieldFails(t *testing.T) {
	a := NewQAValidator()
	calc := validCalc()
	calc.StepYields = []domain.StepYield{{Step: "Drying", Yield: 40, InMass: 1000, OutMass: 400}}
	out, err := a.Run(context.Background(), QAValidatorInput{Recipe: validRecipe(), Calc: calc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.OverallStatus != domain.ValidationFail {
		t.Fatalf("expected fail for critical 40%% yield, got %s", out.OverallStatus)
	}
}

func TestQAValidator_Run_CriticalYieldPreservesSeverity(t *testing.T) {
	a := NewQAValidator()
	calc := validCalc()
	calc.StepYields = []domain.StepYield{{Step: "Drying", Yield: 40, InMass: 1000, OutMass: 400}}
	out, err := a.Run(context.Background(), QAValidatorInput{Recipe: validRecipe(), Calc: calc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var stepYields domain.CheckResult
	for _, c := range out.Checks {
		if c.Name == "step_yields" {
			stepYields = c
		}
	}
	if stepYields.Severity != domain.SeverityCritical {
		t.Fatalf("expected step_yields severity to stay %q, got %q", domain.SeverityCritical, stepYields.Severity)
	}
}

func TestDecimalPlaces(t *testing.T) {
	cases := map[float64]int{
		1:       0,
		1.5:     1,
		1.25:    2,
		1.234:   3,
		1.2345:  4,
	}
	for v, want := range cases {
		if got := decimalPlaces(v); got != want {
			t.Errorf("decimalPlaces(%v) = %d, want %d", v, got, want)
		}
	}
}
