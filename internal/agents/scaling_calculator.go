package agents

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

// defaultDensity is used for any ingredient absent from the density cache;
// 1.0 g/mL approximates water and keeps mass/volume conversion a no-op.
const defaultDensity = 1.0

// defaultCostPerKg is used for any ingredient absent from the cost cache.
const defaultCostPerKg = 2.50

const (
	laborRatePerKg    = 0.08
	overheadFraction  = 0.15
	packagingPerBatch = 12.0
	byproductCredit   = 0.30
	defaultWasteFrac  = 0.02
)

// DensityLookup and CostLookup are the cache-backed lookups ScalingCalculator
// consults; both degrade to a constant default on miss rather than failing
// the run, matching the spec's "cached" (not "required") framing.
type DensityLookup interface {
	GetOrLoad(key string, load func() (float64, error)) (float64, error)
}

type CostLookup interface {
	GetOrLoad(key string, load func() (float64, error)) (float64, error)
}

// ScalingCalculator converts a RecipeVersion's ingredient percentages into
// absolute quantities for a target batch, applies plant rounding, and
// derives a cost breakdown and overall yield.
type ScalingCalculator struct {
	Density DensityLookup
	Cost    CostLookup
}

func NewScalingCalculator(density DensityLookup, cost CostLookup) *ScalingCalculator {
	return &ScalingCalculator{Density: density, Cost: cost}
}

func (a *ScalingCalculator) Name() string                 { return "ScalingCalculator" }
func (a *ScalingCalculator) LatencyTarget() time.Duration { return 500 * time.Millisecond }
func (a *ScalingCalculator) MemoryTargetMB() int          { return 120 }

func (a *ScalingCalculator) Run(ctx context.Context, in ScalingCalculatorInput) (domain.CalculationResult, error) {
	if err := domain.ValidateBatch(in.Target); err != nil {
		return domain.CalculationResult{}, NewAgentError(a.Name(), err)
	}

	scaled := make([]domain.ScaledIngredient, 0, len(in.Recipe.Ingredients))
	for _, ing := range in.Recipe.Ingredients {
		unrounded := in.Target.Size * ing.Pct / 100
		unit := ing.Unit
		if unit == "" {
			unit = in.Target.Unit
		}
		qty, err := a.convertAndRound(ctx, ing, unrounded, in.Target.Unit, unit)
		if err != nil {
			return domain.CalculationResult{}, NewAgentError(a.Name(), err)
		}
		scaled = append(scaled, domain.ScaledIngredient{
			ID: ing.ID, Name: ing.Name, Quantity: qty, Unit: unit,
		})
	}

	steps := in.Steps
	if len(steps) == 0 {
		steps = []ProcessStepInput{{Name: "Processing", Yield: 98.0}}
	}

	inputMass := in.Target.Size
	overallYield := 1.0
	stepYields := make([]domain.StepYield, 0, len(steps))
	runningMass := inputMass
	for _, step := range steps {
		outMass := runningMass * step.Yield / 100
		stepYields = append(stepYields, domain.StepYield{
			Step: step.Name, Yield: step.Yield, InMass: runningMass, OutMass: outMass,
		})
		overallYield *= step.Yield / 100
		runningMass = outMass
	}
	overallYieldPct := clamp(overallYield*100, 0, 100)

	outputMass := runningMass
	wasteMass := inputMass * defaultWasteFrac
	byproductMass := math.Max(inputMass-outputMass-wasteMass, 0)

	cost := a.costBreakdown(ctx, in.Recipe.Ingredients, scaled, inputMass, byproductMass)
	costPerUnit := 0.0
	if outputMass > 0 {
		costPerUnit = (cost.Material + cost.Labor + cost.Overhead + cost.Packaging - cost.ByproductCredit) / outputMass
	}

	return domain.CalculationResult{
		CalcID:            uuid.NewString(),
		ScalingFactor:      in.Target.Size / 100,
		BatchSize:          in.Target.Size,
		BatchUnit:          in.Target.Unit,
		ScaledIngredients:  scaled,
		StepYields:         stepYields,
		OverallYield:       overallYieldPct,
		CostBreakdown:      cost,
		CostPerUnit:        costPerUnit,
		InputMass:          inputMass,
		OutputMass:         outputMass,
		ByproductMass:      byproductMass,
		WasteMass:          wasteMass,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

// convertAndRound converts a mass-basis quantity to the ingredient's declared
// unit (via density when that unit is volumetric) and applies plant
// rounding precision by unit class.
func (a *ScalingCalculator) convertAndRound(ctx context.Context, ing domain.Ingredient, massQty float64, batchUnit, unit string) (float64, error) {
	qty := massQty
	if isVolumeUnit(unit) && a.Density != nil {
		density, err := a.Density.GetOrLoad("den:"+ing.ID, func() (float64, error) { return defaultDensity, nil })
		if err != nil {
			density = defaultDensity
		}
		if density > 0 {
			qty = massQty / density
		}
	}
	// Rounding that would move the converted quantity by more than 0.1% is
	// not applied; the unrounded value is kept instead.
	rounded := roundForUnit(unit, qty)
	if math.Abs(rounded-qty)/math.Max(qty, 1e-9) > 0.001 {
		rounded = qty
	}
	return rounded, nil
}

var volumeUnits = map[string]bool{"L": true, "ml": true, "gal": true, "fl_oz": true, "kl": true}

func isVolumeUnit(u string) bool { return volumeUnits[u] }

// roundForUnit applies the plant rounding table: whole-count units round to
// integers, sub-gram/sub-milliliter units get 3dp, everything else 2dp.
func roundForUnit(unit string, v float64) float64 {
	switch unit {
	case "pcs", "units", "ea", "dozen":
		return math.Round(v)
	case "mg", "ml":
		return roundTo(v, 3)
	default:
		return roundTo(v, 2)
	}
}

func roundTo(v float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(v*mult) / mult
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (a *ScalingCalculator) costBreakdown(ctx context.Context, ings []domain.Ingredient, scaled []domain.ScaledIngredient, inputMass, byproductMass float64) domain.CostBreakdown {
	material := 0.0
	for i, ing := range ings {
		costPerKg := defaultCostPerKg
		if a.Cost != nil {
			if c, err := a.Cost.GetOrLoad("cost:"+ing.ID, func() (float64, error) { return defaultCostPerKg, nil }); err == nil {
				costPerKg = c
			}
		}
		massKg := scaled[i].Quantity
		material += massKg * costPerKg
	}
	labor := inputMass * laborRatePerKg
	overhead := material * overheadFraction
	return domain.CostBreakdown{
		Material:        roundTo(material, 2),
		Labor:           roundTo(labor, 2),
		Overhead:        roundTo(overhead, 2),
		Packaging:       packagingPerBatch,
		ByproductCredit: roundTo(byproductMass*byproductCredit, 2),
	}
}
