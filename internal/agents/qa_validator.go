package agents

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/fn"
)

// maxDecimalPlaces is the precision-sanity threshold of check (f): more than
// this many decimal places on a scaled quantity triggers a warning.
const maxDecimalPlaces = 3

// QAValidator runs the fixed six-check list of spec §4.6 against a recipe,
// its calculation, and its graph snapshot, returning summaries only — never
// the recipe body itself.
type QAValidator struct{}

func NewQAValidator() *QAValidator { return &QAValidator{} }

func (a *QAValidator) Name() string                 { return "QAValidator" }
func (a *QAValidator) LatencyTarget() time.Duration { return 400 * time.Millisecond }
func (a *QAValidator) MemoryTargetMB() int          { return 80 }

func (a *QAValidator) Run(ctx context.Context, in QAValidatorInput) (domain.ValidationReport, error) {
	checks := []domain.CheckResult{
		a.checkPercentageSum(in.Recipe),
		a.checkPositiveQuantities(in.Calc),
		a.checkUnitsAllowed(in.Calc),
		a.checkMassBalance(in.Calc),
		a.checkStepYields(in.Calc),
		a.checkDecimalPrecision(in.Calc),
	}

	massBalanceOk := checks[3].Passed
	yieldOk := checks[4].Passed

	bySeverity := fn.GroupBy(checks, func(c domain.CheckResult) domain.CheckSeverity { return c.Severity })
	overall := domain.ValidationPass
	switch {
	case len(bySeverity[domain.SeverityError]) > 0 || len(bySeverity[domain.SeverityCritical]) > 0:
		overall = domain.ValidationFail
	case len(bySeverity[domain.SeverityWarn]) > 0:
		overall = domain.ValidationWarn
	}

	return domain.ValidationReport{
		ReportID:      uuid.NewString(),
		OverallStatus: overall,
		Checks:        checks,
		MassBalanceOk: massBalanceOk,
		YieldOk:       yieldOk,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (a *QAValidator) checkPercentageSum(r domain.RecipeVersion) domain.CheckResult {
	sum := 0.0
	for _, ing := range r.Ingredients {
		sum += ing.Pct
	}
	ok := math.Abs(sum-100) <= domain.PercentageTolerance
	sev := domain.SeverityInfo
	if !ok {
		sev = domain.SeverityError
	}
	return domain.CheckResult{
		Name: "percentage_sum", Severity: sev, Passed: ok,
		Detail: fmt.Sprintf("ingredient percentages sum to %.2f%%", sum),
	}
}

func (a *QAValidator) checkPositiveQuantities(c domain.CalculationResult) domain.CheckResult {
	for _, ing := range c.ScaledIngredients {
		if ing.Quantity <= 0 {
			return domain.CheckResult{
				Name: "positive_quantities", Severity: domain.SeverityError, Passed: false,
				Detail: fmt.Sprintf("ingredient %q has non-positive quantity %g", ing.Name, ing.Quantity),
			}
		}
	}
	return domain.CheckResult{Name: "positive_quantities", Severity: domain.SeverityInfo, Passed: true, Detail: "all quantities positive"}
}

func (a *QAValidator) checkUnitsAllowed(c domain.CalculationResult) domain.CheckResult {
	for _, ing := range c.ScaledIngredients {
		if ing.Unit != "" && !domain.AllowedUnits[ing.Unit] {
			return domain.CheckResult{
				Name: "units_allowed", Severity: domain.SeverityError, Passed: false,
				Detail: fmt.Sprintf("ingredient %q uses disallowed unit %q", ing.Name, ing.Unit),
			}
		}
	}
	return domain.CheckResult{Name: "units_allowed", Severity: domain.SeverityInfo, Passed: true, Detail: "all units in allowed set"}
}

func (a *QAValidator) checkMassBalance(c domain.CalculationResult) domain.CheckResult {
	err := domain.ValidateMassBalance(c.InputMass, c.OutputMass, c.ByproductMass, c.WasteMass)
	if err != nil {
		return domain.CheckResult{
			Name: "mass_balance", Severity: domain.SeverityError, Passed: false,
			Detail: err.Error(),
		}
	}
	return domain.CheckResult{
		Name: "mass_balance", Severity: domain.SeverityInfo, Passed: true,
		Detail: fmt.Sprintf("input %.4f == output %.4f + byproduct %.4f + waste %.4f", c.InputMass, c.OutputMass, c.ByproductMass, c.WasteMass),
	}
}

func (a *QAValidator) checkStepYields(c domain.CalculationResult) domain.CheckResult {
	worst := domain.SeverityInfo
	worstStep := ""
	for _, sy := range c.StepYields {
		if sy.Yield < 0 || sy.Yield > 100 {
			return domain.CheckResult{
				Name: "step_yields", Severity: domain.SeverityError, Passed: false,
				Detail: fmt.Sprintf("step %q yield %.2f out of [0,100]", sy.Step, sy.Yield),
			}
		}
		sev := domain.YieldSeverity(sy.Yield)
		if severityRank(sev) > severityRank(worst) {
			worst = sev
			worstStep = sy.Step
		}
	}
	passed := worst != domain.SeverityCritical && worst != domain.SeverityError
	detail := "all step yields within acceptable range"
	if worstStep != "" {
		detail = fmt.Sprintf("lowest-yield step %q at %s severity", worstStep, worst)
	}
	return domain.CheckResult{Name: "step_yields", Severity: worst, Passed: passed, Detail: detail}
}

func (a *QAValidator) checkDecimalPrecision(c domain.CalculationResult) domain.CheckResult {
	for _, ing := range c.ScaledIngredients {
		if decimalPlaces(ing.Quantity) > maxDecimalPlaces {
			return domain.CheckResult{
				Name: "decimal_precision", Severity: domain.SeverityWarn, Passed: true,
				Detail: fmt.Sprintf("ingredient %q quantity %g exceeds %d decimal places", ing.Name, ing.Quantity, maxDecimalPlaces),
			}
		}
	}
	return domain.CheckResult{Name: "decimal_precision", Severity: domain.SeverityInfo, Passed: true, Detail: "all quantities within precision sanity"}
}

func severityRank(s domain.CheckSeverity) int {
	switch s {
	case domain.SeverityInfo:
		return 0
	case domain.SeverityWarn:
		return 1
	case domain.SeverityError:
		return 2
	case domain.SeverityCritical:
		return 3
	default:
		return 0
	}
}

func decimalPlaces(v float64) int {
	for places := 0; places <= 10; places++ {
		mult := math.Pow(10, float64(places))
		if math.Abs(v*mult-math.Round(v*mult)) < 1e-9 {
			return places
		}
	}
	return 10
}
