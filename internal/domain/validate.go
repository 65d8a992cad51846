package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Injection patterns — fragments that should never appear in a free-text
// formulation request. Mirrors the teacher's query-sanitization approach.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|ALTER|EXEC|UNION)\b.*\b(TABLE|FROM|INTO|SELECT|SET)\b`),
	regexp.MustCompile(`(?i)(--|;)\s*(DROP|DELETE|SELECT)`),
	regexp.MustCompile(`(?i)\$\{.*\}`),
	regexp.MustCompile(`(?i)\{\s*"\$[a-z]+"\s*:`),
}

const minRequestLength = 5

// ValidateUserRequest rejects empty, too-short, or injection-bearing free
// text before it ever reaches the LLM or RecipeEngineer's parser.
func ValidateUserRequest(text string) error {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minRequestLength {
		return NewValidationError("userRequest", trimmed, ErrNoOperations)
	}
	for _, pat := range injectionPatterns {
		if pat.MatchString(trimmed) {
			return NewValidationError("userRequest", trimmed, ErrQueryInjection)
		}
	}
	return nil
}

// ValidateBatch checks a requested production target.
func ValidateBatch(b Batch) error {
	if b.Size <= 0 {
		return NewValidationError("batch.size", fmt.Sprintf("%g", b.Size), ErrInvalidBatch)
	}
	if !AllowedUnits[b.Unit] {
		return NewValidationError("batch.unit", b.Unit, ErrUnitNotAllowed)
	}
	return nil
}

// ValidateRecipe enforces the RecipeVersion invariants from spec §3: ≤20
// ingredients, percentages sum to 100±0.1, every pct positive, and
// any declared unit is in the allowed set.
func ValidateRecipe(r RecipeVersion) error {
	if len(r.Ingredients) == 0 {
		return NewValidationError("ingredients", "", ErrNoLineItems)
	}
	if len(r.Ingredients) > MaxIngredients {
		return NewValidationError("ingredients", fmt.Sprintf("%d", len(r.Ingredients)), ErrTooManyIngredients)
	}

	sum := 0.0
	for _, ing := range r.Ingredients {
		if ing.Pct <= 0 {
			return NewValidationError("ingredients["+ing.Name+"].pct", fmt.Sprintf("%g", ing.Pct), ErrNoLineItems)
		}
		if ing.Unit != "" && !AllowedUnits[ing.Unit] {
			return NewValidationError("ingredients["+ing.Name+"].unit", ing.Unit, ErrUnitNotAllowed)
		}
		sum += ing.Pct
	}

	if math.Abs(sum-100) > PercentageTolerance {
		return NewValidationError("totalPercentage", fmt.Sprintf("%.2f%%", sum), ErrPercentageMismatch)
	}
	return nil
}

// ValidateMassBalance implements QAValidator check (d): input must equal
// output + byproduct + waste within MassBalanceTolerance.
func ValidateMassBalance(input, output, byproduct, waste float64) error {
	delta := math.Abs(input - (output + byproduct + waste))
	if delta > MassBalanceTolerance {
		return NewValidationError("massBalance", fmt.Sprintf("%.4f", delta), ErrMassBalance)
	}
	return nil
}

// YieldSeverity classifies a per-step or overall yield per the boundary
// behaviors in spec §8: <60 critical, <80 warn, else info.
func YieldSeverity(yield float64) CheckSeverity {
	switch {
	case yield < 60:
		return SeverityCritical
	case yield < 80:
		return SeverityWarn
	default:
		return SeverityInfo
	}
}
