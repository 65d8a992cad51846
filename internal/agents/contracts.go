// Package agents implements the five pipeline stages of the formulation
// core: RecipeEngineer, ScalingCalculator, GraphBuilder, QAValidator, and
// UIDesigner. Each agent reads only its documented input fields and writes
// one typed artifact; hand-off between agents is by field name, never by
// shared mutable state.
package agents

import (
	"context"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

// Agent is the uniform shape every pipeline stage implements. LatencyTarget
// and MemoryTargetMB come from the budgets table; the orchestrator uses them
// to size per-agent timeouts and memory-guard checks.
type Agent[In, Out any] interface {
	Name() string
	LatencyTarget() time.Duration
	MemoryTargetMB() int
	Run(ctx context.Context, in In) (Out, error)
}

// AgentError carries one of the stable error codes from the HTTP envelope so
// the orchestrator can dispatch on code without string matching.
type AgentError struct {
	Code    string
	Agent   string
	Wrapped error
}

func (e *AgentError) Error() string {
	return e.Agent + ": " + e.Code + ": " + e.Wrapped.Error()
}

func (e *AgentError) Unwrap() error { return e.Wrapped }

// NewAgentError wraps err with the stable code domain.Code would derive for
// it and the name of the agent that produced it.
func NewAgentError(agent string, err error) *AgentError {
	return &AgentError{Code: domain.Code(err), Agent: agent, Wrapped: err}
}

// RecipeEngineerInput is the sole input RecipeEngineer reads.
type RecipeEngineerInput struct {
	UserRequest string
	Structured  *StructuredRecipeRequest
}

// StructuredRecipeRequest is the optional pre-parsed body a caller may
// supply instead of free text, skipping LLM-assisted extraction entirely.
type StructuredRecipeRequest struct {
	Ingredients []domain.Ingredient
	YieldTarget float64
	YieldUnit   string
}

// ScalingCalculatorInput reads RecipeVersion and the requested batch. Steps
// is optional; when omitted a single default processing step is assumed.
type ScalingCalculatorInput struct {
	Recipe domain.RecipeVersion
	Target domain.Batch
	Steps  []ProcessStepInput
}

// ProcessStepInput names one production step and its expected yield, used
// to seed ScalingCalculator's multiplicative yield composition.
type ProcessStepInput struct {
	Name  string
	Yield float64
}

// GraphBuilderInput reads RecipeVersion and CalculationResult.
type GraphBuilderInput struct {
	Recipe domain.RecipeVersion
	Calc   domain.CalculationResult
}

// QAValidatorInput reads RecipeVersion, CalculationResult and GraphSnapshot.
type QAValidatorInput struct {
	Recipe domain.RecipeVersion
	Calc   domain.CalculationResult
	Graph  domain.GraphSnapshot
}

// UIDesignerInput reads RecipeVersion, CalculationResult and ValidationReport.
type UIDesignerInput struct {
	Recipe     domain.RecipeVersion
	Calc       domain.CalculationResult
	Validation domain.ValidationReport
}
