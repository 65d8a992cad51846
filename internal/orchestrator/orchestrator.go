// Package orchestrator runs the fixed five-agent pipeline
// (RecipeEngineer → ScalingCalculator → GraphBuilder → QAValidator →
// UIDesigner), enforcing the hand-off contracts, per-agent and run-level
// timeouts, and the memory guard, then persists whatever the run produced —
// directly generalizing pkg/fn.Then's short-circuit-on-error composition
// from same-typed stages to the heterogeneous per-agent DTOs the hand-off
// table requires.
package orchestrator

import (
	"context"
	"encoding/json"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/dparitosh/recipe-organizer-sub000/internal/agents"
	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/internal/events"
	"github.com/dparitosh/recipe-organizer-sub000/internal/persistence"
)

// Request is the input to one orchestration run.
type Request struct {
	UserRequest string
	Batch       *domain.Batch
	Structured  *agents.StructuredRecipeRequest
	Steps       []agents.ProcessStepInput
}

// Result is the full pipeline outcome returned to the HTTP layer.
type Result struct {
	RunID       string
	Status      domain.RunStatus
	Recipe      *domain.RecipeVersion
	Calc        *domain.CalculationResult
	Graph       *domain.GraphSnapshot
	Validation  *domain.ValidationReport
	UI          *domain.UIConfig
	Invocations []domain.AgentInvocation
	PersistedIDs *persistence.PersistedIDs
	Warnings    []string
}

// Orchestrator wires the five agents and the persistence service together.
type Orchestrator struct {
	recipeEngineer    *agents.RecipeEngineer
	scalingCalculator *agents.ScalingCalculator
	graphBuilder      *agents.GraphBuilder
	qaValidator       *agents.QAValidator
	uiDesigner        *agents.UIDesigner
	persistence       *persistence.Service
	events            *events.Publisher
	memReader         func() int
}

func New(
	recipeEngineer *agents.RecipeEngineer,
	scalingCalculator *agents.ScalingCalculator,
	graphBuilder *agents.GraphBuilder,
	qaValidator *agents.QAValidator,
	uiDesigner *agents.UIDesigner,
	persist *persistence.Service,
	publisher *events.Publisher,
) *Orchestrator {
	return &Orchestrator{
		recipeEngineer:    recipeEngineer,
		scalingCalculator: scalingCalculator,
		graphBuilder:      graphBuilder,
		qaValidator:       qaValidator,
		uiDesigner:        uiDesigner,
		persistence:       persist,
		events:            publisher,
		memReader:         processAllocMB,
	}
}

// processAllocMB reads runtime.MemStats.Alloc as a process-RSS proxy; true
// RSS would require OS-specific /proc reads this stack doesn't otherwise
// pull in.
func processAllocMB() int {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int(m.Alloc / (1024 * 1024))
}

type stepOutcome int

const (
	stepSuccess stepOutcome = iota
	stepFailed
	stepSkipped
)

// Run executes the pipeline start to finish and persists the result,
// including partial results from a mid-pipeline failure.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()

	res := &Result{RunID: runID}
	var invocations []domain.AgentInvocation
	seq := 0
	failed := false
	anySucceeded := false

	runAgent := func(name string, fn func(ctx context.Context) (string, string, error)) stepOutcome {
		seq++
		if failed {
			invocations = append(invocations, domain.AgentInvocation{
				Sequence: seq, AgentName: name, Status: domain.AgentSkipped,
			})
			return stepSkipped
		}

		if o.memReader() > MemoryBudgetMB {
			failed = true
			invocations = append(invocations, domain.AgentInvocation{
				Sequence: seq, AgentName: name, Status: domain.AgentFailed,
				Error: domain.ErrMemoryBudgetExceeded.Error(),
			})
			return stepFailed
		}

		agentCtx, agentCancel := context.WithTimeout(ctx, hardTimeout(name))
		defer agentCancel()

		begin := time.Now()
		inputSnap, outputSnap, err := fn(agentCtx)
		duration := time.Since(begin)

		inv := domain.AgentInvocation{
			Sequence: seq, AgentName: name, DurationMs: duration.Milliseconds(),
			InputSnapshot: inputSnap, OutputSnapshot: outputSnap,
		}
		if err != nil {
			failed = true
			inv.Status = domain.AgentFailed
			if agentCtx.Err() != nil {
				inv.Error = domain.ErrAgentTimeout.Error()
			} else {
				inv.Error = err.Error()
			}
			invocations = append(invocations, inv)
			return stepFailed
		}

		inv.Status = domain.AgentSuccess
		invocations = append(invocations, inv)
		anySucceeded = true
		return stepSuccess
	}

	var recipe domain.RecipeVersion
	runAgent("RecipeEngineer", func(ctx context.Context) (string, string, error) {
		in := agents.RecipeEngineerInput{UserRequest: req.UserRequest, Structured: req.Structured}
		out, err := o.recipeEngineer.Run(ctx, in)
		recipe = out
		return snapshot(in), snapshot(out), err
	})
	if !failed {
		res.Recipe = &recipe
	}

	var calc domain.CalculationResult
	batch := domain.Batch{Size: recipe.YieldTarget, Unit: recipe.YieldUnit}
	if req.Batch != nil {
		batch = *req.Batch
	}
	runAgent("ScalingCalculator", func(ctx context.Context) (string, string, error) {
		in := agents.ScalingCalculatorInput{Recipe: recipe, Target: batch, Steps: req.Steps}
		out, err := o.scalingCalculator.Run(ctx, in)
		calc = out
		return snapshot(in), snapshot(out), err
	})
	if res.Recipe != nil && !failed {
		res.Calc = &calc
	}

	var graph domain.GraphSnapshot
	runAgent("GraphBuilder", func(ctx context.Context) (string, string, error) {
		in := agents.GraphBuilderInput{Recipe: recipe, Calc: calc}
		out, err := o.graphBuilder.Run(ctx, in)
		graph = out
		return snapshot(in), snapshot(out), err
	})
	if res.Calc != nil && !failed {
		res.Graph = &graph
	}

	var validation domain.ValidationReport
	runAgent("QAValidator", func(ctx context.Context) (string, string, error) {
		in := agents.QAValidatorInput{Recipe: recipe, Calc: calc, Graph: graph}
		out, err := o.qaValidator.Run(ctx, in)
		validation = out
		return snapshot(in), snapshot(out), err
	})
	if res.Graph != nil && !failed {
		res.Validation = &validation
	}

	var ui domain.UIConfig
	runAgent("UIDesigner", func(ctx context.Context) (string, string, error) {
		in := agents.UIDesignerInput{Recipe: recipe, Calc: calc, Validation: validation}
		out, err := o.uiDesigner.Run(ctx, in)
		ui = out
		return snapshot(in), snapshot(out), err
	})
	if res.Validation != nil && !failed {
		res.UI = &ui
	}

	status := domain.RunSuccess
	if failed {
		status = domain.RunPartial
		if !anySucceeded {
			status = domain.RunFailed
		}
	}
	timedOut := ctx.Err() != nil
	if timedOut && status == domain.RunSuccess {
		status = domain.RunFailed
	}
	res.Status = status
	res.Invocations = invocations

	run := domain.OrchestrationRun{
		RunID: runID, Status: status, Timestamp: time.Now().UTC(),
		TotalDuration: time.Since(start).Milliseconds(), UserRequest: req.UserRequest,
	}

	// The run-level deadline may already be expired here, which would make
	// the persistence write itself fail; persisting partial progress on
	// timeout matters more than inheriting the expired deadline.
	persistCtx := ctx
	if timedOut {
		var detachCancel context.CancelFunc
		persistCtx, detachCancel = context.WithTimeout(context.WithoutCancel(ctx), RunTimeout)
		defer detachCancel()
	}

	ids, persistErr := o.persistence.Persist(persistCtx, &persistence.RunResult{
		Run: run, Recipe: res.Recipe, Calc: res.Calc, Graph: res.Graph,
		Validation: res.Validation, UI: res.UI, Invocations: invocations,
	})
	if persistErr != nil {
		if timedOut {
			return res, domain.ErrRunTimeout
		}
		return res, persistErr
	}
	res.PersistedIDs = ids

	if o.events != nil {
		recipeID := ""
		if res.Recipe != nil {
			recipeID = res.Recipe.RecipeID
		}
		o.events.PublishRunCompleted(persistCtx, events.RunEvent{
			RunID: runID, Status: string(status), RecipeID: recipeID,
			TotalDuration: run.TotalDuration,
		})
	}
	if timedOut {
		return res, domain.ErrRunTimeout
	}
	return res, nil
}

// snapshot renders a compact JSON snapshot for an AgentInvocation's
// input/output fields; marshal failures degrade to an empty object rather
// than aborting the run.
func snapshot(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
