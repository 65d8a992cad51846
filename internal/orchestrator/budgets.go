package orchestrator

import "time"

// Budget pairs a latency target with a memory target, per §4.7/§5's table.
type Budget struct {
	Latency  time.Duration
	MemoryMB int
}

// timeoutMultiplier is applied to a stage's latency target to derive its
// hard per-agent timeout.
const timeoutMultiplier = 4

// RunTimeout is the hard run-level deadline; exceeding it aborts the run
// with RunTimeout and still proceeds to persist whatever completed.
const RunTimeout = 30 * time.Second

// MemoryBudgetMB is the default process memory ceiling checked before each
// agent; over this, the next agent is skipped and marked failed with
// MemoryBudgetExceeded.
const MemoryBudgetMB = 600

var budgets = map[string]Budget{
	"RecipeEngineer":    {Latency: 800 * time.Millisecond, MemoryMB: 150},
	"ScalingCalculator": {Latency: 500 * time.Millisecond, MemoryMB: 120},
	"GraphBuilder":      {Latency: 1200 * time.Millisecond, MemoryMB: 200},
	"QAValidator":       {Latency: 400 * time.Millisecond, MemoryMB: 80},
	"UIDesigner":        {Latency: 300 * time.Millisecond, MemoryMB: 60},
	"Persistence":       {Latency: 450 * time.Millisecond, MemoryMB: 70},
}

func hardTimeout(name string) time.Duration {
	return budgets[name].Latency * timeoutMultiplier
}
