// Package domain defines the core recipe-formulation types, constants, and
// validation rules shared by every agent and service in the orchestration
// core. It acts as the validation gate at pipeline entry points.
package domain

import "time"

// ServiceMode selects how LLM-backed work should be dispatched.
type ServiceMode string

const (
	ServiceModeOnline  ServiceMode = "online"
	ServiceModeOffline ServiceMode = "offline"
	ServiceModeAuto    ServiceMode = "auto"
)

// RunStatus is the lifecycle status of an OrchestrationRun.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// AgentStatus is the state-machine status of a single agent invocation.
type AgentStatus string

const (
	AgentPending AgentStatus = "pending"
	AgentRunning AgentStatus = "running"
	AgentSuccess AgentStatus = "success"
	AgentFailed  AgentStatus = "failed"
	AgentSkipped AgentStatus = "skipped"
)

// CheckSeverity is the severity of a single QA check result.
type CheckSeverity string

const (
	SeverityInfo     CheckSeverity = "info"
	SeverityWarn     CheckSeverity = "warn"
	SeverityError    CheckSeverity = "error"
	SeverityCritical CheckSeverity = "critical"
)

// ValidationStatus is the aggregate status of a ValidationReport.
type ValidationStatus string

const (
	ValidationPass ValidationStatus = "pass"
	ValidationWarn ValidationStatus = "warn"
	ValidationFail ValidationStatus = "fail"
)

// AllowedUnits is the closed set of units a quantity may be expressed in.
var AllowedUnits = map[string]bool{
	"kg": true, "g": true, "lb": true, "oz": true, "mg": true, "t": true,
	"L": true, "ml": true, "gal": true, "fl_oz": true, "kl": true,
	"pcs": true, "units": true, "ea": true, "dozen": true,
}

// MaxIngredients is the cap RecipeEngineer enforces on ingredient count.
const MaxIngredients = 20

// PercentageTolerance is the allowed drift from 100% for a recipe's
// ingredient percentages.
const PercentageTolerance = 0.1

// MassBalanceTolerance is the allowed drift for the mass-balance check.
const MassBalanceTolerance = 0.01

// Ingredient is a single line item in a RecipeVersion, expressed as a
// percentage of total mass.
type Ingredient struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Pct      float64 `json:"pct"`
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Function string  `json:"function,omitempty"`
	FDCID    string  `json:"fdcId,omitempty"`
}

// RecipeVersion is the ingredient snapshot produced by RecipeEngineer.
type RecipeVersion struct {
	RecipeID        string       `json:"recipeId"`
	Name            string       `json:"name"`
	TotalPercentage float64      `json:"totalPercentage"`
	Ingredients     []Ingredient `json:"ingredients"`
	YieldTarget     float64      `json:"yieldTarget"`
	YieldUnit       string       `json:"yieldUnit"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// Batch is the requested production target for ScalingCalculator.
type Batch struct {
	Size float64 `json:"size"`
	Unit string  `json:"unit"`
}

// ScaledIngredient is one ingredient after scaling to batch size.
type ScaledIngredient struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// StepYield is the yield observed for one production step.
type StepYield struct {
	Step    string  `json:"step"`
	Yield   float64 `json:"yield"`
	InMass  float64 `json:"inMass"`
	OutMass float64 `json:"outMass"`
}

// CostBreakdown decomposes total cost per unit into its components.
type CostBreakdown struct {
	Material        float64 `json:"material"`
	Labor           float64 `json:"labor"`
	Overhead        float64 `json:"overhead"`
	Packaging       float64 `json:"packaging"`
	ByproductCredit float64 `json:"byproductCredit"`
}

// CalculationResult is produced by ScalingCalculator.
type CalculationResult struct {
	CalcID            string             `json:"calcId"`
	ScalingFactor     float64            `json:"scalingFactor"`
	BatchSize         float64            `json:"batchSize"`
	BatchUnit         string             `json:"batchUnit"`
	ScaledIngredients []ScaledIngredient `json:"scaledIngredients"`
	StepYields        []StepYield        `json:"stepYields"`
	OverallYield      float64            `json:"overallYield"`
	CostBreakdown     CostBreakdown      `json:"costBreakdown"`
	CostPerUnit       float64            `json:"costPerUnit"`
	InputMass         float64            `json:"inputMass"`
	OutputMass        float64            `json:"outputMass"`
	ByproductMass     float64            `json:"byproductMass"`
	WasteMass         float64            `json:"wasteMass"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// GraphNode is one node in a GraphSnapshot.
type GraphNode struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties"`
}

// GraphEdge is one directed edge in a GraphSnapshot.
type GraphEdge struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Properties map[string]string `json:"properties"`
}

// GraphSnapshot is produced by GraphBuilder.
type GraphSnapshot struct {
	SnapshotID string      `json:"snapshotId"`
	Nodes      []GraphNode `json:"nodes"`
	Edges      []GraphEdge `json:"edges"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// CheckResult is one line item in a ValidationReport.
type CheckResult struct {
	Name     string        `json:"name"`
	Severity CheckSeverity `json:"severity"`
	Passed   bool          `json:"passed"`
	Detail   string        `json:"detail"`
}

// ValidationReport is produced by QAValidator.
type ValidationReport struct {
	ReportID      string           `json:"reportId"`
	OverallStatus ValidationStatus `json:"overallStatus"`
	Checks        []CheckResult    `json:"checks"`
	MassBalanceOk bool             `json:"massBalanceOk"`
	YieldOk       bool             `json:"yieldOk"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Layout describes the UI page layout.
type Layout struct {
	Type        string   `json:"type"`
	Sections    []string `json:"sections"`
	Columns     int      `json:"columns"`
	Breakpoints []int    `json:"breakpoints"`
}

// Theme describes the UI palette and typography.
type Theme struct {
	Palette   map[string]string `json:"palette"`
	Typography map[string]string `json:"typography"`
	Spacing    map[string]int    `json:"spacing"`
}

// UIComponent is one entry in the UI component inventory.
type UIComponent struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Variant string        `json:"variant"`
	Props  map[string]any `json:"props"`
}

// Accessibility captures WCAG compliance metadata.
type Accessibility struct {
	WCAGLevel       string             `json:"wcagLevel"`
	ContrastRatios  map[string]float64 `json:"contrastRatios"`
}

// UIConfig is produced by UIDesigner.
type UIConfig struct {
	UIConfigID    string        `json:"uiConfigId"`
	Layout        Layout        `json:"layout"`
	Theme         Theme         `json:"theme"`
	Components    []UIComponent `json:"components"`
	Accessibility Accessibility `json:"accessibility"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// AgentInvocation is one per agent execution within a run.
type AgentInvocation struct {
	Sequence       int         `json:"sequence"`
	AgentName      string      `json:"agentName"`
	Status         AgentStatus `json:"status"`
	DurationMs     int64       `json:"duration_ms"`
	Error          string      `json:"error,omitempty"`
	InputSnapshot  string      `json:"inputSnapshot"`
	OutputSnapshot string      `json:"outputSnapshot"`
}

// OrchestrationRun is the audit root of a single pipeline execution.
type OrchestrationRun struct {
	RunID         string    `json:"runId"`
	Status        RunStatus `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	TotalDuration int64     `json:"totalDuration_ms"`
	UserRequest   string    `json:"userRequest"`
}

// RunSummary is the listRuns projection of an OrchestrationRun: enough to
// render a history table without fetching every linked artifact.
type RunSummary struct {
	RunID         string    `json:"runId"`
	Status        RunStatus `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	TotalDuration int64     `json:"totalDuration_ms"`
	RecipeName    string    `json:"recipeName,omitempty"`
	AgentCount    int       `json:"agentCount"`
	SuccessCount  int       `json:"successCount"`
}

// RunDetail is the getRun projection: the run plus every linked artifact
// (nil when the run never reached that agent) and the full invocation list,
// sorted by Sequence ascending.
type RunDetail struct {
	OrchestrationRun
	Recipe      *RecipeVersion     `json:"recipe"`
	Calc        *CalculationResult `json:"calc"`
	Graph       *GraphSnapshot     `json:"graph"`
	Validation  *ValidationReport  `json:"validation"`
	UI          *UIConfig          `json:"uiConfig"`
	Invocations []AgentInvocation  `json:"invocations"`
}

// Formulation is an externally-managed formulation identity that nutrition
// labels attach to.
type Formulation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NutritionLabel is a versioned, immutable-once-written label.
type NutritionLabel struct {
	LabelID            string         `json:"labelId"`
	FormulationID      string         `json:"formulationId"`
	Version            int            `json:"version"`
	ServingSize        float64        `json:"servingSize"`
	ServingSizeUnit    string         `json:"servingSizeUnit"`
	ServingsPerContainer *float64     `json:"servingsPerContainer,omitempty"`
	Calories           float64        `json:"calories"`
	Nutrients          map[string]any `json:"nutrients"`
	AdditionalNutrients map[string]any `json:"additionalNutrients"`
	GeneratedAt        time.Time      `json:"generatedAt"`
	GeneratedBy        string         `json:"generatedBy"`
}

// ChunkMetadata is the sidecar metadata attached to a searchable Chunk.
type ChunkMetadata struct {
	SourceType string   `json:"sourceType"`
	EntityIDs  []string `json:"entityIds"`
	RunID      string   `json:"runId,omitempty"`
}

// Chunk is a unit of searchable text with its embedding vector.
type Chunk struct {
	ChunkID   string        `json:"chunkId"`
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"embedding"`
}
