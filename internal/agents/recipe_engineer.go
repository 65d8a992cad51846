package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/internal/reqparser"
)

// Completer is the subset of internal/llmclient.CompletionClient RecipeEngineer
// needs: gap-filling name normalization and function tagging, never quantity
// invention. A nil Completer means deterministic-only parsing.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	IsAvailable(ctx context.Context) bool
}

// IngredientLookup and FDCLookup are the cache-backed lookups RecipeEngineer
// consults to avoid re-deriving an ingredient's function tag and FDC
// reference on every mention; both degrade to the load function's fallback
// on a cold cache rather than failing the run.
type IngredientLookup interface {
	GetOrLoad(key string, load func() (string, error)) (string, error)
}

type FDCLookup interface {
	GetOrLoad(key string, load func() (string, error)) (string, error)
}

// RecipeEngineer parses a user request into a validated RecipeVersion.
// Structured input is trusted as-is (modulo validation); free text is parsed
// deterministically via internal/reqparser, with the LLM consulted only to
// normalize ingredient names and tag functions.
type RecipeEngineer struct {
	LLM        Completer
	Ingredient IngredientLookup
	FDC        FDCLookup
}

func NewRecipeEngineer(llm Completer, ingredient IngredientLookup, fdc FDCLookup) *RecipeEngineer {
	return &RecipeEngineer{LLM: llm, Ingredient: ingredient, FDC: fdc}
}

func (a *RecipeEngineer) Name() string                 { return "RecipeEngineer" }
func (a *RecipeEngineer) LatencyTarget() time.Duration { return 800 * time.Millisecond }
func (a *RecipeEngineer) MemoryTargetMB() int          { return 150 }

func (a *RecipeEngineer) Run(ctx context.Context, in RecipeEngineerInput) (domain.RecipeVersion, error) {
	var recipe domain.RecipeVersion

	if in.Structured != nil {
		recipe = a.fromStructured(*in.Structured)
	} else {
		if err := domain.ValidateUserRequest(in.UserRequest); err != nil {
			return domain.RecipeVersion{}, NewAgentError(a.Name(), err)
		}
		recipe = a.fromFreeText(ctx, in.UserRequest)
	}

	if err := domain.ValidateRecipe(recipe); err != nil {
		return domain.RecipeVersion{}, NewAgentError(a.Name(), err)
	}
	return recipe, nil
}

func (a *RecipeEngineer) fromStructured(req StructuredRecipeRequest) domain.RecipeVersion {
	ings := make([]domain.Ingredient, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		if ing.ID == "" {
			ing.ID = uuid.NewString()
		}
		ings[i] = ing
	}
	return domain.RecipeVersion{
		RecipeID:    uuid.NewString(),
		Ingredients: ings,
		YieldTarget: req.YieldTarget,
		YieldUnit:   req.YieldUnit,
		CreatedAt:   time.Now().UTC(),
	}
}

// fromFreeText extracts candidate ingredients deterministically, then (when
// an LLM client is available) asks it only to normalize names and assign a
// function tag — the extracted percentages are never replaced by LLM output.
func (a *RecipeEngineer) fromFreeText(ctx context.Context, text string) domain.RecipeVersion {
	mentions := reqparser.ExtractIngredients(text)
	yield := reqparser.ExtractYield(text)

	ings := make([]domain.Ingredient, 0, len(mentions))
	for _, m := range mentions {
		ing := domain.Ingredient{
			ID:   uuid.NewString(),
			Name: m.Name,
			Pct:  m.Pct,
		}
		if a.LLM != nil && a.LLM.IsAvailable(ctx) {
			ing.Function = a.lookupFunction(ctx, ing.Name)
		}
		ing.FDCID = a.lookupFDCID(ing.Name)
		ings = append(ings, ing)
	}

	return domain.RecipeVersion{
		RecipeID:    uuid.NewString(),
		Ingredients: ings,
		YieldTarget: yield.Target,
		YieldUnit:   yield.Unit,
		CreatedAt:   time.Now().UTC(),
	}
}

// lookupFunction consults the ingredient cache before calling the LLM, so
// repeated mentions of the same ingredient across runs cost one completion
// call instead of one per mention.
func (a *RecipeEngineer) lookupFunction(ctx context.Context, name string) string {
	load := func() (string, error) { return a.normalizeFunction(ctx, name) }
	if a.Ingredient == nil {
		out, _ := load()
		return out
	}
	out, err := a.Ingredient.GetOrLoad("ing:"+strings.ToLower(name), load)
	if err != nil {
		return ""
	}
	return out
}

func (a *RecipeEngineer) normalizeFunction(ctx context.Context, name string) (string, error) {
	prompt := fmt.Sprintf("In one word, what is the functional role (e.g. binder, sweetener, flavoring, protein source) of the ingredient %q in a food formulation? Reply with only the word.", name)
	return a.LLM.Complete(ctx, prompt)
}

// lookupFDCID resolves a cached USDA FDC identifier for name. Resolving an
// unseen name against the FDC database is out of scope here (see the
// ingestion Non-goal); a miss simply leaves the ingredient's FDCID empty and
// is not retried.
func (a *RecipeEngineer) lookupFDCID(name string) string {
	if a.FDC == nil {
		return ""
	}
	out, err := a.FDC.GetOrLoad("fdc:"+strings.ToLower(name), func() (string, error) { return "", nil })
	if err != nil {
		return ""
	}
	return out
}
