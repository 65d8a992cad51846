// Package reqparser extracts candidate ingredient/percentage/yield-target
// mentions from unstructured formulation requests using regex patterns and a
// stopword lexicon. No external dependencies — this is the deterministic
// fallback RecipeEngineer consults alongside (never instead of) the LLM.
package reqparser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

// IngredientMention is one extracted ingredient/percentage candidate.
type IngredientMention struct {
	Name       string
	Pct        float64
	Confidence float64
	Span       string
}

// YieldMention is an extracted batch/yield target, e.g. "500 kg batch".
type YieldMention struct {
	Target float64
	Unit   string
}

// pctAfterRe matches "<name> <number>%" and pctBeforeRe "<number>% <name>", the two dominant
// orderings seen in free-text formulation requests.
var pctAfterRe = regexp.MustCompile(`(?i)([a-z][a-z0-9\s\-]{1,40}?)\s+(?:at\s+)?(\d{1,3}(?:\.\d+)?)\s*%`)
var pctBeforeRe = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d+)?)\s*%\s+([a-z][a-z0-9\s\-]{1,40})`)
var yieldRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kg|g|lb|oz|mg|t|l|ml|gal|fl_?oz|kl|pcs|units|ea|dozen)\b`)

// stopwords are connective words that should never be treated as an
// ingredient name when they end up captured by the generic name group.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true, "with": true,
	"for": true, "to": true, "at": true, "in": true, "batch": true, "recipe": true,
	"make": true, "create": true, "formula": true,
}

// ExtractIngredients finds all "<name> <pct>%" style mentions in text,
// deduplicating by normalized name and keeping the highest-confidence
// mention for each. Results are not guaranteed to sum to 100 — that check
// belongs to domain.ValidateRecipe after RecipeEngineer assembles the list.
func ExtractIngredients(text string) []IngredientMention {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	seen := make(map[string]IngredientMention)

	collect := func(nameRaw, pctRaw, span string, confidence float64, nameFollowsPct bool) {
		// Keep only the words next to the percentage, cut at stopwords and numbers.
		words := strings.Fields(normalizeName(nameRaw))
		lo, hi := 0, len(words)
		for i := len(words) - 1; i >= 0; i-- {
			if stopwords[words[i]] || (words[i][0] >= '0' && words[i][0] <= '9') {
				if nameFollowsPct {
					hi = i
				} else if lo == 0 {
					lo = i + 1
				}
			}
		}
		name := strings.Join(words[lo:hi], " ")
		if name == "" || stopwords[name] {
			return
		}
		pct, err := strconv.ParseFloat(pctRaw, 64)
		if err != nil || pct <= 0 || pct > 100 {
			return
		}
		prev, ok := seen[name]
		if !ok || confidence > prev.Confidence {
			seen[name] = IngredientMention{Name: titleCase(name), Pct: pct, Confidence: confidence, Span: strings.TrimSpace(span)}
		}
	}

	for _, m := range pctBeforeRe.FindAllStringSubmatch(text, -1) {
		collect(m[2], m[1], m[0], 0.9, true)
	}
	for _, m := range pctAfterRe.FindAllStringSubmatch(text, -1) {
		collect(m[1], m[2], m[0], 0.85, false)
	}

	out := make([]IngredientMention, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	return out
}

// ExtractYield finds the first batch-size mention with a unit in the
// allowed set, or a zero YieldMention if none was found.
func ExtractYield(text string) YieldMention {
	for _, m := range yieldRe.FindAllStringSubmatch(text, -1) {
		unit := normalizeUnit(m[2])
		if !domain.AllowedUnits[unit] {
			continue
		}
		val, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return YieldMention{Target: val, Unit: unit}
	}
	return YieldMention{}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, " \t-")
	fields := strings.Fields(s)
	for len(fields) > 0 && stopwords[fields[0]] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func normalizeUnit(u string) string {
	u = strings.ToLower(u)
	if u == "floz" {
		return "fl_oz"
	}
	return u
}
