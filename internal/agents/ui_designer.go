package agents

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

// maxUIConfigBytes is the serialization size cap from spec §4.6; enforced
// in tests via json.Marshal + len(), never on the hot path.
const maxUIConfigBytes = 60 * 1024

// minContrastRatio is the WCAG AA minimum for normal-sized text.
const minContrastRatio = 4.5

// UIDesigner emits a UI config: a palette with WCAG-AA-compliant contrast,
// a component inventory derived from which sections are present, and
// breakpoints for three widths.
type UIDesigner struct{}

func NewUIDesigner() *UIDesigner { return &UIDesigner{} }

func (a *UIDesigner) Name() string                 { return "UIDesigner" }
func (a *UIDesigner) LatencyTarget() time.Duration { return 300 * time.Millisecond }
func (a *UIDesigner) MemoryTargetMB() int          { return 60 }

func (a *UIDesigner) Run(ctx context.Context, in UIDesignerInput) (domain.UIConfig, error) {
	theme := a.theme()

	components := []domain.UIComponent{
		{ID: "ingredients", Type: "table", Variant: "default", Props: map[string]any{"rows": len(in.Recipe.Ingredients)}},
	}
	if in.Calc.CostBreakdown.Material > 0 {
		components = append(components, domain.UIComponent{
			ID: "cost-panel", Type: "panel", Variant: "cost", Props: map[string]any{"costPerUnit": in.Calc.CostPerUnit},
		})
	}
	if in.Calc.OverallYield < 100 {
		components = append(components, domain.UIComponent{
			ID: "yield-gauge", Type: "gauge", Variant: "yield", Props: map[string]any{"value": in.Calc.OverallYield},
		})
	}
	if len(in.Validation.Checks) > 0 {
		components = append(components, domain.UIComponent{
			ID: "validation-summary", Type: "list", Variant: "checks", Props: map[string]any{"status": string(in.Validation.OverallStatus)},
		})
	}

	cfg := domain.UIConfig{
		UIConfigID: uuid.NewString(),
		Layout: domain.Layout{
			Type:        "dashboard",
			Sections:    sectionNames(components),
			Columns:     2,
			Breakpoints: []int{480, 768, 1280},
		},
		Theme:      theme,
		Components: components,
		Accessibility: domain.Accessibility{
			WCAGLevel: "AA",
			ContrastRatios: map[string]float64{
				"foreground_on_background": contrastRatio(theme.Palette["foreground"], theme.Palette["background"]),
			},
		},
		CreatedAt: time.Now().UTC(),
	}

	return cfg, nil
}

func sectionNames(components []domain.UIComponent) []string {
	names := make([]string, len(components))
	for i, c := range components {
		names[i] = c.ID
	}
	return names
}

func (a *UIDesigner) theme() domain.Theme {
	return domain.Theme{
		Palette: map[string]string{
			"foreground": "#1a1a1a",
			"background": "#ffffff",
			"accent":     "#2563eb",
		},
		Typography: map[string]string{"base": "16px", "heading": "24px"},
		Spacing:    map[string]int{"sm": 4, "md": 8, "lg": 16},
	}
}

// contrastRatio computes the WCAG relative-luminance contrast ratio between
// two "#rrggbb" hex colors.
func contrastRatio(hexA, hexB string) float64 {
	la := relativeLuminance(hexA)
	lb := relativeLuminance(hexB)
	lighter, darker := math.Max(la, lb), math.Min(la, lb)
	return (lighter + 0.05) / (darker + 0.05)
}

func relativeLuminance(hex string) float64 {
	r, g, b := hexToRGB(hex)
	rl := channelLuminance(r)
	gl := channelLuminance(g)
	bl := channelLuminance(b)
	return 0.2126*rl + 0.7152*gl + 0.0722*bl
}

func channelLuminance(c float64) float64 {
	c /= 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func hexToRGB(hex string) (r, g, b float64) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	parse := func(s string) float64 {
		var v int
		for _, c := range s {
			v *= 16
			switch {
			case c >= '0' && c <= '9':
				v += int(c - '0')
			case c >= 'a' && c <= 'f':
				v += int(c-'a') + 10
			case c >= 'A' && c <= 'F':
				v += int(c-'A') + 10
			}
		}
		return float64(v)
	}
	return parse(hex[1:3]), parse(hex[3:5]), parse(hex[5:7])
}

// sizeWithinBudget reports whether cfg serializes under maxUIConfigBytes.
// Exercised only in tests, not the hot path.
func sizeWithinBudget(cfg domain.UIConfig) (int, bool, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0, false, err
	}
	return len(b), len(b) < maxUIConfigBytes, nil
}
