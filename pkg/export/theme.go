package export

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// DefaultThemeName is the theme registered by NewThemes.
const DefaultThemeName = "report"

// Token names the report template reads.
const (
	TokenBrand   = "brand"
	TokenMuted   = "muted"
	TokenBorder  = "border"
	TokenHeader  = "header"
	TokenSurface = "surface"
	TokenFont    = "font"
)

// DefaultTokens is the palette used when no theme overrides a token.
func DefaultTokens() map[string]string {
	return map[string]string{
		TokenBrand:   "#2563eb",
		TokenMuted:   "#6b7280",
		TokenBorder:  "#e5e7eb",
		TokenHeader:  "#f3f4f6",
		TokenSurface: "#f8fafc",
		TokenFont:    "Arial, sans-serif",
	}
}

// DefaultManifest describes the built-in report theme with a print friendly
// monochrome variant.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens:  DefaultTokens(),
		Templates: map[string]string{
			"export.report": reportTemplate,
		},
		Variants: map[string]theme.Variant{
			"mono": {
				Tokens: map[string]string{
					TokenBrand:  "#111827",
					TokenHeader: "#ffffff",
				},
			},
		},
	}
}

// Themes is a theme.ThemeSelector over a go-theme registry of report
// manifests. Unknown theme names fall back to DefaultThemeName.
type Themes struct {
	registry *theme.MemoryRegistry
	selector theme.Selector
}

var _ theme.ThemeSelector = (*Themes)(nil)

// NewThemes returns a catalog holding the default report theme.
func NewThemes() (*Themes, error) {
	registry := theme.NewRegistry()
	t := &Themes{
		registry: registry,
		selector: theme.Selector{Registry: registry, DefaultTheme: DefaultThemeName},
	}
	if err := t.Register(DefaultManifest()); err != nil {
		return nil, err
	}
	return t, nil
}

// Register adds manifest to the catalog.
func (t *Themes) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return fmt.Errorf("export: theme manifest name is required")
	}
	if err := t.registry.Register(manifest); err != nil {
		return fmt.Errorf("export: register theme %q: %w", manifest.Name, err)
	}
	return nil
}

// Names lists registered theme names.
func (t *Themes) Names() []string {
	var names []string
	for _, ref := range t.registry.List() {
		if !slices.Contains(names, ref.Name) {
			names = append(names, ref.Name)
		}
	}
	return names
}

// Select resolves a theme and variant. An unknown variant is an error.
func (t *Themes) Select(name, variant string, opts ...theme.QueryOption) (*theme.Selection, error) {
	selection, err := t.selector.Select(name, variant, opts...)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if selection.Variant != "" {
		if _, ok := selection.Manifest.Variants[selection.Variant]; !ok {
			return nil, fmt.Errorf("export: theme %q has no variant %q", selection.Manifest.Name, selection.Variant)
		}
	}
	return selection, nil
}

// tokensFor lays the selection's tokens over DefaultTokens.
func tokensFor(selection *theme.Selection) map[string]string {
	tokens := DefaultTokens()
	if selection == nil {
		return tokens
	}
	maps.Copy(tokens, selection.Tokens())
	return tokens
}
