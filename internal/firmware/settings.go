package firmware

import "keyforge/internal/layout"

// Format selects which artifacts a generation run produces.
type Format int

const (
	// Both emits the key table and the settings header.
	Both Format = iota
	// TableOnly emits only the key table.
	TableOnly
	// SettingsOnly emits only the settings header.
	SettingsOnly
)

// ParseFormat maps the CLI selector to a Format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "both", "":
		return Both, true
	case "table-only", "table":
		return TableOnly, true
	case "settings-only", "settings":
		return SettingsOnly, true
	}
	return Both, false
}

// BuildSettings parameterizes one generation run.
type BuildSettings struct {
	Format        Format
	Deterministic bool
	// BoardOverrides are raw header defines the board mandates. They are
	// electrical constraints and always win over layout configuration.
	BoardOverrides map[string]string
}

// effectiveColor resolves the color for one key under the fixed precedence:
// per-key > per-category > per-layer > global default. The same chain is
// applied everywhere an effective setting is needed.
func effectiveColor(l *layout.Layout, layer *layout.Layer, a *layout.KeyAssignment) string {
	if a.Color != "" {
		return a.Color
	}
	if a.Category != "" {
		if cat, ok := l.CategoryByName(a.Category); ok && cat.Color != "" {
			return cat.Color
		}
	}
	if layer.Color != "" {
		return layer.Color
	}
	return l.Lighting.Color
}
