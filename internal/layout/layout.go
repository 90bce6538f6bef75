// Package layout models a user-authored keyboard layout: ordered layers of
// key assignments, tap-dance definitions, a category palette, and the global
// lighting, idle, and tap-hold settings.
//
// Layers reference each other only through keycode tokens that embed either a
// numeric layer index or a stable layer identifier; resolving identifiers to
// indices happens at generation time, never inside this package's types.
package layout

import (
	"fmt"

	"keyforge/internal/board"
)

// KeyAssignment binds one visual grid cell in one layer to a keycode token,
// with optional per-key presentation overrides. Uniqueness per (layer, cell)
// is a validator invariant, not enforced here.
type KeyAssignment struct {
	Pos      board.VisualPos `json:"pos"`
	Keycode  string          `json:"keycode"`
	Color    string          `json:"color,omitempty"`
	Category string          `json:"category,omitempty"`
	Note     string          `json:"note,omitempty"`
}

// Layer is one alternate full-grid keycode assignment, switchable at runtime.
type Layer struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	// ID is the stable identifier keycode tokens may reference instead of
	// the numeric index, keeping references valid across layer reorders.
	ID          string          `json:"id,omitempty"`
	Color       string          `json:"color,omitempty"`
	Hidden      bool            `json:"hidden,omitempty"`
	Assignments []KeyAssignment `json:"assignments"`
}

// TapDance is a multi-action keycode distinguishing single tap, double tap,
// and hold.
type TapDance struct {
	Index     int    `json:"index"`
	SingleTap string `json:"single_tap"`
	DoubleTap string `json:"double_tap,omitempty"`
	Hold      string `json:"hold,omitempty"`
}

// Category groups assignments for presentation and lighting purposes.
type Category struct {
	Name     string            `json:"name"`
	Color    string            `json:"color,omitempty"`
	Lighting *LightingSettings `json:"lighting,omitempty"`
}

// LightingSettings configures the per-key lighting behavior at some scope of
// the precedence chain (global, per-layer via layer color, per-category,
// per-key via assignment color).
type LightingSettings struct {
	Enabled    bool   `json:"enabled"`
	Effect     string `json:"effect,omitempty"`
	Brightness int    `json:"brightness,omitempty"`
	Color      string `json:"color,omitempty"`
}

// IdleSettings configures what the board does after a period without input.
type IdleSettings struct {
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	Effect         string `json:"effect,omitempty"`
}

// TapHoldSettings tunes hold-tap disambiguation.
type TapHoldSettings struct {
	TappingTermMS     int  `json:"tapping_term_ms,omitempty"`
	PermissiveHold    bool `json:"permissive_hold,omitempty"`
	HoldOnOtherKeyTap bool `json:"hold_on_other_key_tap,omitempty"`
}

// Layout is the complete user-authored document this pipeline consumes.
type Layout struct {
	Name       string           `json:"name,omitempty"`
	Board      string           `json:"board,omitempty"`
	Layers     []Layer          `json:"layers"`
	TapDances  []TapDance       `json:"tap_dances,omitempty"`
	Categories []Category       `json:"categories,omitempty"`
	Lighting   LightingSettings `json:"lighting,omitempty"`
	Idle       IdleSettings     `json:"idle,omitempty"`
	TapHold    TapHoldSettings  `json:"tap_hold,omitempty"`
}

// LayerIndex builds the layer-id to numeric-index table used for two-phase
// resolution of identifier-based layer references. Only layers that declare
// an ID appear in it. A duplicated ID is an authoring error and is reported
// rather than silently shadowed.
func (l *Layout) LayerIndex() (map[string]int, error) {
	idx := make(map[string]int)
	for i, layer := range l.Layers {
		if layer.ID == "" {
			continue
		}
		if prev, dup := idx[layer.ID]; dup {
			return nil, fmt.Errorf("layer id %q declared by both layer %d and layer %d", layer.ID, prev, i)
		}
		idx[layer.ID] = i
	}
	return idx, nil
}

// CategoryByName returns the named category from the palette.
func (l *Layout) CategoryByName(name string) (*Category, bool) {
	for i := range l.Categories {
		if l.Categories[i].Name == name {
			return &l.Categories[i], true
		}
	}
	return nil, false
}

// TapDanceByIndex returns the tap-dance definition at an index.
func (l *Layout) TapDanceByIndex(idx int) (*TapDance, bool) {
	for i := range l.TapDances {
		if l.TapDances[i].Index == idx {
			return &l.TapDances[i], true
		}
	}
	return nil, false
}
