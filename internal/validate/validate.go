package validate

import (
	"fmt"

	"keyforge/internal/board"
	"keyforge/internal/coords"
	"keyforge/internal/keycode"
	"keyforge/internal/layout"
)

// maxSuggestions bounds how many fuzzy matches an invalid-keycode error
// carries.
const maxSuggestions = 3

// Validate checks every layer of the layout against the mapping and the
// resolver. It always returns a report; it never fails.
//
// Per-layer checks run in a fixed order: an empty layer short-circuits (no
// per-position checks run for it), then the assignment count is compared to
// the board's key count, then each assignment is checked for duplicate
// position, keycode grammar, position existence, and matrix bounds.
func Validate(l *layout.Layout, m *coords.Mapping, r keycode.Resolver) *Report {
	report := &Report{}

	for i := range l.Layers {
		validateLayer(report, &l.Layers[i], i, m, r)
	}

	// Advisory only: an under-populated first layer usually means the
	// author has not finished the base layer yet.
	if len(l.Layers) > 0 {
		distinct := make(map[board.VisualPos]struct{})
		for _, a := range l.Layers[0].Assignments {
			distinct[a.Pos] = struct{}{}
		}
		if len(distinct) < m.KeyCount() {
			report.addWarning(Problem{
				Kind:  UnderPopulated,
				Layer: 0,
				Message: fmt.Sprintf("first layer assigns %d of %d keys",
					len(distinct), m.KeyCount()),
			})
		}
	}

	return report
}

func validateLayer(report *Report, layer *layout.Layer, idx int, m *coords.Mapping, r keycode.Resolver) {
	if len(layer.Assignments) == 0 {
		report.addError(Problem{
			Kind:    EmptyLayer,
			Layer:   idx,
			Message: fmt.Sprintf("layer %q has no key assignments", layer.Name),
		})
		return
	}

	if len(layer.Assignments) != m.KeyCount() {
		report.addError(Problem{
			Kind:  MismatchedKeyCount,
			Layer: idx,
			Message: fmt.Sprintf("expected %d assignments, found %d",
				m.KeyCount(), len(layer.Assignments)),
		})
	}

	seen := make(map[board.VisualPos]struct{}, len(layer.Assignments))
	for _, a := range layer.Assignments {
		pos := a.Pos

		if _, dup := seen[pos]; dup {
			report.addError(Problem{
				Kind:    DuplicatePosition,
				Layer:   idx,
				Pos:     &pos,
				Message: fmt.Sprintf("position %s is assigned more than once", pos),
			})
		}
		seen[pos] = struct{}{}

		if !r.IsValid(a.Keycode) {
			report.addError(Problem{
				Kind:        InvalidKeycode,
				Layer:       idx,
				Pos:         &pos,
				Message:     fmt.Sprintf("keycode %q is not recognized", a.Keycode),
				Suggestions: suggestions(r, a.Keycode),
			})
		}

		matrix, ok := m.MatrixForVisual(pos)
		if !ok {
			report.addError(Problem{
				Kind:    MissingPosition,
				Layer:   idx,
				Pos:     &pos,
				Message: fmt.Sprintf("position %s does not exist on this board", pos),
			})
			continue
		}

		if matrix.Row < 0 || matrix.Row >= m.Rows() || matrix.Col < 0 || matrix.Col >= m.Cols() {
			report.addError(Problem{
				Kind:  MatrixOutOfBounds,
				Layer: idx,
				Pos:   &pos,
				Message: fmt.Sprintf("matrix address %s exceeds declared %dx%d matrix",
					matrix, m.Rows(), m.Cols()),
			})
		}
	}
}

func suggestions(r keycode.Resolver, query string) []string {
	candidates := r.Search(query)
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}
	return names
}
