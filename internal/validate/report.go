// Package validate checks a layout against a board's coordinate mapping and
// the keycode grammar, producing a structured report.
//
// Validation never fails: every call returns a report, and the caller decides
// what an error means (the CLI exits non-zero, the orchestrator fails the
// job, strict mode escalates warnings).
package validate

import (
	"fmt"
	"strings"

	"keyforge/internal/board"
)

// ErrorKind identifies a class of validation problem.
type ErrorKind string

const (
	// EmptyLayer: a layer has no assignments at all.
	EmptyLayer ErrorKind = "empty_layer"
	// MismatchedKeyCount: a layer's assignment count differs from the
	// board's key count.
	MismatchedKeyCount ErrorKind = "mismatched_key_count"
	// DuplicatePosition: two assignments in one layer share a visual cell.
	DuplicatePosition ErrorKind = "duplicate_position"
	// InvalidKeycode: a token is rejected by the resolver's grammar.
	InvalidKeycode ErrorKind = "invalid_keycode"
	// MissingPosition: an assignment's visual cell has no key behind it.
	MissingPosition ErrorKind = "missing_position"
	// MatrixOutOfBounds: the resolved matrix address exceeds the board's
	// declared dimensions.
	MatrixOutOfBounds ErrorKind = "matrix_out_of_bounds"

	// UnderPopulated is the advisory warning for a first layer that leaves
	// part of the board unassigned.
	UnderPopulated ErrorKind = "under_populated"
)

// Problem is one validation finding. Layer is -1 when the finding is not
// tied to a layer; Pos is nil when it is not tied to a position.
type Problem struct {
	Kind        ErrorKind
	Message     string
	Layer       int
	Pos         *board.VisualPos
	Suggestions []string
}

// String renders the problem for CLI display.
func (p Problem) String() string {
	var sb strings.Builder
	sb.WriteString("[" + string(p.Kind) + "]")
	if p.Layer >= 0 {
		fmt.Fprintf(&sb, " layer %d", p.Layer)
		if p.Pos != nil {
			fmt.Fprintf(&sb, " (%s)", p.Pos)
		}
		sb.WriteString(":")
	}
	sb.WriteString(" " + p.Message)
	if len(p.Suggestions) > 0 {
		sb.WriteString(" (did you mean " + strings.Join(p.Suggestions, ", ") + "?)")
	}
	return sb.String()
}

// Report is the transient result of one Validate call, rebuilt every time
// and never persisted.
type Report struct {
	Errors   []Problem
	Warnings []Problem
}

// Valid reports whether generation may proceed. Warnings never block.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Report) addError(p Problem) {
	r.Errors = append(r.Errors, p)
}

func (r *Report) addWarning(p Problem) {
	r.Warnings = append(r.Warnings, p)
}

// Format renders the whole report for terminal output.
func (r *Report) Format() string {
	var sb strings.Builder
	for _, p := range r.Errors {
		sb.WriteString("error: " + p.String() + "\n")
	}
	for _, p := range r.Warnings {
		sb.WriteString("warning: " + p.String() + "\n")
	}
	if r.Valid() {
		fmt.Fprintf(&sb, "layout is valid (%d warnings)\n", len(r.Warnings))
	} else {
		fmt.Fprintf(&sb, "layout is invalid: %d errors, %d warnings\n", len(r.Errors), len(r.Warnings))
	}
	return sb.String()
}
