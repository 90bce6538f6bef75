// Package testutil provides shared fixtures: the canonical 2x3 test board
// and layout builders matching it.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"keyforge/internal/board"
	"keyforge/internal/layout"
)

// TestBoard returns the canonical test geometry: a 2x3 matrix with six keys
// wired (0,0)..(1,2) and lighting indices 0..5 in row-major order. Visual
// addresses coincide with matrix addresses.
func TestBoard() *board.Geometry {
	geo := &board.Geometry{
		ID:   "testboard",
		Name: "Test Board 2x3",
		Rows: 2,
		Cols: 3,
	}
	light := 0
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			geo.Keys = append(geo.Keys, board.PhysicalKey{
				Matrix:     board.MatrixPos{Row: row, Col: col},
				LightIndex: light,
				X:          float64(col),
				Y:          float64(row),
				Width:      1,
				Height:     1,
			})
			light++
		}
	}
	return geo
}

// TestTokens are six valid simple keycodes, one per key of TestBoard.
var TestTokens = []string{"KC_A", "KC_B", "KC_C", "KC_D", "KC_E", "KC_F"}

// FullLayer builds a layer with one assignment per TestBoard key.
func FullLayer(number int, name string) layout.Layer {
	l := layout.Layer{Number: number, Name: name}
	i := 0
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			l.Assignments = append(l.Assignments, layout.KeyAssignment{
				Pos:     board.VisualPos{Row: row, Col: col},
				Keycode: TestTokens[i],
			})
			i++
		}
	}
	return l
}

// FullLayout builds a single-layer layout that validates cleanly against
// TestBoard.
func FullLayout() *layout.Layout {
	return &layout.Layout{
		Name:   "test layout",
		Board:  "testboard",
		Layers: []layout.Layer{FullLayer(0, "base")},
	}
}

// WriteLayout saves a layout into a temp dir and returns its path.
func WriteLayout(t *testing.T, l *layout.Layout) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, layout.Save(path, l))
	return path
}

// WriteBoardFile writes an HCL board file describing TestBoard and returns
// the directory containing it.
func WriteBoardFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := `
board "testboard" {
  name = "Test Board 2x3"
  rows = 2
  cols = 3

  key {
    matrix = [0, 0]
    light  = 0
    pos    = [0, 0]
  }
  key {
    matrix = [0, 1]
    light  = 1
    pos    = [1, 0]
  }
  key {
    matrix = [0, 2]
    light  = 2
    pos    = [2, 0]
  }
  key {
    matrix = [1, 0]
    light  = 3
    pos    = [0, 1]
  }
  key {
    matrix = [1, 1]
    light  = 4
    pos    = [1, 1]
  }
  key {
    matrix = [1, 2]
    light  = 5
    pos    = [2, 1]
    size   = [1.5, 1]
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "testboard.hcl"), []byte(src), 0o644))
	return dir
}
