package coords

import (
	"context"
	"math"

	"keyforge/internal/board"
	"keyforge/internal/ctxlog"
)

// Mapping holds the four directional maps between the three coordinate
// systems of one board. Every matrix address present in the input geometry
// has an entry in all four.
type Mapping struct {
	rows int
	cols int

	// lightToMatrix is dense, sized by the maximum observed lighting index.
	// Slots with no key hold a sentinel of {-1, -1}.
	lightToMatrix  []board.MatrixPos
	matrixToLight  map[board.MatrixPos]int
	matrixToVisual map[board.MatrixPos]board.VisualPos
	visualToMatrix map[board.VisualPos]board.MatrixPos

	keyCount int
}

// noKey marks an unoccupied slot in the dense lighting array.
var noKey = board.MatrixPos{Row: -1, Col: -1}

// Build derives the mapping from a flat physical key list. It is pure and
// never fails. Two keys whose placements round to the same visual cell
// overwrite each other's visual entry (last write wins); Build itself does
// not report this, BuildLogged does.
func Build(keys []board.PhysicalKey, rows, cols int) *Mapping {
	return build(keys, rows, cols, nil)
}

// BuildLogged is Build plus a warning log line for every visual-address
// collision, so board authors get a signal even though the validator is the
// enforcement point for the resulting count mismatch.
func BuildLogged(ctx context.Context, keys []board.PhysicalKey, rows, cols int) *Mapping {
	return build(keys, rows, cols, func(key board.PhysicalKey, pos board.VisualPos, prev board.MatrixPos) {
		ctxlog.FromContext(ctx).Warn("Visual address collision; earlier mapping entry overwritten.",
			"visual", pos.String(),
			"matrix", key.Matrix.String(),
			"overwritten_matrix", prev.String(),
		)
	})
}

func build(keys []board.PhysicalKey, rows, cols int, onCollision func(board.PhysicalKey, board.VisualPos, board.MatrixPos)) *Mapping {
	maxLight := -1
	for _, key := range keys {
		if key.LightIndex > maxLight {
			maxLight = key.LightIndex
		}
	}

	m := &Mapping{
		rows:           rows,
		cols:           cols,
		lightToMatrix:  make([]board.MatrixPos, maxLight+1),
		matrixToLight:  make(map[board.MatrixPos]int, len(keys)),
		matrixToVisual: make(map[board.MatrixPos]board.VisualPos, len(keys)),
		visualToMatrix: make(map[board.VisualPos]board.MatrixPos, len(keys)),
		keyCount:       len(keys),
	}
	for i := range m.lightToMatrix {
		m.lightToMatrix[i] = noKey
	}

	for _, key := range keys {
		m.lightToMatrix[key.LightIndex] = key.Matrix
		m.matrixToLight[key.Matrix] = key.LightIndex

		visual := visualFor(key)
		if prev, taken := m.visualToMatrix[visual]; taken && onCollision != nil {
			onCollision(key, visual, prev)
		}
		m.matrixToVisual[key.Matrix] = visual
		m.visualToMatrix[visual] = key.Matrix
	}

	return m
}

// visualFor rounds a key's placement to the nearest integer grid cell, ties
// rounding away from zero.
func visualFor(key board.PhysicalKey) board.VisualPos {
	return board.VisualPos{
		Row: int(math.Round(key.Y)),
		Col: int(math.Round(key.X)),
	}
}

// KeyCount returns the number of physical keys the mapping was built from.
func (m *Mapping) KeyCount() int { return m.keyCount }

// Rows returns the board's declared matrix row count.
func (m *Mapping) Rows() int { return m.rows }

// Cols returns the board's declared matrix column count.
func (m *Mapping) Cols() int { return m.cols }

// LightCount returns the size of the dense lighting array, which is the
// maximum observed lighting index plus one.
func (m *Mapping) LightCount() int { return len(m.lightToMatrix) }

// MatrixForLight returns the matrix address wired at a lighting index.
func (m *Mapping) MatrixForLight(light int) (board.MatrixPos, bool) {
	if light < 0 || light >= len(m.lightToMatrix) {
		return board.MatrixPos{}, false
	}
	pos := m.lightToMatrix[light]
	if pos == noKey {
		return board.MatrixPos{}, false
	}
	return pos, true
}

// LightForMatrix returns the lighting index of a matrix address.
func (m *Mapping) LightForMatrix(pos board.MatrixPos) (int, bool) {
	light, ok := m.matrixToLight[pos]
	return light, ok
}

// VisualForMatrix returns the visual grid cell of a matrix address.
func (m *Mapping) VisualForMatrix(pos board.MatrixPos) (board.VisualPos, bool) {
	visual, ok := m.matrixToVisual[pos]
	return visual, ok
}

// MatrixForVisual returns the matrix address behind a visual grid cell.
func (m *Mapping) MatrixForVisual(pos board.VisualPos) (board.MatrixPos, bool) {
	matrix, ok := m.visualToMatrix[pos]
	return matrix, ok
}
