package board

import "fmt"

// MatrixPos is an electrical (row, col) coordinate scanned by firmware.
type MatrixPos struct {
	Row int
	Col int
}

// String returns the canonical "row,col" form used in logs and diagnostics.
func (p MatrixPos) String() string {
	return fmt.Sprintf("%d,%d", p.Row, p.Col)
}

// VisualPos is a (row, col) coordinate as a human edits the layout grid,
// independent of wiring.
type VisualPos struct {
	Row int
	Col int
}

func (p VisualPos) String() string {
	return fmt.Sprintf("%d,%d", p.Row, p.Col)
}

// PhysicalKey describes one electrical key: its matrix address, its
// sequential lighting index, and its physical placement in key-units.
// Values are immutable once loaded.
type PhysicalKey struct {
	Matrix     MatrixPos
	LightIndex int

	// Physical placement, in key-units.
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64
}

// Geometry is the full normalized description of one board (or one layout
// variant of a board).
type Geometry struct {
	ID      string
	Name    string
	Variant string

	// Matrix dimensions. Every key's matrix address must fall inside
	// [0,Rows) x [0,Cols); the validator enforces this for layouts, the
	// loader enforces it for the geometry itself.
	Rows int
	Cols int

	Keys []PhysicalKey
}

// Key returns the registry key a geometry is addressed by. Variants are
// registered alongside their base board under "id@variant".
func (g *Geometry) Key() string {
	if g.Variant == "" {
		return g.ID
	}
	return g.ID + "@" + g.Variant
}
