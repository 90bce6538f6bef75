package board

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"keyforge/internal/ctxlog"
)

// fileRoot decodes all top-level blocks from one board file.
type fileRoot struct {
	Boards []*boardBlock `hcl:"board,block"`
	Remain hcl.Body      `hcl:",remain"`
}

type boardBlock struct {
	ID      string      `hcl:"id,label"`
	Name    string      `hcl:"name,optional"`
	Variant string      `hcl:"variant,optional"`
	Rows    int         `hcl:"rows"`
	Cols    int         `hcl:"cols"`
	Keys    []*keyBlock `hcl:"key,block"`
}

// keyBlock keeps the coordinate attributes as raw expressions so they can be
// evaluated and converted through cty, matching how optional compact forms
// like `size = [1.5, 1]` are handled.
type keyBlock struct {
	Matrix   hcl.Expression `hcl:"matrix"`
	Light    int            `hcl:"light"`
	Pos      hcl.Expression `hcl:"pos"`
	Size     hcl.Expression `hcl:"size,optional"`
	Rotation float64        `hcl:"rotation,optional"`
}

// Load parses every .hcl file under path (a file or a directory) and returns
// the geometries found, keyed by Geometry.Key().
func Load(ctx context.Context, path string) (map[string]*Geometry, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findHCLFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered board files.", "count", len(files))

	parser := hclparse.NewParser()
	boards := make(map[string]*Geometry)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing board file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding board file %s: %w", file, diags)
		}

		for _, blk := range root.Boards {
			geo, err := translateBoard(blk)
			if err != nil {
				return nil, fmt.Errorf("board %q in %s: %w", blk.ID, file, err)
			}
			if _, exists := boards[geo.Key()]; exists {
				return nil, fmt.Errorf("duplicate board %q in %s", geo.Key(), file)
			}
			boards[geo.Key()] = geo
			logger.Debug("Board loaded.", "board", geo.Key(), "keys", len(geo.Keys))
		}
	}

	return boards, nil
}

func translateBoard(blk *boardBlock) (*Geometry, error) {
	if blk.Rows <= 0 || blk.Cols <= 0 {
		return nil, fmt.Errorf("matrix dimensions must be positive, got %dx%d", blk.Rows, blk.Cols)
	}

	geo := &Geometry{
		ID:      blk.ID,
		Name:    blk.Name,
		Variant: blk.Variant,
		Rows:    blk.Rows,
		Cols:    blk.Cols,
	}
	if geo.Name == "" {
		geo.Name = blk.ID
	}

	seenLight := make(map[int]struct{}, len(blk.Keys))
	for i, kb := range blk.Keys {
		key, err := translateKey(kb)
		if err != nil {
			return nil, fmt.Errorf("key #%d: %w", i, err)
		}
		if key.Matrix.Row >= blk.Rows || key.Matrix.Col >= blk.Cols {
			return nil, fmt.Errorf("key #%d: matrix address %s outside %dx%d",
				i, key.Matrix, blk.Rows, blk.Cols)
		}
		if _, dup := seenLight[key.LightIndex]; dup {
			return nil, fmt.Errorf("key #%d: duplicate lighting index %d", i, key.LightIndex)
		}
		seenLight[key.LightIndex] = struct{}{}
		geo.Keys = append(geo.Keys, key)
	}

	return geo, nil
}

func translateKey(kb *keyBlock) (PhysicalKey, error) {
	var key PhysicalKey

	matrix, err := evalIntPair(kb.Matrix, "matrix")
	if err != nil {
		return key, err
	}
	if matrix[0] < 0 || matrix[1] < 0 {
		return key, fmt.Errorf("matrix address must be non-negative, got [%d, %d]", matrix[0], matrix[1])
	}

	pos, err := evalFloatPair(kb.Pos, "pos")
	if err != nil {
		return key, err
	}

	size := [2]float64{1, 1}
	if isExprDefined(kb.Size) {
		size, err = evalFloatPair(kb.Size, "size")
		if err != nil {
			return key, err
		}
	}

	if kb.Light < 0 {
		return key, fmt.Errorf("lighting index must be non-negative, got %d", kb.Light)
	}

	key = PhysicalKey{
		Matrix:     MatrixPos{Row: matrix[0], Col: matrix[1]},
		LightIndex: kb.Light,
		X:          pos[0],
		Y:          pos[1],
		Width:      size[0],
		Height:     size[1],
		Rotation:   kb.Rotation,
	}
	return key, nil
}

// evalFloatPair evaluates an expression that must produce a two-element list
// of numbers, e.g. `pos = [3.5, 1]`.
func evalFloatPair(expr hcl.Expression, attr string) ([2]float64, error) {
	var pair [2]float64

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return pair, fmt.Errorf("evaluating %s: %w", attr, diags)
	}

	val, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return pair, fmt.Errorf("attribute %s must be a list of numbers: %w", attr, err)
	}

	var elems []float64
	if err := gocty.FromCtyValue(val, &elems); err != nil {
		return pair, fmt.Errorf("attribute %s: %w", attr, err)
	}
	if len(elems) != 2 {
		return pair, fmt.Errorf("attribute %s must have exactly 2 elements, got %d", attr, len(elems))
	}

	pair[0], pair[1] = elems[0], elems[1]
	return pair, nil
}

func evalIntPair(expr hcl.Expression, attr string) ([2]int, error) {
	f, err := evalFloatPair(expr, attr)
	if err != nil {
		return [2]int{}, err
	}
	for _, v := range f {
		if v != float64(int(v)) {
			return [2]int{}, fmt.Errorf("attribute %s must contain whole numbers", attr)
		}
	}
	return [2]int{int(f[0]), int(f[1])}, nil
}

// isExprDefined reports whether an optional HCL attribute was actually
// present in the source. The decoder populates omitted optional expression
// fields with zero-width placeholders, so a nil check is insufficient; a real
// attribute occupies bytes in the file.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// findHCLFiles returns every .hcl file at path. A file path is returned as-is
// when it has the right extension; a directory is walked recursively.
func findHCLFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("accessing boards path %s: %w", path, err)
	}

	if !info.IsDir() {
		if filepath.Ext(path) != ".hcl" {
			return nil, fmt.Errorf("board file %s is not an .hcl file", path)
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
