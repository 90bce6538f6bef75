package board_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyforge/internal/board"
	"keyforge/internal/testutil"
)

func writeBoard(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "board.hcl"), []byte(src), 0o644))
	return dir
}

func TestLoadTestBoard(t *testing.T) {
	dir := testutil.WriteBoardFile(t)

	boards, err := board.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, boards, 1)

	geo, ok := boards["testboard"]
	require.True(t, ok)
	assert.Equal(t, "Test Board 2x3", geo.Name)
	assert.Equal(t, 2, geo.Rows)
	assert.Equal(t, 3, geo.Cols)
	require.Len(t, geo.Keys, 6)

	// Omitted size defaults to a 1u key; declared size is taken verbatim.
	assert.Equal(t, 1.0, geo.Keys[0].Width)
	assert.Equal(t, 1.5, geo.Keys[5].Width)
	assert.Equal(t, board.MatrixPos{Row: 1, Col: 2}, geo.Keys[5].Matrix)
	assert.Equal(t, 5, geo.Keys[5].LightIndex)
}

func TestLoadSingleFile(t *testing.T) {
	dir := testutil.WriteBoardFile(t)

	boards, err := board.Load(context.Background(), filepath.Join(dir, "testboard.hcl"))
	require.NoError(t, err)
	assert.Len(t, boards, 1)
}

func TestLoadVariantKeying(t *testing.T) {
	dir := writeBoard(t, `
board "mini" {
  rows = 1
  cols = 1
  key {
    matrix = [0, 0]
    light  = 0
    pos    = [0, 0]
  }
}

board "mini" {
  variant = "iso"
  rows = 1
  cols = 1
  key {
    matrix = [0, 0]
    light  = 0
    pos    = [0, 0]
  }
}
`)

	boards, err := board.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Contains(t, boards, "mini")
	assert.Contains(t, boards, "mini@iso")
}

func TestLoadRejectsMatrixOutsideDimensions(t *testing.T) {
	dir := writeBoard(t, `
board "bad" {
  rows = 1
  cols = 1
  key {
    matrix = [0, 3]
    light  = 0
    pos    = [0, 0]
  }
}
`)

	_, err := board.Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside 1x1")
}

func TestLoadRejectsDuplicateLightIndex(t *testing.T) {
	dir := writeBoard(t, `
board "bad" {
  rows = 1
  cols = 2
  key {
    matrix = [0, 0]
    light  = 0
    pos    = [0, 0]
  }
  key {
    matrix = [0, 1]
    light  = 0
    pos    = [1, 0]
  }
}
`)

	_, err := board.Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate lighting index")
}

func TestLoadRejectsFractionalMatrix(t *testing.T) {
	dir := writeBoard(t, `
board "bad" {
  rows = 1
  cols = 1
  key {
    matrix = [0.5, 0]
    light  = 0
    pos    = [0, 0]
  }
}
`)

	_, err := board.Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whole numbers")
}

func TestLoadRejectsDuplicateBoards(t *testing.T) {
	dir := writeBoard(t, `
board "twice" {
  rows = 1
  cols = 1
  key {
    matrix = [0, 0]
    light  = 0
    pos    = [0, 0]
  }
}

board "twice" {
  rows = 1
  cols = 1
  key {
    matrix = [0, 0]
    light  = 0
    pos    = [0, 0]
  }
}
`)

	_, err := board.Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate board")
}

func TestLoadMissingPath(t *testing.T) {
	_, err := board.Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestRegistryResolve(t *testing.T) {
	base := testutil.TestBoard()
	iso := testutil.TestBoard()
	iso.Variant = "iso"
	reg := board.NewRegistry(map[string]*board.Geometry{
		base.Key(): base,
		iso.Key():  iso,
	})

	t.Run("exact variant", func(t *testing.T) {
		geo, err := reg.Resolve("testboard", "iso")
		require.NoError(t, err)
		assert.Equal(t, "iso", geo.Variant)
	})

	t.Run("unknown variant falls back to base", func(t *testing.T) {
		geo, err := reg.Resolve("testboard", "ansi")
		require.NoError(t, err)
		assert.Equal(t, "", geo.Variant)
	})

	t.Run("unknown board", func(t *testing.T) {
		_, err := reg.Resolve("ghostboard", "")
		require.Error(t, err)
	})
}

func TestRegistryListSorted(t *testing.T) {
	a := testutil.TestBoard()
	b := testutil.TestBoard()
	b.ID = "aardvark"
	reg := board.NewRegistry(map[string]*board.Geometry{
		a.Key(): a,
		b.Key(): b,
	})

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "aardvark", list[0].ID)
	assert.Equal(t, "testboard", list[1].ID)
}
