package board

import (
	"context"
	"fmt"
	"sort"
)

// Registry holds every loaded geometry, addressed by id or id@variant.
// It is populated once at startup and read-only afterwards.
type Registry struct {
	boards map[string]*Geometry
}

// NewRegistry builds a registry from already-loaded geometries.
func NewRegistry(boards map[string]*Geometry) *Registry {
	if boards == nil {
		boards = make(map[string]*Geometry)
	}
	return &Registry{boards: boards}
}

// LoadRegistry loads every board file under path into a fresh registry.
func LoadRegistry(ctx context.Context, path string) (*Registry, error) {
	boards, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(boards), nil
}

// Resolve returns the geometry for a board id and an optional layout variant.
// An unknown variant falls back to the base board; an unknown board id is an
// error.
func (r *Registry) Resolve(id, variant string) (*Geometry, error) {
	if variant != "" {
		if geo, ok := r.boards[id+"@"+variant]; ok {
			return geo, nil
		}
	}
	if geo, ok := r.boards[id]; ok {
		return geo, nil
	}
	return nil, fmt.Errorf("unknown board %q", id)
}

// List returns every geometry sorted by registry key.
func (r *Registry) List() []*Geometry {
	keys := make([]string, 0, len(r.boards))
	for k := range r.boards {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*Geometry, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.boards[k])
	}
	return out
}
