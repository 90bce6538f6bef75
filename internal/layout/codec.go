package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a layout document from a JSON file. The interactive editor's
// markdown round-trip format is a separate collaborator; this codec is the
// pipeline's own exchange format.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout %s: %w", path, err)
	}

	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decoding layout %s: %w", path, err)
	}
	if len(l.Layers) == 0 {
		return nil, fmt.Errorf("layout %s declares no layers", path)
	}
	return &l, nil
}

// Save writes a layout document as indented JSON.
func Save(path string, l *Layout) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding layout: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing layout %s: %w", path, err)
	}
	return nil
}
