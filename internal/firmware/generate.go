package firmware

import (
	"fmt"
	"regexp"
	"time"

	"keyforge/internal/coords"
	"keyforge/internal/keycode"
	"keyforge/internal/layout"
)

// Artifacts holds the generated source text. A nil slice means that artifact
// was excluded by the format selector.
type Artifacts struct {
	// Keymap is the key-assignment table source (keymap.c).
	Keymap []byte
	// Config is the settings header (config.h).
	Config []byte
}

// Generate produces firmware source for an already-validated layout. It does
// not re-validate; it fails on anything that would emit structurally invalid
// source.
func Generate(l *layout.Layout, m *coords.Mapping, r keycode.Resolver, settings BuildSettings) (*Artifacts, error) {
	layerIdx, err := l.LayerIndex()
	if err != nil {
		return nil, err
	}
	resolve := func(target keycode.LayerTarget) (int, error) {
		idx, ok := layerIdx[target.ID]
		if !ok {
			return 0, fmt.Errorf("layer reference %q does not match any layer id", target.ID)
		}
		return idx, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	out := &Artifacts{}

	if settings.Format != SettingsOnly {
		keymap, err := renderKeymap(l, m, resolve, now)
		if err != nil {
			return nil, err
		}
		out.Keymap = keymap
	}

	if settings.Format != TableOnly {
		out.Config = renderConfig(l, settings, now)
	}

	if settings.Deterministic {
		out.Keymap = normalizeTimestamps(out.Keymap)
		out.Config = normalizeTimestamps(out.Config)
	}

	return out, nil
}

// timestampRe matches the generated-at lines both artifacts carry.
var timestampRe = regexp.MustCompile(`generated by keyforge at \S+`)

// normalizeTimestamps replaces generated timestamp text with a fixed
// placeholder so repeated generation from identical input is byte-identical.
// This is a post-processing pass over the emitted text, not a generator mode.
func normalizeTimestamps(src []byte) []byte {
	if src == nil {
		return nil
	}
	return timestampRe.ReplaceAll(src, []byte("generated by keyforge at TIMESTAMP"))
}
