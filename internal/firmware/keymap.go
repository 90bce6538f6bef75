package firmware

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"keyforge/internal/board"
	"keyforge/internal/coords"
	"keyforge/internal/keycode"
	"keyforge/internal/layout"
)

// keymapTemplate is the key-assignment table artifact. Per layer, entries
// appear in lighting-index order; the board's LAYOUT wiring is therefore
// inverted through the visual->matrix->lighting chain before emission.
var keymapTemplate = template.Must(template.New("keymap").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`/* {{.LayoutName}} - generated by keyforge at {{.Timestamp}} */
#include QMK_KEYBOARD_H

enum layers {
{{- range .Layers}}
    {{.Const}} = {{.Index}},
{{- end}}
};

const uint16_t PROGMEM keymaps[][KEY_SLOTS] = {
{{- range .Layers}}
    [{{.Const}}] = { {{join .Tokens ", "}} },
{{- end}}
};
{{- if .TapDances}}

tap_dance_action_t tap_dance_actions[] = {
{{- range .TapDances}}
    [{{.Index}}] = {{.Action}},
{{- end}}
};
{{- end}}
{{- if .Ledmap}}

const uint8_t PROGMEM ledmap[][KEY_SLOTS][3] = {
{{- range .Layers}}
    [{{.Const}}] = { {{join .Colors ", "}} },
{{- end}}
};
{{- end}}
`))

type keymapData struct {
	LayoutName string
	Timestamp  string
	Layers     []layerData
	TapDances  []tapDanceData
	Ledmap     bool
}

type layerData struct {
	Const  string
	Index  int
	Tokens []string
	Colors []string
}

type tapDanceData struct {
	Index  int
	Action string
}

func renderKeymap(l *layout.Layout, m *coords.Mapping, resolve func(keycode.LayerTarget) (int, error), timestamp string) ([]byte, error) {
	data := keymapData{
		LayoutName: layoutName(l),
		Timestamp:  timestamp,
		Ledmap:     l.Lighting.Enabled,
	}

	for i := range l.Layers {
		layer := &l.Layers[i]
		ld := layerData{
			Const: layerConst(layer, i),
			Index: i,
		}

		byVisual := make(map[board.VisualPos]*layout.KeyAssignment, len(layer.Assignments))
		for j := range layer.Assignments {
			a := &layer.Assignments[j]
			byVisual[a.Pos] = a
		}

		for light := 0; light < m.LightCount(); light++ {
			matrix, wired := m.MatrixForLight(light)
			if !wired {
				// Gap in the lighting chain; keep the dense table aligned.
				ld.Tokens = append(ld.Tokens, "KC_NO")
				ld.Colors = append(ld.Colors, rgbTriple(""))
				continue
			}
			visual, _ := m.VisualForMatrix(matrix)
			a, ok := byVisual[visual]
			if !ok {
				ld.Tokens = append(ld.Tokens, "KC_NO")
				ld.Colors = append(ld.Colors, rgbTriple(""))
				continue
			}

			tok, err := keycode.Parse(a.Keycode)
			if err != nil {
				// A validated layout cannot reach this; an unvalidated one
				// must not produce broken source.
				return nil, fmt.Errorf("layer %d position %s: %w", i, a.Pos, err)
			}
			if tok.Kind == keycode.TapDance {
				if _, defined := l.TapDanceByIndex(tok.Dance); !defined {
					return nil, fmt.Errorf("layer %d position %s: tap-dance #%d has no definition", i, a.Pos, tok.Dance)
				}
			}
			rendered, err := tok.Render(resolve)
			if err != nil {
				return nil, fmt.Errorf("layer %d position %s: %w", i, a.Pos, err)
			}

			ld.Tokens = append(ld.Tokens, rendered)
			ld.Colors = append(ld.Colors, rgbTriple(effectiveColor(l, layer, a)))
		}

		data.Layers = append(data.Layers, ld)
	}

	for _, td := range l.TapDances {
		action, err := tapDanceAction(td)
		if err != nil {
			return nil, err
		}
		data.TapDances = append(data.TapDances, tapDanceData{Index: td.Index, Action: action})
	}

	var buf bytes.Buffer
	if err := keymapTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering keymap: %w", err)
	}
	return buf.Bytes(), nil
}

func layoutName(l *layout.Layout) string {
	if l.Name != "" {
		return l.Name
	}
	return "keymap"
}

var nonIdentRe = regexp.MustCompile(`[^A-Z0-9_]+`)

// layerConst derives the enum constant for a layer from its name, falling
// back to the numeric index.
func layerConst(layer *layout.Layer, idx int) string {
	name := strings.ToUpper(layer.Name)
	name = nonIdentRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = fmt.Sprintf("L%d", idx)
	}
	return "LAYER_" + name
}

func tapDanceAction(td layout.TapDance) (string, error) {
	if td.SingleTap == "" {
		return "", fmt.Errorf("tap-dance #%d has no single-tap action", td.Index)
	}
	switch {
	case td.Hold != "":
		return fmt.Sprintf("ACTION_TAP_DANCE_TAP_HOLD(%s, %s)", td.SingleTap, td.Hold), nil
	case td.DoubleTap != "":
		return fmt.Sprintf("ACTION_TAP_DANCE_DOUBLE(%s, %s)", td.SingleTap, td.DoubleTap), nil
	default:
		return fmt.Sprintf("ACTION_TAP_DANCE_DOUBLE(%s, %s)", td.SingleTap, td.SingleTap), nil
	}
}

var hexColorRe = regexp.MustCompile(`^#?([0-9a-fA-F]{6})$`)

// rgbTriple converts a hex color to the {r, g, b} initializer the ledmap
// uses. Unset or malformed colors become off.
func rgbTriple(color string) string {
	m := hexColorRe.FindStringSubmatch(color)
	if m == nil {
		return "{0, 0, 0}"
	}
	var r, g, b int
	fmt.Sscanf(m[1], "%02x%02x%02x", &r, &g, &b)
	return fmt.Sprintf("{%d, %d, %d}", r, g, b)
}
