package keycode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the parsed token variants.
type Kind int

const (
	// Simple is a bare named keycode, e.g. KC_A.
	Simple Kind = iota
	// ModWrap is a modifier applied to an inner keycode, e.g. LCTL(KC_C).
	ModWrap
	// HoldTap is a mod-tap: hold for a modifier, tap for a keycode.
	HoldTap
	// LayerTap holds for a layer, taps for a keycode.
	LayerTap
	// LayerRef switches layers: MO, TG, TO, OSL, DF.
	LayerRef
	// TapDance refers to an entry in the layout's tap-dance table.
	TapDance
	// OneShotMod applies a modifier to the next keypress only.
	OneShotMod
)

func (k Kind) String() string {
	switch k {
	case Simple:
		return "simple"
	case ModWrap:
		return "mod-wrap"
	case HoldTap:
		return "hold-tap"
	case LayerTap:
		return "layer-tap"
	case LayerRef:
		return "layer-ref"
	case TapDance:
		return "tap-dance"
	case OneShotMod:
		return "one-shot-mod"
	default:
		return "unknown"
	}
}

// LayerTarget is a symbolic layer reference: either a numeric index or a
// stable layer identifier (the "@name" form). Identifier resolution happens
// at generation time.
type LayerTarget struct {
	ID    string
	Index int
}

// Symbolic reports whether the target is an identifier reference.
func (t LayerTarget) Symbolic() bool { return t.ID != "" }

func (t LayerTarget) String() string {
	if t.Symbolic() {
		return "@" + t.ID
	}
	return strconv.Itoa(t.Index)
}

// Token is one parsed keycode token. Fields beyond Kind and Raw are populated
// per variant: Base for Simple, Wrapper+Inner for ModWrap, Mod+Tap for
// HoldTap and OneShotMod, Layer (+Tap for LayerTap, +Func for LayerRef) for
// the layer variants, Dance for TapDance.
type Token struct {
	Kind Kind
	Raw  string

	Base    string
	Wrapper string
	Inner   string
	Func    string
	Mod     string
	Tap     string
	Layer   LayerTarget
	Dance   int
}

var (
	simpleRe  = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
	callRe    = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)\(\s*(.*?)\s*\)$`)
	layerIDRe = regexp.MustCompile(`^@([A-Za-z][A-Za-z0-9_-]*)$`)
)

// Modifier wrappers accepted in ModWrap position and as hold-tap hold
// arguments.
var modWrappers = map[string]string{
	"LCTL": "Left Ctrl", "LSFT": "Left Shift", "LALT": "Left Alt", "LGUI": "Left GUI",
	"RCTL": "Right Ctrl", "RSFT": "Right Shift", "RALT": "Right Alt", "RGUI": "Right GUI",
	"LCA": "Left Ctrl+Alt", "LSA": "Left Shift+Alt", "LCAG": "Left Ctrl+Alt+GUI",
	"MEH": "Ctrl+Shift+Alt", "HYPR": "Ctrl+Shift+Alt+GUI",
}

// One-shot modifier arguments, the MOD_* family.
var osmMods = map[string]string{
	"MOD_LCTL": "Left Ctrl", "MOD_LSFT": "Left Shift", "MOD_LALT": "Left Alt", "MOD_LGUI": "Left GUI",
	"MOD_RCTL": "Right Ctrl", "MOD_RSFT": "Right Shift", "MOD_RALT": "Right Alt", "MOD_RGUI": "Right GUI",
	"MOD_MEH": "Ctrl+Shift+Alt", "MOD_HYPR": "Ctrl+Shift+Alt+GUI",
}

var layerFuncs = map[string]string{
	"MO":  "momentarily activate",
	"TG":  "toggle",
	"TO":  "switch to",
	"OSL": "one-shot activate",
	"DF":  "set default to",
}

// Parse parses a raw keycode token into its tagged variant. The error
// describes the first grammar violation found.
func Parse(raw string) (Token, error) {
	tok := Token{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return tok, fmt.Errorf("empty keycode token")
	}
	tok.Raw = trimmed

	if simpleRe.MatchString(trimmed) {
		tok.Kind = Simple
		tok.Base = trimmed
		return tok, nil
	}

	m := callRe.FindStringSubmatch(trimmed)
	if m == nil {
		return tok, fmt.Errorf("malformed keycode token %q", raw)
	}
	fn, args := m[1], splitArgs(m[2])

	switch {
	case fn == "MT":
		if len(args) != 2 {
			return tok, fmt.Errorf("MT expects 2 arguments (hold modifier, tap keycode), got %d", len(args))
		}
		if _, ok := modWrappers[args[0]]; !ok {
			return tok, fmt.Errorf("MT hold argument %q is not a modifier", args[0])
		}
		if !simpleRe.MatchString(args[1]) {
			return tok, fmt.Errorf("MT tap argument %q is not a keycode name", args[1])
		}
		tok.Kind = HoldTap
		tok.Mod = args[0]
		tok.Tap = args[1]
		return tok, nil

	case fn == "LT":
		if len(args) != 2 {
			return tok, fmt.Errorf("LT expects 2 arguments (layer, tap keycode), got %d", len(args))
		}
		target, err := parseLayerTarget(args[0])
		if err != nil {
			return tok, fmt.Errorf("LT layer argument: %w", err)
		}
		if !simpleRe.MatchString(args[1]) {
			return tok, fmt.Errorf("LT tap argument %q is not a keycode name", args[1])
		}
		tok.Kind = LayerTap
		tok.Layer = target
		tok.Tap = args[1]
		return tok, nil

	case layerFuncs[fn] != "":
		if len(args) != 1 {
			return tok, fmt.Errorf("%s expects 1 argument (layer), got %d", fn, len(args))
		}
		target, err := parseLayerTarget(args[0])
		if err != nil {
			return tok, fmt.Errorf("%s layer argument: %w", fn, err)
		}
		tok.Kind = LayerRef
		tok.Func = fn
		tok.Layer = target
		return tok, nil

	case fn == "TD":
		if len(args) != 1 {
			return tok, fmt.Errorf("TD expects 1 argument (tap-dance index), got %d", len(args))
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil || idx < 0 {
			return tok, fmt.Errorf("TD index %q must be a non-negative integer", args[0])
		}
		tok.Kind = TapDance
		tok.Dance = idx
		return tok, nil

	case fn == "OSM":
		if len(args) != 1 {
			return tok, fmt.Errorf("OSM expects 1 argument (modifier), got %d", len(args))
		}
		if _, ok := osmMods[args[0]]; !ok {
			return tok, fmt.Errorf("OSM argument %q is not a MOD_* modifier", args[0])
		}
		tok.Kind = OneShotMod
		tok.Mod = args[0]
		return tok, nil

	case modWrappers[fn] != "":
		if len(args) != 1 {
			return tok, fmt.Errorf("%s expects 1 argument (keycode), got %d", fn, len(args))
		}
		if !simpleRe.MatchString(args[0]) {
			return tok, fmt.Errorf("%s argument %q is not a keycode name", fn, args[0])
		}
		tok.Kind = ModWrap
		tok.Wrapper = fn
		tok.Inner = args[0]
		return tok, nil
	}

	return tok, fmt.Errorf("unknown keycode function %q", fn)
}

// parseLayerTarget accepts a numeric index or an @identifier reference.
func parseLayerTarget(arg string) (LayerTarget, error) {
	if m := layerIDRe.FindStringSubmatch(arg); m != nil {
		return LayerTarget{ID: m[1]}, nil
	}
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 {
		return LayerTarget{}, fmt.Errorf("%q is neither a layer index nor an @identifier", arg)
	}
	return LayerTarget{Index: idx}, nil
}

func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// BaseCodes returns every bare keycode name embedded in the token, the ones
// that must exist in the resolver's keycode table.
func (t Token) BaseCodes() []string {
	switch t.Kind {
	case Simple:
		return []string{t.Base}
	case ModWrap:
		return []string{t.Inner}
	case HoldTap, LayerTap:
		return []string{t.Tap}
	default:
		return nil
	}
}

// LayerTargets returns the symbolic or numeric layer references embedded in
// the token.
func (t Token) LayerTargets() []LayerTarget {
	switch t.Kind {
	case LayerTap, LayerRef:
		return []LayerTarget{t.Layer}
	default:
		return nil
	}
}

// Render emits the token as firmware source text. Symbolic layer identifiers
// are rewritten to their current numeric index through resolve; a dangling
// identifier is a rendering failure so malformed source is never emitted.
func (t Token) Render(resolve func(LayerTarget) (int, error)) (string, error) {
	renderLayer := func(target LayerTarget) (string, error) {
		if !target.Symbolic() {
			return strconv.Itoa(target.Index), nil
		}
		idx, err := resolve(target)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(idx), nil
	}

	switch t.Kind {
	case Simple:
		return t.Base, nil
	case ModWrap:
		return fmt.Sprintf("%s(%s)", t.Wrapper, t.Inner), nil
	case HoldTap:
		return fmt.Sprintf("MT(%s, %s)", t.Mod, t.Tap), nil
	case LayerTap:
		layer, err := renderLayer(t.Layer)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LT(%s, %s)", layer, t.Tap), nil
	case LayerRef:
		layer, err := renderLayer(t.Layer)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", t.Func, layer), nil
	case TapDance:
		return fmt.Sprintf("TD(%d)", t.Dance), nil
	case OneShotMod:
		return fmt.Sprintf("OSM(%s)", t.Mod), nil
	default:
		return "", fmt.Errorf("cannot render token of kind %s", t.Kind)
	}
}
