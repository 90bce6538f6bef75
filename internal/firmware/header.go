package firmware

import (
	"fmt"
	"sort"
	"strings"

	"keyforge/internal/layout"
)

// renderConfig emits the settings header: layout-level lighting, idle, and
// tap-hold configuration first, board overrides last so they win.
func renderConfig(l *layout.Layout, settings BuildSettings, timestamp string) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "/* settings - generated by keyforge at %s */\n", timestamp)
	sb.WriteString("#pragma once\n")

	sb.WriteString("\n/* lighting */\n")
	if l.Lighting.Enabled {
		sb.WriteString("#define LIGHTING_ENABLE\n")
		if l.Lighting.Effect != "" {
			fmt.Fprintf(&sb, "#define LIGHTING_EFFECT %s\n", headerToken(l.Lighting.Effect))
		}
		if l.Lighting.Brightness > 0 {
			fmt.Fprintf(&sb, "#define LIGHTING_BRIGHTNESS %d\n", l.Lighting.Brightness)
		}
		if l.Lighting.Color != "" {
			fmt.Fprintf(&sb, "#define LIGHTING_DEFAULT_COLOR 0x%s\n", strings.TrimPrefix(l.Lighting.Color, "#"))
		}
	} else {
		sb.WriteString("#undef LIGHTING_ENABLE\n")
	}

	if l.Idle.TimeoutSeconds > 0 {
		sb.WriteString("\n/* idle */\n")
		fmt.Fprintf(&sb, "#define IDLE_TIMEOUT_MS %d\n", l.Idle.TimeoutSeconds*1000)
		if l.Idle.Effect != "" {
			fmt.Fprintf(&sb, "#define IDLE_EFFECT %s\n", headerToken(l.Idle.Effect))
		}
	}

	sb.WriteString("\n/* tap-hold */\n")
	tappingTerm := l.TapHold.TappingTermMS
	if tappingTerm <= 0 {
		tappingTerm = 200
	}
	fmt.Fprintf(&sb, "#define TAPPING_TERM %d\n", tappingTerm)
	if l.TapHold.PermissiveHold {
		sb.WriteString("#define PERMISSIVE_HOLD\n")
	}
	if l.TapHold.HoldOnOtherKeyTap {
		sb.WriteString("#define HOLD_ON_OTHER_KEY_TAP\n")
	}

	if len(settings.BoardOverrides) > 0 {
		sb.WriteString("\n/* board overrides */\n")
		names := make([]string, 0, len(settings.BoardOverrides))
		for name := range settings.BoardOverrides {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			value := settings.BoardOverrides[name]
			fmt.Fprintf(&sb, "#undef %s\n", name)
			if value == "" {
				fmt.Fprintf(&sb, "#define %s\n", name)
			} else {
				fmt.Fprintf(&sb, "#define %s %s\n", name, value)
			}
		}
	}

	return []byte(sb.String())
}

// headerToken uppercases a config value into macro-friendly form.
func headerToken(s string) string {
	return nonIdentRe.ReplaceAllString(strings.ToUpper(s), "_")
}
