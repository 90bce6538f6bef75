package keycode

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"gopkg.in/yaml.v3"
)

//go:embed keycodes.yaml
var keycodesYAML []byte

// entry is one known keycode: canonical name, aliases, description.
type entry struct {
	Name        string
	Aliases     []string
	Description string
	Group       string
}

type dbFile struct {
	Groups []struct {
		Name  string `yaml:"name"`
		Codes []struct {
			Name    string   `yaml:"name"`
			Aliases []string `yaml:"aliases"`
			Desc    string   `yaml:"desc"`
		} `yaml:"codes"`
	} `yaml:"groups"`
}

// BuiltinResolver resolves tokens against the embedded keycode database.
type BuiltinResolver struct {
	// byName maps every canonical name and alias to its entry.
	byName map[string]*entry
	// entries holds canonical entries only, for search ranking.
	entries []*entry
}

// NewBuiltinResolver loads the embedded database. The alphanumeric, function
// and keypad ranges are synthesized here rather than enumerated in the YAML.
func NewBuiltinResolver() (*BuiltinResolver, error) {
	var file dbFile
	if err := yaml.Unmarshal(keycodesYAML, &file); err != nil {
		return nil, fmt.Errorf("decoding embedded keycode database: %w", err)
	}

	r := &BuiltinResolver{byName: make(map[string]*entry)}

	for _, group := range file.Groups {
		for _, code := range group.Codes {
			r.add(&entry{
				Name:        code.Name,
				Aliases:     code.Aliases,
				Description: code.Desc,
				Group:       group.Name,
			})
		}
	}

	// Letters.
	for c := 'A'; c <= 'Z'; c++ {
		r.add(&entry{
			Name:        fmt.Sprintf("KC_%c", c),
			Description: fmt.Sprintf("%c", c),
			Group:       "alphanumeric",
		})
	}
	// Digits, number-row order.
	for d := 0; d <= 9; d++ {
		r.add(&entry{
			Name:        fmt.Sprintf("KC_%d", d),
			Description: fmt.Sprintf("%d", d),
			Group:       "alphanumeric",
		})
	}
	// Function keys.
	for f := 1; f <= 24; f++ {
		r.add(&entry{
			Name:        fmt.Sprintf("KC_F%d", f),
			Description: fmt.Sprintf("F%d", f),
			Group:       "function",
		})
	}

	return r, nil
}

func (r *BuiltinResolver) add(e *entry) {
	r.entries = append(r.entries, e)
	r.byName[e.Name] = e
	for _, alias := range e.Aliases {
		r.byName[alias] = e
	}
}

// Known reports whether a bare keycode name exists in the database.
func (r *BuiltinResolver) Known(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// IsValid parses the token and checks every embedded base keycode against
// the database. Layer identifier existence is a generation-time concern and
// deliberately not checked here.
func (r *BuiltinResolver) IsValid(raw string) bool {
	tok, err := Parse(raw)
	if err != nil {
		return false
	}
	for _, base := range tok.BaseCodes() {
		if !r.Known(base) {
			return false
		}
	}
	return true
}

// Search ranks the database against the query using prefix-boosted
// Levenshtein similarity over canonical names and aliases.
func (r *BuiltinResolver) Search(query string) []Candidate {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	candidates := make([]Candidate, 0, len(r.entries))
	for _, e := range r.entries {
		score := levenshtein.Match(q, e.Name, nil)
		for _, alias := range e.Aliases {
			if s := levenshtein.Match(q, alias, nil); s > score {
				score = s
			}
		}
		// A contained query is a strong signal even at a large length
		// difference, e.g. "ENTER" inside "KC_ENTER".
		if strings.Contains(e.Name, q) && score < 0.8 {
			score = 0.8
		}
		if score <= 0.3 {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:        e.Name,
			Description: e.Description,
			Score:       score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Name < candidates[j].Name
	})

	const maxResults = 8
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	return candidates
}

// Describe composes a human-readable description for any grammatical token.
func (r *BuiltinResolver) Describe(raw string) (string, bool) {
	tok, err := Parse(raw)
	if err != nil {
		return "", false
	}

	describeBase := func(name string) string {
		if e, ok := r.byName[name]; ok && e.Description != "" {
			return e.Description
		}
		return name
	}

	switch tok.Kind {
	case Simple:
		e, ok := r.byName[tok.Base]
		if !ok {
			return "", false
		}
		return e.Description, true
	case ModWrap:
		if !r.Known(tok.Inner) {
			return "", false
		}
		return fmt.Sprintf("%s + %s", modWrappers[tok.Wrapper], describeBase(tok.Inner)), true
	case HoldTap:
		if !r.Known(tok.Tap) {
			return "", false
		}
		return fmt.Sprintf("hold: %s, tap: %s", modWrappers[tok.Mod], describeBase(tok.Tap)), true
	case LayerTap:
		if !r.Known(tok.Tap) {
			return "", false
		}
		return fmt.Sprintf("hold: layer %s, tap: %s", tok.Layer, describeBase(tok.Tap)), true
	case LayerRef:
		return fmt.Sprintf("%s layer %s", layerFuncs[tok.Func], tok.Layer), true
	case TapDance:
		return fmt.Sprintf("tap-dance #%d", tok.Dance), true
	case OneShotMod:
		return fmt.Sprintf("one-shot %s", osmMods[tok.Mod]), true
	}
	return "", false
}
