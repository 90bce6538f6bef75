package keycode

// Candidate is one ranked fuzzy-search result.
type Candidate struct {
	Name        string
	Description string
	Score       float64
}

// Resolver is the keycode knowledge the validator and generator consume.
// Implementations decide what the keycode universe is; the pipeline only
// depends on this interface.
type Resolver interface {
	// IsValid reports whether a raw token is accepted by the grammar and
	// every embedded base keycode exists.
	IsValid(token string) bool
	// Search returns candidates ranked by similarity to the query, best
	// first.
	Search(query string) []Candidate
	// Describe returns a human-readable description of a token.
	Describe(token string) (string, bool)
}
