package assemble

import (
	"math/rand/v2"
)

// Anonymizer replaces paper ids with integer surrogates. The replacement is a
// bijection between the given ids and 1..n, drawn as a random permutation.
type Anonymizer struct {
	ids map[string]int
}

// NewAnonymizer assigns surrogates to ids; duplicates are assigned once, and
// the assignment depends only on rng and the order of first appearance.
func NewAnonymizer(ids []string, rng *rand.Rand) *Anonymizer {
	var (
		unique []string
		seen   = make(map[string]bool, len(ids))
	)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	perm := rng.Perm(len(unique))
	a := &Anonymizer{ids: make(map[string]int, len(unique))}
	for i, id := range unique {
		a.ids[id] = perm[i] + 1
	}
	return a
}

// ID returns the surrogate for a paper id.
func (a *Anonymizer) ID(id string) (int, bool) {
	v, ok := a.ids[id]
	return v, ok
}

// Len returns the number of ids known.
func (a *Anonymizer) Len() int { return len(a.ids) }
