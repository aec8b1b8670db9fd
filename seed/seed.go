// Package seed derives named pseudo random streams from a single run seed.
// Streams with different names are independent of each other: consuming
// numbers from one does not change what another one yields.
package seed

import (
	"hash/fnv"
	"math/rand/v2"
)

// Stream names used by a matching run.
const (
	Sampling    = "sampling"
	Permutation = "permutation"
)

// Stream returns a fresh generator for the named stream.
func Stream(seed uint64, name string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}
