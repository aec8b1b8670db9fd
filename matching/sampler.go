package matching

import (
	"errors"
	"math/rand/v2"

	"github.com/miku/cemkit/model"
	log "github.com/sirupsen/logrus"
)

// DefaultSampleSize is the number of controls drawn per treated article.
const DefaultSampleSize = 10

// ErrInvalidSampleSize is returned for sample sizes below one.
var ErrInvalidSampleSize = errors.New("sample size must be positive")

// Draw is a control drawn for a treated article.
type Draw struct {
	Control string
	Treated string
}

// Result of a sampling run. Draws are grouped by treated article, in the order
// of Matched, and within a group in draw order.
type Result struct {
	Matched   []string
	Unmatched []string
	Draws     []Draw
}

// Covered returns the flat sequence of drawn control ids.
func (r *Result) Covered() []string {
	ids := make([]string, len(r.Draws))
	for i, d := range r.Draws {
		ids[i] = d.Control
	}
	return ids
}

// Sampler draws a fixed number of controls per treated article, uniformly and
// without replacement, from the article's stratum.
type Sampler struct {
	size int
	rng  *rand.Rand
}

// NewSampler returns a sampler drawing size controls per treated article,
// using rng as its only source of randomness.
func NewSampler(size int, rng *rand.Rand) (*Sampler, error) {
	if size < 1 {
		return nil, ErrInvalidSampleSize
	}
	return &Sampler{size: size, rng: rng}, nil
}

// Size returns the number of controls per match.
func (s *Sampler) Size() int { return s.size }

// Run processes treated records strictly in the given order, which must be
// stable across runs: drawn controls are removed from pool, so earlier records
// deplete the strata seen by later ones. A record whose stratum has fewer than
// size uncovered entries is unmatched and leaves the pool untouched; there is
// no backtracking. Run must not be called concurrently on the same pool.
func (s *Sampler) Run(treated []model.Treated, pool *Pool) *Result {
	result := &Result{}
	for _, t := range treated {
		avail := pool.Available(StratumOf(t))
		if len(avail) < s.size {
			result.Unmatched = append(result.Unmatched, t.PaperID)
			continue
		}
		// Partial Fisher-Yates: the first size slots hold the draw, in
		// draw order.
		for i := 0; i < s.size; i++ {
			j := i + s.rng.IntN(len(avail)-i)
			avail[i], avail[j] = avail[j], avail[i]
		}
		for _, idx := range avail[:s.size] {
			pool.Cover(idx)
			result.Draws = append(result.Draws, Draw{
				Control: pool.Entry(idx).PaperID,
				Treated: t.PaperID,
			})
		}
		result.Matched = append(result.Matched, t.PaperID)
	}
	log.WithFields(log.Fields{
		"treated":   len(treated),
		"matched":   len(result.Matched),
		"unmatched": len(result.Unmatched),
		"drawn":     len(result.Draws),
		"remaining": pool.Remaining(),
	}).Info("sampling done")
	return result
}
