// Package rank turns yearly journal rank tables into a (journal, year) to
// percentile lookup.
package rank

import (
	"math"
	"sort"

	"github.com/miku/cemkit/model"
)

// Buckets is the number of equal frequency bins ranks are sorted into.
const Buckets = 100

// Key identifies a journal in a given year.
type Key struct {
	Title string
	Year  int
}

// Percentiles assigns each rank a bucket from 1 to Buckets, by equal frequency
// binning over all ranks given. Edges are linear interpolated quantiles and a
// value falls into the first bucket whose upper edge is not below it, so the
// best (lowest) rank gets percentile 1. The result is parallel to ranks.
func Percentiles(ranks []int) []int {
	if len(ranks) == 0 {
		return nil
	}
	sorted := make([]float64, len(ranks))
	for i, r := range ranks {
		sorted[i] = float64(r)
	}
	sort.Float64s(sorted)
	edges := make([]float64, Buckets)
	for i := 1; i <= Buckets; i++ {
		edges[i-1] = quantile(sorted, float64(i)/Buckets)
	}
	result := make([]int, len(ranks))
	for i, r := range ranks {
		j := sort.SearchFloat64s(edges, float64(r))
		if j >= Buckets {
			j = Buckets - 1
		}
		result[i] = j + 1
	}
	return result
}

// quantile of sorted values at q in [0, 1], interpolating linearly between
// neighbouring values.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Stats summarizes how a table was built.
type Stats struct {
	Entries        int `json:"entries"`
	AmbiguousKeys  int `json:"ambiguous_keys"`
	AmbiguousRows  int `json:"ambiguous_rows"`
	Unique         int `json:"unique"`
	SkippedRows    int `json:"skipped_rows"`
	FilesProcessed int `json:"files"`
}

// Table maps a normalized journal title and year to a percentile. Keys that
// occurred more than once in the input are absent.
type Table struct {
	m     map[Key]int
	Stats Stats
}

// NewTable builds a lookup table from percentile tagged entries. Every
// (title, year) group with more than one entry is dropped entirely, as there is
// no way to tell which row is the right one.
func NewTable(entries []model.RankEntry) *Table {
	var (
		count = make(map[Key]int, len(entries))
		t     = &Table{m: make(map[Key]int, len(entries))}
	)
	for _, e := range entries {
		count[Key{e.Title, e.Year}]++
	}
	for _, e := range entries {
		k := Key{e.Title, e.Year}
		if n := count[k]; n > 1 {
			continue
		}
		t.m[k] = e.Percentile
	}
	for _, n := range count {
		if n > 1 {
			t.Stats.AmbiguousKeys++
			t.Stats.AmbiguousRows += n
		}
	}
	t.Stats.Entries = len(entries)
	t.Stats.Unique = len(t.m)
	return t
}

// Percentile returns the percentile of a normalized journal title in a year.
func (t *Table) Percentile(title string, year int) (int, bool) {
	p, ok := t.m[Key{title, year}]
	return p, ok
}

// Len returns the number of resolvable keys.
func (t *Table) Len() int {
	return len(t.m)
}
