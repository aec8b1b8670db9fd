package matching

import (
	"github.com/miku/cemkit/model"
	log "github.com/sirupsen/logrus"
)

// Stratum is the coarsened covariate cell treated and control articles must
// agree on exactly.
type Stratum struct {
	Year       int
	Domain     string // model.Domain.Key()
	Percentile int
}

// StratumOf returns the stratum of a treated record.
func StratumOf(t model.Treated) Stratum {
	return Stratum{Year: t.Year, Domain: t.Domain.Key(), Percentile: t.Percentile}
}

// Entry is a potential control.
type Entry struct {
	PaperID    string
	Year       int
	Domain     model.Domain
	Percentile int
}

// Stratum returns the stratum of the entry.
func (e Entry) Stratum() Stratum {
	return Stratum{Year: e.Year, Domain: e.Domain.Key(), Percentile: e.Percentile}
}

// Pool is the set of potential controls. Entries are marked covered once
// drawn and are not offered again. A Pool is not safe for concurrent use; it
// is meant to be owned by a single Sampler run, which depletes it in a fixed
// treated order.
type Pool struct {
	entries   []Entry
	byStratum map[Stratum][]int
	covered   []bool
	remaining int
}

// NewPool creates a pool; entry order is kept and determines the order in
// which candidates of a stratum are offered to the sampler.
func NewPool(entries []Entry) *Pool {
	p := &Pool{
		entries:   entries,
		byStratum: make(map[Stratum][]int),
		covered:   make([]bool, len(entries)),
		remaining: len(entries),
	}
	for i, e := range entries {
		s := e.Stratum()
		p.byStratum[s] = append(p.byStratum[s], i)
	}
	return p
}

// Available returns the indices of uncovered entries in stratum s, in pool
// order.
func (p *Pool) Available(s Stratum) []int {
	var result []int
	for _, i := range p.byStratum[s] {
		if !p.covered[i] {
			result = append(result, i)
		}
	}
	return result
}

// Cover marks an entry as used. Covering twice is a no-op.
func (p *Pool) Cover(i int) {
	if p.covered[i] {
		return
	}
	p.covered[i] = true
	p.remaining--
}

// Covered reports whether entry i has been drawn.
func (p *Pool) Covered(i int) bool { return p.covered[i] }

// Entry returns entry i.
func (p *Pool) Entry(i int) Entry { return p.entries[i] }

// Len returns the total number of entries.
func (p *Pool) Len() int { return len(p.entries) }

// Remaining returns the number of uncovered entries.
func (p *Pool) Remaining() int { return p.remaining }

// PoolStats counts corpus articles that could not become controls.
type PoolStats struct {
	Articles     int `json:"articles"`
	Retracted    int `json:"excluded_retracted"`
	NoPercentile int `json:"no_percentile"`
	Size         int `json:"size"`
}

// BuildPool creates the control pool from corpus articles whose metadata
// journal resolves to a percentile, leaving out retracted paper ids, see
// RetractedIDs. There is no fallback key here, the metadata journal is the
// only one available.
func BuildPool(articles []model.Article, ranks PercentileLookup, retracted map[string]bool) (*Pool, PoolStats) {
	var (
		entries []Entry
		stats   = PoolStats{Articles: len(articles)}
	)
	for _, a := range articles {
		if retracted[a.PaperID] {
			stats.Retracted++
			continue
		}
		p, ok := ranks.Percentile(a.Journal, a.Year)
		if !ok {
			stats.NoPercentile++
			continue
		}
		entries = append(entries, Entry{
			PaperID:    a.PaperID,
			Year:       a.Year,
			Domain:     a.Domain,
			Percentile: p,
		})
	}
	stats.Size = len(entries)
	log.WithFields(log.Fields{
		"articles":      stats.Articles,
		"retracted":     stats.Retracted,
		"no_percentile": stats.NoPercentile,
		"size":          stats.Size,
	}).Info("control pool built")
	return NewPool(entries), stats
}
