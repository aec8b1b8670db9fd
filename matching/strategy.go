package matching

import "github.com/miku/cemkit/model"

// PercentileLookup resolves a normalized journal title in a year to a journal
// rank percentile.
type PercentileLookup interface {
	Percentile(title string, year int) (int, bool)
}

// Candidate is a retracted article considered for treatment, with the journal
// names both sources report for it. Sources normalize journal names
// independently and do not always agree.
type Candidate struct {
	Article           model.Article
	DOI               string
	RetractionJournal string
}

// Strategy derives a journal key from a candidate.
type Strategy struct {
	Name string
	Key  func(Candidate) string
}

var (
	// ByRetractionJournal uses the journal name of the retraction notice.
	ByRetractionJournal = Strategy{
		Name: "retraction-journal",
		Key:  func(c Candidate) string { return c.RetractionJournal },
	}
	// ByMetadataJournal uses the journal name of the corpus metadata.
	ByMetadataJournal = Strategy{
		Name: "metadata-journal",
		Key:  func(c Candidate) string { return c.Article.Journal },
	}
	// DefaultStrategies tries the retraction journal first, then falls back
	// to the metadata journal.
	DefaultStrategies = []Strategy{ByRetractionJournal, ByMetadataJournal}
)

// Resolve evaluates strategies in order and returns the first percentile
// found, together with the name of the strategy that found it. Later
// strategies only run when all earlier ones failed.
func Resolve(c Candidate, ranks PercentileLookup, strategies []Strategy) (percentile int, via string, ok bool) {
	for _, s := range strategies {
		key := s.Key(c)
		if key == "" {
			continue
		}
		if p, ok := ranks.Percentile(key, c.Article.Year); ok {
			return p, s.Name, true
		}
	}
	return 0, "", false
}
