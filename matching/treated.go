package matching

import (
	"github.com/miku/cemkit/model"
	log "github.com/sirupsen/logrus"
)

// TreatedStats counts how candidates fared; every candidate ends up in
// exactly one bucket.
type TreatedStats struct {
	Candidates   int            `json:"candidates"`
	NoMetadata   int            `json:"no_metadata"`
	NoDOI        int            `json:"no_doi"`
	NoRetraction int            `json:"no_retraction"`
	NoPercentile int            `json:"no_percentile"`
	Resolved     int            `json:"resolved"`
	ByStrategy   map[string]int `json:"by_strategy"`
}

// TreatedSet is the resolved treated population, in candidate order.
type TreatedSet struct {
	Records []model.Treated
	Stats   TreatedStats
}

// TreatedBuilder resolves covariates for retracted articles that carry
// software mentions.
type TreatedBuilder struct {
	Ranks      PercentileLookup
	Strategies []Strategy
	// Label is the set id of treated mentions, e.g. "retracted".
	Label string
}

// Build considers every distinct paper id of mentions labelled as treated, in
// order of first appearance. A candidate needs corpus metadata, a DOI, at
// least one retraction record for that DOI and a resolvable percentile.
func (b *TreatedBuilder) Build(mentions []model.Mention, articles map[string]model.Article, retractions map[string][]model.Retraction) *TreatedSet {
	strategies := b.Strategies
	if strategies == nil {
		strategies = DefaultStrategies
	}
	var (
		set  = &TreatedSet{Stats: TreatedStats{ByStrategy: make(map[string]int)}}
		seen = make(map[string]bool)
	)
	for _, m := range mentions {
		if m.SetID != b.Label || m.PaperID == "" || seen[m.PaperID] {
			continue
		}
		seen[m.PaperID] = true
		set.Stats.Candidates++
		article, ok := articles[m.PaperID]
		if !ok {
			set.Stats.NoMetadata++
			continue
		}
		doi := m.DOI
		if doi == "" {
			doi = article.DOI
		}
		if doi == "" {
			set.Stats.NoDOI++
			continue
		}
		rs := retractions[doi]
		if len(rs) == 0 {
			set.Stats.NoRetraction++
			continue
		}
		c := Candidate{Article: article, DOI: doi, RetractionJournal: firstJournal(rs)}
		p, via, ok := Resolve(c, b.Ranks, strategies)
		if !ok {
			set.Stats.NoPercentile++
			continue
		}
		set.Stats.Resolved++
		set.Stats.ByStrategy[via]++
		set.Records = append(set.Records, model.Treated{
			PaperID:    article.PaperID,
			DOI:        doi,
			Domain:     article.Domain,
			Year:       article.Year,
			Percentile: p,
			Via:        via,
		})
	}
	log.WithFields(log.Fields{
		"candidates":    set.Stats.Candidates,
		"resolved":      set.Stats.Resolved,
		"no_metadata":   set.Stats.NoMetadata,
		"no_doi":        set.Stats.NoDOI,
		"no_retraction": set.Stats.NoRetraction,
		"no_percentile": set.Stats.NoPercentile,
	}).Info("treated set built")
	return set
}

// RetractedIDs returns every paper id that must not serve as a control: ids
// carrying label in the mention table, resolved or not, and articles whose
// DOI has a retraction record.
func RetractedIDs(mentions []model.Mention, label string, articles []model.Article, retractions map[string][]model.Retraction) map[string]bool {
	ids := make(map[string]bool)
	for _, m := range mentions {
		if m.SetID == label && m.PaperID != "" {
			ids[m.PaperID] = true
		}
	}
	for _, a := range articles {
		if a.DOI != "" && len(retractions[a.DOI]) > 0 {
			ids[a.PaperID] = true
		}
	}
	return ids
}

// firstJournal returns the first non-empty journal name; all records of a
// notice share the same journal.
func firstJournal(rs []model.Retraction) string {
	for _, r := range rs {
		if r.Journal != "" {
			return r.Journal
		}
	}
	return ""
}
