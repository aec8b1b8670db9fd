// Package assemble joins matched treated and control articles with their
// software mentions and writes out anonymized rows.
package assemble

import (
	"math/rand/v2"
	"sort"

	"github.com/miku/cemkit/matching"
	"github.com/miku/cemkit/model"
	log "github.com/sirupsen/logrus"
)

// Row is a single line of the final table.
type Row struct {
	SetID               string `csv:"Set_ID" json:"set_id"`
	PaperID             int    `csv:"Paper_ID" json:"paper_id"`
	RetractionReason    string `csv:"Retraction_Reason" json:"retraction_reason"`
	ControlSampleOrigin int    `csv:"Control_Sample_Origin,omitempty" json:"control_sample_origin,omitempty"`
	Year                int    `csv:"Year" json:"year"`
	ScientificDomain    string `csv:"Scientific_Domain" json:"scientific_domain"`
	Percentile          int    `csv:"Journal_Rank_Percentile" json:"journal_rank_percentile"`
	SoftwareID          string `csv:"Software_ID" json:"software_id"`
	SoftwareName        string `csv:"Software_Name" json:"software_name"`
	SoftwareString      string `csv:"Software_String" json:"software_string"`
	SoftwareType        string `csv:"Software_Type" json:"software_type"`
	MentionType         string `csv:"Mention_Type" json:"mention_type"`
	Version             string `csv:"Version" json:"version"`
	Developer           string `csv:"Developer" json:"developer"`
	Citation            string `csv:"Citation" json:"citation"`
	URL                 string `csv:"URL" json:"url"`
	HostSoftwareID      string `csv:"Host_Software_ID" json:"host_software_id"`
	HostSoftwareName    string `csv:"Host_Software_Name" json:"host_software_name"`
}

// Stats about assembly.
type Stats struct {
	TreatedRows int `json:"treated_rows"`
	ControlRows int `json:"control_rows"`
	// DroppedNoTaxonomy counts treated mention rows that had no reason
	// listed in the taxonomy.
	DroppedNoTaxonomy int      `json:"dropped_no_taxonomy"`
	MissingReasons    []string `json:"missing_reasons,omitempty"`
	// ControlsWithoutRows counts drawn controls without a control mention;
	// their treated article ends up with fewer control rows than drawn.
	ControlsWithoutRows int `json:"controls_without_rows"`
	AnonymizedIDs       int `json:"anonymized_ids"`
}

// Input collects everything an assembly needs.
type Input struct {
	Mentions    []model.Mention
	Treated     []model.Treated
	Result      *matching.Result
	Mapping     *matching.Mapping
	Retractions map[string][]model.Retraction
}

// Assembler builds the final table.
type Assembler struct {
	TreatedLabel string
	ControlLabel string
	// Taxonomy maps raw retraction reasons to top level reasons.
	Taxonomy map[string]string
}

// Assemble emits one row per treated mention and distinct top level reason,
// followed by one row per control mention, each in mention order. Controls
// inherit the covariates of the treated article they were drawn for, which
// they share by construction. Identifiers are replaced using rng, which
// should be a stream of its own.
func (a *Assembler) Assemble(in Input, rng *rand.Rand) ([]Row, Stats) {
	var (
		stats   Stats
		matched = make(map[string]model.Treated, len(in.Result.Matched))
		byID    = make(map[string]model.Treated, len(in.Treated))
		ids     = make([]string, 0, len(in.Result.Matched)+in.Mapping.Len())
		missing = make(map[string]bool)
		emitted = make(map[string]bool)
	)
	for _, t := range in.Treated {
		byID[t.PaperID] = t
	}
	for _, id := range in.Result.Matched {
		matched[id] = byID[id]
		ids = append(ids, id)
	}
	for _, d := range in.Mapping.Pairs() {
		ids = append(ids, d.Control)
	}
	anon := NewAnonymizer(ids, rng)
	stats.AnonymizedIDs = anon.Len()

	var rows []Row
	for _, m := range in.Mentions {
		if m.SetID != a.TreatedLabel {
			continue
		}
		t, ok := matched[m.PaperID]
		if !ok {
			continue
		}
		reasons := a.topReasons(in.Retractions[t.DOI], missing)
		if len(reasons) == 0 {
			stats.DroppedNoTaxonomy++
			continue
		}
		pid, _ := anon.ID(t.PaperID)
		for _, reason := range reasons {
			rows = append(rows, newRow(m, t, a.TreatedLabel, pid, 0, reason))
			stats.TreatedRows++
		}
	}
	for _, m := range in.Mentions {
		if m.SetID != a.ControlLabel {
			continue
		}
		tid, ok := in.Mapping.TreatedOf(m.PaperID)
		if !ok {
			continue
		}
		var (
			pid, _    = anon.ID(m.PaperID)
			origin, _ = anon.ID(tid)
		)
		rows = append(rows, newRow(m, matched[tid], a.ControlLabel, pid, origin, a.ControlLabel))
		stats.ControlRows++
		emitted[m.PaperID] = true
	}
	short := make(map[string]bool)
	for _, d := range in.Mapping.Pairs() {
		if !emitted[d.Control] {
			stats.ControlsWithoutRows++
			short[d.Treated] = true
		}
	}
	if stats.ControlsWithoutRows > 0 {
		log.WithFields(log.Fields{
			"controls": stats.ControlsWithoutRows,
			"treated":  len(short),
		}).Warn("drawn controls without control mentions")
	}
	for r := range missing {
		stats.MissingReasons = append(stats.MissingReasons, r)
	}
	sort.Strings(stats.MissingReasons)
	if stats.DroppedNoTaxonomy > 0 || len(missing) > 0 {
		log.WithFields(log.Fields{
			"dropped_rows":    stats.DroppedNoTaxonomy,
			"missing_reasons": stats.MissingReasons,
		}).Warn("retraction reasons missing from taxonomy")
	}
	log.WithFields(log.Fields{
		"treated_rows": stats.TreatedRows,
		"control_rows": stats.ControlRows,
		"ids":          stats.AnonymizedIDs,
	}).Info("output assembled")
	return rows, stats
}

// topReasons maps raw reasons to distinct top level reasons, in order of first
// appearance; unknown reasons are collected in missing.
func (a *Assembler) topReasons(rs []model.Retraction, missing map[string]bool) []string {
	var (
		result []string
		seen   = make(map[string]bool)
	)
	for _, r := range rs {
		top, ok := a.Taxonomy[r.Reason]
		if !ok {
			missing[r.Reason] = true
			continue
		}
		if seen[top] {
			continue
		}
		seen[top] = true
		result = append(result, top)
	}
	return result
}

func newRow(m model.Mention, t model.Treated, set string, pid, origin int, reason string) Row {
	return Row{
		SetID:               set,
		PaperID:             pid,
		RetractionReason:    reason,
		ControlSampleOrigin: origin,
		Year:                t.Year,
		ScientificDomain:    t.Domain.String(),
		Percentile:          t.Percentile,
		SoftwareID:          m.SoftwareID,
		SoftwareName:        m.Name,
		SoftwareString:      m.MentionString,
		SoftwareType:        m.SoftwareType,
		MentionType:         m.MentionType,
		Version:             m.Version,
		Developer:           m.Developer,
		Citation:            m.Citation,
		URL:                 m.URL,
		HostSoftwareID:      m.HostID,
		HostSoftwareName:    m.HostName,
	}
}
