package export

import (
	"io"
	"time"

	"github.com/miku/cemkit/assemble"
	"github.com/miku/cemkit/dateutil"
	"github.com/miku/cemkit/matching"
	"github.com/miku/cemkit/rank"
	"github.com/segmentio/encoding/json"
)

// LoadStats counts rows read and skipped per input.
type LoadStats struct {
	Articles           int `json:"articles"`
	ArticlesSkipped    int `json:"articles_skipped"`
	Retractions        int `json:"retractions"`
	RetractionsSkipped int `json:"retractions_skipped"`
	Mentions           int `json:"mentions"`
	TaxonomyEntries    int `json:"taxonomy_entries"`
}

// Report summarizes a run for auditing.
type Report struct {
	RunID      string                `json:"run_id"`
	Version    string                `json:"version"`
	Started    time.Time             `json:"started"`
	Finished   time.Time             `json:"finished"`
	Seed       uint64                `json:"seed"`
	SampleSize int                   `json:"sample_size"`
	Period     dateutil.Interval     `json:"period"`
	Ranks      rank.Stats            `json:"ranks"`
	Load       LoadStats             `json:"load"`
	Treated    matching.TreatedStats `json:"treated"`
	Pool       matching.PoolStats    `json:"pool"`
	PoolLeft   int                   `json:"pool_remaining"`
	Matched    []string              `json:"matched"`
	Unmatched  []string              `json:"unmatched"`
	Output     assemble.Stats        `json:"output"`
}

// WriteReport writes the report as indented JSON.
func WriteReport(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
