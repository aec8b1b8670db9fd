// Package pipeline runs a complete matching: it loads the journal ranks and
// the study inputs, builds the treated set and the control pool, draws
// controls and writes the anonymized table and its companions.
package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/miku/cemkit"
	"github.com/miku/cemkit/assemble"
	"github.com/miku/cemkit/config"
	"github.com/miku/cemkit/convert"
	"github.com/miku/cemkit/export"
	"github.com/miku/cemkit/matching"
	"github.com/miku/cemkit/model"
	"github.com/miku/cemkit/rank"
	"github.com/miku/cemkit/schema/corpus"
	"github.com/miku/cemkit/schema/retraction"
	"github.com/miku/cemkit/schema/softcite"
	"github.com/miku/cemkit/schema/taxonomy"
	"github.com/miku/cemkit/seed"
	"github.com/miku/cemkit/tabular"
	"github.com/rotisserie/eris"
	"github.com/sethgrid/pester"
	log "github.com/sirupsen/logrus"
)

// ErrNoRankFiles is returned when the rank glob matches nothing.
var ErrNoRankFiles = eris.New("no rank files found")

// Inputs are the loaded and converted study tables.
type Inputs struct {
	Ranks *rank.Table
	// Articles in file order, one per paper id.
	Articles    []model.Article
	ArticleByID map[string]model.Article
	// Retractions by cleaned DOI.
	Retractions map[string][]model.Retraction
	Mentions    []model.Mention
	// Taxonomy maps raw retraction reasons to top level reasons.
	Taxonomy map[string]string
	Stats    export.LoadStats
}

// Outcome of a run, kept in memory for callers that want more than files.
type Outcome struct {
	Report  *export.Report
	Result  *matching.Result
	Mapping *matching.Mapping
	Rows    []assemble.Row
}

// Pipeline runs matchings with a given configuration.
type Pipeline struct {
	Config *config.Config
	// Client is used for remote inputs.
	Client *pester.Client
	// Now is used for report timestamps, defaults to time.Now.
	Now func() time.Time
}

// New returns a pipeline for cfg with an HTTP client set up from the fetch
// options.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		Config: cfg,
		Client: tabular.NewClient(cfg.Fetch.MaxRetries, cfg.Fetch.Timeout),
		Now:    time.Now,
	}
}

// Run executes a matching and writes all configured outputs.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	started := p.now()
	in, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := p.Match(in)
	if err != nil {
		return nil, err
	}
	out.Report.Started = started
	out.Report.Finished = p.now()
	if err := p.Write(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

func (p *Pipeline) opener(encoding string) *tabular.Opener {
	return &tabular.Opener{Client: p.Client, Encoding: encoding}
}

// RankFiles returns the sorted list of yearly rank files.
func (p *Pipeline) RankFiles() ([]string, error) {
	names, err := filepath.Glob(p.Config.Inputs.RankGlob)
	if err != nil {
		return nil, eris.Wrapf(err, "rank glob %s", p.Config.Inputs.RankGlob)
	}
	if len(names) == 0 {
		return nil, eris.Wrapf(ErrNoRankFiles, "rank glob %s", p.Config.Inputs.RankGlob)
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and converts all inputs.
func (p *Pipeline) Load(ctx context.Context) (*Inputs, error) {
	var (
		cfg = p.Config
		in  = &Inputs{}
		err error
	)
	names, err := p.RankFiles()
	if err != nil {
		return nil, err
	}
	loader := &rank.Loader{Opener: p.opener(""), Workers: cfg.Matching.Workers}
	if in.Ranks, err = loader.LoadFiles(ctx, names); err != nil {
		return nil, err
	}
	if err := p.loadArticles(in); err != nil {
		return nil, err
	}
	if err := p.loadRetractions(in); err != nil {
		return nil, err
	}
	if err := p.loadMentions(in); err != nil {
		return nil, err
	}
	if err := p.loadTaxonomy(in); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"articles":            in.Stats.Articles,
		"articles_skipped":    in.Stats.ArticlesSkipped,
		"retractions":         in.Stats.Retractions,
		"retractions_skipped": in.Stats.RetractionsSkipped,
		"mentions":            in.Stats.Mentions,
		"taxonomy":            in.Stats.TaxonomyEntries,
	}).Info("inputs loaded")
	return in, nil
}

// each opens a table and decodes it row by row.
func each[T any](o *tabular.Opener, name string, required []string, fn func(T) error) error {
	r, err := o.Open(name)
	if err != nil {
		return eris.Wrapf(err, "open %s", name)
	}
	defer r.Close()
	if err := tabular.Each(r, tabular.DecodeOptions{Required: required}, fn); err != nil {
		return eris.Wrapf(err, "decode %s", name)
	}
	return nil
}

func (p *Pipeline) loadArticles(in *Inputs) error {
	years := p.Config.Matching.Years()
	in.ArticleByID = make(map[string]model.Article)
	return each(p.opener(""), p.Config.Inputs.Metadata, corpus.Required, func(row corpus.Row) error {
		a, err := convert.CorpusRow(row, years)
		if convert.IsSkip(err) {
			in.Stats.ArticlesSkipped++
			return nil
		}
		if err != nil {
			return err
		}
		if _, ok := in.ArticleByID[a.PaperID]; ok {
			in.Stats.ArticlesSkipped++
			return nil
		}
		in.ArticleByID[a.PaperID] = a
		in.Articles = append(in.Articles, a)
		in.Stats.Articles++
		return nil
	})
}

func (p *Pipeline) loadRetractions(in *Inputs) error {
	in.Retractions = make(map[string][]model.Retraction)
	o := p.opener(p.Config.Inputs.RetractionsEncoding)
	return each(o, p.Config.Inputs.Retractions, retraction.Required, func(row retraction.Row) error {
		rs, err := convert.RetractionRow(row)
		if convert.IsSkip(err) {
			in.Stats.RetractionsSkipped++
			return nil
		}
		if err != nil {
			return err
		}
		doi := rs[0].DOI
		in.Retractions[doi] = append(in.Retractions[doi], rs...)
		in.Stats.Retractions++
		return nil
	})
}

func (p *Pipeline) loadMentions(in *Inputs) error {
	return each(p.opener(""), p.Config.Inputs.Mentions, softcite.Required, func(row softcite.Row) error {
		in.Mentions = append(in.Mentions, convert.MentionRow(row))
		in.Stats.Mentions++
		return nil
	})
}

func (p *Pipeline) loadTaxonomy(in *Inputs) error {
	in.Taxonomy = make(map[string]string)
	return each(p.opener(""), p.Config.Inputs.Taxonomy, taxonomy.Required, func(row taxonomy.Row) error {
		reason, top, err := convert.TaxonomyRow(row)
		if convert.IsSkip(err) {
			return nil
		}
		if prev, ok := in.Taxonomy[reason]; ok && prev != top {
			log.WithFields(log.Fields{
				"reason": reason,
				"kept":   prev,
				"other":  top,
			}).Warn("conflicting taxonomy entries")
			return nil
		}
		in.Taxonomy[reason] = top
		in.Stats.TaxonomyEntries = len(in.Taxonomy)
		return nil
	})
}

// Match builds treated set and pool, draws controls and assembles the output
// rows. It does not touch the filesystem.
func (p *Pipeline) Match(in *Inputs) (*Outcome, error) {
	cfg := p.Config
	tb := &matching.TreatedBuilder{
		Ranks: in.Ranks,
		Label: cfg.Labels.Treated,
	}
	treated := tb.Build(in.Mentions, in.ArticleByID, in.Retractions)
	retracted := matching.RetractedIDs(in.Mentions, cfg.Labels.Treated, in.Articles, in.Retractions)
	pool, poolStats := matching.BuildPool(in.Articles, in.Ranks, retracted)
	sampler, err := matching.NewSampler(cfg.Matching.SampleSize, seed.Stream(cfg.Matching.Seed, seed.Sampling))
	if err != nil {
		return nil, eris.Wrap(err, "sampler")
	}
	result := sampler.Run(treated.Records, pool)
	if err := result.Verify(sampler.Size()); err != nil {
		return nil, eris.Wrap(err, "verify draws")
	}
	mapping, err := matching.NewMapping(result.Draws)
	if err != nil {
		return nil, eris.Wrap(err, "mapping")
	}
	asm := &assemble.Assembler{
		TreatedLabel: cfg.Labels.Treated,
		ControlLabel: cfg.Labels.Control,
		Taxonomy:     in.Taxonomy,
	}
	rows, outStats := asm.Assemble(assemble.Input{
		Mentions:    in.Mentions,
		Treated:     treated.Records,
		Result:      result,
		Mapping:     mapping,
		Retractions: in.Retractions,
	}, seed.Stream(cfg.Matching.Seed, seed.Permutation))
	report := &export.Report{
		RunID:      uuid.NewString(),
		Version:    cemkit.Version,
		Seed:       cfg.Matching.Seed,
		SampleSize: sampler.Size(),
		Period:     cfg.Matching.Years().Interval(),
		Ranks:      in.Ranks.Stats,
		Load:       in.Stats,
		Treated:    treated.Stats,
		Pool:       poolStats,
		PoolLeft:   pool.Remaining(),
		Matched:    result.Matched,
		Unmatched:  result.Unmatched,
		Output:     outStats,
	}
	return &Outcome{Report: report, Result: result, Mapping: mapping, Rows: rows}, nil
}

// Write stores the table and the optional mapping, report and database.
func (p *Pipeline) Write(ctx context.Context, out *Outcome) error {
	outputs := p.Config.Outputs
	if err := writeFile(outputs.Table, func(w io.Writer) error {
		return export.WriteTable(w, out.Rows)
	}); err != nil {
		return err
	}
	if outputs.Mapping != "" {
		if err := writeFile(outputs.Mapping, func(w io.Writer) error {
			return export.WriteMapping(w, out.Mapping.Pairs())
		}); err != nil {
			return err
		}
	}
	if outputs.Report != "" {
		if err := writeFile(outputs.Report, func(w io.Writer) error {
			return export.WriteReport(w, out.Report)
		}); err != nil {
			return err
		}
	}
	if outputs.SQLite != "" {
		db, err := export.OpenSQLite(outputs.SQLite)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		if err := db.SaveRun(ctx, out.Report, out.Mapping.Pairs(), out.Rows); err != nil {
			return err
		}
	}
	log.WithFields(log.Fields{
		"table":   outputs.Table,
		"rows":    len(out.Rows),
		"matched": len(out.Result.Matched),
	}).Info("outputs written")
	return nil
}

func writeFile(name string, fn func(io.Writer) error) error {
	w, err := tabular.Create(name)
	if err != nil {
		return eris.Wrapf(err, "create %s", name)
	}
	if err := fn(w); err != nil {
		w.Close()
		return eris.Wrapf(err, "write %s", name)
	}
	return eris.Wrapf(w.Close(), "close %s", name)
}
