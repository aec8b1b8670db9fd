package rank

import (
	"context"
	"path/filepath"

	"github.com/miku/cemkit/convert"
	"github.com/miku/cemkit/model"
	"github.com/miku/cemkit/schema/scimago"
	"github.com/miku/cemkit/tabular"
	"github.com/rotisserie/eris"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Loader reads yearly rank tables.
type Loader struct {
	Opener *tabular.Opener
	// Workers limits the number of files read concurrently.
	Workers int
}

// LoadFile reads a single yearly table and returns its entries with
// percentiles computed over the rows of that file. The year is taken from the
// file name. It also returns the number of skipped rows.
func (l *Loader) LoadFile(name string) ([]model.RankEntry, int, error) {
	year, err := convert.YearFromFilename(filepath.Base(name))
	if err != nil {
		return nil, 0, eris.Wrapf(err, "rank file %s", name)
	}
	opener := l.Opener
	if opener == nil {
		opener = &tabular.Opener{}
	}
	r, err := opener.Open(name)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "open %s", name)
	}
	defer r.Close()
	var (
		entries []model.RankEntry
		skipped int
	)
	err = tabular.Each(r, tabular.DecodeOptions{Required: scimago.Required}, func(row scimago.Row) error {
		e, err := convert.ScimagoRow(row, year)
		if convert.IsSkip(err) {
			skipped++
			return nil
		}
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, 0, eris.Wrapf(err, "decode %s", name)
	}
	ranks := make([]int, len(entries))
	for i, e := range entries {
		ranks[i] = e.Rank
	}
	for i, p := range Percentiles(ranks) {
		entries[i].Percentile = p
	}
	log.WithFields(log.Fields{
		"file":    name,
		"year":    year,
		"entries": len(entries),
		"skipped": skipped,
	}).Debug("loaded rank file")
	return entries, skipped, nil
}

// LoadFiles reads all files concurrently and builds a table. Entries are
// combined in the order of names, so the result does not depend on
// scheduling.
func (l *Loader) LoadFiles(ctx context.Context, names []string) (*Table, error) {
	if len(names) == 0 {
		return nil, eris.New("no rank files given")
	}
	var (
		results = make([][]model.RankEntry, len(names))
		skipped = make([]int, len(names))
	)
	g, ctx := errgroup.WithContext(ctx)
	if l.Workers > 0 {
		g.SetLimit(l.Workers)
	}
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries, n, err := l.LoadFile(name)
			if err != nil {
				return err
			}
			results[i], skipped[i] = entries, n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []model.RankEntry
	for _, r := range results {
		all = append(all, r...)
	}
	t := NewTable(all)
	for _, n := range skipped {
		t.Stats.SkippedRows += n
	}
	t.Stats.FilesProcessed = len(names)
	log.WithFields(log.Fields{
		"files":          len(names),
		"entries":        t.Stats.Entries,
		"unique":         t.Stats.Unique,
		"ambiguous_keys": t.Stats.AmbiguousKeys,
		"ambiguous_rows": t.Stats.AmbiguousRows,
		"skipped_rows":   t.Stats.SkippedRows,
	}).Info("journal rank table ready")
	return t, nil
}
