package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/miku/cemkit/config"
	"github.com/miku/cemkit/schema/softcite"
	"github.com/miku/cemkit/tabular"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture writes a small study: one matchable retracted article with twelve
// candidate controls, one retracted article without metadata and one
// article outside the study period.
func fixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		return p
	}
	write("ranks/scimagojr 2010.csv", "Rank;Sourceid;Title;SJR\n1;11;Journal of Foo;3,2\n2;12;Journal of Bar;1,1\n")

	var meta strings.Builder
	meta.WriteString("paper_id,year,journal_prepro,mag_field_of_study,doi,title\n")
	meta.WriteString("T1,2010,journal of foo,['Biology'],10.1000/t1,Treated\n")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&meta, "C%02d,2010,Journal of Foo,['Biology'],10.1000/c%02d,Control\n", i, i)
	}
	meta.WriteString("X1,1990,Journal of Foo,['Biology'],10.1000/x1,Old\n")
	meta.WriteString("B1,2010,Journal of Bar,['Biology'],10.1000/b1,Other stratum\n")

	var mentions strings.Builder
	mentions.WriteString("set_id,paper_id,doi,name,id,mention_string\n")
	mentions.WriteString("retracted,T1,10.1000/t1,SPSS,s1,we used SPSS\n")
	mentions.WriteString("retracted,T1,10.1000/t1,R,s2,\n")
	mentions.WriteString("retracted,T2,10.1000/t2,Excel,s3,\n")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&mentions, "non-retracted,C%02d,10.1000/c%02d,Excel,s3,\n", i, i)
	}
	mentions.WriteString("non-retracted,B1,10.1000/b1,Stata,s4,\n")

	return &config.Config{
		DataDir: dir,
		Inputs: config.InputConfig{
			RankGlob:    filepath.Join(dir, "ranks", "scimagojr *.csv"),
			Metadata:    write("corpus.csv", meta.String()),
			Retractions: write("retractions.csv", "Record ID,Journal,OriginalPaperDOI,Reason\n1,The Journal of Foo,https://doi.org/10.1000/T1,+Plagiarism of Text;+Duplication of Article;\n"),
			Mentions:    write("mentions.csv", mentions.String()),
			Taxonomy:    write("taxonomy.csv", "Reason,TopReason\n+Plagiarism of Text,Misconduct\n+Duplication of Article,Misconduct\n+Error in Data,Error\n"),
		},
		Outputs: config.OutputConfig{
			Table:   filepath.Join(dir, "out", "table.csv"),
			Mapping: filepath.Join(dir, "out", "mapping.csv"),
			Report:  filepath.Join(dir, "out", "report.json"),
			SQLite:  filepath.Join(dir, "out", "runs.db"),
		},
		Matching: config.MatchingConfig{SampleSize: 10, Seed: 42, YearStart: 2000, YearEnd: 2019, Workers: 2},
		Labels:   config.LabelConfig{Treated: "retracted", Control: "non-retracted"},
	}
}

func run(t *testing.T, cfg *config.Config) *Outcome {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Outputs.Table), 0755))
	p := New(cfg)
	p.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	out, err := p.Run(context.Background())
	require.NoError(t, err)
	return out
}

func TestRun(t *testing.T) {
	cfg := fixture(t)
	out := run(t, cfg)

	assert.Equal(t, []string{"T1"}, out.Result.Matched)
	assert.Empty(t, out.Result.Unmatched)
	assert.Len(t, out.Result.Draws, 10)
	assert.Equal(t, 10, out.Mapping.Len())

	r := out.Report
	assert.Equal(t, 14, r.Load.Articles)
	assert.Equal(t, 1, r.Load.ArticlesSkipped)
	assert.Equal(t, 2, r.Treated.Candidates)
	assert.Equal(t, 1, r.Treated.NoMetadata)
	assert.Equal(t, 1, r.Treated.ByStrategy["retraction-journal"])
	assert.Equal(t, 13, r.Pool.Size)
	assert.Equal(t, 1, r.Pool.Retracted)
	assert.Equal(t, 2019, r.Period.End.Year())
	assert.Equal(t, 3, r.PoolLeft)
	assert.Equal(t, 2, r.Output.TreatedRows)
	assert.Equal(t, 10, r.Output.ControlRows)
	assert.Equal(t, 11, r.Output.AnonymizedIDs)
	assert.Zero(t, r.Output.ControlsWithoutRows)

	var treatedID int
	for i, row := range out.Rows {
		assert.Equal(t, 2010, row.Year)
		assert.Equal(t, `["Biology"]`, row.ScientificDomain)
		assert.Equal(t, 1, row.Percentile)
		assert.GreaterOrEqual(t, row.PaperID, 1)
		assert.LessOrEqual(t, row.PaperID, 11)
		if i < 2 {
			assert.Equal(t, "retracted", row.SetID)
			assert.Equal(t, "Misconduct", row.RetractionReason)
			assert.Zero(t, row.ControlSampleOrigin)
			treatedID = row.PaperID
			continue
		}
		assert.Equal(t, "non-retracted", row.SetID)
		assert.Equal(t, "non-retracted", row.RetractionReason)
		assert.Equal(t, treatedID, row.ControlSampleOrigin)
		assert.Equal(t, "Excel", row.SoftwareName)
	}
	assert.Equal(t, "we used SPSS", out.Rows[0].SoftwareString)

	for _, name := range []string{cfg.Outputs.Table, cfg.Outputs.Mapping, cfg.Outputs.Report, cfg.Outputs.SQLite} {
		_, err := os.Stat(name)
		assert.NoError(t, err, name)
	}
	b, err := os.ReadFile(cfg.Outputs.Table)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(b)), "\n"), 13)
}

func TestRunReproducible(t *testing.T) {
	var tables []string
	for i := 0; i < 2; i++ {
		cfg := fixture(t)
		run(t, cfg)
		b, err := os.ReadFile(cfg.Outputs.Table)
		require.NoError(t, err)
		tables = append(tables, string(b))
	}
	assert.Equal(t, tables[0], tables[1])
}

func TestRunSeedChangesDraws(t *testing.T) {
	drawn := func(seed uint64) []string {
		cfg := fixture(t)
		cfg.Matching.Seed = seed
		var ids []string
		for _, d := range run(t, cfg).Result.Draws {
			ids = append(ids, d.Control)
		}
		return ids
	}
	a, b := drawn(1), drawn(2)
	assert.Len(t, a, 10)
	assert.Len(t, b, 10)
	assert.NotEqual(t, a, b)
}

func appendFile(t *testing.T, name, content string) {
	t.Helper()
	f, err := os.OpenFile(name, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestRunExcludesUnresolvedRetracted(t *testing.T) {
	cfg := fixture(t)
	// R1 is labelled retracted but has no retraction record, so it is not
	// treated; it shares the stratum of T1 and must not be drawn.
	appendFile(t, cfg.Inputs.Metadata, "R1,2010,Journal of Foo,['Biology'],10.1000/r1,Unresolved\n")
	appendFile(t, cfg.Inputs.Mentions, "retracted,R1,10.1000/r1,SAS,s5,\n")
	out := run(t, cfg)
	assert.Equal(t, 1, out.Report.Treated.NoRetraction)
	assert.Equal(t, 2, out.Report.Pool.Retracted)
	assert.Equal(t, 13, out.Report.Pool.Size)
	for _, d := range out.Result.Draws {
		assert.NotEqual(t, "R1", d.Control)
	}
	assert.Zero(t, out.Report.Output.ControlsWithoutRows)
}

func TestRunCompressedOutput(t *testing.T) {
	cfg := fixture(t)
	cfg.Outputs.Table = filepath.Join(filepath.Dir(cfg.Outputs.Table), "table.csv.gz")
	out := run(t, cfg)
	r, err := tabular.Open(cfg.Outputs.Table)
	require.NoError(t, err)
	defer r.Close()
	var n int
	require.NoError(t, tabular.Each(r, tabular.DecodeOptions{}, func(row struct {
		SetID string `csv:"Set_ID"`
	}) error {
		n++
		return nil
	}))
	assert.Equal(t, len(out.Rows), n)
}

func TestRunNoRankFiles(t *testing.T) {
	cfg := fixture(t)
	cfg.Inputs.RankGlob = filepath.Join(t.TempDir(), "*.csv")
	_, err := New(cfg).Run(context.Background())
	assert.True(t, eris.Is(err, ErrNoRankFiles))
}

func TestRunMissingColumn(t *testing.T) {
	cfg := fixture(t)
	name := filepath.Join(t.TempDir(), "mentions.csv")
	require.NoError(t, os.WriteFile(name, []byte("set_id,paper_id\nretracted,T1\n"), 0644))
	cfg.Inputs.Mentions = name
	_, err := New(cfg).Run(context.Background())
	assert.True(t, eris.Is(err, tabular.ErrMissingColumn))
	assert.Contains(t, err.Error(), softcite.Required[2])
}
