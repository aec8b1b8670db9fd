package convert

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/miku/cemkit/dateutil"
	"github.com/miku/cemkit/model"
	"github.com/miku/cemkit/schema/corpus"
	"github.com/miku/cemkit/schema/retraction"
	"github.com/miku/cemkit/schema/scimago"
	"github.com/miku/cemkit/schema/softcite"
	"github.com/miku/cemkit/schema/taxonomy"
)

var studyYears = dateutil.YearRange{First: 2000, Last: 2019}

func TestYearFromFilename(t *testing.T) {
	var cases = []struct {
		name string
		year int
		err  bool
	}{
		{"scimagojr 2015.csv", 2015, false},
		{"scimagojr_1999.csv.gz", 1999, false},
		{"ranks.csv", 0, true},
	}
	for _, c := range cases {
		y, err := YearFromFilename(c.name)
		if (err != nil) != c.err {
			t.Fatalf("%s: got err %v", c.name, err)
		}
		if y != c.year {
			t.Errorf("%s: got %d, want %d", c.name, y, c.year)
		}
	}
}

func TestScimagoRow(t *testing.T) {
	e, err := ScimagoRow(scimago.Row{Rank: " 12 ", Title: "The Lancet", SJR: "15,2"}, 2015)
	if err != nil {
		t.Fatal(err)
	}
	want := model.RankEntry{Title: "lancet", Year: 2015, Rank: 12}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := ScimagoRow(scimago.Row{Rank: "n/a", Title: "Cell"}, 2015); err != ErrSkipBadRank {
		t.Errorf("got %v, want %v", err, ErrSkipBadRank)
	}
	if _, err := ScimagoRow(scimago.Row{Rank: "1", Title: "  "}, 2015); err != ErrSkipNoTitle {
		t.Errorf("got %v, want %v", err, ErrSkipNoTitle)
	}
}

func TestCorpusRow(t *testing.T) {
	var cases = []struct {
		help   string
		row    corpus.Row
		result model.Article
		err    error
	}{
		{
			"complete row",
			corpus.Row{PaperID: "p1", Year: "2015", Journal: "The Journal of Foo & Bar", FieldOfStudy: "['Computer Science', 'Biology']", DOI: "https://doi.org/10.1234/X"},
			model.Article{PaperID: "p1", DOI: "10.1234/x", Journal: "journal of foo and bar", Year: 2015, Domain: model.Domain{"Computer Science", "Biology"}},
			nil,
		},
		{"lower bound", corpus.Row{PaperID: "p2", Year: "2000", Journal: "Cell", FieldOfStudy: "Biology"}, model.Article{PaperID: "p2", Journal: "cell", Year: 2000, Domain: model.Domain{"Biology"}}, nil},
		{"upper bound", corpus.Row{PaperID: "p3", Year: "2019.0", Journal: "Cell", FieldOfStudy: "Biology"}, model.Article{PaperID: "p3", Journal: "cell", Year: 2019, Domain: model.Domain{"Biology"}}, nil},
		{"too old", corpus.Row{PaperID: "p4", Year: "1999", Journal: "Cell", FieldOfStudy: "Biology"}, model.Article{}, ErrSkipOutOfRange},
		{"too new", corpus.Row{PaperID: "p5", Year: "2020", Journal: "Cell", FieldOfStudy: "Biology"}, model.Article{}, ErrSkipOutOfRange},
		{"no id", corpus.Row{Year: "2010", FieldOfStudy: "Biology"}, model.Article{}, ErrSkipNoPaperID},
		{"bad year", corpus.Row{PaperID: "p6", Year: "n.d.", FieldOfStudy: "Biology"}, model.Article{}, ErrSkipBadYear},
		{"no domain", corpus.Row{PaperID: "p7", Year: "2010", FieldOfStudy: "[]"}, model.Article{}, ErrSkipNoDomain},
	}
	for _, c := range cases {
		t.Run(c.help, func(t *testing.T) {
			a, err := CorpusRow(c.row, studyYears)
			if err != c.err {
				t.Fatalf("got %v, want %v", err, c.err)
			}
			if diff := cmp.Diff(c.result, a); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRetractionRowExplodesReasons(t *testing.T) {
	rs, err := RetractionRow(retraction.Row{
		OriginalPaperDOI: "10.1000/abc",
		Journal:          "The Journal of Foo & Bar",
		Reason:           "duplication;+plagiarism",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Retraction{
		{DOI: "10.1000/abc", Journal: "journal of foo and bar", Reason: "duplication"},
		{DOI: "10.1000/abc", Journal: "journal of foo and bar", Reason: "plagiarism"},
	}
	if diff := cmp.Diff(want, rs); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRetractionRowSkips(t *testing.T) {
	if _, err := RetractionRow(retraction.Row{OriginalPaperDOI: "unavailable", Reason: "+Error;"}); err != ErrSkipNoDOI {
		t.Errorf("got %v, want %v", err, ErrSkipNoDOI)
	}
	if _, err := RetractionRow(retraction.Row{OriginalPaperDOI: "10.1000/abc", Reason: "+;; +"}); err != ErrSkipNoReason {
		t.Errorf("got %v, want %v", err, ErrSkipNoReason)
	}
	if !IsSkip(fmt.Errorf("row 3: %w", ErrSkipNoReason)) {
		t.Errorf("expected wrapped skip to be detected")
	}
}

func TestSplitReasons(t *testing.T) {
	var cases = []struct {
		s    string
		want []string
	}{
		{"", nil},
		{"+Duplication of Article;+Plagiarism of Article;", []string{"Duplication of Article", "Plagiarism of Article"}},
		{"duplication;+plagiarism", []string{"duplication", "plagiarism"}},
		{" + Error in Data ; ", []string{"Error in Data"}},
		{"duplication;duplication", []string{"duplication", "duplication"}},
	}
	for _, c := range cases {
		if diff := cmp.Diff(c.want, SplitReasons(c.s)); diff != "" {
			t.Errorf("%q: mismatch (-want +got):\n%s", c.s, diff)
		}
	}
}

func TestParseDomain(t *testing.T) {
	var cases = []struct {
		s    string
		want model.Domain
	}{
		{"", nil},
		{"[]", nil},
		{"['Computer Science', 'Biology']", model.Domain{"Computer Science", "Biology"}},
		{"['Biology', 'Computer Science']", model.Domain{"Biology", "Computer Science"}},
		{`["Alzheimer's research", "Medicine"]`, model.Domain{"Alzheimer's research", "Medicine"}},
		{"Medicine; Biology", model.Domain{"Medicine", "Biology"}},
		{"Medicine", model.Domain{"Medicine"}},
		{`["broken`, nil},
	}
	for _, c := range cases {
		if diff := cmp.Diff(c.want, ParseDomain(c.s)); diff != "" {
			t.Errorf("%q: mismatch (-want +got):\n%s", c.s, diff)
		}
	}
}

func TestMentionRow(t *testing.T) {
	m := MentionRow(softcite.Row{SetID: " retracted ", PaperID: "p1", DOI: "doi:10.1000/ABC", ID: "s1", Name: "SPSS", HostID: "h1"})
	want := model.Mention{SetID: "retracted", PaperID: "p1", DOI: "10.1000/abc", SoftwareID: "s1", Name: "SPSS", HostID: "h1"}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTaxonomyRow(t *testing.T) {
	var cases = []struct {
		row    taxonomy.Row
		reason string
		top    string
		err    error
	}{
		{taxonomy.Row{Reason: "+Plagiarism of Text", TopReason: "Misconduct"}, "Plagiarism of Text", "Misconduct", nil},
		{taxonomy.Row{Reason: " Error in Data ", TopReason: " Error "}, "Error in Data", "Error", nil},
		{taxonomy.Row{Reason: "", TopReason: "Error"}, "", "", ErrSkipNoReason},
		{taxonomy.Row{Reason: "Error in Data", TopReason: ""}, "", "", ErrSkipNoReason},
	}
	for _, c := range cases {
		reason, top, err := TaxonomyRow(c.row)
		if err != c.err {
			t.Errorf("%v: got %v, want %v", c.row, err, c.err)
		}
		if reason != c.reason || top != c.top {
			t.Errorf("%v: got %q %q, want %q %q", c.row, reason, top, c.reason, c.top)
		}
	}
}
