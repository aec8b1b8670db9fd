// Package convert turns raw source rows into model records. Rows that cannot
// take part in matching are reported with a Skip error, which callers count
// and move past.
package convert

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/miku/cemkit/dateutil"
	"github.com/miku/cemkit/model"
	"github.com/miku/cemkit/normal"
	"github.com/miku/cemkit/schema/corpus"
	"github.com/miku/cemkit/schema/retraction"
	"github.com/miku/cemkit/schema/scimago"
	"github.com/miku/cemkit/schema/softcite"
	"github.com/miku/cemkit/schema/taxonomy"
	"github.com/segmentio/encoding/json"
)

// Skip marks a row as not usable. It is a data state, not a failure.
type Skip struct {
	err error
}

func (s Skip) Error() string {
	return s.err.Error()
}

var (
	ErrSkipNoTitle    = Skip{err: errors.New("no title")}
	ErrSkipBadRank    = Skip{err: errors.New("rank not an integer")}
	ErrSkipNoPaperID  = Skip{err: errors.New("no paper id")}
	ErrSkipBadYear    = Skip{err: errors.New("year not parsable")}
	ErrSkipOutOfRange = Skip{err: errors.New("year out of range")}
	ErrSkipNoDomain   = Skip{err: errors.New("no domain")}
	ErrSkipNoDOI      = Skip{err: errors.New("no doi")}
	ErrSkipNoReason   = Skip{err: errors.New("no reason")}

	errNoYearInName = errors.New("no year in file name")
)

var (
	yearInName         = regexp.MustCompile(`(19|20)\d{2}`)
	quotedListElements = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)
)

// IsSkip reports whether err marks a skipped row.
func IsSkip(err error) bool {
	var s Skip
	return errors.As(err, &s)
}

// YearFromFilename returns the first plausible year in a file name, e.g. 2015
// for "scimagojr 2015.csv".
func YearFromFilename(name string) (int, error) {
	m := yearInName.FindString(name)
	if m == "" {
		return 0, errNoYearInName
	}
	return strconv.Atoi(m)
}

// ScimagoRow converts a rank row for a given year. Percentile is left to the
// caller, as it depends on all rows of the year.
func ScimagoRow(row scimago.Row, year int) (model.RankEntry, error) {
	title := normal.Journal(strings.TrimSpace(row.Title))
	if title == "" {
		return model.RankEntry{}, ErrSkipNoTitle
	}
	rank, err := strconv.Atoi(strings.TrimSpace(row.Rank))
	if err != nil {
		return model.RankEntry{}, ErrSkipBadRank
	}
	return model.RankEntry{Title: title, Year: year, Rank: rank}, nil
}

// CorpusRow converts a metadata row, keeping only articles published within
// years.
func CorpusRow(row corpus.Row, years dateutil.YearRange) (model.Article, error) {
	id := strings.TrimSpace(row.PaperID)
	if id == "" {
		return model.Article{}, ErrSkipNoPaperID
	}
	year, err := dateutil.ParseYear(row.Year)
	if err != nil {
		return model.Article{}, ErrSkipBadYear
	}
	if !years.Contains(year) {
		return model.Article{}, ErrSkipOutOfRange
	}
	domain := ParseDomain(row.FieldOfStudy)
	if len(domain) == 0 {
		return model.Article{}, ErrSkipNoDomain
	}
	return model.Article{
		PaperID: id,
		DOI:     normal.CleanDOI(row.DOI),
		Journal: normal.Journal(strings.TrimSpace(row.Journal)),
		Year:    year,
		Domain:  domain,
	}, nil
}

// RetractionRow explodes a retraction notice into one record per reason.
// Separator artifacts like leading "+" are removed, empty reasons dropped.
func RetractionRow(row retraction.Row) ([]model.Retraction, error) {
	doi := normal.CleanDOI(row.OriginalPaperDOI)
	if doi == "" {
		return nil, ErrSkipNoDOI
	}
	journal := normal.Journal(strings.TrimSpace(row.Journal))
	var result []model.Retraction
	for _, reason := range SplitReasons(row.Reason) {
		result = append(result, model.Retraction{
			DOI:     doi,
			Journal: journal,
			Reason:  reason,
		})
	}
	if len(result) == 0 {
		return nil, ErrSkipNoReason
	}
	return result, nil
}

// SplitReasons splits a multi valued reason field, e.g. "duplication;+plagiarism"
// yields "duplication" and "plagiarism".
func SplitReasons(s string) []string {
	var result []string
	for _, v := range strings.Split(s, ";") {
		v = strings.TrimSpace(v)
		v = strings.TrimSpace(strings.TrimLeft(v, "+"))
		if v == "" {
			continue
		}
		result = append(result, v)
	}
	return result
}

// MentionRow converts a software mention row.
func MentionRow(row softcite.Row) model.Mention {
	return model.Mention{
		SetID:         strings.TrimSpace(row.SetID),
		PaperID:       strings.TrimSpace(row.PaperID),
		DOI:           normal.CleanDOI(row.DOI),
		SoftwareID:    row.ID,
		Name:          row.Name,
		MentionString: row.MentionString,
		SoftwareType:  row.SoftwareType,
		MentionType:   row.MentionType,
		Developer:     row.Developer,
		Version:       row.Version,
		Citation:      row.Citation,
		URL:           row.URL,
		HostID:        row.HostID,
		HostName:      row.HostName,
	}
}

// ParseDomain reads an ordered list of labels. Accepted forms are a python
// list literal "['A', 'B']", a JSON array and a semicolon separated string.
func ParseDomain(s string) model.Domain {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return nil
	}
	var labels []string
	switch {
	case strings.HasPrefix(s, "[") && strings.Contains(s, `"`):
		if err := json.Unmarshal([]byte(s), &labels); err != nil {
			return nil
		}
	case strings.HasPrefix(s, "["):
		for _, m := range quotedListElements.FindAllStringSubmatch(s, -1) {
			labels = append(labels, strings.ReplaceAll(m[1], `\'`, `'`))
		}
	default:
		labels = strings.Split(s, ";")
	}
	var domain model.Domain
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			domain = append(domain, l)
		}
	}
	return domain
}

// TaxonomyRow returns the raw reason and its top level category, cleaned the
// same way as reasons of retraction notices.
func TaxonomyRow(row taxonomy.Row) (reason, top string, err error) {
	reasons := SplitReasons(row.Reason)
	top = strings.TrimSpace(row.TopReason)
	if len(reasons) != 1 || top == "" {
		return "", "", ErrSkipNoReason
	}
	return reasons[0], top, nil
}
