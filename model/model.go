// Package model contains the records that flow through a matching run. All
// records are immutable projections of source data once created.
package model

import (
	"strings"

	"github.com/segmentio/encoding/json"
)

// Domain is an ordered list of field of study labels; order is significant,
// [CS, Biology] and [Biology, CS] are different domains.
type Domain []string

// Key returns a comparable representation of the domain.
func (d Domain) Key() string {
	return strings.Join(d, "\x1f")
}

// String renders the domain as a JSON array.
func (d Domain) String() string {
	if d == nil {
		d = Domain{}
	}
	b, _ := json.Marshal([]string(d))
	return string(b)
}

// Article is a full text corpus entry with a normalized journal name.
type Article struct {
	PaperID string
	DOI     string
	Journal string
	Year    int
	Domain  Domain
}

// Retraction is a single retraction reason for an article; one retraction
// notice yields as many records as it lists reasons.
type Retraction struct {
	DOI     string
	Journal string
	Reason  string
}

// RankEntry is a journal rank row with its percentile within its year.
type RankEntry struct {
	Title      string
	Year       int
	Rank       int
	Percentile int
}

// Mention is a software mention extracted from an article.
type Mention struct {
	SetID         string
	PaperID       string
	DOI           string
	SoftwareID    string
	Name          string
	MentionString string
	SoftwareType  string
	MentionType   string
	Developer     string
	Version       string
	Citation      string
	URL           string
	HostID        string
	HostName      string
}

// Treated is a retracted article with resolved matching covariates.
type Treated struct {
	PaperID    string
	DOI        string
	Domain     Domain
	Year       int
	Percentile int
	// Via names the journal key strategy that resolved the percentile.
	Via string
}
