// Package scimago has the row layout of the yearly SCImago journal rank
// exports, e.g. "scimagojr 2015.csv".
package scimago

// Required columns.
var Required = []string{"Title", "Rank", "SJR"}

// Row is a single journal in a yearly ranking. SJR uses a comma as decimal
// separator in the exports, so it is kept as a string.
type Row struct {
	Rank            string `csv:"Rank"`
	SourceID        string `csv:"Sourceid,omitempty"`
	Title           string `csv:"Title"`
	Type            string `csv:"Type,omitempty"`
	Issn            string `csv:"Issn,omitempty"`
	SJR             string `csv:"SJR"`
	SJRBestQuartile string `csv:"SJR Best Quartile,omitempty"`
	HIndex          string `csv:"H index,omitempty"`
	Country         string `csv:"Country,omitempty"`
	Publisher       string `csv:"Publisher,omitempty"`
	Categories      string `csv:"Categories,omitempty"`
}
