// Package retraction has the row layout of the retraction database export.
package retraction

// Required columns.
var Required = []string{"OriginalPaperDOI", "Journal", "Reason"}

// Row is a retraction notice. Reason lists multiple reasons, each prefixed
// with "+" and separated by ";", e.g. "+Duplication of Article;+Plagiarism;".
type Row struct {
	RecordID          string `csv:"Record ID,omitempty"`
	Title             string `csv:"Title,omitempty"`
	Subject           string `csv:"Subject,omitempty"`
	Journal           string `csv:"Journal"`
	Publisher         string `csv:"Publisher,omitempty"`
	ArticleType       string `csv:"ArticleType,omitempty"`
	RetractionDate    string `csv:"RetractionDate,omitempty"`
	RetractionDOI     string `csv:"RetractionDOI,omitempty"`
	OriginalPaperDate string `csv:"OriginalPaperDate,omitempty"`
	OriginalPaperDOI  string `csv:"OriginalPaperDOI"`
	RetractionNature  string `csv:"RetractionNature,omitempty"`
	Reason            string `csv:"Reason"`
}
