// Package corpus has the row layout of the full text corpus metadata table.
package corpus

// Required columns.
var Required = []string{"paper_id", "year", "journal_prepro", "mag_field_of_study"}

// Row is a single article. Journal carries the already preprocessed journal
// name, FieldOfStudy a list of labels, e.g. "['Medicine', 'Biology']".
type Row struct {
	PaperID      string `csv:"paper_id"`
	Year         string `csv:"year"`
	Journal      string `csv:"journal_prepro"`
	FieldOfStudy string `csv:"mag_field_of_study"`
	DOI          string `csv:"doi,omitempty"`
	Title        string `csv:"title,omitempty"`
}
