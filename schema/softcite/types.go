// Package softcite has the row layout of the software mention table produced
// by the upstream extraction step.
package softcite

// Required columns.
var Required = []string{"set_id", "paper_id", "doi", "name", "id"}

// Row is a single software mention.
type Row struct {
	SetID         string `csv:"set_id"`
	PaperID       string `csv:"paper_id"`
	DOI           string `csv:"doi"`
	Name          string `csv:"name"`
	ID            string `csv:"id"`
	MentionString string `csv:"mention_string,omitempty"`
	SoftwareType  string `csv:"software_type,omitempty"`
	MentionType   string `csv:"mention_type,omitempty"`
	Developer     string `csv:"developer,omitempty"`
	Version       string `csv:"version,omitempty"`
	Citation      string `csv:"citation,omitempty"`
	URL           string `csv:"url,omitempty"`
	HostID        string `csv:"host_id,omitempty"`
	HostName      string `csv:"host_name,omitempty"`
}
