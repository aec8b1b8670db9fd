// Package export writes the results of a matching run.
package export

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/miku/cemkit/assemble"
	"github.com/miku/cemkit/matching"
	"github.com/rotisserie/eris"
)

// MappingRow is a (control, treated) pair with original identifiers.
type MappingRow struct {
	Control string `csv:"control_paper_id"`
	Treated string `csv:"treated_paper_id"`
}

// WriteTable writes rows as CSV with a header line, also when there are no
// rows.
func WriteTable(w io.Writer, rows []assemble.Row) error {
	return writeCSV(w, assemble.Row{}, rows)
}

// WriteMapping writes the control to treated mapping as CSV.
func WriteMapping(w io.Writer, pairs []matching.Draw) error {
	rows := make([]MappingRow, len(pairs))
	for i, p := range pairs {
		rows[i] = MappingRow{Control: p.Control, Treated: p.Treated}
	}
	return writeCSV(w, MappingRow{}, rows)
}

func writeCSV[T any](w io.Writer, header T, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false
	if err := enc.EncodeHeader(header); err != nil {
		return eris.Wrap(err, "csv header")
	}
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "csv encode")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csv flush")
}
