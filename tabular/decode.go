package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// ErrMissingColumn is returned when a table lacks a required column.
var ErrMissingColumn = errors.New("missing column")

var utf8BOM = []byte("\xef\xbb\xbf")

// DecodeOptions configures table decoding.
type DecodeOptions struct {
	// Delimiter separates fields; zero means sniff from the header line.
	Delimiter rune
	// Required columns must be present in the header.
	Required []string
}

// SniffDelimiter guesses the field separator from a header line, preferring
// semicolon, then tab, then comma.
func SniffDelimiter(header string) rune {
	var best, count = ',', 0
	for _, c := range []rune{';', '\t', ','} {
		if n := strings.Count(header, string(c)); n > count {
			best, count = c, n
		}
	}
	return best
}

// Each decodes every row of the table in r into a T, using csv struct tags, and
// calls fn with it, in file order.
func Each[T any](r io.Reader, opts DecodeOptions, fn func(T) error) error {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return err
		}
	}
	comma := opts.Delimiter
	if comma == 0 {
		b, _ := br.Peek(br.Size())
		if i := bytes.IndexByte(b, '\n'); i >= 0 {
			b = b[:i]
		}
		comma = SniffDelimiter(string(b))
	}
	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return eris.New("empty table, header expected")
	}
	if err != nil {
		return eris.Wrap(err, "read header")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	if err := checkRequired(header, opts.Required); err != nil {
		return err
	}
	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return eris.Wrap(err, "csv decoder")
	}
	for {
		var v T
		if err := dec.Decode(&v); err == io.EOF {
			return nil
		} else if err != nil {
			return eris.Wrapf(err, "decode line %d", lineOf(cr))
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

// Decode reads all rows of a table.
func Decode[T any](r io.Reader, opts DecodeOptions) ([]T, error) {
	var result []T
	err := Each(r, opts, func(v T) error {
		result = append(result, v)
		return nil
	})
	return result, err
}

func checkRequired(header, required []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[h] = true
	}
	var missing []string
	for _, name := range required {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrMissingColumn, "%s", strings.Join(missing, ", "))
	}
	return nil
}

func lineOf(cr *csv.Reader) int {
	line, _ := cr.FieldPos(0)
	return line
}
