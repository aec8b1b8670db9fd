// Package normal canonicalizes strings used as join keys across sources.
package normal

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalizer turns a raw value into a canonical one.
type Normalizer interface {
	Normalize(string) string
}

// NormalizerFunc adapts a plain function to the Normalizer interface.
type NormalizerFunc func(string) string

func (f NormalizerFunc) Normalize(s string) string { return f(s) }

// Pipeline applies normalizers in order; later steps see the output of earlier
// ones.
type Pipeline struct {
	Normalizer []Normalizer
}

func (p *Pipeline) Normalize(s string) string {
	for _, n := range p.Normalizer {
		s = n.Normalize(s)
	}
	return s
}

var (
	trailingParenthetical = regexp.MustCompile(` \(([^()]*)\)$`)
	trailingColonSuffix   = regexp.MustCompile(`: ([^:]{2,5})$`)
)

var (
	// Lowercase lowercases the whole string.
	Lowercase = NormalizerFunc(strings.ToLower)
	// TightenColon turns " :" into ":".
	TightenColon = NormalizerFunc(func(s string) string {
		return strings.ReplaceAll(s, " :", ":")
	})
	// DropShortParenthetical removes a trailing " (...)" annotation, if it
	// carries 2 to 5 letters or digits, e.g. " (2nd Ed)" or " (JACS)".
	DropShortParenthetical = NormalizerFunc(func(s string) string {
		m := trailingParenthetical.FindStringSubmatchIndex(s)
		if m == nil {
			return s
		}
		if n := countAlnum(s[m[2]:m[3]]); n < 2 || n > 5 {
			return s
		}
		return s[:m[0]]
	})
	// DropShortColonSuffix removes a trailing ": abcd" suffix of 2 to 5
	// characters of any kind, e.g. ": nat" or ": j.b.".
	DropShortColonSuffix = NormalizerFunc(func(s string) string {
		return trailingColonSuffix.ReplaceAllString(s, "")
	})
	// DropLeadingArticle strips a leading "the ", case sensitive.
	DropLeadingArticle = NormalizerFunc(func(s string) string {
		return strings.TrimPrefix(s, "the ")
	})
	// ReplaceAmpersand spells out "&".
	ReplaceAmpersand = NormalizerFunc(func(s string) string {
		return strings.ReplaceAll(s, "&", "and")
	})
	// DropTrailingColon removes a single trailing colon.
	DropTrailingColon = NormalizerFunc(func(s string) string {
		return strings.TrimSuffix(s, ":")
	})
)

// JournalPipeline is the canonicalization used for journal titles in rank
// tables, article metadata and retraction records. Step order matters.
var JournalPipeline = &Pipeline{Normalizer: []Normalizer{
	Lowercase,
	TightenColon,
	DropShortParenthetical,
	DropShortColonSuffix,
	DropLeadingArticle,
	ReplaceAmpersand,
	DropTrailingColon,
}}

// Journal returns the canonical form of a journal title.
func Journal(s string) string {
	return JournalPipeline.Normalize(s)
}

func countAlnum(s string) (n int) {
	for _, c := range s {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			n++
		}
	}
	return n
}
