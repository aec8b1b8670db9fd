package normal

import (
	"regexp"
	"strings"
)

var doiRegex = regexp.MustCompile(`^10\.\d{4,}/\S+$`)

// CleanDOI returns a lowercase, prefix free DOI or the empty string, if the
// value does not look like a DOI. It is the join key between mentions,
// corpus metadata and retraction notices, which write the same DOI as
// "10.1016/J.CELL.2015.01.001", "https://doi.org/10.1016/j.cell.2015.01.001"
// or "DOI: 10.1016/j.cell.2015.01.001"; placeholders like "Unavailable"
// yield the empty string.
func CleanDOI(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "–") {
		// en dash is not valid in a DOI, treat as broken
		return ""
	}
	for _, prefix := range []string{"doi:", "http://", "https://", "doi.org/", "dx.doi.org/"} {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, prefix))
	}
	if strings.Contains(raw, " ") {
		return ""
	}
	if len(raw) > 9 && raw[7:9] == "//" && strings.Contains(raw, "10.1037//") {
		raw = raw[:8] + raw[9:]
	}
	if !strings.HasPrefix(raw, "10.") {
		return ""
	}
	if !doiRegex.MatchString(raw) {
		return ""
	}
	if !isASCII(raw) {
		return ""
	}
	return raw
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
