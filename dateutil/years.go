// Package dateutil provides year handling for publication dates.
package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/now"
)

// Interval groups start and end.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// String renders an interval.
func (iv Interval) String() string {
	return fmt.Sprintf("%s %s", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339Nano))
}

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	First int
	Last  int
}

// Validate checks that the range is not empty.
func (r YearRange) Validate() error {
	if r.Last < r.First {
		return fmt.Errorf("invalid year range: %d before %d", r.Last, r.First)
	}
	return nil
}

// Interval returns the range as a time interval in UTC, from the first moment
// of the first year to the last nanosecond of the last year.
func (r YearRange) Interval() Interval {
	return Interval{
		Start: time.Date(r.First, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   now.With(time.Date(r.Last, time.January, 1, 0, 0, 0, 0, time.UTC)).EndOfYear(),
	}
}

// Contains reports whether year is within the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.First && year <= r.Last
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// ParseYear extracts a year from a value like "2015", "2015.0" (as written by
// some dataframe exports) or a full date string.
func ParseYear(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty year")
	}
	if y, err := strconv.Atoi(strings.TrimSuffix(value, ".0")); err == nil {
		return y, nil
	}
	t, err := dateparse.ParseStrict(value)
	if err != nil {
		return 0, fmt.Errorf("cannot parse year from %q: %w", value, err)
	}
	return t.Year(), nil
}
