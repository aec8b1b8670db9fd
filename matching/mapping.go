package matching

import (
	"errors"
	"fmt"
)

// ErrCorruptMapping signals that drawn controls cannot be attributed to
// treated articles.
var ErrCorruptMapping = errors.New("corrupt control mapping")

// Mapping associates each drawn control with the treated article it was drawn
// for.
type Mapping struct {
	pairs     []Draw
	byControl map[string]string
	byTreated map[string][]string
}

// NewMapping builds a mapping from labeled draws. A control appearing twice is
// an error, since controls are drawn without replacement.
func NewMapping(draws []Draw) (*Mapping, error) {
	m := &Mapping{
		pairs:     draws,
		byControl: make(map[string]string, len(draws)),
		byTreated: make(map[string][]string),
	}
	for _, d := range draws {
		if _, ok := m.byControl[d.Control]; ok {
			return nil, fmt.Errorf("%w: control %s drawn twice", ErrCorruptMapping, d.Control)
		}
		m.byControl[d.Control] = d.Treated
		m.byTreated[d.Treated] = append(m.byTreated[d.Treated], d.Control)
	}
	return m, nil
}

// Pairs returns all (control, treated) pairs in draw order.
func (m *Mapping) Pairs() []Draw { return m.pairs }

// TreatedOf returns the treated article a control was drawn for.
func (m *Mapping) TreatedOf(control string) (string, bool) {
	t, ok := m.byControl[control]
	return t, ok
}

// ControlsOf returns the controls drawn for a treated article, in draw order.
func (m *Mapping) ControlsOf(treated string) []string {
	return m.byTreated[treated]
}

// Len returns the number of controls.
func (m *Mapping) Len() int { return len(m.pairs) }

// MappingFromBlocks attributes controls positionally: covered is cut into
// consecutive blocks of k, and block i belongs to matched[i]. This only holds
// if exactly k controls were appended per match, which is checked as far as
// possible.
func MappingFromBlocks(matched, covered []string, k int) ([]Draw, error) {
	if k < 1 {
		return nil, ErrInvalidSampleSize
	}
	if len(covered) != k*len(matched) {
		return nil, fmt.Errorf("%w: %d controls for %d matches of size %d",
			ErrCorruptMapping, len(covered), len(matched), k)
	}
	draws := make([]Draw, len(covered))
	for i, c := range covered {
		draws[i] = Draw{Control: c, Treated: matched[i/k]}
	}
	return draws, nil
}

// Verify checks that a result carries exactly k draws per match, grouped in
// match order, so that labeled and positional attribution agree.
func (r *Result) Verify(k int) error {
	blocks, err := MappingFromBlocks(r.Matched, r.Covered(), k)
	if err != nil {
		return err
	}
	for i, d := range r.Draws {
		if blocks[i] != d {
			return fmt.Errorf("%w: draw %d labeled %s, positioned %s",
				ErrCorruptMapping, i, d.Treated, blocks[i].Treated)
		}
	}
	return nil
}
