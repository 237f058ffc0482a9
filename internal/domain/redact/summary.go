// Package redact implements the deterministic stage-1 redaction engine:
// a fixed, ordered pattern table with per-pattern mask rules, and a
// recursive walker over JSON-shaped values.
package redact

// Summary reports what a redaction pass changed. Count is the number of
// distinct masked values; Types accumulates the category tags whose mask
// changed at least one value, in first-seen order.
//
// A Summary is monotone over the lifetime of a request: counts only grow,
// types only accrete. Not safe for concurrent use; each request owns its own.
type Summary struct {
	Count int

	types []string
	seen  map[string]struct{}
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{seen: make(map[string]struct{})}
}

// Record adds n replacements under the given category tag.
// A zero n records nothing: rejected masks (Luhn failure, short IBAN,
// short phone) must not report their tag.
func (s *Summary) Record(tag string, n int) {
	if n <= 0 {
		return
	}
	s.Count += n
	s.addType(tag)
}

// Merge folds another summary into this one, preserving type order.
func (s *Summary) Merge(other *Summary) {
	if other == nil {
		return
	}
	s.Count += other.Count
	for _, tag := range other.types {
		s.addType(tag)
	}
}

// Types returns the accumulated category tags in first-seen order.
// The returned slice is a copy; mutating it does not affect the summary.
func (s *Summary) Types() []string {
	out := make([]string, len(s.types))
	copy(out, s.types)
	return out
}

func (s *Summary) addType(tag string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[tag]; ok {
		return
	}
	s.seen[tag] = struct{}{}
	s.types = append(s.types, tag)
}
