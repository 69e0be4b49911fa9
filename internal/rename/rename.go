// Package rename implements the duplicate-name disambiguator spec.md
// section 4.2 calls Rename: on the second and subsequent occurrence of an
// identical name, assign a disambiguated name. It is used by the archive
// and texture codecs (spec.md section 4.6/4.7) and is scoped to one
// archive or one texture set per call (spec.md section 5).
package rename

import "fmt"

// Seen tracks names observed so far within one archive or texture set.
type Seen struct {
	counts map[string]int
}

// NewSeen returns an empty disambiguator scope.
func NewSeen() *Seen {
	return &Seen{counts: make(map[string]int)}
}

// Insert records name and returns a disambiguated alternative name if this
// is a repeat occurrence, or nil if it is the first.
func (s *Seen) Insert(name string) *string {
	s.counts[name]++
	n := s.counts[name]
	if n == 1 {
		return nil
	}
	renamed := fmt.Sprintf("%s-%d", name, n-1)
	return &renamed
}
