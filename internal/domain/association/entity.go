// Package association holds the term-set data model: raw two-field records,
// de-duplicated term sets, and the key→term-set mapping built from a record
// source.  Both the candidate annotations and the closure relation are
// represented as a Map.
package association

import (
	"sort"
)

// Record is a single (key, value) association row.
type Record struct {
	Key   string
	Value string
}

// TermSet is an unordered set of term identifiers.
type TermSet map[string]struct{}

// NewTermSet builds a TermSet from the given terms, dropping duplicates.
func NewTermSet(terms ...string) TermSet {
	s := make(TermSet, len(terms))
	for _, t := range terms {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts term into the set.
func (s TermSet) Add(term string) {
	s[term] = struct{}{}
}

// Contains reports whether term is a member of the set.
func (s TermSet) Contains(term string) bool {
	_, ok := s[term]
	return ok
}

// Len returns the number of distinct terms.
func (s TermSet) Len() int {
	return len(s)
}

// Sorted returns the members in lexicographic order.
func (s TermSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s TermSet) Clone() TermSet {
	out := make(TermSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold exactly the same terms.
func (s TermSet) Equal(other TermSet) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if _, ok := other[t]; !ok {
			return false
		}
	}
	return true
}

// Union returns a new set holding the members of s and other.
func (s TermSet) Union(other TermSet) TermSet {
	out := make(TermSet, len(s)+len(other))
	for t := range s {
		out[t] = struct{}{}
	}
	for t := range other {
		out[t] = struct{}{}
	}
	return out
}

// IntersectionLen counts the terms present in both sets without allocating.
func (s TermSet) IntersectionLen(other TermSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for t := range small {
		if _, ok := large[t]; ok {
			n++
		}
	}
	return n
}

// Map associates each key with the set of values seen for it.  A Map is
// treated as read-only once Parse returns it.
type Map map[string]TermSet

// Get returns the term set for key and whether key is present.
func (m Map) Get(key string) (TermSet, bool) {
	s, ok := m[key]
	return s, ok
}

// Len returns the number of keys.
func (m Map) Len() int {
	return len(m)
}

// Keys returns all keys in lexicographic order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValueCount returns the total number of distinct (key, value) pairs.
func (m Map) ValueCount() int {
	n := 0
	for _, s := range m {
		n += len(s)
	}
	return n
}

// Equal reports whether both maps have the same keys with equal term sets.
func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for k, s := range m {
		o, ok := other[k]
		if !ok || !s.Equal(o) {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
