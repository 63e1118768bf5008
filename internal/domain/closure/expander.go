// Package closure expands term sets through a precomputed closure relation
// (term → ancestor/related terms).
package closure

import (
	"sort"

	"github.com/turtacn/termsim/internal/domain/association"
	errs "github.com/turtacn/termsim/pkg/errors"
)

// Expand returns the union of closure[t] for every t in terms.  The input
// terms are not added unless the closure entry of a term contains the term
// itself.  A term without a closure entry fails with ErrCodeUnknownTerm; when
// several are missing the lexicographically smallest is reported.
//
// Neither argument is mutated.
func Expand(terms association.TermSet, closure association.Map) (association.TermSet, error) {
	if missing, ok := firstMissing(terms, closure); ok {
		return nil, errs.UnknownTerm(missing)
	}

	expanded := make(association.TermSet)
	for t := range terms {
		for related := range closure[t] {
			expanded[related] = struct{}{}
		}
	}
	return expanded, nil
}

// firstMissing returns the smallest term of terms with no closure entry.
func firstMissing(terms association.TermSet, closure association.Map) (string, bool) {
	var missing []string
	for t := range terms {
		if _, ok := closure[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return "", false
	}
	sort.Strings(missing)
	return missing[0], true
}

// Expander binds a closure map for repeated expansion.
type Expander struct {
	closure association.Map
}

// NewExpander returns an Expander over closure.
func NewExpander(closure association.Map) *Expander {
	return &Expander{closure: closure}
}

// Expand expands terms through the bound closure map.
func (e *Expander) Expand(terms association.TermSet) (association.TermSet, error) {
	return Expand(terms, e.closure)
}

// Covers reports whether term has a closure entry.
func (e *Expander) Covers(term string) bool {
	_, ok := e.closure[term]
	return ok
}

// TermCount returns the number of terms with a closure entry.
func (e *Expander) TermCount() int {
	return e.closure.Len()
}

//Personal.AI order the ending
