// Package similarity provides the set-overlap measure used to compare
// expanded term sets.
package similarity

import (
	"strings"

	"github.com/turtacn/termsim/internal/domain/association"
	errs "github.com/turtacn/termsim/pkg/errors"
)

// EmptyPolicy decides the score of two empty sets, where |a ∪ b| is zero.
type EmptyPolicy string

const (
	// EmptyAsIdentical scores two empty sets as 1.0.
	EmptyAsIdentical EmptyPolicy = "identical"
	// EmptyAsError fails with ErrCodeUndefinedSimilarity.
	EmptyAsError EmptyPolicy = "error"
)

// IsValid checks if the policy is known.
func (p EmptyPolicy) IsValid() bool {
	switch p {
	case EmptyAsIdentical, EmptyAsError:
		return true
	default:
		return false
	}
}

// String returns the string representation of the policy.
func (p EmptyPolicy) String() string {
	return string(p)
}

// ParseEmptyPolicy parses a policy name; "" selects EmptyAsIdentical.
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	p := EmptyPolicy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return EmptyAsIdentical, nil
	}
	if p.IsValid() {
		return p, nil
	}
	return "", errs.New(errs.ErrCodeValidation, "unsupported empty-set policy: "+s)
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 1.0 when both sets are empty.
func Jaccard(a, b association.TermSet) float64 {
	score, _ := JaccardWithPolicy(a, b, EmptyAsIdentical)
	return score
}

// JaccardWithPolicy is Jaccard with an explicit rule for two empty sets.
func JaccardWithPolicy(a, b association.TermSet, policy EmptyPolicy) (float64, error) {
	intersection := a.IntersectionLen(b)
	union := a.Len() + b.Len() - intersection
	if union == 0 {
		if policy == EmptyAsError {
			return 0, errs.UndefinedSimilarity()
		}
		return 1.0, nil
	}
	return float64(intersection) / float64(union), nil
}

// Scorer applies a fixed EmptyPolicy.
type Scorer struct {
	policy EmptyPolicy
}

// NewScorer returns a Scorer; an invalid policy falls back to EmptyAsIdentical.
func NewScorer(policy EmptyPolicy) *Scorer {
	if !policy.IsValid() {
		policy = EmptyAsIdentical
	}
	return &Scorer{policy: policy}
}

// Score computes the Jaccard similarity of a and b.
func (s *Scorer) Score(a, b association.TermSet) (float64, error) {
	return JaccardWithPolicy(a, b, s.policy)
}

// Policy returns the configured policy.
func (s *Scorer) Policy() EmptyPolicy { return s.policy }

//Personal.AI order the ending
