package scoring

import (
	"sort"
	"time"

	"github.com/turtacn/termsim/internal/domain/association"
)

// ---------------------------------------------------------------------------
// Scoring record
// ---------------------------------------------------------------------------

// Record is the result of comparing one candidate set with the reference set.
// All term slices are sorted and owned by the record.
type Record struct {
	SetID                string   `json:"set_id"`
	OriginalReferenceSet []string `json:"original_reference_set"`
	ExpandedReferenceSet []string `json:"expanded_reference_set"`
	OriginalNewSet       []string `json:"original_new_set"`
	ExpandedNewSet       []string `json:"expanded_new_set"`
	JaccardSimilarity    float64  `json:"jaccard_similarity"`
}

func newRecord(setID string, ref, expandedRef, cand, expandedCand association.TermSet, score float64) Record {
	return Record{
		SetID:                setID,
		OriginalReferenceSet: ref.Sorted(),
		ExpandedReferenceSet: expandedRef.Sorted(),
		OriginalNewSet:       cand.Sorted(),
		ExpandedNewSet:       expandedCand.Sorted(),
		JaccardSimilarity:    score,
	}
}

// ---------------------------------------------------------------------------
// Report
// ---------------------------------------------------------------------------

// Report is the outcome of a scoring run.  Records are sorted by SetID.  The
// reference sets are kept on the report too, since Records may not contain
// the reference key.
type Report struct {
	ReferenceKey         string        `json:"reference_key"`
	OriginalReferenceSet []string      `json:"original_reference_set"`
	ExpandedReferenceSet []string      `json:"expanded_reference_set"`
	EmptyPolicy          string        `json:"empty_policy"`
	CandidateCount       int           `json:"candidate_count"`
	ClosureTermCount     int           `json:"closure_term_count"`
	Duration             time.Duration `json:"duration_ns"`
	Records              []Record      `json:"records"`
}

// Lookup returns the record for setID.
func (r *Report) Lookup(setID string) (Record, bool) {
	i := sort.Search(len(r.Records), func(i int) bool { return r.Records[i].SetID >= setID })
	if i < len(r.Records) && r.Records[i].SetID == setID {
		return r.Records[i], true
	}
	return Record{}, false
}

// Scores maps each SetID to its similarity.
func (r *Report) Scores() map[string]float64 {
	out := make(map[string]float64, len(r.Records))
	for _, rec := range r.Records {
		out[rec.SetID] = rec.JaccardSimilarity
	}
	return out
}

//Personal.AI order the ending
