package prometheus

import (
	"time"
)

// Pipeline stages used as the "stage" label.
const (
	StageLoadCandidates = "load_candidates"
	StageLoadClosure    = "load_closure"
	StageExpand         = "expand"
	StageScore          = "score"
	StageTotal          = "total"
)

// Run outcomes used as the "status" label.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ScoringMetrics holds the metrics of a scoring run.
type ScoringMetrics struct {
	RunsTotal             CounterVec
	StageDuration         HistogramVec
	RecordsParsedTotal    CounterVec
	CandidatesScoredTotal CounterVec
	SimilarityScore       HistogramVec
	ClosureTerms          GaugeVec
	ExpandedSetSize       HistogramVec
}

// Default Buckets
var (
	DefaultStageDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60}
	DefaultScoreBuckets         = []float64{0, .1, .2, .3, .4, .5, .6, .7, .8, .9, 1}
	DefaultSetSizeBuckets       = []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000}
)

// NewScoringMetrics registers all scoring metrics on collector.
func NewScoringMetrics(collector MetricsCollector) *ScoringMetrics {
	m := &ScoringMetrics{}

	m.RunsTotal = collector.RegisterCounter("runs_total", "Scoring runs by outcome", "status", "error_code")
	m.StageDuration = collector.RegisterHistogram("stage_duration_seconds", "Duration of pipeline stages", DefaultStageDurationBuckets, "stage")
	m.RecordsParsedTotal = collector.RegisterCounter("records_parsed_total", "Key/value records parsed", "source")
	m.CandidatesScoredTotal = collector.RegisterCounter("candidates_scored_total", "Candidate sets scored")
	m.SimilarityScore = collector.RegisterHistogram("similarity_score", "Jaccard similarity of scored candidates", DefaultScoreBuckets)
	m.ClosureTerms = collector.RegisterGauge("closure_terms", "Terms covered by the loaded closure")
	m.ExpandedSetSize = collector.RegisterHistogram("expanded_set_size", "Size of expanded term sets", DefaultSetSizeBuckets)

	return m
}

// NewNopScoringMetrics returns metrics that record nothing.
func NewNopScoringMetrics() *ScoringMetrics {
	return &ScoringMetrics{
		RunsTotal:             vec[Counter]{},
		StageDuration:         vec[Histogram]{},
		RecordsParsedTotal:    vec[Counter]{},
		CandidatesScoredTotal: vec[Counter]{},
		SimilarityScore:       vec[Histogram]{},
		ClosureTerms:          vec[Gauge]{},
		ExpandedSetSize:       vec[Histogram]{},
	}
}

// Helpers

func RecordStage(metrics *ScoringMetrics, stage string, duration time.Duration) {
	metrics.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func RecordRecordsParsed(metrics *ScoringMetrics, source string, n int) {
	metrics.RecordsParsedTotal.WithLabelValues(source).Add(float64(n))
}

func RecordCandidate(metrics *ScoringMetrics, score float64, expandedSize int) {
	metrics.CandidatesScoredTotal.WithLabelValues().Inc()
	metrics.SimilarityScore.WithLabelValues().Observe(score)
	metrics.ExpandedSetSize.WithLabelValues().Observe(float64(expandedSize))
}

// RecordRun counts a finished run; errorCode is empty or "OK" on success.
func RecordRun(metrics *ScoringMetrics, errorCode string) {
	status := StatusFailure
	if errorCode == "" || errorCode == "OK" {
		status = StatusSuccess
		errorCode = "OK"
	}
	metrics.RunsTotal.WithLabelValues(status, errorCode).Inc()
}

//Personal.AI order the ending
