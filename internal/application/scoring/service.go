// Package scoring runs the term-set similarity pipeline: load candidate sets
// and the closure relation, expand the reference set once, then score every
// candidate against it.
package scoring

import (
	"context"
	stderrors "errors"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/termsim/internal/domain/association"
	"github.com/turtacn/termsim/internal/domain/closure"
	"github.com/turtacn/termsim/internal/domain/similarity"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/termsim/pkg/errors"
)

// Source labels used in logs and metrics.
const (
	SourceCandidates = "candidates"
	SourceClosure    = "closure"
)

// ---------------------------------------------------------------------------
// Request
// ---------------------------------------------------------------------------

// Options controls how loaded maps are scored.
type Options struct {
	ReferenceKey     string
	ExcludeReference bool
	// Concurrency > 1 scores candidates on that many goroutines.
	Concurrency int
	EmptyPolicy similarity.EmptyPolicy
}

// Request is a full run over two record sources.
type Request struct {
	Candidates association.RecordSource
	Closure    association.RecordSource
	Options
}

// Validate checks the request before any source is read.
func (r Request) Validate() error {
	if r.Candidates == nil {
		return errors.NewValidationError("sources.candidates", "candidate source is required")
	}
	if r.Closure == nil {
		return errors.NewValidationError("sources.closure", "closure source is required")
	}
	return r.Options.Validate()
}

// Validate checks the scoring options.
func (o Options) Validate() error {
	if o.Concurrency < 0 {
		return errors.NewValidationError("scoring.concurrency", "concurrency must not be negative")
	}
	if o.EmptyPolicy != "" && !o.EmptyPolicy.IsValid() {
		return errors.NewValidationError("scoring.empty_policy", "unsupported empty-set policy: "+o.EmptyPolicy.String())
	}
	return nil
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service orchestrates a scoring run.  It is safe for concurrent use.
type Service struct {
	logger  logging.Logger
	metrics *prometheus.ScoringMetrics
}

// NewService returns a Service; nil dependencies are replaced by no-ops.
func NewService(logger logging.Logger, metrics *prometheus.ScoringMetrics) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopScoringMetrics()
	}
	return &Service{
		logger:  logger.Named("scoring"),
		metrics: metrics,
	}
}

// Run loads both sources and scores every candidate.  Any failure aborts the
// run and no partial report is returned.
func (s *Service) Run(ctx context.Context, req Request) (report *Report, err error) {
	start := time.Now()
	defer func() {
		prometheus.RecordStage(s.metrics, prometheus.StageTotal, time.Since(start))
		prometheus.RecordRun(s.metrics, string(errors.GetCode(err)))
		if err != nil {
			s.logger.WithError(err).Debug("scoring run failed")
		}
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	data, err := s.LoadMap(ctx, SourceCandidates, req.Candidates)
	if err != nil {
		return nil, err
	}
	closureMap, err := s.LoadMap(ctx, SourceClosure, req.Closure)
	if err != nil {
		return nil, err
	}

	report, err = s.Score(ctx, data, closureMap, req.Options)
	if err != nil {
		return nil, err
	}
	report.Duration = time.Since(start)

	s.logger.Info("scoring run completed",
		logging.String("reference_key", report.ReferenceKey),
		logging.Int("candidates", report.CandidateCount),
		logging.Duration("duration", report.Duration))
	return report, nil
}

// LoadMap parses src into an association map.  label names the source in
// logs and metrics.
func (s *Service) LoadMap(ctx context.Context, label string, src association.RecordSource) (association.Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}

	stage := prometheus.StageLoadCandidates
	if label == SourceClosure {
		stage = prometheus.StageLoadClosure
	}
	timer := prometheus.NewTimer(s.metrics.StageDuration.WithLabelValues(stage))

	counted := &countingSource{src: src}
	m, err := association.Parse(counted)
	elapsed := timer.ObserveDuration()
	prometheus.RecordRecordsParsed(s.metrics, label, counted.rows)
	if err != nil {
		return nil, err
	}

	if label == SourceClosure {
		s.metrics.ClosureTerms.WithLabelValues().Set(float64(m.Len()))
	}
	logging.StageDone(s.logger, "records loaded", stage, elapsed,
		logging.String(logging.FieldSource, association.SourceName(src)),
		logging.Int("rows", counted.rows),
		logging.Int("keys", m.Len()))
	return m, nil
}

// Score compares every key of data with data[opts.ReferenceKey] after closure
// expansion.  The result does not depend on opts.Concurrency.
func (s *Service) Score(ctx context.Context, data, closureMap association.Map, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	policy := opts.EmptyPolicy
	if policy == "" {
		policy = similarity.EmptyAsIdentical
	}

	ref, ok := data.Get(opts.ReferenceKey)
	if !ok {
		return nil, errors.ReferenceKeyNotFound(opts.ReferenceKey)
	}

	expander := closure.NewExpander(closureMap)
	expandTimer := prometheus.NewTimer(s.metrics.StageDuration.WithLabelValues(prometheus.StageExpand))
	expandedRef, err := expander.Expand(ref)
	expandTimer.ObserveDuration()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "expanding reference set").
			WithDetail("set_id=" + opts.ReferenceKey)
	}
	s.logger.Debug("reference set expanded",
		logging.String(logging.FieldSetID, opts.ReferenceKey),
		logging.Int("terms", ref.Len()),
		logging.Int("expanded_terms", expandedRef.Len()))

	keys := candidateKeys(data, opts)
	records := make([]Record, len(keys))
	scorer := similarity.NewScorer(policy)

	scoreOne := func(i int, key string) error {
		cand := data[key]
		expanded, err := expander.Expand(cand)
		if err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "expanding candidate set").WithDetail("set_id=" + key)
		}
		score, err := scorer.Score(expandedRef, expanded)
		if err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "scoring candidate set").WithDetail("set_id=" + key)
		}
		records[i] = newRecord(key, ref, expandedRef, cand, expanded, score)
		prometheus.RecordCandidate(s.metrics, score, expanded.Len())
		s.logger.Debug("candidate scored",
			logging.String(logging.FieldSetID, key),
			logging.Float64("jaccard", score))
		return nil
	}

	scoreTimer := prometheus.NewTimer(s.metrics.StageDuration.WithLabelValues(prometheus.StageScore))
	if opts.Concurrency > 1 {
		err = scoreParallel(ctx, keys, opts.Concurrency, scoreOne)
	} else {
		err = scoreSequential(ctx, keys, scoreOne)
	}
	elapsed := scoreTimer.ObserveDuration()
	if err != nil {
		return nil, err
	}
	logging.StageDone(s.logger, "candidates scored", prometheus.StageScore, elapsed,
		logging.Int("candidates", len(records)),
		logging.Int("concurrency", opts.Concurrency))

	return &Report{
		ReferenceKey:         opts.ReferenceKey,
		OriginalReferenceSet: ref.Sorted(),
		ExpandedReferenceSet: expandedRef.Sorted(),
		EmptyPolicy:          policy.String(),
		CandidateCount:       len(records),
		ClosureTermCount:     closureMap.Len(),
		Records:              records,
	}, nil
}

// candidateKeys returns the sorted keys of data to score.
func candidateKeys(data association.Map, opts Options) []string {
	keys := data.Keys()
	if !opts.ExcludeReference {
		return keys
	}
	out := keys[:0]
	for _, k := range keys {
		if k != opts.ReferenceKey {
			out = append(out, k)
		}
	}
	return out
}

func scoreSequential(ctx context.Context, keys []string, score func(int, string) error) error {
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return canceled(err)
		}
		if err := score(i, key); err != nil {
			return err
		}
	}
	return nil
}

// scoreParallel scores keys on up to limit goroutines.  Once a candidate fails
// no further candidates are started.  Candidates already started run to
// completion so that the failure reported is the one with the smallest key, as
// in the sequential path.
func scoreParallel(ctx context.Context, keys []string, limit int, score func(int, string) error) error {
	failures := make([]error, len(keys))
	var failed atomic.Bool
	var g errgroup.Group
	g.SetLimit(limit)

	for i, key := range keys {
		if failed.Load() || ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := score(i, key); err != nil {
				failures[i] = err
				failed.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range failures {
		if err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return canceled(err)
	}
	return nil
}

func canceled(err error) error {
	code := errors.ErrCodeCanceled
	if stderrors.Is(err, context.DeadlineExceeded) {
		code = errors.ErrCodeTimeout
	}
	return errors.Wrap(err, code, "scoring run interrupted")
}

// countingSource counts rows read from src.
type countingSource struct {
	src  association.RecordSource
	rows int
}

func (c *countingSource) Read() ([]string, error) {
	fields, err := c.src.Read()
	if err == nil {
		c.rows++
	} else if !stderrors.Is(err, io.EOF) {
		return nil, err
	}
	return fields, err
}

func (c *countingSource) Name() string {
	return association.SourceName(c.src)
}

// Line forwards the input line of the wrapped source, or 0 when it has none.
func (c *countingSource) Line() int {
	if ls, ok := c.src.(association.LineSource); ok {
		return ls.Line()
	}
	return 0
}

//Personal.AI order the ending
