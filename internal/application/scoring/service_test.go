package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/termsim/internal/domain/association"
	"github.com/turtacn/termsim/internal/domain/similarity"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/termsim/internal/testutil"
	"github.com/turtacn/termsim/pkg/errors"
)

func candidateRows() [][]string {
	return [][]string{
		{"set1", "A"},
		{"set1", "B"},
		{"set2", "B"},
		{"set2", "C"},
	}
}

func closureRows() [][]string {
	return [][]string{
		{"A", "anc1"},
		{"A", "anc2"},
		{"B", "anc2"},
		{"C", "anc3"},
	}
}

func newRequest(candidates, closures [][]string) Request {
	return Request{
		Candidates: association.NewSliceSource("test_set.tsv", candidates),
		Closure:    association.NewSliceSource("closures.tsv", closures),
		Options:    Options{ReferenceKey: "set1"},
	}
}

func (r Request) withReference(key string) Request {
	r.ReferenceKey = key
	return r
}

type ServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	logger    *testutil.MockLogger
	collector prometheus.MetricsCollector
	service   *Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = testutil.NewMockLogger()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "termsim"}, nil)
	s.Require().NoError(err)
	s.collector = collector
	s.service = NewService(s.logger, prometheus.NewScoringMetrics(collector))
}

// metricValue returns the value of the first sample of the named family.
func (s *ServiceTestSuite) metricValue(name string) float64 {
	families, err := s.collector.Gatherer().Gather()
	s.Require().NoError(err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			return m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			return m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			return float64(m.GetHistogram().GetSampleCount())
		}
	}
	s.FailNow("metric not found", name)
	return 0
}

func (s *ServiceTestSuite) TestRun_Example() {
	report, err := s.service.Run(s.ctx, newRequest(candidateRows(), closureRows()))
	s.Require().NoError(err)

	s.Equal("set1", report.ReferenceKey)
	s.Equal("identical", report.EmptyPolicy)
	s.Equal(2, report.CandidateCount)
	s.Equal(3, report.ClosureTermCount)
	s.Require().Len(report.Records, 2)

	set1 := report.Records[0]
	s.Equal("set1", set1.SetID)
	s.Equal([]string{"A", "B"}, set1.OriginalReferenceSet)
	s.Equal([]string{"anc1", "anc2"}, set1.ExpandedReferenceSet)
	s.Equal([]string{"A", "B"}, set1.OriginalNewSet)
	s.Equal([]string{"anc1", "anc2"}, set1.ExpandedNewSet)
	s.Equal(1.0, set1.JaccardSimilarity)

	set2 := report.Records[1]
	s.Equal("set2", set2.SetID)
	s.Equal([]string{"B", "C"}, set2.OriginalNewSet)
	s.Equal([]string{"anc2", "anc3"}, set2.ExpandedNewSet)
	s.InDelta(1.0/3.0, set2.JaccardSimilarity, 1e-12)
}

func (s *ServiceTestSuite) TestRun_RecordsOwnTheirSlices() {
	report, err := s.service.Run(s.ctx, newRequest(candidateRows(), closureRows()))
	s.Require().NoError(err)

	report.Records[0].ExpandedReferenceSet[0] = "mutated"
	s.Equal("anc1", report.Records[1].ExpandedReferenceSet[0])
}

func (s *ServiceTestSuite) TestRun_ExcludeReference() {
	req := newRequest(candidateRows(), closureRows())
	req.ExcludeReference = true

	report, err := s.service.Run(s.ctx, req)
	s.Require().NoError(err)

	s.Require().Len(report.Records, 1)
	s.Equal("set2", report.Records[0].SetID)
	_, ok := report.Lookup("set1")
	s.False(ok)
}

func (s *ServiceTestSuite) TestRun_EmptyReferenceKey() {
	req := newRequest([][]string{{"", "A"}, {"set2", "B"}}, [][]string{{"A", "A"}, {"B", "B"}})
	req.ReferenceKey = ""

	report, err := s.service.Run(s.ctx, req)
	s.Require().NoError(err)

	s.Equal("", report.ReferenceKey)
	s.Equal([]string{"A"}, report.OriginalReferenceSet)
	self, ok := report.Lookup("")
	s.Require().True(ok)
	s.Equal(1.0, self.JaccardSimilarity)
	s.Equal(map[string]float64{"": 1, "set2": 0}, report.Scores())

	_, err = s.service.Run(s.ctx, newRequest(candidateRows(), closureRows()).withReference(""))
	s.True(errors.IsCode(err, errors.ErrCodeReferenceKeyNotFound))
}

func (s *ServiceTestSuite) TestRun_ReportKeepsExcludedReferenceSets() {
	req := newRequest([][]string{{"set1", "A"}}, closureRows())
	req.ExcludeReference = true

	report, err := s.service.Run(s.ctx, req)
	s.Require().NoError(err)

	s.Empty(report.Records)
	s.Equal([]string{"A"}, report.OriginalReferenceSet)
	s.Equal([]string{"anc1", "anc2"}, report.ExpandedReferenceSet)
}

func (s *ServiceTestSuite) TestRun_ReferenceKeyNotFound() {
	req := newRequest(candidateRows(), closureRows())
	req.ReferenceKey = "missingset"

	report, err := s.service.Run(s.ctx, req)
	s.Nil(report)
	s.True(errors.IsCode(err, errors.ErrCodeReferenceKeyNotFound))
	s.Equal(errors.ExitReferenceKeyNotFound, errors.ExitCode(err))
}

func (s *ServiceTestSuite) TestRun_UnknownCandidateTerm() {
	rows := append(candidateRows(), []string{"set3", "Z"})

	_, err := s.service.Run(s.ctx, newRequest(rows, closureRows()))
	s.True(errors.IsCode(err, errors.ErrCodeUnknownTerm))
	s.Contains(err.Error(), "set_id=set3")
}

func (s *ServiceTestSuite) TestRun_UnknownReferenceTerm() {
	rows := append(candidateRows(), []string{"set1", "Z"})

	_, err := s.service.Run(s.ctx, newRequest(rows, closureRows()))
	s.True(errors.IsCode(err, errors.ErrCodeUnknownTerm))
	s.Contains(err.Error(), "set_id=set1")
}

func (s *ServiceTestSuite) TestRun_MalformedClosureRow() {
	closures := append(closureRows(), []string{"D"})

	_, err := s.service.Run(s.ctx, newRequest(candidateRows(), closures))
	s.True(errors.IsCode(err, errors.ErrCodeMalformedRecord))
	s.Contains(err.Error(), "source=closures.tsv row=5 fields=1")
}

type linedRows struct {
	*association.SliceSource
	line int
}

func (l *linedRows) Read() ([]string, error) {
	fields, err := l.SliceSource.Read()
	l.line += 2
	return fields, err
}

func (l *linedRows) Line() int { return l.line }

func (s *ServiceTestSuite) TestRun_MalformedRowUsesSourceLine() {
	req := newRequest(candidateRows(), closureRows())
	req.Closure = &linedRows{SliceSource: association.NewSliceSource("closures.tsv", [][]string{{"A", "anc1"}, {"B"}})}

	_, err := s.service.Run(s.ctx, req)
	s.True(errors.IsCode(err, errors.ErrCodeMalformedRecord))
	s.Contains(err.Error(), "source=closures.tsv row=4 fields=1")
}

func (s *ServiceTestSuite) TestRun_EmptyPolicy() {
	// X has an empty closure entry, so both sets expand to {}.
	data := association.Map{
		"set0": association.NewTermSet("X"),
		"set1": association.NewTermSet("X"),
	}
	closureMap := association.Map{"X": association.NewTermSet()}

	report, err := s.service.Score(s.ctx, data, closureMap, Options{ReferenceKey: "set1"})
	s.Require().NoError(err)
	s.Equal(1.0, report.Records[0].JaccardSimilarity)

	_, err = s.service.Score(s.ctx, data, closureMap, Options{
		ReferenceKey: "set1",
		EmptyPolicy:  similarity.EmptyAsError,
	})
	s.True(errors.IsCode(err, errors.ErrCodeUndefinedSimilarity))
	s.Contains(err.Error(), "set_id=set0")
}

func (s *ServiceTestSuite) TestRun_InvalidRequest() {
	_, err := s.service.Run(s.ctx, Request{Options: Options{ReferenceKey: "set1"}})
	s.True(errors.IsCode(err, errors.ErrCodeValidation))

	req := newRequest(candidateRows(), closureRows())
	req.Concurrency = -1
	_, err = s.service.Run(s.ctx, req)
	s.True(errors.IsCode(err, errors.ErrCodeValidation))

	req = newRequest(candidateRows(), closureRows())
	req.EmptyPolicy = "sometimes"
	_, err = s.service.Run(s.ctx, req)
	s.True(errors.IsCode(err, errors.ErrCodeValidation))
}

func (s *ServiceTestSuite) TestRun_Canceled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.service.Run(ctx, newRequest(candidateRows(), closureRows()))
	s.Require().Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeCanceled))
	s.ErrorIs(err, context.Canceled)
}

func (s *ServiceTestSuite) TestRun_Metrics() {
	_, err := s.service.Run(s.ctx, newRequest(candidateRows(), closureRows()))
	s.Require().NoError(err)

	s.Equal(2.0, s.metricValue("termsim_candidates_scored_total"))
	s.Equal(2.0, s.metricValue("termsim_similarity_score"))
	s.Equal(3.0, s.metricValue("termsim_closure_terms"))
	s.Equal(1.0, s.metricValue("termsim_runs_total"))
}

func (s *ServiceTestSuite) TestRun_FailureCountsRun() {
	req := newRequest(candidateRows(), closureRows())
	req.ReferenceKey = "missingset"
	_, err := s.service.Run(s.ctx, req)
	s.Require().Error(err)

	families, err := s.collector.Gatherer().Gather()
	s.Require().NoError(err)
	var labels map[string]string
	for _, mf := range families {
		if mf.GetName() == "termsim_runs_total" {
			labels = map[string]string{}
			for _, lp := range mf.GetMetric()[0].GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
		}
	}
	s.Equal(map[string]string{"status": "failure", "error_code": "SCO_001"}, labels)
	s.True(s.logger.HasMessage("debug", "scoring run failed"))
	s.Zero(s.logger.CountLevel("error"))
}

func (s *ServiceTestSuite) TestRun_Logging() {
	_, err := s.service.Run(s.ctx, newRequest(candidateRows(), closureRows()))
	s.Require().NoError(err)

	msg, ok := s.logger.FindMessage("info", "scoring run completed")
	s.Require().True(ok)
	s.Equal("scoring", msg.Logger)
	candidates, _ := msg.Field("candidates")
	s.Equal(2, candidates)

	s.Equal(2, countMessages(s.logger, "candidate scored"))
	loaded := countMessages(s.logger, "records loaded")
	s.Equal(2, loaded)

	scored, ok := s.logger.FindMessage("info", "candidates scored")
	s.Require().True(ok)
	stage, _ := scored.Field("stage")
	s.Equal("score", stage)
}

func countMessages(l *testutil.MockLogger, msg string) int {
	n := 0
	for _, m := range l.GetMessages() {
		if m.Message == msg {
			n++
		}
	}
	return n
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func largeExample(n int) (association.Map, association.Map) {
	data := make(association.Map)
	closureMap := make(association.Map)
	for i := 0; i < n; i++ {
		term := fmt.Sprintf("t%03d", i)
		closureMap[term] = association.NewTermSet(term, fmt.Sprintf("g%d", i%7), fmt.Sprintf("h%d", i%11))
	}
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("set%03d", i)
		data[key] = association.NewTermSet(fmt.Sprintf("t%03d", i), fmt.Sprintf("t%03d", (i*13)%n))
	}
	return data, closureMap
}

func TestScore_ParallelMatchesSequential(t *testing.T) {
	data, closureMap := largeExample(200)
	svc := NewService(nil, nil)
	opts := Options{ReferenceKey: "set000"}

	sequential, err := svc.Score(context.Background(), data, closureMap, opts)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 16} {
		opts.Concurrency = workers
		parallel, err := svc.Score(context.Background(), data, closureMap, opts)
		require.NoError(t, err)
		assert.Equal(t, sequential.Records, parallel.Records, "concurrency=%d", workers)
	}
}

func TestScore_ParallelReportsSmallestFailingKey(t *testing.T) {
	data, closureMap := largeExample(100)
	data["set050"] = association.NewTermSet("missing-b")
	data["set020"] = association.NewTermSet("missing-a")
	data["set090"] = association.NewTermSet("missing-c")
	svc := NewService(nil, nil)

	for _, workers := range []int{1, 3, 8} {
		_, err := svc.Score(context.Background(), data, closureMap, Options{ReferenceKey: "set000", Concurrency: workers})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownTerm))
		assert.Contains(t, err.Error(), "set_id=set020", "concurrency=%d", workers)
	}
}

func TestScore_ParallelCanceled(t *testing.T) {
	data, closureMap := largeExample(50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(nil, nil).Score(ctx, data, closureMap, Options{ReferenceKey: "set000", Concurrency: 4})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCanceled))
}

func TestScore_DoesNotMutateInputs(t *testing.T) {
	data := association.Map{
		"set1": association.NewTermSet("A", "B"),
		"set2": association.NewTermSet("B", "C"),
	}
	closureMap := association.ParseRecords([]association.Record{
		{Key: "A", Value: "anc1"}, {Key: "A", Value: "anc2"},
		{Key: "B", Value: "anc2"}, {Key: "C", Value: "anc3"},
	})
	before := closureMap.Len()

	_, err := NewService(nil, nil).Score(context.Background(), data, closureMap, Options{ReferenceKey: "set1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, data["set1"].Sorted())
	assert.Equal(t, before, closureMap.Len())
	assert.Equal(t, []string{"anc1", "anc2"}, closureMap["A"].Sorted())
}

func TestReport_LookupAndScores(t *testing.T) {
	report := &Report{Records: []Record{
		{SetID: "a", JaccardSimilarity: 0.5},
		{SetID: "c", JaccardSimilarity: 1},
	}}

	rec, ok := report.Lookup("c")
	assert.True(t, ok)
	assert.Equal(t, 1.0, rec.JaccardSimilarity)
	_, ok = report.Lookup("b")
	assert.False(t, ok)
	assert.Equal(t, map[string]float64{"a": 0.5, "c": 1}, report.Scores())
}

//Personal.AI order the ending
