package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/termsim/internal/application/scoring"
	"github.com/turtacn/termsim/internal/config"
	"github.com/turtacn/termsim/internal/domain/similarity"
	"github.com/turtacn/termsim/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/termsim/internal/infrastructure/storage/minio"
	"github.com/turtacn/termsim/pkg/errors"
)

// scoreOptions holds the score command flags.  A flag only overrides the
// config when it is set on the command line.
type scoreOptions struct {
	candidates       string
	closure          string
	reference        string
	excludeReference bool
	emptyPolicy      string
	concurrency      int
	delimiter        string
	closureBackend   string
	format           string
	out              string
	metricsTextfile  string
}

func newScoreCmd(deps scoreDeps) *cobra.Command {
	opts := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score every candidate set against the reference set",
		Long: `Load the candidate sets and the closure relation, expand the reference set
and every candidate set through the closure, and print the Jaccard similarity
of each expanded candidate to the expanded reference.

Sources are local paths, file:// URIs, s3://bucket/key objects or "-" for stdin.`,
		Example: `  termsim score --candidates test_set.tsv --closure closures.tsv
  termsim score -r set1 --exclude-reference -f table
  termsim score --closure-backend neo4j --out s3://reports/scores.json -f json
  TERMSIM_POSTGRES_HOST=db termsim score --closure-backend postgres`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, opts, deps)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.candidates, "candidates", "", "candidate set source (key<TAB>term rows)")
	f.StringVar(&opts.closure, "closure", "", "closure source (term<TAB>related-term rows)")
	f.StringVarP(&opts.reference, "reference", "r", "", "key of the reference set")
	f.BoolVar(&opts.excludeReference, "exclude-reference", false, "do not score the reference set against itself")
	f.StringVar(&opts.emptyPolicy, "empty-policy", "", "score of two empty expanded sets: identical (1.0) or error")
	f.IntVarP(&opts.concurrency, "concurrency", "j", 0, "number of candidates scored in parallel")
	f.StringVar(&opts.delimiter, "delimiter", "", "field delimiter: auto, tab, comma or a single character")
	f.StringVar(&opts.closureBackend, "closure-backend", "", "closure backend: file, neo4j or postgres")
	f.StringVarP(&opts.format, "format", "f", "", "output format: text, json, table, tsv")
	f.StringVarP(&opts.out, "out", "o", "", "write the report to a file, s3://bucket/key or kafka://topic instead of stdout")
	f.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write run metrics in Prometheus text format to this file")

	return cmd
}

// apply copies the flags set on cmd into cfg.
func (o *scoreOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("candidates") {
		cfg.Sources.Candidates = o.candidates
	}
	if f.Changed("closure") {
		cfg.Sources.Closure = o.closure
	}
	if f.Changed("reference") {
		cfg.Scoring.ReferenceKey = o.reference
	}
	if f.Changed("exclude-reference") {
		cfg.Scoring.ExcludeReference = o.excludeReference
	}
	if f.Changed("empty-policy") {
		cfg.Scoring.EmptyPolicy = o.emptyPolicy
	}
	if f.Changed("concurrency") {
		cfg.Scoring.Concurrency = o.concurrency
	}
	if f.Changed("delimiter") {
		cfg.Sources.Delimiter = o.delimiter
	}
	if f.Changed("closure-backend") {
		cfg.Closure.Backend = o.closureBackend
	}
	if f.Changed("format") {
		cfg.Output.Format = o.format
	}
	if f.Changed("out") {
		cfg.Output.Path = o.out
	}
	if f.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = o.metricsTextfile
		cfg.Metrics.Enabled = cfg.Metrics.Enabled || o.metricsTextfile != ""
	}
}

func runScore(cmd *cobra.Command, opts *scoreOptions, deps scoreDeps) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := *cliCtx.Config
	opts.apply(cmd, &cfg)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := checkStdinUse(&cfg, true); err != nil {
		return err
	}
	policy, err := similarity.ParseEmptyPolicy(cfg.Scoring.EmptyPolicy)
	if err != nil {
		return err
	}

	logger := cliCtx.Logger.Named("score")
	ctx, cancel := cliCtx.runContext(cmd.Context())
	defer cancel()

	var collector prometheus.MetricsCollector
	var metrics *prometheus.ScoringMetrics
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: cfg.Metrics.Namespace}, logger)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeValidation, "metrics initialization failed")
		}
		metrics = prometheus.NewScoringMetrics(collector)
	}

	sources, err := newRunSources(&cfg, deps, cmd.InOrStdin(), logger)
	if err != nil {
		return err
	}
	defer sources.Close()

	candidates, err := sources.open(ctx, cfg.Sources.Candidates)
	if err != nil {
		return err
	}
	closureSrc, err := sources.openClosure(ctx, &cfg, deps)
	if err != nil {
		return err
	}

	svc := scoring.NewService(logger, metrics)
	report, runErr := svc.Run(ctx, scoring.Request{
		Candidates: candidates,
		Closure:    closureSrc,
		Options: scoring.Options{
			ReferenceKey:     cfg.Scoring.ReferenceKey,
			ExcludeReference: cfg.Scoring.ExcludeReference,
			Concurrency:      cfg.Scoring.Concurrency,
			EmptyPolicy:      policy,
		},
	})

	// Metrics of failed runs are written too.
	if collector != nil && cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("writing metrics textfile failed",
				logging.String("path", cfg.Metrics.Textfile), logging.Err(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	if kafka.IsTopicURI(cfg.Output.Path) {
		return publishReport(ctx, deps, &cfg, report, logger)
	}
	data, err := renderReport(report, cfg.Output.Format)
	if err != nil {
		return err
	}
	return writeOutput(ctx, cmd, sources.objects, cfg.Output, data, logger)
}

// writeOutput writes data to stdout, a local file or an object.
func writeOutput(ctx context.Context, cmd *cobra.Command, objects minio.ObjectStore, out config.OutputConfig, data []byte, logger logging.Logger) error {
	switch {
	case out.Path == "" || out.Path == "-":
		_, err := cmd.OutOrStdout().Write(data)
		return err

	case minio.IsObjectURI(out.Path):
		uri, err := minio.ParseURI(out.Path)
		if err != nil {
			return err
		}
		if objects == nil {
			return errors.New(errors.ErrCodeSourceURIInvalid, "s3 output needs minio.endpoint to be configured").
				WithDetail("uri=" + out.Path)
		}
		start := time.Now()
		res, err := objects.Upload(ctx, uri, data, minio.ContentTypeFor(out.Format))
		if err != nil {
			return err
		}
		logger.Info("report uploaded",
			logging.String("uri", uri.String()),
			logging.Int64("size", res.Size),
			logging.Duration("duration", time.Since(start)))
		return nil

	default:
		if err := os.WriteFile(out.Path, data, 0o644); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "writing report").WithDetail("path=" + out.Path)
		}
		logger.Info("report written", logging.String("path", out.Path), logging.Int("bytes", len(data)))
		return nil
	}
}

//Personal.AI order the ending
