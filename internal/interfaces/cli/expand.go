package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/termsim/internal/domain/association"
	"github.com/turtacn/termsim/internal/domain/closure"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/pkg/errors"
)

type expandOptions struct {
	closure        string
	candidates     string
	set            string
	delimiter      string
	closureBackend string
	json           bool
}

// expansion is the JSON form of an expand result.
type expansion struct {
	SetID    string   `json:"set_id,omitempty"`
	Terms    []string `json:"terms"`
	Expanded []string `json:"expanded"`
}

func newExpandCmd(deps scoreDeps) *cobra.Command {
	opts := &expandOptions{}

	cmd := &cobra.Command{
		Use:   "expand [TERM...]",
		Short: "Expand terms or a candidate set through the closure relation",
		Long: `Print the closure expansion of the given terms, or of the set stored under
--set in the candidate source.  A term without a closure entry is an error.`,
		Example: `  termsim expand A B --closure closures.tsv
  termsim expand --set set1 --candidates test_set.tsv --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, args, opts, deps)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.closure, "closure", "", "closure source (term<TAB>related-term rows)")
	f.StringVar(&opts.candidates, "candidates", "", "candidate set source, used with --set")
	f.StringVar(&opts.set, "set", "", "expand the set stored under this key in the candidate source")
	f.StringVar(&opts.delimiter, "delimiter", "", "field delimiter: auto, tab, comma or a single character")
	f.StringVar(&opts.closureBackend, "closure-backend", "", "closure backend: file, neo4j or postgres")
	f.BoolVar(&opts.json, "json", false, "print the result as JSON")

	return cmd
}

func runExpand(cmd *cobra.Command, args []string, opts *expandOptions, deps scoreDeps) error {
	if opts.set == "" && len(args) == 0 {
		return usageError("expand needs at least one TERM or --set")
	}
	if opts.set != "" && len(args) > 0 {
		return usageError("expand takes either TERM arguments or --set, not both")
	}

	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := *cliCtx.Config
	f := cmd.Flags()
	if f.Changed("closure") {
		cfg.Sources.Closure = opts.closure
	}
	if f.Changed("candidates") {
		cfg.Sources.Candidates = opts.candidates
	}
	if f.Changed("delimiter") {
		cfg.Sources.Delimiter = opts.delimiter
	}
	if f.Changed("closure-backend") {
		cfg.Closure.Backend = opts.closureBackend
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := checkStdinUse(&cfg, opts.set != ""); err != nil {
		return err
	}

	logger := cliCtx.Logger.Named("expand")
	ctx, cancel := cliCtx.runContext(cmd.Context())
	defer cancel()

	sources, err := newRunSources(&cfg, deps, cmd.InOrStdin(), logger)
	if err != nil {
		return err
	}
	defer sources.Close()

	closureSrc, err := sources.openClosure(ctx, &cfg, deps)
	if err != nil {
		return err
	}
	closureMap, err := association.Parse(closureSrc)
	if err != nil {
		return err
	}

	terms := association.NewTermSet(args...)
	if opts.set != "" {
		candidatesSrc, err := sources.open(ctx, cfg.Sources.Candidates)
		if err != nil {
			return err
		}
		data, err := association.Parse(candidatesSrc)
		if err != nil {
			return err
		}
		set, ok := data.Get(opts.set)
		if !ok {
			return errors.ReferenceKeyNotFound(opts.set)
		}
		terms = set
	}

	expanded, err := closure.NewExpander(closureMap).Expand(terms)
	if err != nil {
		return err
	}
	logger.Debug("terms expanded",
		logging.Int("terms", terms.Len()),
		logging.Int("expanded_terms", expanded.Len()))

	result := expansion{SetID: opts.set, Terms: terms.Sorted(), Expanded: expanded.Sorted()}
	return printExpansion(cmd, result, opts.json)
}

func printExpansion(cmd *cobra.Command, result expansion, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if len(result.Expanded) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(out, strings.Join(result.Expanded, "\n"))
	return err
}

//Personal.AI order the ending
