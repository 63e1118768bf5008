package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/turtacn/termsim/internal/application/scoring"
	"github.com/turtacn/termsim/internal/config"
	"github.com/turtacn/termsim/pkg/errors"
)

// Score thresholds used to colour the table output.
const (
	highScore   = 0.8
	mediumScore = 0.5
)

// renderReport renders report in the given output format.
func renderReport(report *scoring.Report, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(format) {
	case config.OutputText:
		err = writeText(&buf, report)
	case config.OutputJSON:
		err = writeJSON(&buf, report)
	case config.OutputTable:
		err = writeTable(&buf, report)
	case config.OutputTSV:
		err = writeTSV(&buf, report)
	default:
		return nil, errors.NewValidationError("output.format",
			fmt.Sprintf("unsupported output format %q; expected text|json|table|tsv", format))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "rendering report")
	}
	return buf.Bytes(), nil
}

// writeText prints one line per record with every field of the record.
func writeText(w io.Writer, report *scoring.Report) error {
	for _, rec := range report.Records {
		_, err := fmt.Fprintf(w,
			"set_id=%s original_reference_set=%s expanded_reference_set=%s original_new_set=%s expanded_new_set=%s jaccard_similarity=%s\n",
			rec.SetID,
			formatSet(rec.OriginalReferenceSet),
			formatSet(rec.ExpandedReferenceSet),
			formatSet(rec.OriginalNewSet),
			formatSet(rec.ExpandedNewSet),
			formatScore(rec.JaccardSimilarity))
		if err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, report *scoring.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeTable renders a summary table with coloured scores.  Colour is disabled
// globally by --no-color or when stdout is not a terminal.
func writeTable(w io.Writer, report *scoring.Report) error {
	fmt.Fprintf(w, "Reference: %s %s\n\n", report.ReferenceKey, formatSet(report.OriginalReferenceSet))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Set", "Terms", "Expanded", "Jaccard"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, rec := range report.Records {
		table.Append([]string{
			rec.SetID,
			formatSet(rec.OriginalNewSet),
			formatSet(rec.ExpandedNewSet),
			colorizeScore(rec.JaccardSimilarity),
		})
	}
	table.Render()

	_, err := fmt.Fprintf(w, "\nCandidates: %d  Closure terms: %d\n", report.CandidateCount, report.ClosureTermCount)
	return err
}

// writeTSV writes set_id, score and the expanded candidate set per row.
func writeTSV(w io.Writer, report *scoring.Report) error {
	if _, err := fmt.Fprintln(w, "set_id\tjaccard_similarity\texpanded_new_set"); err != nil {
		return err
	}
	for _, rec := range report.Records {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\n",
			rec.SetID, formatScore(rec.JaccardSimilarity), strings.Join(rec.ExpandedNewSet, ","))
		if err != nil {
			return err
		}
	}
	return nil
}

func formatSet(terms []string) string {
	return "{" + strings.Join(terms, ",") + "}"
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func colorizeScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', 4, 64)
	switch {
	case score >= highScore:
		return color.GreenString(s)
	case score >= mediumScore:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

//Personal.AI order the ending
