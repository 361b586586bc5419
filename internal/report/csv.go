// Package report writes the pipeline's outputs: CSV tables, JSON
// summaries, the run manifest, SARIF for CI, and the terminal scorecard.
// All file writes are atomic.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/appsecsanta/research/internal/metrics"
	"github.com/appsecsanta/research/pkg/types"
)

// findingsHeader is the column order of the normalized findings CSV; the
// triage stage reads these back by name.
var findingsHeader = []string{
	"finding_id", "tool", "target", "category",
	"cwe", "severity", "location", "description", "raw_id",
}

// WriteFindingsCSV writes the normalized findings table.
func WriteFindingsCSV(path string, findings []types.Finding) error {
	records := make([][]string, 0, len(findings)+1)
	records = append(records, findingsHeader)
	for _, f := range findings {
		records = append(records, []string{
			f.FindingID,
			f.Tool,
			f.Target,
			string(f.Category),
			f.CWE,
			string(f.Severity),
			f.Location,
			f.Description,
			f.RawID,
		})
	}
	return writeCSV(path, records)
}

var triageHeader = []string{
	"finding_group_id", "tools", "target", "cwe", "severity",
	"location", "description", "verdict", "confidence",
	"ground_truth_match", "tool_count",
}

// WriteTriageCSVs writes one {target}-auto.csv per target into dir and
// returns the written paths. Hand-validated copies of these files are
// saved alongside as {target}-final.csv and are never touched here.
func WriteTriageCSVs(dir string, rows []types.TriageRow) ([]string, error) {
	byTarget := make(map[string][]types.TriageRow)
	for _, row := range rows {
		byTarget[row.Target] = append(byTarget[row.Target], row)
	}
	targets := make([]string, 0, len(byTarget))
	for target := range byTarget {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	var written []string
	for _, target := range targets {
		records := [][]string{triageHeader}
		for _, row := range byTarget[target] {
			gt := "no"
			if row.GroundTruthMatch {
				gt = "yes"
			}
			records = append(records, []string{
				row.GroupID,
				strings.Join(row.Tools, "|"),
				row.Target,
				row.CWE,
				row.Severity,
				row.Location,
				row.Description,
				string(row.Verdict),
				string(row.Confidence),
				gt,
				strconv.Itoa(row.ToolCount),
			})
		}
		path := filepath.Join(dir, target+"-auto.csv")
		if err := writeCSV(path, records); err != nil {
			return written, fmt.Errorf("writing triage for %s: %w", target, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteSummaryCSV writes fmeasure-summary.csv.
func WriteSummaryCSV(path string, rows []metrics.SummaryRow) error {
	records := [][]string{{
		"tool", "target", "tp", "fp", "fn", "total_findings",
		"precision", "recall", "f1", "scan_duration_seconds",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.Tool,
			row.Target,
			strconv.Itoa(row.TP),
			strconv.Itoa(row.FP),
			strconv.Itoa(row.FN),
			strconv.Itoa(row.TotalFindings),
			formatFloat(row.Precision),
			formatFloat(row.Recall),
			formatFloat(row.F1),
			row.ScanDuration,
		})
	}
	return writeCSV(path, records)
}

// WriteCoverageCSV writes cwe-coverage.csv.
func WriteCoverageCSV(path string, rows []metrics.CoverageRow) error {
	records := [][]string{{
		"tool", "cwe", "found_count", "missed_count",
		"total_in_ground_truth", "coverage_pct",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.Tool,
			row.CWE,
			strconv.Itoa(row.FoundCount),
			strconv.Itoa(row.MissedCount),
			strconv.Itoa(row.TotalInGroundTruth),
			formatFloat(row.CoveragePct),
		})
	}
	return writeCSV(path, records)
}

// WriteScorecardCSV writes tool-scorecard.csv.
func WriteScorecardCSV(path string, rows []metrics.ScorecardRow) error {
	records := [][]string{{
		"tool", "avg_precision", "avg_recall", "avg_f1",
		"total_tp", "total_fp", "total_fn",
		"targets_scanned", "unique_cwes_found",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.Tool,
			formatFloat(row.AvgPrecision),
			formatFloat(row.AvgRecall),
			formatFloat(row.AvgF1),
			strconv.Itoa(row.TotalTP),
			strconv.Itoa(row.TotalFP),
			strconv.Itoa(row.TotalFN),
			strconv.Itoa(row.TargetsScanned),
			strconv.Itoa(row.UniqueCWEsFound),
		})
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes(), 0o644)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
