// Package metrics scores tools against ground truth using triaged finding
// groups: precision, recall, F1, CWE coverage and the aggregate scorecard.
package metrics

import (
	"math"
	"sort"
	"strconv"

	"github.com/appsecsanta/research/pkg/types"
)

// ToolTarget keys per-tool, per-target statistics.
type ToolTarget struct {
	Tool   string
	Target string
}

// Stats tallies verdicts for one tool on one target. TPCWEs records which
// CWE classes the tool confirmed there; recall is computed against it.
type Stats struct {
	TP     int
	FP     int
	TPCWEs map[string]bool
}

// ExtractStats tallies every triage row for each tool it names: a TP row
// credits all listed tools, an FP row debits them the same way. Rows with
// other verdicts (pending, unclear) contribute nothing.
func ExtractStats(triage map[string][]types.TriageRow) map[ToolTarget]*Stats {
	stats := make(map[ToolTarget]*Stats)
	for target, rows := range triage {
		for _, row := range rows {
			for _, tool := range row.Tools {
				key := ToolTarget{Tool: tool, Target: target}
				st := stats[key]
				if st == nil {
					st = &Stats{TPCWEs: make(map[string]bool)}
					stats[key] = st
				}
				switch row.Verdict {
				case types.VerdictTP:
					st.TP++
					if row.CWE != "" {
						st.TPCWEs[row.CWE] = true
					}
				case types.VerdictFP:
					st.FP++
				}
			}
		}
	}
	return stats
}

// SummaryRow is one line of fmeasure-summary.csv.
type SummaryRow struct {
	Tool          string
	Target        string
	TP            int
	FP            int
	FN            int
	TotalFindings int
	Precision     float64
	Recall        float64
	F1            float64

	// ScanDuration is already formatted for the CSV; empty when no speed
	// data covers the pair.
	ScanDuration string
}

// Summary computes precision, recall and F1 per (tool, target). A
// ground-truth entry counts as a false negative for a tool unless the tool
// has at least one TP with that CWE on the target: recall measures CWE
// coverage gaps, not per-instance misses. Every division short-circuits to
// 0.0 on a zero denominator; tools legitimately scan targets with zero
// applicable findings.
func Summary(stats map[ToolTarget]*Stats, groundTruth map[string][]types.GroundTruthEntry, speed map[ToolTarget]float64) []SummaryRow {
	toolSet := make(map[string]bool)
	for key := range stats {
		toolSet[key.Tool] = true
	}
	tools := sortedKeys(toolSet)

	targets := make([]string, 0, len(groundTruth))
	for target := range groundTruth {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	var rows []SummaryRow
	for _, tool := range tools {
		for _, target := range targets {
			key := ToolTarget{Tool: tool, Target: target}
			st, ok := stats[key]
			if !ok {
				// tool never scanned this target
				continue
			}

			fn := 0
			for _, entry := range groundTruth[target] {
				if !st.TPCWEs[entry.CWE] {
					fn++
				}
			}

			precision := round3(safeDiv(float64(st.TP), float64(st.TP+st.FP)))
			recall := round3(safeDiv(float64(st.TP), float64(st.TP+fn)))
			f1 := round3(safeDiv(2*precision*recall, precision+recall))

			duration := ""
			if d, ok := speed[key]; ok {
				duration = strconv.FormatFloat(d, 'g', -1, 64)
			}

			rows = append(rows, SummaryRow{
				Tool:          tool,
				Target:        target,
				TP:            st.TP,
				FP:            st.FP,
				FN:            fn,
				TotalFindings: st.TP + st.FP,
				Precision:     precision,
				Recall:        recall,
				F1:            f1,
				ScanDuration:  duration,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].F1 != rows[j].F1 {
			return rows[i].F1 > rows[j].F1
		}
		if rows[i].Tool != rows[j].Tool {
			return rows[i].Tool < rows[j].Tool
		}
		return rows[i].Target < rows[j].Target
	})
	return rows
}

// CoverageRow is one line of cwe-coverage.csv.
type CoverageRow struct {
	Tool               string
	CWE                string
	FoundCount         int
	MissedCount        int
	TotalInGroundTruth int
	CoveragePct        float64
}

// Coverage reports, per tool and per CWE present in ground truth, how many
// ground-truth entries of that CWE the tool confirmed. Entries are counted
// row by row: a CWE planted twice on one target weighs twice.
func Coverage(stats map[ToolTarget]*Stats, groundTruth map[string][]types.GroundTruthEntry) []CoverageRow {
	gtTargetsByCWE := make(map[string][]string)
	for target, entries := range groundTruth {
		for _, e := range entries {
			if e.CWE != "" {
				gtTargetsByCWE[e.CWE] = append(gtTargetsByCWE[e.CWE], target)
			}
		}
	}
	cwes := make([]string, 0, len(gtTargetsByCWE))
	for cwe := range gtTargetsByCWE {
		cwes = append(cwes, cwe)
	}
	sort.Strings(cwes)

	toolSet := make(map[string]bool)
	for key := range stats {
		toolSet[key.Tool] = true
	}
	tools := sortedKeys(toolSet)

	var rows []CoverageRow
	for _, tool := range tools {
		tpCWEs := make(map[string]map[string]bool)
		for key, st := range stats {
			if key.Tool == tool {
				tpCWEs[key.Target] = st.TPCWEs
			}
		}
		for _, cwe := range cwes {
			targets := gtTargetsByCWE[cwe]
			found := 0
			for _, target := range targets {
				if tpCWEs[target][cwe] {
					found++
				}
			}
			total := len(targets)
			rows = append(rows, CoverageRow{
				Tool:               tool,
				CWE:                cwe,
				FoundCount:         found,
				MissedCount:        total - found,
				TotalInGroundTruth: total,
				CoveragePct:        round1(safeDiv(float64(found), float64(total)) * 100),
			})
		}
	}
	return rows
}

// ScorecardRow is one line of tool-scorecard.csv.
type ScorecardRow struct {
	Tool            string
	AvgPrecision    float64
	AvgRecall       float64
	AvgF1           float64
	TotalTP         int
	TotalFP         int
	TotalFN         int
	TargetsScanned  int
	UniqueCWEsFound int
}

// Scorecard macro-averages the summary rows per tool: a simple mean over
// targets, not weighted by finding volume, so one heavily vulnerable
// target cannot dominate a tool's apparent performance.
func Scorecard(summary []SummaryRow, coverage []CoverageRow) []ScorecardRow {
	byTool := make(map[string][]SummaryRow)
	for _, row := range summary {
		byTool[row.Tool] = append(byTool[row.Tool], row)
	}

	cwesFound := make(map[string]map[string]bool)
	for _, row := range coverage {
		if row.FoundCount > 0 {
			if cwesFound[row.Tool] == nil {
				cwesFound[row.Tool] = make(map[string]bool)
			}
			cwesFound[row.Tool][row.CWE] = true
		}
	}

	rows := make([]ScorecardRow, 0, len(byTool))
	for tool, perTarget := range byTool {
		n := float64(len(perTarget))
		var sumP, sumR, sumF float64
		row := ScorecardRow{Tool: tool, TargetsScanned: len(perTarget)}
		for _, s := range perTarget {
			sumP += s.Precision
			sumR += s.Recall
			sumF += s.F1
			row.TotalTP += s.TP
			row.TotalFP += s.FP
			row.TotalFN += s.FN
		}
		row.AvgPrecision = round3(sumP / n)
		row.AvgRecall = round3(sumR / n)
		row.AvgF1 = round3(sumF / n)
		row.UniqueCWEsFound = len(cwesFound[tool])
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvgF1 != rows[j].AvgF1 {
			return rows[i].AvgF1 > rows[j].AvgF1
		}
		return rows[i].Tool < rows[j].Tool
	})
	return rows
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0.0
	}
	return num / den
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
