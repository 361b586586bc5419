package report

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/appsecsanta/research/internal/ingest"
	"github.com/appsecsanta/research/pkg/types"
)

// ToolAgreement buckets finding groups by how many tools reported them.
type ToolAgreement struct {
	SingleToolOnly int `json:"single_tool_only"`
	TwoTools       int `json:"two_tools"`
	ThreeOrMore    int `json:"three_or_more"`
}

// CWECount is one entry of the top-CWE ranking.
type CWECount struct {
	CWE    string `json:"cwe"`
	Groups int    `json:"groups"`
}

// ConsensusSummary is the aggregate view of one triage run, written as
// consensus-summary.json next to the per-target triage CSVs.
type ConsensusSummary struct {
	Targets         int            `json:"targets"`
	Findings        int            `json:"findings"`
	Groups          int            `json:"groups"`
	Verdicts        map[string]int `json:"verdicts"`
	Confidence      map[string]int `json:"confidence"`
	ToolAgreement   ToolAgreement  `json:"tool_agreement"`
	TopCWEs         []CWECount     `json:"top_cwes"`
	GroundTruthHits int            `json:"ground_truth_matches"`
}

// topCWELimit caps the top_cwes ranking.
const topCWELimit = 20

// BuildConsensusSummary tallies groups into a ConsensusSummary.
func BuildConsensusSummary(groups []types.FindingGroup) ConsensusSummary {
	summary := ConsensusSummary{
		Groups:     len(groups),
		Verdicts:   map[string]int{},
		Confidence: map[string]int{},
	}
	targets := map[string]struct{}{}
	cweCounts := map[string]int{}
	for _, g := range groups {
		targets[g.Target] = struct{}{}
		summary.Findings += len(g.Members)
		summary.Verdicts[string(g.Verdict)]++
		summary.Confidence[string(g.Confidence)]++
		switch {
		case len(g.Tools) >= 3:
			summary.ToolAgreement.ThreeOrMore++
		case len(g.Tools) == 2:
			summary.ToolAgreement.TwoTools++
		default:
			summary.ToolAgreement.SingleToolOnly++
		}
		if g.CWE != "" {
			cweCounts[g.CWE]++
		}
		if g.GroundTruthMatch {
			summary.GroundTruthHits++
		}
	}
	summary.Targets = len(targets)
	summary.TopCWEs = topCWEs(cweCounts)
	return summary
}

func topCWEs(counts map[string]int) []CWECount {
	ranked := make([]CWECount, 0, len(counts))
	for cwe, n := range counts {
		ranked = append(ranked, CWECount{CWE: cwe, Groups: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Groups != ranked[j].Groups {
			return ranked[i].Groups > ranked[j].Groups
		}
		return ranked[i].CWE < ranked[j].CWE
	})
	if len(ranked) > topCWELimit {
		ranked = ranked[:topCWELimit]
	}
	return ranked
}

// WriteConsensusSummary writes the summary as indented JSON.
func WriteConsensusSummary(path string, summary ConsensusSummary) error {
	return writeJSON(path, summary)
}

// NormalizeSummary captures what one normalize run produced, written as
// normalize-summary.json beside the findings CSV.
type NormalizeSummary struct {
	Files       int            `json:"files"`
	FailedFiles int            `json:"failed_files"`
	Findings    int            `json:"findings"`
	ByTool      map[string]int `json:"by_tool"`
	ByTarget    map[string]int `json:"by_target"`
	BySeverity  map[string]int `json:"by_severity"`
}

// BuildNormalizeSummary tallies normalized findings and loader reports.
func BuildNormalizeSummary(findings []types.Finding, reports []ingest.FileReport) NormalizeSummary {
	summary := NormalizeSummary{
		Files:      len(reports),
		Findings:   len(findings),
		ByTool:     map[string]int{},
		ByTarget:   map[string]int{},
		BySeverity: map[string]int{},
	}
	for _, r := range reports {
		if r.Failed {
			summary.FailedFiles++
		}
	}
	for _, f := range findings {
		summary.ByTool[f.Tool]++
		summary.ByTarget[f.Target]++
		summary.BySeverity[string(f.Severity)]++
	}
	return summary
}

// WriteNormalizeSummary writes the summary as indented JSON.
func WriteNormalizeSummary(path string, summary NormalizeSummary) error {
	return writeJSON(path, summary)
}

// ToolManifest records per-tool input counts for one run.
type ToolManifest struct {
	Files    int    `json:"files"`
	Findings int    `json:"findings"`
	Version  string `json:"version,omitempty"`
}

// Manifest identifies one normalize run and the inputs it consumed, so a
// findings CSV can always be traced back to the raw scanner output.
type Manifest struct {
	RunID       string                  `json:"run_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	ResultsDir  string                  `json:"results_dir"`
	Files       int                     `json:"files"`
	Findings    int                     `json:"findings"`
	Tools       map[string]ToolManifest `json:"tools"`
}

// BuildManifest assembles a Manifest from the loader's per-file reports.
func BuildManifest(resultsDir string, reports []ingest.FileReport) Manifest {
	m := Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		ResultsDir:  resultsDir,
		Tools:       map[string]ToolManifest{},
	}
	for _, r := range reports {
		if r.Failed {
			continue
		}
		tm := m.Tools[r.Tool]
		tm.Files++
		tm.Findings += r.Findings
		if tm.Version == "" {
			tm.Version = r.Version
		}
		m.Tools[r.Tool] = tm
		m.Files++
		m.Findings += r.Findings
	}
	return m
}

// WriteManifest writes the run manifest as indented JSON.
func WriteManifest(path string, m Manifest) error {
	return writeJSON(path, m)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data, 0o644)
}
