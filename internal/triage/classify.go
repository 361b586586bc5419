// Package triage assigns consensus verdicts to finding groups and shapes
// them into the per-target review rows.
package triage

import (
	"strings"

	"github.com/appsecsanta/research/pkg/types"
)

// Classify applies the consensus rules to one group, in order:
//
//  1. Two or more tools agree: confirmed, high confidence. Independent
//     agreement across tool families is strong evidence on its own.
//  2. One tool, but ground truth lists the group's (target, cwe):
//     confirmed, medium confidence.
//  3. Anything else stays pending, low confidence.
//
// No group is ever auto-rejected. A false-positive verdict only enters the
// data through the manual validation pass; the automatic classifier never
// asserts the absence of a vulnerability.
func Classify(group types.FindingGroup, idx Index) (types.Verdict, types.Confidence) {
	switch {
	case len(group.Tools) >= 2:
		return types.VerdictTP, types.ConfidenceHigh
	case len(group.Tools) == 1 && idx.Match(group.Target, group.CWE):
		return types.VerdictTP, types.ConfidenceMedium
	default:
		return types.VerdictPending, types.ConfidenceLow
	}
}

// Label stamps verdict, confidence and the ground-truth flag onto every
// group. This is the single place groups are mutated after clustering.
func Label(groups []types.FindingGroup, idx Index) {
	for i := range groups {
		verdict, confidence := Classify(groups[i], idx)
		groups[i].Verdict = verdict
		groups[i].Confidence = confidence
		groups[i].GroundTruthMatch = idx.Match(groups[i].Target, groups[i].CWE)
	}
}

// Rows converts labeled groups into triage rows, one per group, in group
// order. Severity is lowercased to match the hand-edited review files.
func Rows(groups []types.FindingGroup) []types.TriageRow {
	rows := make([]types.TriageRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, types.TriageRow{
			GroupID:          g.GroupID,
			Tools:            g.Tools,
			Target:           g.Target,
			CWE:              g.CWE,
			Severity:         strings.ToLower(string(g.Severity)),
			Location:         g.Location,
			Description:      g.Description,
			Verdict:          g.Verdict,
			Confidence:       g.Confidence,
			GroundTruthMatch: g.GroundTruthMatch,
			ToolCount:        len(g.Tools),
		})
	}
	return rows
}
