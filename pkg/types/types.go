// Package types provides shared types used across the benchmark pipeline.
package types

import "strings"

// Severity is the canonical five-level scale every tool vocabulary is
// mapped into during normalization.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"

	// SeverityUnknown marks a group whose members carry no recognizable
	// severity. It is never assigned to a normalized Finding.
	SeverityUnknown Severity = "unknown"
)

// severityRank orders severities for group roll-ups. Anything outside the
// canonical scale ranks below INFO so it never wins a maximum.
var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityInfo:     0,
}

// Rank returns the ordering weight of s, -1 when unrecognized.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// ParseSeverity maps a raw string onto the canonical scale, returning
// SeverityUnknown when it does not name one of the five levels.
func ParseSeverity(raw string) Severity {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := severityRank[s]; ok {
		return s
	}
	return SeverityUnknown
}

// MaxSeverity returns the highest-ranked severity among vals, or
// SeverityUnknown when none of them is recognized.
func MaxSeverity(vals []Severity) Severity {
	best := SeverityUnknown
	bestRank := -1
	for _, v := range vals {
		if r := v.Rank(); r > bestRank {
			best = v
			bestRank = r
		}
	}
	return best
}

// Category classifies the scanner family that produced a finding.
type Category string

const (
	CategoryContainer Category = "container"
	CategorySAST      Category = "sast"
	CategorySCA       Category = "sca"
	CategoryDAST      Category = "dast"
	CategoryIaC       Category = "iac"
)

// Verdict is the triage label attached to a FindingGroup.
type Verdict string

const (
	// VerdictTP marks a group confirmed as a true positive.
	VerdictTP Verdict = "TP"

	// VerdictFP marks a confirmed false positive. The consensus classifier
	// never assigns it; it only enters through manually validated files.
	VerdictFP Verdict = "FP"

	// VerdictPending marks a group awaiting manual review.
	VerdictPending Verdict = "pending"
)

// ParseVerdict maps a raw triage label onto the canonical verdicts. Hand
// edited review files vary in case; unrecognized labels pass through
// trimmed but otherwise unchanged.
func ParseVerdict(raw string) Verdict {
	raw = strings.TrimSpace(raw)
	switch strings.ToUpper(raw) {
	case "TP":
		return VerdictTP
	case "FP":
		return VerdictFP
	case "PENDING":
		return VerdictPending
	}
	return Verdict(raw)
}

// Confidence qualifies how strongly a verdict is supported.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Finding is one normalized report of a potential vulnerability from one
// tool. It is immutable once the normalizer has produced it.
type Finding struct {
	// FindingID is the deterministic audit identifier, assigned in
	// discovery order as {TOOL}-{TARGET}-{NNN}
	FindingID string `json:"finding_id"`

	// Tool is the identifier of the originating scanner
	Tool string `json:"tool"`

	// Target is the identifier of the scanned application
	Target string `json:"target"`

	// Category is the scanner family (container, sast, sca, dast, iac)
	Category Category `json:"category"`

	// CWE is the canonical "CWE-<digits>" identifier, or empty when the
	// tool provided none
	CWE string `json:"cwe"`

	// Severity is the normalized five-level severity
	Severity Severity `json:"severity"`

	// Location is the tool-native location string: a file path with an
	// optional :line[:col] suffix, or a URL
	Location string `json:"location"`

	// Description is the whitespace-collapsed free-text summary
	Description string `json:"description"`

	// RawID is the tool-native rule or advisory identifier, kept for
	// traceability and never used in matching
	RawID string `json:"raw_id"`
}

// FindingGroup is a cluster of findings, possibly from different tools,
// believed to describe the same underlying vulnerability instance.
type FindingGroup struct {
	// GroupID is the per-run identifier GRP-{target}-{cwe}-{seq}
	GroupID string `json:"group_id"`

	// Target and CWE form the clustering key shared by all members
	Target string `json:"target"`
	CWE    string `json:"cwe"`

	// Members holds the findings in this group, in discovery order
	Members []Finding `json:"members"`

	// Tools is the sorted, de-duplicated set of member tool names
	Tools []string `json:"tools"`

	// Severity is the maximum severity among members
	Severity Severity `json:"severity"`

	// Location and Description are the first non-empty values among
	// members, in member order
	Location    string `json:"location"`
	Description string `json:"description"`

	// Verdict and Confidence are assigned once by the consensus classifier
	Verdict    Verdict    `json:"verdict"`
	Confidence Confidence `json:"confidence"`

	// GroundTruthMatch reports whether any ground-truth entry shares the
	// group's (target, cwe)
	GroundTruthMatch bool `json:"ground_truth_match"`
}

// GroundTruthEntry is one curated known vulnerability for a target. The
// engine only ever reads these.
type GroundTruthEntry struct {
	// Target is the application the entry belongs to, derived from the
	// ground-truth file name
	Target string `json:"target"`

	// VulnID is the curator-assigned identifier
	VulnID string `json:"vuln_id"`

	// CWE is the canonicalized weakness identifier
	CWE string `json:"cwe"`

	// Category is the curator's vulnerability class label
	Category string `json:"category,omitempty"`

	// Description summarizes the planted vulnerability
	Description string `json:"description,omitempty"`

	// Location points at the vulnerable route or file, when known
	Location string `json:"location,omitempty"`

	// Difficulty grades how hard the vulnerability is to detect
	Difficulty string `json:"difficulty,omitempty"`

	// Source records where the entry was curated from
	Source string `json:"source,omitempty"`
}

// TriageRow is one row of a per-target triage CSV. The scorer consumes
// these from either the consensus output or a manually validated copy.
type TriageRow struct {
	// GroupID is the finding_group_id column
	GroupID string `json:"finding_group_id"`

	// Tools lists the tools that reported the group
	Tools []string `json:"tools"`

	Target string `json:"target"`
	CWE    string `json:"cwe"`

	// Severity is the lowercased roll-up severity as written to the CSV
	Severity string `json:"severity"`

	Location    string `json:"location"`
	Description string `json:"description"`

	// Verdict is TP, FP or pending; manual validation may rewrite it
	Verdict Verdict `json:"verdict"`

	Confidence Confidence `json:"confidence"`

	// GroundTruthMatch mirrors the yes/no CSV column
	GroundTruthMatch bool `json:"ground_truth_match"`

	// ToolCount is the number of distinct tools in the group
	ToolCount int `json:"tool_count"`
}
