// Package normalize canonicalizes adapter output: severity vocabulary,
// CWE identifiers, free text, and audit IDs.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/appsecsanta/research/pkg/types"
)

var cwePattern = regexp.MustCompile(`(?i)CWE-?(\d+)`)

// Normalizer rewrites findings into the canonical vocabulary. It is
// constructed from immutable table data and safe for reuse across targets.
type Normalizer struct {
	tables Tables
}

// New returns a Normalizer using the given severity tables.
func New(tables Tables) *Normalizer {
	return &Normalizer{tables: tables}
}

// Finding returns a copy of f with severity, CWE, description and location
// rewritten into canonical form. It never fails; unmappable values fall
// back to the documented defaults.
func (n *Normalizer) Finding(f types.Finding) types.Finding {
	f.Severity = n.Severity(f.Tool, string(f.Severity))
	f.CWE = CanonicalCWE(f.CWE)
	f.Description = Sanitize(f.Description)
	f.Location = strings.TrimSpace(f.Location)
	return f
}

// Severity maps a tool-native severity value onto the canonical scale.
// Lookup order: the tool's family table, the generic table, then the value
// itself if it already names a canonical level. Anything else is INFO.
func (n *Normalizer) Severity(tool, raw string) types.Severity {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.SeverityInfo
	}
	key := strings.ToLower(raw)
	if table, ok := n.tables.PerTool[tool]; ok {
		if sev, ok := table[key]; ok {
			return sev
		}
	}
	if sev, ok := n.tables.Generic[key]; ok {
		return sev
	}
	if sev := types.ParseSeverity(raw); sev != types.SeverityUnknown {
		return sev
	}
	return types.SeverityInfo
}

// CanonicalCWE rewrites a CWE identifier to the canonical "CWE-<digits>"
// form. It accepts bare digits and any-case "cwe-N" (embedded in longer
// text is fine); everything else becomes the empty string. It never
// invents an identifier.
func CanonicalCWE(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if isDigits(raw) {
		return "CWE-" + raw
	}
	if m := cwePattern.FindStringSubmatch(raw); m != nil {
		return "CWE-" + m[1]
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Sanitize collapses whitespace runs to single spaces and strips newlines,
// making free text safe for one-line CSV fields.
func Sanitize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// AssignIDs stamps each finding with its audit identifier, numbering
// sequentially per (tool, target) in slice order. Slice order is discovery
// order by contract.
func AssignIDs(findings []types.Finding) {
	counters := make(map[string]int)
	for i := range findings {
		key := findings[i].Tool + "\x00" + findings[i].Target
		counters[key]++
		findings[i].FindingID = FindingID(findings[i].Tool, findings[i].Target, counters[key])
	}
}

// FindingID builds the audit identifier {TOOL}-{TARGET}-{NNN}. Hyphens are
// dropped from the tool part so the ID splits unambiguously.
func FindingID(tool, target string, n int) string {
	toolPart := strings.ReplaceAll(strings.ToUpper(tool), "-", "")
	return fmt.Sprintf("%s-%s-%03d", toolPart, strings.ToUpper(target), n)
}
