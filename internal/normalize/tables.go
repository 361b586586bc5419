package normalize

import "github.com/appsecsanta/research/pkg/types"

// SeverityTable maps one tool family's native severity vocabulary onto the
// canonical scale. Keys are matched case-insensitively.
type SeverityTable map[string]types.Severity

// Tables is the severity vocabulary configuration for a run. PerTool is
// consulted before Generic: several tools overload generic words (bearer's
// "warning" sits a level below everyone else's), so the family table must
// always win.
type Tables struct {
	PerTool map[string]SeverityTable
	Generic SeverityTable
}

// DefaultTables returns the built-in vocabulary configuration. The result
// is a fresh copy each call; callers may overlay config-file entries
// without affecting other runs.
func DefaultTables() Tables {
	return Tables{
		PerTool: map[string]SeverityTable{
			"trivy": {
				"critical": types.SeverityCritical,
				"high":     types.SeverityHigh,
				"medium":   types.SeverityMedium,
				"low":      types.SeverityLow,
				"unknown":  types.SeverityInfo,
			},
			"grype": {
				"critical":   types.SeverityCritical,
				"high":       types.SeverityHigh,
				"medium":     types.SeverityMedium,
				"low":        types.SeverityLow,
				"negligible": types.SeverityInfo,
			},
			"nodejsscan": {
				"error":   types.SeverityHigh,
				"warning": types.SeverityMedium,
				"info":    types.SeverityLow,
			},
			// Semgrep shares nodejsscan's ERROR/WARNING/INFO scale.
			"semgrep": {
				"error":   types.SeverityHigh,
				"warning": types.SeverityMedium,
				"info":    types.SeverityLow,
			},
			// ZAP reports numeric risk codes, not words.
			"zap": {
				"3": types.SeverityHigh,
				"2": types.SeverityMedium,
				"1": types.SeverityLow,
				"0": types.SeverityInfo,
			},
			"bearer": {
				"critical": types.SeverityCritical,
				"high":     types.SeverityHigh,
				"medium":   types.SeverityMedium,
				"low":      types.SeverityLow,
				"warning":  types.SeverityLow,
			},
			// SARIF level vocabulary.
			"codeql": {
				"error":   types.SeverityHigh,
				"warning": types.SeverityMedium,
				"note":    types.SeverityLow,
				"none":    types.SeverityLow,
			},
		},
		Generic: SeverityTable{
			"critical": types.SeverityCritical,
			"high":     types.SeverityHigh,
			"medium":   types.SeverityMedium,
			"low":      types.SeverityLow,
			"info":     types.SeverityInfo,
			"warning":  types.SeverityMedium,
			"error":    types.SeverityHigh,
		},
	}
}
