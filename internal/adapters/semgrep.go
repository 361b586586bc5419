package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/appsecsanta/research/pkg/types"
)

// Semgrep parses semgrep (and opengrep) JSON reports. CWE identifiers
// arrive in rule metadata as strings like "CWE-89: SQL Injection", as a
// single value or a list.
type Semgrep struct{}

type semgrepReport struct {
	Results []struct {
		CheckID string `json:"check_id"`
		Path    string `json:"path"`
		Start   struct {
			Line int `json:"line"`
		} `json:"start"`
		Extra struct {
			Message  string `json:"message"`
			Severity string `json:"severity"`
			Metadata struct {
				CWE flexStringList `json:"cwe"`
			} `json:"metadata"`
		} `json:"extra"`
	} `json:"results"`
}

func (Semgrep) Name() string { return "semgrep" }

func (Semgrep) Category() types.Category { return types.CategorySAST }

func (Semgrep) Parse(data []byte, target string) ([]types.Finding, error) {
	var report semgrepReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding semgrep report: %w", err)
	}

	var findings []types.Finding
	for _, r := range report.Results {
		findings = append(findings, types.Finding{
			Tool:        "semgrep",
			Target:      target,
			Category:    types.CategorySAST,
			CWE:         r.Extra.Metadata.CWE.first(),
			Severity:    types.Severity(r.Extra.Severity),
			Location:    fileLine(r.Path, r.Start.Line),
			Description: r.Extra.Message,
			RawID:       r.CheckID,
		})
	}
	return findings, nil
}
