package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/appsecsanta/research/pkg/types"
)

// PipAudit parses pip-audit JSON output. The format carries no severity
// or CWE, so every finding is reported at MEDIUM with an empty CWE.
type PipAudit struct{}

type pipAuditReport struct {
	Dependencies []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Vulns   []struct {
			ID          string `json:"id"`
			Description string `json:"description"`
		} `json:"vulns"`
	} `json:"dependencies"`
}

func (PipAudit) Name() string { return "pip-audit" }

func (PipAudit) Category() types.Category { return types.CategorySCA }

func (PipAudit) Parse(data []byte, target string) ([]types.Finding, error) {
	var report pipAuditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding pip-audit report: %w", err)
	}

	var findings []types.Finding
	for _, dep := range report.Dependencies {
		for _, vuln := range dep.Vulns {
			findings = append(findings, types.Finding{
				Tool:        "pip-audit",
				Target:      target,
				Category:    types.CategorySCA,
				Severity:    "MEDIUM",
				Location:    dep.Name + "@" + dep.Version,
				Description: vuln.Description,
				RawID:       vuln.ID,
			})
		}
	}
	return findings, nil
}
