package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/appsecsanta/research/pkg/types"
)

// Trivy parses trivy image-scan reports.
type Trivy struct{}

type trivyReport struct {
	Results []struct {
		Vulnerabilities []struct {
			VulnerabilityID  string   `json:"VulnerabilityID"`
			PkgName          string   `json:"PkgName"`
			InstalledVersion string   `json:"InstalledVersion"`
			Severity         string   `json:"Severity"`
			Title            string   `json:"Title"`
			Description      string   `json:"Description"`
			CweIDs           []string `json:"CweIDs"`
		} `json:"Vulnerabilities"`
	} `json:"Results"`
}

func (Trivy) Name() string { return "trivy" }

func (Trivy) Category() types.Category { return types.CategoryContainer }

func (Trivy) Parse(data []byte, target string) ([]types.Finding, error) {
	var report trivyReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding trivy report: %w", err)
	}

	var findings []types.Finding
	for _, result := range report.Results {
		for _, v := range result.Vulnerabilities {
			cwe := ""
			if len(v.CweIDs) > 0 {
				cwe = v.CweIDs[0]
			}
			location := ""
			if v.PkgName != "" {
				location = v.PkgName + "@" + v.InstalledVersion
			}
			findings = append(findings, types.Finding{
				Tool:        "trivy",
				Target:      target,
				Category:    types.CategoryContainer,
				CWE:         cwe,
				Severity:    types.Severity(v.Severity),
				Location:    location,
				Description: firstNonEmpty(v.Title, v.Description),
				RawID:       v.VulnerabilityID,
			})
		}
	}
	return findings, nil
}
