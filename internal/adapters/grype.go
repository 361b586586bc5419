package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/appsecsanta/research/pkg/types"
)

// Grype parses grype image-scan reports. CWE identifiers live on the
// related upstream advisories, not on the match itself.
type Grype struct{}

type grypeReport struct {
	Matches []struct {
		Vulnerability struct {
			ID                     string `json:"id"`
			Severity               string `json:"severity"`
			Description            string `json:"description"`
			RelatedVulnerabilities []struct {
				CWEs []grypeCWE `json:"cwes"`
			} `json:"relatedVulnerabilities"`
		} `json:"vulnerability"`
		Artifact struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"artifact"`
	} `json:"matches"`
}

// grypeCWE tolerates both shapes grype has shipped: a bare string and an
// object carrying a cweId field.
type grypeCWE string

func (c *grypeCWE) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			CweID string `json:"cweId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*c = grypeCWE(obj.CweID)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = grypeCWE(s)
	return nil
}

func (Grype) Name() string { return "grype" }

func (Grype) Category() types.Category { return types.CategoryContainer }

func (Grype) Parse(data []byte, target string) ([]types.Finding, error) {
	var report grypeReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding grype report: %w", err)
	}

	var findings []types.Finding
	for _, m := range report.Matches {
		cwe := ""
		for _, rel := range m.Vulnerability.RelatedVulnerabilities {
			for _, c := range rel.CWEs {
				if c != "" {
					cwe = string(c)
					if !strings.HasPrefix(cwe, "CWE") {
						cwe = "CWE-" + cwe
					}
					break
				}
			}
			if cwe != "" {
				break
			}
		}
		location := ""
		if m.Artifact.Name != "" {
			location = m.Artifact.Name + "@" + m.Artifact.Version
		}
		findings = append(findings, types.Finding{
			Tool:        "grype",
			Target:      target,
			Category:    types.CategoryContainer,
			CWE:         cwe,
			Severity:    types.Severity(m.Vulnerability.Severity),
			Location:    location,
			Description: m.Vulnerability.Description,
			RawID:       m.Vulnerability.ID,
		})
	}
	return findings, nil
}
