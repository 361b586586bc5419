package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/appsecsanta/research/pkg/types"
)

// DepCheck parses OWASP Dependency-Check JSON reports. CWE entries vary
// across report schema versions: plain strings, {"cwe": ...} objects, or
// bare numbers.
type DepCheck struct{}

type depcheckReport struct {
	Dependencies []struct {
		FileName        string `json:"fileName"`
		Vulnerabilities []struct {
			Name        string        `json:"name"`
			Severity    string        `json:"severity"`
			Description string        `json:"description"`
			CWEs        []depcheckCWE `json:"cwes"`
		} `json:"vulnerabilities"`
	} `json:"dependencies"`
}

type depcheckCWE string

func (c *depcheckCWE) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = depcheckCWE(s)
	case '{':
		var obj struct {
			CWE flexString `json:"cwe"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*c = depcheckCWE(obj.CWE)
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*c = depcheckCWE(strconv.Itoa(n))
	}
	return nil
}

func (DepCheck) Name() string { return "dep-check" }

func (DepCheck) Category() types.Category { return types.CategorySCA }

func (DepCheck) Parse(data []byte, target string) ([]types.Finding, error) {
	var report depcheckReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding dependency-check report: %w", err)
	}

	var findings []types.Finding
	for _, dep := range report.Dependencies {
		for _, vuln := range dep.Vulnerabilities {
			var cwe string
			for _, c := range vuln.CWEs {
				if c != "" {
					cwe = string(c)
					break
				}
			}
			findings = append(findings, types.Finding{
				Tool:        "dep-check",
				Target:      target,
				Category:    types.CategorySCA,
				CWE:         cwe,
				Severity:    types.Severity(vuln.Severity),
				Location:    dep.FileName,
				Description: vuln.Description,
				RawID:       vuln.Name,
			})
		}
	}
	return findings, nil
}
