package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/appsecsanta/research/pkg/types"
)

// NPMAudit parses `npm audit --json` output. Each vulnerability's "via"
// list mixes advisory objects with bare package-name strings naming the
// dependency chain; advisories carry the title, CWE and advisory URL.
type NPMAudit struct{}

type npmAuditReport struct {
	Vulnerabilities map[string]npmVulnerability `json:"vulnerabilities"`
}

type npmVulnerability struct {
	Severity string            `json:"severity"`
	Range    string            `json:"range"`
	Via      []json.RawMessage `json:"via"`
}

type npmAdvisory struct {
	Title  string         `json:"title"`
	URL    string         `json:"url"`
	Source flexString     `json:"source"`
	CWE    flexStringList `json:"cwe"`
}

func (NPMAudit) Name() string { return "npm-audit" }

func (NPMAudit) Category() types.Category { return types.CategorySCA }

func (NPMAudit) Parse(data []byte, target string) ([]types.Finding, error) {
	var report npmAuditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding npm audit report: %w", err)
	}

	names := make([]string, 0, len(report.Vulnerabilities))
	for name := range report.Vulnerabilities {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []types.Finding
	for _, name := range names {
		vuln := report.Vulnerabilities[name]

		var cwe, description, rawID string
		var depRefs []string
		for _, raw := range vuln.Via {
			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) == 0 {
				continue
			}
			if trimmed[0] != '{' {
				var ref string
				if err := json.Unmarshal(trimmed, &ref); err == nil {
					depRefs = append(depRefs, ref)
				}
				continue
			}
			var adv npmAdvisory
			if err := json.Unmarshal(trimmed, &adv); err != nil {
				continue
			}
			if description == "" {
				description = adv.Title
			}
			if cwe == "" {
				cwe = adv.CWE.first()
			}
			if rawID == "" {
				if adv.URL != "" {
					rawID = adv.URL[strings.LastIndex(adv.URL, "/")+1:]
				} else {
					rawID = string(adv.Source)
				}
			}
		}
		if description == "" && len(depRefs) > 0 {
			description = "Dependency of: " + strings.Join(depRefs, ", ")
		}

		location := name
		if vuln.Range != "" {
			location = name + "@" + vuln.Range
		}
		findings = append(findings, types.Finding{
			Tool:        "npm-audit",
			Target:      target,
			Category:    types.CategorySCA,
			CWE:         cwe,
			Severity:    types.Severity(vuln.Severity),
			Location:    location,
			Description: description,
			RawID:       rawID,
		})
	}
	return findings, nil
}
