package adapters

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/appsecsanta/research/pkg/types"
)

// CodeQL parses CodeQL SARIF output. The CWE for a result lives in the
// rule's tags (security/cwe/cwe-079 style); results whose rule carries no
// tag are checked for tags of their own.
type CodeQL struct{}

var (
	cweTagPattern  = regexp.MustCompile(`(?i)cwe[/-]cwe-0*(\d+)`)
	cweTextPattern = regexp.MustCompile(`(?i)\bCWE-0*(\d+)`)
)

type codeqlSARIF struct {
	Runs []struct {
		Tool struct {
			Driver struct {
				Rules []struct {
					ID         string         `json:"id"`
					Properties codeqlProperty `json:"properties"`
					Help       codeqlText     `json:"help"`
					FullDesc   codeqlText     `json:"fullDescription"`
				} `json:"rules"`
			} `json:"driver"`
		} `json:"tool"`
		Results []struct {
			RuleID  string `json:"ruleId"`
			Level   string `json:"level"`
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
			Locations []struct {
				PhysicalLocation struct {
					ArtifactLocation struct {
						URI string `json:"uri"`
					} `json:"artifactLocation"`
					Region struct {
						StartLine int `json:"startLine"`
					} `json:"region"`
				} `json:"physicalLocation"`
			} `json:"locations"`
			Properties codeqlProperty `json:"properties"`
		} `json:"results"`
	} `json:"runs"`
}

type codeqlProperty struct {
	Tags []string `json:"tags"`
}

type codeqlText struct {
	Text string `json:"text"`
}

func (CodeQL) Name() string { return "codeql" }

func (CodeQL) Category() types.Category { return types.CategorySAST }

func (CodeQL) Parse(data []byte, target string) ([]types.Finding, error) {
	var report codeqlSARIF
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding codeql sarif: %w", err)
	}

	var findings []types.Finding
	for _, run := range report.Runs {
		ruleCWE := make(map[string]string, len(run.Tool.Driver.Rules))
		for _, rule := range run.Tool.Driver.Rules {
			cwe := cweFromTags(rule.Properties.Tags)
			if cwe == "" {
				cwe = cweFromText(firstNonEmpty(rule.Help.Text, rule.FullDesc.Text))
			}
			ruleCWE[rule.ID] = cwe
		}
		for _, result := range run.Results {
			cwe := ruleCWE[result.RuleID]
			if cwe == "" {
				cwe = cweFromTags(result.Properties.Tags)
			}
			level := result.Level
			if level == "" {
				level = "warning"
			}
			var location string
			if len(result.Locations) > 0 {
				pl := result.Locations[0].PhysicalLocation
				location = pl.ArtifactLocation.URI
				if pl.Region.StartLine > 0 {
					location = fileLine(location, pl.Region.StartLine)
				}
			}
			findings = append(findings, types.Finding{
				Tool:        "codeql",
				Target:      target,
				Category:    types.CategorySAST,
				CWE:         cwe,
				Severity:    types.Severity(level),
				Location:    location,
				Description: result.Message.Text,
				RawID:       result.RuleID,
			})
		}
	}
	return findings, nil
}

func cweFromTags(tags []string) string {
	for _, tag := range tags {
		if m := cweTagPattern.FindStringSubmatch(tag); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return "CWE-" + strconv.Itoa(n)
		}
	}
	return ""
}

func cweFromText(text string) string {
	m := cweTextPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	return "CWE-" + strconv.Itoa(n)
}
