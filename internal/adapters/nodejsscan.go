package adapters

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/appsecsanta/research/pkg/types"
)

// NodeJSScan parses nodejsscan/njsscan reports: a map of rule sections,
// each holding a list of issues. The tool emits no CWE identifiers.
type NodeJSScan struct{}

type nodejsscanReport struct {
	SecIssues map[string][]nodejsscanIssue `json:"sec_issues"`
	NodeJS    map[string][]nodejsscanIssue `json:"nodejs"`
}

type nodejsscanIssue struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    string     `json:"severity"`
	Filename    string     `json:"filename"`
	Path        string     `json:"path"`
	Line        flexString `json:"line"`
}

func (NodeJSScan) Name() string { return "nodejsscan" }

func (NodeJSScan) Category() types.Category { return types.CategorySAST }

func (NodeJSScan) Parse(data []byte, target string) ([]types.Finding, error) {
	var report nodejsscanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding nodejsscan report: %w", err)
	}
	sections := report.SecIssues
	if len(sections) == 0 {
		sections = report.NodeJS
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []types.Finding
	for _, name := range names {
		for _, issue := range sections[name] {
			file := firstNonEmpty(issue.Filename, issue.Path)
			location := file
			if file != "" && issue.Line != "" {
				location = file + ":" + string(issue.Line)
			}
			findings = append(findings, types.Finding{
				Tool:        "nodejsscan",
				Target:      target,
				Category:    types.CategorySAST,
				CWE:         "",
				Severity:    types.Severity(issue.Severity),
				Location:    location,
				Description: firstNonEmpty(issue.Description, issue.Title),
				RawID:       firstNonEmpty(issue.Title, name),
			})
		}
	}
	return findings, nil
}
