package adapters

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/appsecsanta/research/pkg/types"
)

// Bandit parses bandit SAST reports for Python targets.
type Bandit struct{}

type banditReport struct {
	Results []struct {
		TestID     string `json:"test_id"`
		TestName   string `json:"test_name"`
		IssueText  string `json:"issue_text"`
		Severity   string `json:"issue_severity"`
		Filename   string `json:"filename"`
		LineNumber int    `json:"line_number"`
		IssueCWE   struct {
			ID int `json:"id"`
		} `json:"issue_cwe"`
	} `json:"results"`
}

func (Bandit) Name() string { return "bandit" }

func (Bandit) Category() types.Category { return types.CategorySAST }

func (Bandit) Parse(data []byte, target string) ([]types.Finding, error) {
	var report banditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding bandit report: %w", err)
	}

	var findings []types.Finding
	for _, r := range report.Results {
		cwe := ""
		if r.IssueCWE.ID > 0 {
			cwe = "CWE-" + strconv.Itoa(r.IssueCWE.ID)
		}
		findings = append(findings, types.Finding{
			Tool:        "bandit",
			Target:      target,
			Category:    types.CategorySAST,
			CWE:         cwe,
			Severity:    types.Severity(r.Severity),
			Location:    fileLine(r.Filename, r.LineNumber),
			Description: r.IssueText,
			RawID:       r.TestID,
		})
	}
	return findings, nil
}
