package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/appsecsanta/research/pkg/types"
)

// uncategorizedRule is the SARIF rule id for groups without a CWE.
const uncategorizedRule = "uncategorized"

// ToSARIF converts triage groups to SARIF 2.1.0 for CI ingestion. Groups
// sharing a CWE share one rule; each group becomes one result at its
// rolled-up severity and representative location.
func ToSARIF(groups []types.FindingGroup) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("creating sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("candyshop", "https://github.com/appsecsanta/research")

	rules := make(map[string]bool)

	for _, group := range groups {
		ruleID := group.CWE
		if ruleID == "" {
			ruleID = uncategorizedRule
		}

		if !rules[ruleID] {
			desc := "Findings without a recognized CWE classification"
			if ruleID != uncategorizedRule {
				desc = "Findings classified as " + ruleID
			}
			run.AddRule(ruleID).
				WithDescription(desc).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: toSARIFLevel(group.Severity),
				})
			rules[ruleID] = true
		}

		message := group.Description
		if message == "" {
			message = group.GroupID
		}
		result := sarif.NewRuleResult(ruleID).
			WithLevel(toSARIFLevel(group.Severity)).
			WithMessage(sarif.NewTextMessage(message))

		if file, line := splitLocation(group.Location); file != "" {
			loc := sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(file))
			if line > 0 {
				loc.WithRegion(sarif.NewRegion().WithStartLine(line))
			}
			result.WithLocations([]*sarif.Location{
				sarif.NewLocationWithPhysicalLocation(loc),
			})
		}

		run.AddResult(result)
	}

	report.AddRun(run)
	return report, nil
}

// WriteSARIF writes groups as a SARIF file.
func WriteSARIF(path string, groups []types.FindingGroup) error {
	report, err := ToSARIF(groups)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data, 0o644)
}

func toSARIFLevel(severity types.Severity) string {
	switch severity {
	case types.SeverityCritical, types.SeverityHigh:
		return "error"
	case types.SeverityMedium:
		return "warning"
	case types.SeverityLow, types.SeverityInfo:
		return "note"
	default:
		return "none"
	}
}

// splitLocation separates trailing :line and :line:col markers from a
// location string. URLs and bare paths come back unchanged with line 0.
func splitLocation(loc string) (string, int) {
	file := strings.TrimSpace(loc)
	line := 0
	for i := 0; i < 2; i++ {
		idx := strings.LastIndex(file, ":")
		if idx < 0 || idx == len(file)-1 {
			break
		}
		n, err := strconv.Atoi(file[idx+1:])
		if err != nil || n < 0 {
			break
		}
		line = n
		file = file[:idx]
	}
	return file, line
}
