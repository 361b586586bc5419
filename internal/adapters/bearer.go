package adapters

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/appsecsanta/research/pkg/types"
)

// Bearer parses bearer SAST reports. Bearer has shipped three layouts: a
// severity-keyed map ({"critical": [...], "high": [...]}), a wrapper
// object with a findings list, and a bare array. All three are accepted;
// items under a severity key inherit that severity when they carry none
// of their own.
type Bearer struct{}

type bearerItem struct {
	ID          string         `json:"id"`
	RuleID      string         `json:"rule_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Severity    string         `json:"severity"`
	Filename    string         `json:"filename"`
	LineNumber  int            `json:"line_number"`
	CweIDs      flexStringList `json:"cwe_ids"`
}

var bearerSeverityKeys = map[string]bool{
	"critical": true,
	"high":     true,
	"medium":   true,
	"low":      true,
	"warning":  true,
	"info":     true,
}

func (Bearer) Name() string { return "bearer" }

func (Bearer) Category() types.Category { return types.CategorySAST }

func (Bearer) Parse(data []byte, target string) ([]types.Finding, error) {
	var flat []bearerItem
	if err := json.Unmarshal(data, &flat); err == nil {
		return bearerFindings(flat, "", target), nil
	}

	var byKey map[string]json.RawMessage
	if err := json.Unmarshal(data, &byKey); err != nil {
		return nil, fmt.Errorf("decoding bearer report: %w", err)
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var findings []types.Finding
	for _, key := range keys {
		var items []bearerItem
		if err := json.Unmarshal(byKey[key], &items); err != nil {
			continue
		}
		severityHint := ""
		if bearerSeverityKeys[key] {
			severityHint = key
		}
		if key != "findings" {
			// Only location-bearing entries under other keys are
			// findings; lists like errors or stats are not.
			kept := items[:0]
			for _, item := range items {
				if item.Filename != "" {
					kept = append(kept, item)
				}
			}
			items = kept
		}
		findings = append(findings, bearerFindings(items, severityHint, target)...)
	}
	return findings, nil
}

func bearerFindings(items []bearerItem, severityHint, target string) []types.Finding {
	var findings []types.Finding
	for _, item := range items {
		findings = append(findings, types.Finding{
			Tool:        "bearer",
			Target:      target,
			Category:    types.CategorySAST,
			CWE:         item.CweIDs.first(),
			Severity:    types.Severity(firstNonEmpty(item.Severity, severityHint)),
			Location:    fileLine(item.Filename, item.LineNumber),
			Description: firstNonEmpty(item.Description, item.Title),
			RawID:       firstNonEmpty(item.RuleID, item.ID),
		})
	}
	return findings
}
