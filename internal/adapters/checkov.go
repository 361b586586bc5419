package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/appsecsanta/research/pkg/types"
)

// Checkov parses checkov IaC reports. A report is one block per framework
// (terraform, dockerfile, ...) or a single block when only one framework
// ran. Checkov scans all targets in one pass, so when the caller passes
// TargetAll the target is inferred per finding from the file path.
type Checkov struct {
	targets []string
}

// NewCheckov returns an adapter that attributes findings to the given
// targets. Longer names are tried first so nested target directories are
// not claimed by a prefix sibling.
func NewCheckov(targets []string) *Checkov {
	sorted := make([]string, len(targets))
	copy(sorted, targets)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	return &Checkov{targets: sorted}
}

type checkovBlock struct {
	CheckType string `json:"check_type"`
	Results   struct {
		FailedChecks []checkovCheck `json:"failed_checks"`
	} `json:"results"`
}

type checkovCheck struct {
	CheckID   string `json:"check_id"`
	CheckName string `json:"check_name"`
	FilePath  string `json:"file_path"`
	Resource  string `json:"resource"`
	Severity  string `json:"severity"`
	Guideline string `json:"guideline"`
}

func (*Checkov) Name() string { return "checkov" }

func (*Checkov) Category() types.Category { return types.CategoryIaC }

func (c *Checkov) Parse(data []byte, target string) ([]types.Finding, error) {
	blocks, err := decodeCheckovBlocks(data)
	if err != nil {
		return nil, err
	}

	var findings []types.Finding
	for _, block := range blocks {
		for _, check := range block.Results.FailedChecks {
			findingTarget := target
			if findingTarget == TargetAll {
				findingTarget = c.inferTarget(check.FilePath)
			}
			location := check.FilePath
			if check.Resource != "" {
				location = check.FilePath + ":" + check.Resource
			}
			severity := check.Severity
			if severity == "" {
				severity = "MEDIUM"
			}
			findings = append(findings, types.Finding{
				Tool:        "checkov",
				Target:      findingTarget,
				Category:    types.CategoryIaC,
				Severity:    types.Severity(severity),
				Location:    location,
				Description: check.CheckID + ": " + firstNonEmpty(check.CheckName, check.Guideline, block.CheckType),
				RawID:       check.CheckID,
			})
		}
	}
	return findings, nil
}

func (c *Checkov) inferTarget(filePath string) string {
	for _, t := range c.targets {
		if strings.Contains(filePath, t) {
			return t
		}
	}
	return "unknown"
}

func decodeCheckovBlocks(data []byte) ([]checkovBlock, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var blocks []checkovBlock
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return nil, fmt.Errorf("decoding checkov report: %w", err)
		}
		return blocks, nil
	}
	var block checkovBlock
	if err := json.Unmarshal(trimmed, &block); err != nil {
		return nil, fmt.Errorf("decoding checkov report: %w", err)
	}
	return []checkovBlock{block}, nil
}
