package ingest

import (
	"bytes"
	"encoding/json"
)

// SniffVersion extracts the producing tool's version from a raw payload,
// for the tools that embed one. Returns "" when the payload carries no
// recognizable version.
func SniffVersion(tool string, data []byte) string {
	switch tool {
	case "zap":
		var v struct {
			Version string `json:"@version"`
		}
		if json.Unmarshal(data, &v) == nil {
			return v.Version
		}
	case "grype":
		var v struct {
			Descriptor struct {
				Version string `json:"version"`
			} `json:"descriptor"`
		}
		if json.Unmarshal(data, &v) == nil {
			return v.Descriptor.Version
		}
	case "checkov":
		return checkovVersion(data)
	case "codeql":
		var v struct {
			Runs []struct {
				Tool struct {
					Driver struct {
						SemanticVersion string `json:"semanticVersion"`
						Version         string `json:"version"`
					} `json:"driver"`
				} `json:"tool"`
			} `json:"runs"`
		}
		if json.Unmarshal(data, &v) == nil && len(v.Runs) > 0 {
			driver := v.Runs[0].Tool.Driver
			if driver.SemanticVersion != "" {
				return driver.SemanticVersion
			}
			return driver.Version
		}
	}
	return ""
}

func checkovVersion(data []byte) string {
	type block struct {
		Summary struct {
			Version string `json:"checkov_version"`
		} `json:"summary"`
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var blocks []block
		if json.Unmarshal(trimmed, &blocks) == nil {
			for _, b := range blocks {
				if b.Summary.Version != "" {
					return b.Summary.Version
				}
			}
		}
		return ""
	}
	var b block
	if json.Unmarshal(trimmed, &b) == nil {
		return b.Summary.Version
	}
	return ""
}
