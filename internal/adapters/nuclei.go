package adapters

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/appsecsanta/research/pkg/types"
)

// Nuclei parses nuclei output, which is either a JSON array or one JSON
// object per line depending on how the scan was invoked.
type Nuclei struct{}

type nucleiRecord struct {
	TemplateID string `json:"template-id"`
	MatchedAt  string `json:"matched-at"`
	Host       string `json:"host"`
	Info       struct {
		Name           string `json:"name"`
		Description    string `json:"description"`
		Severity       string `json:"severity"`
		Classification struct {
			CWEID flexStringList `json:"cwe-id"`
		} `json:"classification"`
	} `json:"info"`
}

func (Nuclei) Name() string { return "nuclei" }

func (Nuclei) Category() types.Category { return types.CategoryDAST }

func (Nuclei) Parse(data []byte, target string) ([]types.Finding, error) {
	records, err := decodeNucleiRecords(data)
	if err != nil {
		return nil, err
	}

	var findings []types.Finding
	for _, rec := range records {
		findings = append(findings, types.Finding{
			Tool:        "nuclei",
			Target:      target,
			Category:    types.CategoryDAST,
			CWE:         rec.Info.Classification.CWEID.first(),
			Severity:    types.Severity(rec.Info.Severity),
			Location:    firstNonEmpty(rec.MatchedAt, rec.Host),
			Description: firstNonEmpty(rec.Info.Name, rec.Info.Description),
			RawID:       rec.TemplateID,
		})
	}
	return findings, nil
}

func decodeNucleiRecords(data []byte) ([]nucleiRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []nucleiRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decoding nuclei report: %w", err)
		}
		return records, nil
	}

	var records []nucleiRecord
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec nucleiRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading nuclei report: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("decoding nuclei report: no valid records")
	}
	return records, nil
}
