package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/appsecsanta/research/pkg/types"
)

// ErrNoInput marks a stage that found nothing to work on: no findings, no
// triage rows, or no ground truth. Callers treat it as a run failure while
// per-file problems stay warnings.
var ErrNoInput = errors.New("no usable input")

// ReadFindingsCSV reads a normalized findings CSV written by the normalize
// stage. Columns are resolved by header name; short or blank rows are
// logged and skipped.
func ReadFindingsCSV(path string, log *zap.SugaredLogger) ([]types.Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening findings file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading findings header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	var findings []types.Finding
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading findings row: %w", err)
		}
		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		finding := types.Finding{
			FindingID:   field("finding_id"),
			Tool:        field("tool"),
			Target:      field("target"),
			Category:    types.Category(field("category")),
			CWE:         field("cwe"),
			Severity:    types.Severity(field("severity")),
			Location:    field("location"),
			Description: field("description"),
			RawID:       field("raw_id"),
		}
		if finding.Tool == "" || finding.Target == "" {
			log.Warnw("findings row missing tool or target, skipping", "path", path)
			continue
		}
		findings = append(findings, finding)
	}
	return findings, nil
}
