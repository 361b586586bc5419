package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/appsecsanta/research/pkg/types"
)

// LoadTriageDir loads per-target triage rows from dir. A manually
// validated {target}-final.csv always wins over the consensus
// {target}-auto.csv; this is how human FP labels enter the metrics.
func LoadTriageDir(dir string, log *zap.SugaredLogger) (map[string][]types.TriageRow, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("triage directory not found: %s", dir)
	}

	names, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing triage files: %w", err)
	}
	sort.Strings(names)

	autoFiles := make(map[string]string)
	finalFiles := make(map[string]string)
	for _, name := range names {
		stem := strings.TrimSuffix(filepath.Base(name), ".csv")
		switch {
		case strings.HasSuffix(stem, "-final"):
			finalFiles[strings.TrimSuffix(stem, "-final")] = name
		case strings.HasSuffix(stem, "-auto"):
			autoFiles[strings.TrimSuffix(stem, "-auto")] = name
		}
	}

	chosen := make(map[string]string, len(autoFiles))
	for target, name := range autoFiles {
		chosen[target] = name
	}
	for target, name := range finalFiles {
		chosen[target] = name
	}

	targets := make([]string, 0, len(chosen))
	for target := range chosen {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	result := make(map[string][]types.TriageRow, len(chosen))
	for _, target := range targets {
		name := chosen[target]
		rows, err := readTriageFile(name, target)
		if err != nil {
			log.Warnw("skipping unreadable triage file", "path", name, "error", err)
			continue
		}
		result[target] = rows
		log.Infow("loaded triage rows", "target", target, "file", filepath.Base(name), "rows", len(rows))
	}
	return result, nil
}

func readTriageFile(path, target string) ([]types.TriageRow, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	get := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []types.TriageRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		tools := SplitTools(get(record, "tools"))
		toolCount, convErr := strconv.Atoi(get(record, "tool_count"))
		if convErr != nil {
			toolCount = len(tools)
		}
		rows = append(rows, types.TriageRow{
			GroupID:          get(record, "finding_group_id"),
			Tools:            tools,
			Target:           target,
			CWE:              get(record, "cwe"),
			Severity:         strings.ToLower(get(record, "severity")),
			Location:         get(record, "location"),
			Description:      get(record, "description"),
			Verdict:          types.ParseVerdict(get(record, "verdict")),
			Confidence:       types.Confidence(strings.ToLower(get(record, "confidence"))),
			GroundTruthMatch: strings.EqualFold(get(record, "ground_truth_match"), "yes"),
			ToolCount:        toolCount,
		})
	}
	return rows, nil
}

// SplitTools parses the tools column. The consensus writer joins with "|",
// but hand-edited final files have been seen with commas, so both are
// accepted. Names come back trimmed and lowercased.
func SplitTools(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ','
	})
	tools := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			tools = append(tools, p)
		}
	}
	return tools
}

// LoadSpeed reads the optional scan-duration CSV with columns
// tool,target,duration_seconds. A missing file is not an error; the data
// is a nice-to-have join column.
func LoadSpeed(path string) (map[ToolTarget]float64, error) {
	if path == "" {
		return map[ToolTarget]float64{}, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return map[ToolTarget]float64{}, nil
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return map[ToolTarget]float64{}, nil
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	get := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	data := make(map[ToolTarget]float64)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return data, fmt.Errorf("reading speed row: %w", err)
		}
		tool := strings.ToLower(get(record, "tool"))
		target := get(record, "target")
		if tool == "" || target == "" {
			continue
		}
		duration, convErr := strconv.ParseFloat(get(record, "duration_seconds"), 64)
		if convErr != nil {
			duration = 0
		}
		data[ToolTarget{Tool: tool, Target: target}] = duration
	}
	return data, nil
}

// GroupGroundTruth arranges flat entries per target for the calculators.
func GroupGroundTruth(entries []types.GroundTruthEntry) map[string][]types.GroundTruthEntry {
	byTarget := make(map[string][]types.GroundTruthEntry)
	for _, e := range entries {
		byTarget[e.Target] = append(byTarget[e.Target], e)
	}
	return byTarget
}
