package triage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/appsecsanta/research/internal/normalize"
	"github.com/appsecsanta/research/pkg/types"
)

// LoadGroundTruth reads every per-target CSV in dir. The target name comes
// from the file name (juice-shop.csv or juice-shop-ground-truth.csv both
// map to juice-shop). Unreadable files are logged and skipped; a missing
// directory is an error the caller decides the severity of.
func LoadGroundTruth(dir string, log *zap.SugaredLogger) ([]types.GroundTruthEntry, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("ground-truth directory not found: %s", dir)
	}

	names, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing ground truth: %w", err)
	}
	sort.Strings(names)

	var entries []types.GroundTruthEntry
	for _, name := range names {
		target := strings.TrimSuffix(filepath.Base(name), ".csv")
		target = strings.TrimSuffix(target, "-ground-truth")

		rows, err := readGroundTruthFile(name, target)
		if err != nil {
			log.Warnw("skipping unreadable ground-truth file", "path", name, "error", err)
			continue
		}
		entries = append(entries, rows...)
	}
	return entries, nil
}

func readGroundTruthFile(path, target string) ([]types.GroundTruthEntry, error) {
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
	col := indexColumns(header)

	var entries []types.GroundTruthEntry
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		entries = append(entries, types.GroundTruthEntry{
			Target:      target,
			VulnID:      field(record, col, "vuln_id"),
			CWE:         normalize.CanonicalCWE(field(record, col, "cwe")),
			Category:    field(record, col, "category"),
			Description: field(record, col, "description"),
			Location:    strings.TrimSpace(field(record, col, "location")),
			Difficulty:  field(record, col, "difficulty"),
			Source:      field(record, col, "source"),
		})
	}
	return entries, nil
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return col
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// Index is the read-only (target, cwe) lookup the classifier consults.
type Index map[gtKey][]types.GroundTruthEntry

type gtKey struct {
	target string
	cwe    string
}

// BuildIndex arranges ground-truth entries for constant-time matching.
func BuildIndex(entries []types.GroundTruthEntry) Index {
	idx := make(Index, len(entries))
	for _, e := range entries {
		k := gtKey{target: e.Target, cwe: e.CWE}
		idx[k] = append(idx[k], e)
	}
	return idx
}

// Match reports whether any ground-truth entry shares (target, cwe).
// An empty cwe never matches, no matter what the curated files contain.
func (idx Index) Match(target, cwe string) bool {
	if cwe == "" {
		return false
	}
	return len(idx[gtKey{target: target, cwe: cwe}]) > 0
}
