// Package ingest finds raw scanner output files under a results directory,
// parses them through the adapter registry in parallel, and reads the
// normalized findings CSV back for later pipeline stages.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/appsecsanta/research/internal/adapters"
)

// RawFile is one discovered tool-output file, attributed to a tool and a
// target. Target is adapters.TargetAll for shared multi-target files.
type RawFile struct {
	Path   string
	Tool   string
	Target string
}

// Discoverer walks a results directory and classifies the JSON files in it
// by filename convention.
type Discoverer struct {
	registry *adapters.Registry
	names    []string
	targets  map[string]bool
	log      *zap.SugaredLogger
}

// NewDiscoverer returns a Discoverer for the given registry and known
// targets. Unknown targets are kept, so a growing corpus does not silently
// lose files, but each one is logged.
func NewDiscoverer(registry *adapters.Registry, targets []string, log *zap.SugaredLogger) *Discoverer {
	known := make(map[string]bool, len(targets))
	for _, t := range targets {
		known[t] = true
	}
	return &Discoverer{
		registry: registry,
		names:    registry.MatchNames(),
		targets:  known,
		log:      log,
	}
}

// Discover walks root and returns every classifiable JSON file. WalkDir
// visits entries in lexical order, so the result order is stable across
// runs; finding IDs depend on it.
func (d *Discoverer) Discover(root string) ([]RawFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("results directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("results directory: %s is not a directory", root)
	}

	var files []RawFile
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.log.Warnw("skipping unreadable entry", "path", path, "error", err)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := entry.Name()
		if entry.IsDir() {
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			return nil
		}
		tool, target, ok := d.classify(path)
		if !ok {
			d.log.Debugw("unrecognized results file", "path", path)
			return nil
		}
		files = append(files, RawFile{Path: path, Tool: tool, Target: target})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking results directory: %w", err)
	}
	return files, nil
}

// classify resolves a file path to (tool, target) using the filename
// conventions, in precedence order:
//
//	depcheck-{target}/<report>.json
//	checkov.json / {prefix}-checkov.json  (target __all__)
//	{target}/{tool}.json
//	{tool}-{target}.json
func (d *Discoverer) classify(path string) (string, string, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), ".json")
	parent := filepath.Base(filepath.Dir(path))

	if target, ok := strings.CutPrefix(parent, "depcheck-"); ok && target != "" {
		return "dep-check", d.noteTarget(target), true
	}

	if stem == "checkov" || strings.HasSuffix(stem, "-checkov") {
		return "checkov", adapters.TargetAll, true
	}

	if d.targets[parent] {
		if canonical := d.registry.Resolve(stem); canonical != "" {
			return canonical, parent, true
		}
	}

	for _, name := range d.names {
		target, ok := strings.CutPrefix(stem, name+"-")
		if !ok || target == "" {
			continue
		}
		canonical := d.registry.Resolve(name)
		if canonical == "" {
			continue
		}
		return canonical, d.noteTarget(target), true
	}
	return "", "", false
}

func (d *Discoverer) noteTarget(target string) string {
	if !d.targets[target] {
		d.log.Warnw("target not in configured list, keeping", "target", target)
	}
	return target
}
