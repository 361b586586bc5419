package ingest

import (
	"context"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"github.com/appsecsanta/research/internal/adapters"
	"github.com/appsecsanta/research/pkg/types"
)

// FileReport records what the loader did with one discovered file; the run
// manifest is built from these.
type FileReport struct {
	Path     string `json:"path"`
	Tool     string `json:"tool"`
	Target   string `json:"target"`
	Findings int    `json:"findings"`
	Version  string `json:"version,omitempty"`
	Failed   bool   `json:"failed,omitempty"`
}

// Loader parses discovered files through the adapter registry. Files load
// in parallel; results keep discovery order so finding IDs stay stable.
type Loader struct {
	registry    *adapters.Registry
	minVersions map[string]string
	workers     int
	log         *zap.SugaredLogger
}

// NewLoader returns a Loader. minVersions maps canonical tool names to the
// oldest acceptable version; older sniffed versions are warned about.
// workers <= 0 means one per CPU.
func NewLoader(registry *adapters.Registry, minVersions map[string]string, workers int, log *zap.SugaredLogger) *Loader {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Loader{
		registry:    registry,
		minVersions: minVersions,
		workers:     workers,
		log:         log,
	}
}

// Load reads and parses every file. Per-file failures are logged as
// warnings and yield zero findings; only context cancellation aborts.
// Findings come back concatenated in the order of files.
func (l *Loader) Load(ctx context.Context, files []RawFile) ([]types.Finding, []FileReport, error) {
	perFile := make([][]types.Finding, len(files))
	reports := make([]FileReport, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i := range files {
		i := i
		rf := files[i]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			reports[i] = l.loadOne(rf, &perFile[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var findings []types.Finding
	for _, fs := range perFile {
		findings = append(findings, fs...)
	}
	return findings, reports, nil
}

func (l *Loader) loadOne(rf RawFile, out *[]types.Finding) FileReport {
	report := FileReport{Path: rf.Path, Tool: rf.Tool, Target: rf.Target}

	adapter, ok := l.registry.Lookup(rf.Tool)
	if !ok {
		l.log.Warnw("no adapter for tool", "tool", rf.Tool, "path", rf.Path)
		report.Failed = true
		return report
	}

	data, err := os.ReadFile(rf.Path)
	if err != nil {
		l.log.Warnw("unreadable results file", "path", rf.Path, "error", err)
		report.Failed = true
		return report
	}

	report.Version = SniffVersion(rf.Tool, data)
	l.checkVersion(rf.Tool, report.Version)

	findings, err := adapter.Parse(data, rf.Target)
	if err != nil {
		l.log.Warnw("unparseable results file", "path", rf.Path, "tool", rf.Tool, "error", err)
		report.Failed = true
		return report
	}

	*out = findings
	report.Findings = len(findings)
	l.log.Debugw("parsed results file", "path", rf.Path, "tool", rf.Tool, "findings", len(findings))
	return report
}

func (l *Loader) checkVersion(tool, version string) {
	min := l.minVersions[tool]
	if min == "" || version == "" {
		return
	}
	have, want := withV(version), withV(min)
	if !semver.IsValid(have) || !semver.IsValid(want) {
		l.log.Debugw("unparseable tool version", "tool", tool, "version", version, "min_version", min)
		return
	}
	if semver.Compare(have, want) < 0 {
		l.log.Warnw("tool output predates pinned minimum version",
			"tool", tool, "version", version, "min_version", min)
	}
}

func withV(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}
