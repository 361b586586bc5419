package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/appsecsanta/research/internal/adapters"
	"github.com/appsecsanta/research/internal/config"
	"github.com/appsecsanta/research/internal/ingest"
	"github.com/appsecsanta/research/internal/normalize"
	"github.com/appsecsanta/research/internal/report"
	"github.com/appsecsanta/research/pkg/types"
)

func newNormalizeCmd() *cobra.Command {
	var resultsDir, outDir string

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Parse raw scanner output into the canonical findings table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Output.Dir
			}

			findings, reports, err := normalizeStage(cmd.Context(), cfg, log, resultsDir)
			if err != nil {
				return err
			}
			return writeNormalizeOutputs(outDir, resultsDir, findings, reports, log)
		},
	}

	cmd.Flags().StringVar(&resultsDir, "results", "", "directory of raw scanner output")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	_ = cmd.MarkFlagRequired("results")

	return cmd
}

// normalizeStage discovers raw results files, parses them through the
// adapter registry and maps every finding onto the canonical vocabulary.
func normalizeStage(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, resultsDir string) ([]types.Finding, []ingest.FileReport, error) {
	registry := adapters.NewRegistry(cfg.AdapterOptions())

	discoverer := ingest.NewDiscoverer(registry, cfg.Targets, log)
	files, err := discoverer.Discover(resultsDir)
	if err != nil {
		return nil, nil, err
	}

	if disabled := cfg.DisabledTools(); len(disabled) > 0 {
		kept := files[:0]
		for _, f := range files {
			if disabled[f.Tool] {
				log.Debugw("tool disabled, skipping file", "tool", f.Tool, "path", f.Path)
				continue
			}
			kept = append(kept, f)
		}
		files = kept
	}

	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w: no recognizable results files under %s", ingest.ErrNoInput, resultsDir)
	}
	log.Infow("discovered results files", "count", len(files))

	loader := ingest.NewLoader(registry, cfg.MinVersions(), cfg.Workers, log)
	findings, reports, err := loader.Load(ctx, files)
	if err != nil {
		return nil, nil, err
	}
	if len(findings) == 0 {
		return nil, nil, fmt.Errorf("%w: %d results files parsed to zero findings", ingest.ErrNoInput, len(files))
	}

	normalizer := normalize.New(cfg.Tables())
	for i := range findings {
		findings[i] = normalizer.Finding(findings[i])
	}
	normalize.AssignIDs(findings)

	log.Infow("normalized findings", "count", len(findings))
	return findings, reports, nil
}

func writeNormalizeOutputs(outDir, resultsDir string, findings []types.Finding, reports []ingest.FileReport, log *zap.SugaredLogger) error {
	if err := report.WriteFindingsCSV(filepath.Join(outDir, "normalized-findings.csv"), findings); err != nil {
		return fmt.Errorf("writing findings csv: %w", err)
	}

	summary := report.BuildNormalizeSummary(findings, reports)
	if err := report.WriteNormalizeSummary(filepath.Join(outDir, "normalize-summary.json"), summary); err != nil {
		return fmt.Errorf("writing normalize summary: %w", err)
	}

	manifest := report.BuildManifest(resultsDir, reports)
	if err := report.WriteManifest(filepath.Join(outDir, "run-manifest.json"), manifest); err != nil {
		return fmt.Errorf("writing run manifest: %w", err)
	}

	log.Infow("wrote normalize outputs", "dir", outDir, "findings", len(findings))
	return nil
}
