package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/appsecsanta/research/internal/ingest"
	"github.com/appsecsanta/research/internal/metrics"
	"github.com/appsecsanta/research/internal/report"
	"github.com/appsecsanta/research/internal/triage"
	"github.com/appsecsanta/research/pkg/types"
)

func newScoreCmd() *cobra.Command {
	var triageDir, groundTruthDir, outDir, speedPath string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute precision, recall and F1 against ground truth",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Output.Dir
			}

			triageRows, err := metrics.LoadTriageDir(triageDir, log)
			if err != nil {
				return err
			}
			total := 0
			for _, rows := range triageRows {
				total += len(rows)
			}
			if total == 0 {
				return fmt.Errorf("%w: no triage rows under %s", ingest.ErrNoInput, triageDir)
			}

			entries, err := triage.LoadGroundTruth(groundTruthDir, log)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("%w: no ground-truth entries under %s", ingest.ErrNoInput, groundTruthDir)
			}

			summary, coverage, scorecard, err := scoreStage(log, triageRows, entries, speedPath)
			if err != nil {
				return err
			}
			if err := writeScoreOutputs(outDir, summary, coverage, scorecard, log); err != nil {
				return err
			}

			report.NewTerminalWriter(os.Stdout, cfg.Output.NoColor).WriteScorecard(scorecard)
			return nil
		},
	}

	cmd.Flags().StringVar(&triageDir, "triage", "", "directory of triage CSVs")
	cmd.Flags().StringVar(&groundTruthDir, "ground-truth", "", "directory of per-target ground-truth CSVs")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	cmd.Flags().StringVar(&speedPath, "speed", "", "scan timing CSV (tool,target,duration_seconds)")
	_ = cmd.MarkFlagRequired("triage")
	_ = cmd.MarkFlagRequired("ground-truth")

	return cmd
}

// scoreStage computes the three metrics tables from triaged rows.
func scoreStage(log *zap.SugaredLogger, triageRows map[string][]types.TriageRow, entries []types.GroundTruthEntry, speedPath string) ([]metrics.SummaryRow, []metrics.CoverageRow, []metrics.ScorecardRow, error) {
	speed := map[metrics.ToolTarget]float64{}
	if speedPath != "" {
		var err error
		speed, err = metrics.LoadSpeed(speedPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("loading speed file: %w", err)
		}
	}

	stats := metrics.ExtractStats(triageRows)
	groundTruth := metrics.GroupGroundTruth(entries)

	summary := metrics.Summary(stats, groundTruth, speed)
	coverage := metrics.Coverage(stats, groundTruth)
	scorecard := metrics.Scorecard(summary, coverage)
	log.Infow("scored tools", "tools", len(scorecard), "summary_rows", len(summary))
	return summary, coverage, scorecard, nil
}

func writeScoreOutputs(outDir string, summary []metrics.SummaryRow, coverage []metrics.CoverageRow, scorecard []metrics.ScorecardRow, log *zap.SugaredLogger) error {
	if err := report.WriteSummaryCSV(filepath.Join(outDir, "fmeasure-summary.csv"), summary); err != nil {
		return fmt.Errorf("writing summary csv: %w", err)
	}
	if err := report.WriteCoverageCSV(filepath.Join(outDir, "cwe-coverage.csv"), coverage); err != nil {
		return fmt.Errorf("writing coverage csv: %w", err)
	}
	if err := report.WriteScorecardCSV(filepath.Join(outDir, "tool-scorecard.csv"), scorecard); err != nil {
		return fmt.Errorf("writing scorecard csv: %w", err)
	}
	log.Infow("wrote metrics", "dir", outDir)
	return nil
}

func rowsByTarget(rows []types.TriageRow) map[string][]types.TriageRow {
	byTarget := make(map[string][]types.TriageRow)
	for _, row := range rows {
		byTarget[row.Target] = append(byTarget[row.Target], row)
	}
	return byTarget
}
