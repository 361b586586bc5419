package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/appsecsanta/research/internal/report"
	"github.com/appsecsanta/research/internal/triage"
)

func newRunCmd() *cobra.Command {
	var resultsDir, groundTruthDir, outDir, speedPath, sarifPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run normalize, triage and score as one pass",
		Long: `run executes all three pipeline stages in-process, handing findings
and groups between stages in memory. Scoring uses the freshly computed
consensus verdicts; hand-validated -final.csv files only influence a
separate score invocation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Output.Dir
			}
			if sarifPath == "" {
				sarifPath = cfg.Output.SARIFFile
			}

			findings, reports, err := normalizeStage(cmd.Context(), cfg, log, resultsDir)
			if err != nil {
				return err
			}
			if err := writeNormalizeOutputs(outDir, resultsDir, findings, reports, log); err != nil {
				return err
			}

			groups, entries, err := triageStage(log, findings, groundTruthDir)
			if err != nil {
				return err
			}
			if err := writeTriageOutputs(outDir, groups, log); err != nil {
				return err
			}

			rows := triage.Rows(groups)
			summary, coverage, scorecard, err := scoreStage(log, rowsByTarget(rows), entries, speedPath)
			if err != nil {
				return err
			}
			if err := writeScoreOutputs(outDir, summary, coverage, scorecard, log); err != nil {
				return err
			}

			if sarifPath != "" {
				if err := report.WriteSARIF(sarifPath, groups); err != nil {
					return fmt.Errorf("writing sarif file: %w", err)
				}
				log.Infow("wrote sarif export", "path", sarifPath)
			}

			report.NewTerminalWriter(os.Stdout, cfg.Output.NoColor).WriteScorecard(scorecard)
			return nil
		},
	}

	cmd.Flags().StringVar(&resultsDir, "results", "", "directory of raw scanner output")
	cmd.Flags().StringVar(&groundTruthDir, "ground-truth", "", "directory of per-target ground-truth CSVs")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	cmd.Flags().StringVar(&speedPath, "speed", "", "scan timing CSV (tool,target,duration_seconds)")
	cmd.Flags().StringVar(&sarifPath, "sarif", "", "write SARIF export of triage groups")
	_ = cmd.MarkFlagRequired("results")
	_ = cmd.MarkFlagRequired("ground-truth")

	return cmd
}
