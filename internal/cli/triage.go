package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/appsecsanta/research/internal/cluster"
	"github.com/appsecsanta/research/internal/ingest"
	"github.com/appsecsanta/research/internal/report"
	"github.com/appsecsanta/research/internal/triage"
	"github.com/appsecsanta/research/pkg/types"
)

func newTriageCmd() *cobra.Command {
	var findingsPath, groundTruthDir, outDir string

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Cluster findings across tools and assign consensus verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Output.Dir
			}

			findings, err := ingest.ReadFindingsCSV(findingsPath, log)
			if err != nil {
				return err
			}
			if len(findings) == 0 {
				return fmt.Errorf("%w: %s holds no findings", ingest.ErrNoInput, findingsPath)
			}

			groups, _, err := triageStage(log, findings, groundTruthDir)
			if err != nil {
				return err
			}
			return writeTriageOutputs(outDir, groups, log)
		},
	}

	cmd.Flags().StringVar(&findingsPath, "findings", "", "normalized findings CSV")
	cmd.Flags().StringVar(&groundTruthDir, "ground-truth", "", "directory of per-target ground-truth CSVs")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	_ = cmd.MarkFlagRequired("findings")
	_ = cmd.MarkFlagRequired("ground-truth")

	return cmd
}

// triageStage clusters findings into groups and labels each group with the
// consensus verdict against the ground-truth index. The loaded ground-truth
// entries come back too so the run command can score without a second read.
func triageStage(log *zap.SugaredLogger, findings []types.Finding, groundTruthDir string) ([]types.FindingGroup, []types.GroundTruthEntry, error) {
	entries, err := triage.LoadGroundTruth(groundTruthDir, log)
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("%w: no ground-truth entries under %s", ingest.ErrNoInput, groundTruthDir)
	}
	log.Infow("loaded ground truth", "entries", len(entries))

	groups := cluster.Cluster(findings)
	triage.Label(groups, triage.BuildIndex(entries))
	log.Infow("clustered findings", "findings", len(findings), "groups", len(groups))
	return groups, entries, nil
}

func writeTriageOutputs(outDir string, groups []types.FindingGroup, log *zap.SugaredLogger) error {
	rows := triage.Rows(groups)
	paths, err := report.WriteTriageCSVs(outDir, rows)
	if err != nil {
		return err
	}

	summary := report.BuildConsensusSummary(groups)
	if err := report.WriteConsensusSummary(filepath.Join(outDir, "consensus-summary.json"), summary); err != nil {
		return fmt.Errorf("writing consensus summary: %w", err)
	}

	log.Infow("wrote triage outputs", "dir", outDir, "targets", len(paths), "groups", len(groups))
	return nil
}
