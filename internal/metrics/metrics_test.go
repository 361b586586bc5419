package metrics

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/appsecsanta/research/pkg/types"
)

func TestExtractStats(t *testing.T) {
	triage := map[string][]types.TriageRow{
		"myapp": {
			{Tools: []string{"bandit", "zap"}, CWE: "CWE-89", Verdict: types.VerdictTP},
			{Tools: []string{"bandit"}, CWE: "CWE-79", Verdict: types.VerdictFP},
			{Tools: []string{"zap"}, CWE: "CWE-22", Verdict: types.VerdictPending},
			{Tools: []string{"bandit"}, CWE: "", Verdict: types.VerdictTP},
		},
	}
	stats := ExtractStats(triage)

	bandit := stats[ToolTarget{Tool: "bandit", Target: "myapp"}]
	if bandit == nil || bandit.TP != 2 || bandit.FP != 1 {
		t.Fatalf("bandit stats = %+v, want TP=2 FP=1", bandit)
	}
	if !bandit.TPCWEs["CWE-89"] || len(bandit.TPCWEs) != 1 {
		t.Errorf("bandit TP CWEs = %v, want only CWE-89 (empty CWE not recorded)", bandit.TPCWEs)
	}

	zapStats := stats[ToolTarget{Tool: "zap", Target: "myapp"}]
	if zapStats.TP != 1 || zapStats.FP != 0 {
		t.Errorf("zap stats = %+v, want TP=1 FP=0 (pending rows contribute nothing)", zapStats)
	}
}

func TestSummaryExactValues(t *testing.T) {
	tpCWEs := make(map[string]bool)
	gt := []types.GroundTruthEntry{}
	for _, cwe := range []string{"CWE-1", "CWE-2", "CWE-3", "CWE-4", "CWE-5", "CWE-6", "CWE-7", "CWE-8"} {
		tpCWEs[cwe] = true
		gt = append(gt, types.GroundTruthEntry{Target: "myapp", CWE: cwe})
	}
	gt = append(gt,
		types.GroundTruthEntry{Target: "myapp", CWE: "CWE-9"},
		types.GroundTruthEntry{Target: "myapp", CWE: "CWE-10"},
	)

	stats := map[ToolTarget]*Stats{
		{Tool: "bandit", Target: "myapp"}: {TP: 8, FP: 2, TPCWEs: tpCWEs},
	}
	rows := Summary(stats, map[string][]types.GroundTruthEntry{"myapp": gt}, nil)

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.FN != 2 {
		t.Errorf("FN = %d, want 2", r.FN)
	}
	if r.Precision != 0.8 || r.Recall != 0.8 || r.F1 != 0.8 {
		t.Errorf("P/R/F1 = %v/%v/%v, want 0.8/0.8/0.8", r.Precision, r.Recall, r.F1)
	}
	if r.TotalFindings != 10 {
		t.Errorf("total_findings = %d, want 10", r.TotalFindings)
	}
}

func TestSummaryZeroDenominators(t *testing.T) {
	stats := map[ToolTarget]*Stats{
		{Tool: "quiet", Target: "myapp"}: {TP: 0, FP: 0, TPCWEs: map[string]bool{}},
		{Tool: "noisy", Target: "myapp"}: {TP: 0, FP: 3, TPCWEs: map[string]bool{}},
	}
	gt := map[string][]types.GroundTruthEntry{"myapp": {}}

	rows := Summary(stats, gt, nil)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, r := range rows {
		if r.Precision != 0.0 || r.Recall != 0.0 || r.F1 != 0.0 {
			t.Errorf("%s: P/R/F1 = %v/%v/%v, want all 0.0", r.Tool, r.Precision, r.Recall, r.F1)
		}
	}
}

func TestSummaryFNAtCWEGranularity(t *testing.T) {
	// Three planted instances of CWE-79; finding one TP of that class
	// covers all three entries.
	gt := map[string][]types.GroundTruthEntry{
		"myapp": {
			{Target: "myapp", CWE: "CWE-79"},
			{Target: "myapp", CWE: "CWE-79"},
			{Target: "myapp", CWE: "CWE-79"},
			{Target: "myapp", CWE: "CWE-89"},
		},
	}
	stats := map[ToolTarget]*Stats{
		{Tool: "bandit", Target: "myapp"}: {TP: 1, FP: 0, TPCWEs: map[string]bool{"CWE-79": true}},
	}
	rows := Summary(stats, gt, nil)
	if rows[0].FN != 1 {
		t.Errorf("FN = %d, want 1 (only the CWE-89 entry is missed)", rows[0].FN)
	}
}

func TestSummarySkipsUnscannedTargets(t *testing.T) {
	stats := map[ToolTarget]*Stats{
		{Tool: "bandit", Target: "myapp"}: {TP: 1, TPCWEs: map[string]bool{"CWE-1": true}},
	}
	gt := map[string][]types.GroundTruthEntry{
		"myapp": {{Target: "myapp", CWE: "CWE-1"}},
		"other": {{Target: "other", CWE: "CWE-2"}},
	}
	rows := Summary(stats, gt, nil)
	if len(rows) != 1 || rows[0].Target != "myapp" {
		t.Fatalf("rows = %+v, want only the scanned target", rows)
	}
}

func TestSummarySpeedJoin(t *testing.T) {
	stats := map[ToolTarget]*Stats{
		{Tool: "bandit", Target: "myapp"}: {TP: 1, TPCWEs: map[string]bool{}},
	}
	gt := map[string][]types.GroundTruthEntry{"myapp": {}}
	speed := map[ToolTarget]float64{{Tool: "bandit", Target: "myapp"}: 12.5}

	rows := Summary(stats, gt, speed)
	if rows[0].ScanDuration != "12.5" {
		t.Errorf("duration = %q, want 12.5", rows[0].ScanDuration)
	}
}

func TestCoverageCountsPerEntry(t *testing.T) {
	gt := map[string][]types.GroundTruthEntry{
		"a": {
			{Target: "a", CWE: "CWE-79"},
			{Target: "a", CWE: "CWE-79"},
			{Target: "a", CWE: "CWE-89"},
		},
		"b": {{Target: "b", CWE: "CWE-79"}},
	}
	stats := map[ToolTarget]*Stats{
		{Tool: "bandit", Target: "a"}: {TP: 2, TPCWEs: map[string]bool{"CWE-79": true}},
		{Tool: "bandit", Target: "b"}: {TP: 0, TPCWEs: map[string]bool{}},
	}
	rows := Coverage(stats, gt)

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	xss := rows[0]
	if xss.CWE != "CWE-79" {
		t.Fatalf("rows not sorted by cwe: %+v", rows)
	}
	// both duplicated entries on target a count, the entry on b is missed
	if xss.FoundCount != 2 || xss.MissedCount != 1 || xss.TotalInGroundTruth != 3 {
		t.Errorf("CWE-79 coverage = %+v, want found=2 missed=1 total=3", xss)
	}
	if xss.CoveragePct != 66.7 {
		t.Errorf("coverage_pct = %v, want 66.7", xss.CoveragePct)
	}
	sqli := rows[1]
	if sqli.FoundCount != 0 || sqli.CoveragePct != 0.0 {
		t.Errorf("CWE-89 coverage = %+v, want zero", sqli)
	}
}

func TestScorecardMacroAverage(t *testing.T) {
	summary := []SummaryRow{
		{Tool: "bandit", Target: "a", TP: 8, FP: 2, FN: 2, Precision: 0.8, Recall: 0.8, F1: 0.8},
		{Tool: "bandit", Target: "b", TP: 2, FP: 3, FN: 3, Precision: 0.4, Recall: 0.4, F1: 0.4},
		{Tool: "zap", Target: "a", TP: 1, FP: 0, FN: 9, Precision: 1.0, Recall: 0.1, F1: 0.182},
	}
	coverage := []CoverageRow{
		{Tool: "bandit", CWE: "CWE-79", FoundCount: 2},
		{Tool: "bandit", CWE: "CWE-89", FoundCount: 1},
		{Tool: "bandit", CWE: "CWE-22", FoundCount: 0},
		{Tool: "zap", CWE: "CWE-79", FoundCount: 1},
	}

	rows := Scorecard(summary, coverage)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	bandit := rows[0]
	if bandit.Tool != "bandit" {
		t.Fatalf("rows not sorted by avg F1: %+v", rows)
	}
	if bandit.AvgPrecision != 0.6 || bandit.AvgRecall != 0.6 || bandit.AvgF1 != 0.6 {
		t.Errorf("averages = %v/%v/%v, want 0.6/0.6/0.6", bandit.AvgPrecision, bandit.AvgRecall, bandit.AvgF1)
	}
	if bandit.TotalTP != 10 || bandit.TotalFP != 5 || bandit.TotalFN != 5 {
		t.Errorf("totals = %+v", bandit)
	}
	if bandit.TargetsScanned != 2 {
		t.Errorf("targets_scanned = %d, want 2", bandit.TargetsScanned)
	}
	if bandit.UniqueCWEsFound != 2 {
		t.Errorf("unique_cwes_found = %d, want 2 (zero-found rows excluded)", bandit.UniqueCWEsFound)
	}
}

func TestSplitTools(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"bandit|zap", []string{"bandit", "zap"}},
		{"bandit,zap", []string{"bandit", "zap"}},
		{"Bandit | ZAP", []string{"bandit", "zap"}},
		{"bandit", []string{"bandit"}},
		{"", nil},
		{"  ", nil},
	}
	for _, tt := range tests {
		if got := SplitTools(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitTools(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadTriageDirPrefersFinal(t *testing.T) {
	dir := t.TempDir()
	header := "finding_group_id,tools,target,cwe,severity,location,description,verdict,confidence,ground_truth_match,tool_count\n"
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("myapp-auto.csv", header+"GRP-myapp-CWE-89-001,bandit,myapp,CWE-89,high,login.py,SQLi,pending,low,no,1\n")
	write("myapp-final.csv", header+"GRP-myapp-CWE-89-001,bandit,myapp,CWE-89,high,login.py,SQLi,FP,high,no,1\n")
	write("other-auto.csv", header+"GRP-other-CWE-79-001,bearer|zap,other,CWE-79,medium,app.js,XSS,TP,high,yes,2\n")

	triage, err := LoadTriageDir(dir, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("LoadTriageDir: %v", err)
	}
	if len(triage) != 2 {
		t.Fatalf("got %d targets, want 2", len(triage))
	}
	if got := triage["myapp"][0].Verdict; got != types.VerdictFP {
		t.Errorf("myapp verdict = %q, want FP from the validated file", got)
	}
	other := triage["other"][0]
	if !reflect.DeepEqual(other.Tools, []string{"bearer", "zap"}) {
		t.Errorf("tools = %v, want [bearer zap]", other.Tools)
	}
	if !other.GroundTruthMatch || other.ToolCount != 2 {
		t.Errorf("row = %+v", other)
	}
}

func TestLoadTriageDirMissing(t *testing.T) {
	if _, err := LoadTriageDir(filepath.Join(t.TempDir(), "nope"), zap.NewNop().Sugar()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLoadSpeed(t *testing.T) {
	if data, err := LoadSpeed(""); err != nil || len(data) != 0 {
		t.Fatalf("empty path should load nothing: %v %v", data, err)
	}
	path := filepath.Join(t.TempDir(), "speed.csv")
	content := "tool,target,duration_seconds\nBandit,myapp,42.5\nzap,myapp,bogus\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := LoadSpeed(path)
	if err != nil {
		t.Fatalf("LoadSpeed: %v", err)
	}
	if data[ToolTarget{Tool: "bandit", Target: "myapp"}] != 42.5 {
		t.Errorf("bandit duration = %v, want 42.5", data)
	}
	if data[ToolTarget{Tool: "zap", Target: "myapp"}] != 0 {
		t.Errorf("unparseable duration should fall back to 0")
	}
}
