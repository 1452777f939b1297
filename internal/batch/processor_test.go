package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/seenimoa/varscope/internal/account"
	"github.com/seenimoa/varscope/internal/analysis"
	"github.com/seenimoa/varscope/internal/config"
	"github.com/seenimoa/varscope/internal/loader"
	"github.com/seenimoa/varscope/pkg/models"
)

const goodCSV = `account_code,name,2024-Q3,2024-Q4
112227001,Cash Deposits,1000000,2500000
511100001,Revenue,800000,810000
632100001,Depreciation,100000,103000
`

// onePeriodCSV loads fine but fails validation: variance analysis needs
// at least two periods.
const onePeriodCSV = `account_code,name,2024-Q4
112227001,Cash Deposits,2500000
511100001,Revenue,810000
632100001,Depreciation,103000
`

func testProcessor(t *testing.T, concurrency int) *Processor {
	t.Helper()
	cfg := config.Default()
	pipeline, err := analysis.NewPipeline(cfg)
	if err != nil {
		t.Fatalf("building pipeline: %v", err)
	}
	ld := loader.NewLoader(account.NewMapper(cfg.Accounts), nil)
	return NewProcessor(pipeline, ld, concurrency, nil)
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestRunMixedSuccessAndFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", goodCSV)
	b := writeCSV(t, dir, "b.csv", goodCSV)
	missing := filepath.Join(dir, "missing.csv")

	p := testProcessor(t, 2)
	results, summary, err := p.Run(context.Background(), []string{b, missing, a})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !sort.SliceIsSorted(results, func(i, j int) bool { return results[i].Path < results[j].Path }) {
		t.Error("results not sorted by path")
	}

	for _, fr := range results {
		switch fr.Path {
		case missing:
			if fr.Err == nil {
				t.Error("missing file should carry an error")
			}
		default:
			if fr.Err != nil {
				t.Errorf("%s: unexpected error %v", fr.Path, fr.Err)
			}
			if len(fr.Result.Anomalies) == 0 {
				t.Errorf("%s: expected anomalies from the 150%% cash swing", fr.Path)
			}
		}
	}

	if summary.Files != 3 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 3 files 1 failed", summary)
	}
	if summary.TotalAnomalies == 0 {
		t.Error("summary should count anomalies from the good files")
	}
	if summary.BySeverity[models.SeverityCritical] == 0 {
		t.Error("150%% cash variance should register as critical")
	}
}

func TestRunValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "short.csv", onePeriodCSV)

	p := testProcessor(t, 1)
	results, summary, err := p.Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	fr := results[0]
	if fr.Err == nil || !strings.Contains(fr.Err.Error(), "not analyzable") {
		t.Errorf("err = %v, want validation failure", fr.Err)
	}
	if len(fr.Issues) == 0 {
		t.Error("validation issues should be preserved on the result")
	}
	if summary.Failed != 1 {
		t.Errorf("summary.Failed = %d, want 1", summary.Failed)
	}
}

func TestRunProgressEvents(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", goodCSV)
	bad := filepath.Join(dir, "absent.csv")

	p := testProcessor(t, 2)

	var mu sync.Mutex
	stages := map[string][]string{}
	p.OnProgress(func(e Event) {
		mu.Lock()
		stages[e.File] = append(stages[e.File], e.Stage)
		mu.Unlock()
	})

	if _, _, err := p.Run(context.Background(), []string{good, bad}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantGood := []string{"loading", "analyzing", "done"}
	if got := stages[good]; len(got) != len(wantGood) || got[0] != "loading" || got[2] != "done" {
		t.Errorf("good file stages = %v, want %v", got, wantGood)
	}
	if got := stages[bad]; len(got) != 2 || got[1] != "failed" {
		t.Errorf("bad file stages = %v, want [loading failed]", got)
	}
}

func TestRunCancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "a.csv", goodCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := testProcessor(t, 1)
	_, _, err := p.Run(ctx, []string{path})
	if err == nil || !strings.Contains(err.Error(), "batch cancelled") {
		t.Errorf("err = %v, want cancellation", err)
	}
}

func TestRunEmptyPaths(t *testing.T) {
	p := testProcessor(t, 4)
	results, summary, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 0 || summary.Files != 0 {
		t.Errorf("empty batch produced %d results, summary %+v", len(results), summary)
	}
}

func TestNewProcessorClampsConcurrency(t *testing.T) {
	p := testProcessor(t, 0)
	if p.concurrency != 1 {
		t.Errorf("concurrency = %d, want clamp to 1", p.concurrency)
	}
}

func TestSummarize(t *testing.T) {
	results := []FileResult{
		{Path: "a", Result: analysis.Result{Anomalies: []models.Anomaly{
			{Severity: models.SeverityCritical},
			{Severity: models.SeverityLow},
		}}},
		{Path: "b", Err: os.ErrNotExist},
	}
	s := summarize(results)
	if s.Files != 2 || s.Failed != 1 || s.TotalAnomalies != 2 {
		t.Errorf("summary = %+v", s)
	}
	if s.BySeverity[models.SeverityCritical] != 1 || s.BySeverity[models.SeverityLow] != 1 {
		t.Errorf("by severity = %+v", s.BySeverity)
	}
}
