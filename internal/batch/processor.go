// Package batch runs the analysis pipeline across multiple input files.
// Files are processed concurrently; every run owns its snapshot and result
// collections, and the shared pipeline internals are read-only, so runs
// never share mutable state.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/varscope/internal/analysis"
	"github.com/seenimoa/varscope/internal/loader"
	"github.com/seenimoa/varscope/pkg/models"
)

// Event reports batch progress for one file.
type Event struct {
	File      string `json:"file"`
	Stage     string `json:"stage"` // "loading", "analyzing", "done", "failed"
	Anomalies int    `json:"anomalies,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FileResult is the outcome of one file's pipeline run.
type FileResult struct {
	Path   string          `json:"path"`
	Result analysis.Result `json:"result"`
	Issues []loader.Issue  `json:"issues,omitempty"`
	Err    error           `json:"-"`
}

// Summary aggregates a batch run across files.
type Summary struct {
	Files          int                     `json:"files"`
	Failed         int                     `json:"failed"`
	TotalAnomalies int                     `json:"total_anomalies"`
	BySeverity     map[models.Severity]int `json:"by_severity"`
}

// Processor runs the pipeline over batches of input files.
type Processor struct {
	pipeline    *analysis.Pipeline
	loader      *loader.Loader
	concurrency int
	log         *slog.Logger
	progress    func(Event)
}

// NewProcessor creates a batch processor. concurrency bounds the number of
// files analyzed in parallel; values below 1 mean sequential.
func NewProcessor(pipeline *analysis.Pipeline, ld *loader.Loader, concurrency int, log *slog.Logger) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Processor{pipeline: pipeline, loader: ld, concurrency: concurrency, log: log}
}

// OnProgress registers a progress callback invoked for every stage of
// every file. Must be set before Run; callbacks may arrive from multiple
// goroutines.
func (p *Processor) OnProgress(fn func(Event)) {
	p.progress = fn
}

// Run processes all paths and returns per-file results in path order plus
// an aggregate summary. A failing file is recorded, logged, and skipped;
// it never aborts the rest of the batch. Run returns an error only when
// the context is cancelled.
func (p *Processor) Run(ctx context.Context, paths []string) ([]FileResult, Summary, error) {
	results := make([]FileResult, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fr := p.processFile(path)
			mu.Lock()
			results[i] = fr
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, fmt.Errorf("batch cancelled: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, summarize(results), nil
}

func (p *Processor) processFile(path string) FileResult {
	p.emit(Event{File: path, Stage: "loading"})

	snap, err := p.loader.Load(path)
	if err != nil {
		p.log.Error("batch file failed to load", "file", path, "error", err)
		p.emit(Event{File: path, Stage: "failed", Error: err.Error()})
		return FileResult{Path: path, Err: err}
	}

	issues := loader.Validate(snap)
	if !loader.Analyzable(issues) {
		err := fmt.Errorf("snapshot not analyzable: %d validation issues", len(issues))
		p.log.Error("batch file failed validation", "file", path, "issues", len(issues))
		p.emit(Event{File: path, Stage: "failed", Error: err.Error()})
		return FileResult{Path: path, Issues: issues, Err: err}
	}

	p.emit(Event{File: path, Stage: "analyzing"})
	result := p.pipeline.Run(snap)

	p.log.Info("batch file analyzed", "file", path, "anomalies", len(result.Anomalies))
	p.emit(Event{File: path, Stage: "done", Anomalies: len(result.Anomalies)})
	return FileResult{Path: path, Result: result, Issues: issues}
}

func (p *Processor) emit(e Event) {
	if p.progress != nil {
		p.progress(e)
	}
}

func summarize(results []FileResult) Summary {
	s := Summary{
		Files:      len(results),
		BySeverity: make(map[models.Severity]int),
	}
	for _, fr := range results {
		if fr.Err != nil {
			s.Failed++
			continue
		}
		s.TotalAnomalies += len(fr.Result.Anomalies)
		for _, a := range fr.Result.Anomalies {
			s.BySeverity[a.Severity]++
		}
	}
	return s
}
