// Package analysis wires the three analysis stages into one pipeline run:
// variance analysis and correlation analysis over the snapshot, then
// anomaly synthesis over their combined output.
package analysis

import (
	"fmt"

	"github.com/seenimoa/varscope/internal/account"
	"github.com/seenimoa/varscope/internal/analysis/anomaly"
	"github.com/seenimoa/varscope/internal/analysis/correlation"
	"github.com/seenimoa/varscope/internal/analysis/rules"
	"github.com/seenimoa/varscope/internal/analysis/variance"
	"github.com/seenimoa/varscope/internal/config"
	"github.com/seenimoa/varscope/pkg/models"
)

// Result bundles the outputs of one pipeline run.
type Result struct {
	VarianceResults    []models.VarianceResult    `json:"variance_results"`
	CorrelationResults []models.CorrelationResult `json:"correlation_results"`
	Anomalies          []models.Anomaly           `json:"anomalies"`
	Stats              variance.SummaryStats      `json:"stats"`
}

// Pipeline is a reusable, stateless analysis pipeline. A single pipeline
// may serve concurrent runs: each run operates on its own snapshot and
// result collections, and the shared registry and mapper are read-only.
type Pipeline struct {
	analyzer *variance.Analyzer
	engine   *correlation.Engine
	detector *anomaly.Detector
	registry *rules.Registry
}

// NewPipeline builds the pipeline from configuration. It fails only on a
// contract-level configuration problem (an unusable severity table).
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	mapper := account.NewMapper(cfg.Accounts)
	registry := rules.NewRegistry()

	detector, err := anomaly.NewDetector(cfg, mapper, registry)
	if err != nil {
		return nil, fmt.Errorf("building anomaly detector: %w", err)
	}

	return &Pipeline{
		analyzer: variance.NewAnalyzer(cfg, mapper),
		engine:   correlation.NewEngine(cfg, mapper),
		detector: detector,
		registry: registry,
	}, nil
}

// Registry exposes the rule violation catalog for reporting and the API.
func (p *Pipeline) Registry() *rules.Registry {
	return p.registry
}

// Run executes the full pipeline over one snapshot. The run is a pure
// computation: it never fails and never mutates the snapshot.
func (p *Pipeline) Run(snap *models.Snapshot) Result {
	varianceResults := p.analyzer.Analyze(snap)
	correlationResults := p.engine.Analyze(snap)
	anomalies := p.detector.Detect(varianceResults, correlationResults, snap)

	return Result{
		VarianceResults:    varianceResults,
		CorrelationResults: correlationResults,
		Anomalies:          anomalies,
		Stats:              variance.Summarize(varianceResults),
	}
}
