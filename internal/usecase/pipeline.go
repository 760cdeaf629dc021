package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/logging"
)

// PipelineDeps wires the three stages run by the scheduler.
type PipelineDeps struct {
	Ingestor   *Ingestor
	Summarizer *Summarizer
	Renderer   *Renderer

	IngestLimit    int
	SummarizeLimit int
	RenderLimit    int
	RenderFormat   string
	RenderOutput   string

	Logger *slog.Logger
}

// Pipeline runs ingestion, summarization and rendering back to back.
type Pipeline struct {
	deps   PipelineDeps
	logger *slog.Logger
}

// PipelineResult collects the stage reports of one run.
type PipelineResult struct {
	Ingest    domain.IngestReport
	Summarize domain.SummarizeReport
	Output    string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Pipeline{deps: deps, logger: log}
}

// RunOnce executes every configured stage in order and stops at the first
// failure.
func (p *Pipeline) RunOnce(ctx context.Context) (PipelineResult, error) {
	var result PipelineResult

	if p.deps.Ingestor != nil {
		report, err := p.deps.Ingestor.Run(ctx, p.deps.IngestLimit)
		result.Ingest = report
		if err != nil {
			return result, fmt.Errorf("ingest: %w", err)
		}
	}

	if p.deps.Summarizer != nil {
		report, err := p.deps.Summarizer.Run(ctx, p.deps.SummarizeLimit, "")
		result.Summarize = report
		if err != nil {
			return result, fmt.Errorf("summarize: %w", err)
		}
	}

	if p.deps.Renderer != nil {
		output, err := p.deps.Renderer.Render(ctx, p.deps.RenderLimit, p.deps.RenderFormat, p.deps.RenderOutput)
		result.Output = output
		if err != nil {
			return result, fmt.Errorf("render: %w", err)
		}
	}

	p.logger.Info("pipeline run finished",
		"inserted", result.Ingest.Inserted,
		"summarized", result.Summarize.Summarized,
		"output", result.Output)
	return result, nil
}
