package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"LinkedLens/internal/domain"
	"LinkedLens/internal/ports"
)

// Outcome describes how an analysis run ended.
type Outcome string

const (
	// OutcomeSkipped means another run was already in flight.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeEmpty means extraction found nothing; previous results are kept.
	OutcomeEmpty Outcome = "empty"
	// OutcomeFailed means classification failed; previous results are kept.
	OutcomeFailed Outcome = "failed"
	// OutcomeClassified means posts were replaced and annotated.
	OutcomeClassified Outcome = "classified"
)

// PipelineDeps wires all driven adapters into the analysis pipeline.
type PipelineDeps struct {
	Extractor  ports.PostExtractor
	Classifier ports.Classifier
	Annotator  ports.Annotator
	Metrics    ports.Metrics
	State      *State
	Logger     *slog.Logger
}

// Pipeline implements the extract, classify, merge, render workflow.
type Pipeline struct {
	extractor  ports.PostExtractor
	classifier ports.Classifier
	annotator  ports.Annotator
	metrics    ports.Metrics
	state      *State
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	state := deps.State
	if state == nil {
		state = NewState()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		annotator:  deps.Annotator,
		metrics:    deps.Metrics,
		state:      state,
		logger:     logger,
	}
}

// State exposes the state the pipeline mutates.
func (p *Pipeline) State() *State {
	return p.state
}

// Analyze runs one cycle. A call made while another run is in flight returns
// OutcomeSkipped without touching state. Errors never escape: they end up in
// the state's last error.
func (p *Pipeline) Analyze(ctx context.Context) (outcome Outcome) {
	if !p.state.begin() {
		p.logger.Debug("analysis already in progress")
		return OutcomeSkipped
	}

	logger := p.logger.With("run_id", uuid.NewString())
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("analysis panicked", "panic", r)
			p.state.fail(fmt.Sprintf("Unexpected error: %v", r))
			outcome = OutcomeFailed
		}
		p.state.finish()
		if p.metrics != nil {
			p.metrics.RunFinished(string(outcome), time.Since(start))
		}
		logger.Info("analysis finished", "outcome", outcome, "duration", time.Since(start))
	}()

	posts := p.extractor.Extract()
	if len(posts) == 0 {
		logger.Warn("no posts to analyze")
		return OutcomeEmpty
	}

	results, err := p.classifier.Classify(ctx, posts)
	if err != nil {
		logger.Error("classification failed", "error", err, "posts", len(posts))
		p.state.fail(err.Error())
		return OutcomeFailed
	}

	posts = Merge(posts, results)
	stats := domain.ComputeStats(posts)
	p.state.commit(posts)

	if p.annotator != nil {
		p.annotator.Label(posts)
		if p.state.ShouldHide() {
			p.annotator.SetVisibility(posts, true)
		}
	}
	if p.metrics != nil {
		p.metrics.PostsClassified(stats)
	}

	logger.Info("posts classified", "total", stats.Total, "bait", stats.Bait, "genuine", stats.Genuine)
	return OutcomeClassified
}
