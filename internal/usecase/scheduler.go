package usecase

import (
	"context"
	"time"

	"LinkedLens/internal/ports"
)

// Scheduler runs Pipeline.Analyze whenever its driver fires: once after the
// startup delay, then on the driver's interval if one is set.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
}

// NewScheduler pairs a timing driver with the pipeline it triggers.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline}
}

// Start arms the driver; each firing runs one analysis under ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(time.Time) {
		s.pipeline.Analyze(ctx)
	}

	return s.driver.Start(ctx, job)
}

// Stop cancels pending firings and waits for the driver to exit.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
