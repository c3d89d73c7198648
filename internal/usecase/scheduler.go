package usecase

import (
	"context"

	"GTMMonitor/internal/ports"
)

// Scheduler wires the cron-like driver with the pipeline and trends jobs.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	trends   *TrendAggregator
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, trends *TrendAggregator) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, trends: trends}
}

// Start registers the configured jobs with the driver. Empty cron expressions
// disable the corresponding job.
func (s *Scheduler) Start(pipelineSpec, trendsSpec string) error {
	if s.driver == nil {
		return nil
	}

	if pipelineSpec != "" && s.pipeline != nil {
		job := func(ctx context.Context) error {
			_, err := s.pipeline.Run(ctx, false)
			return err
		}
		if err := s.driver.AddJob("pipeline", pipelineSpec, job); err != nil {
			return err
		}
	}

	if trendsSpec != "" && s.trends != nil {
		job := func(ctx context.Context) error {
			s.trends.Run(ctx)
			return nil
		}
		if err := s.driver.AddJob("trends", trendsSpec, job); err != nil {
			return err
		}
	}

	s.driver.Start()
	return nil
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
