// Package pipeline coordinates the collect → merge → render → publish →
// notify flow for one report run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/haltiala/vahti/reconciler"
	"github.com/haltiala/vahti/telemetry"
	"github.com/haltiala/vahti/types"
)

// Collector produces the classified inventory records for the run.
type Collector interface {
	CollectSnapshot(ctx context.Context) ([]types.InventoryRecord, error)
	CollectDeletions(ctx context.Context) ([]types.InventoryRecord, error)
}

// Renderer writes the report workbook to a temporary file.
type Renderer interface {
	WriteTemp(records []types.InventoryRecord) (string, error)
}

// Publisher uploads the workbook and returns its object key and download URL.
type Publisher interface {
	Publish(ctx context.Context, path string, w types.ReportWindow) (key, url string, err error)
}

// Notifier sends the run summary email.
type Notifier interface {
	Notify(ctx context.Context, reportDate string, summary types.RunSummary, url string, generatedAt time.Time) error
}

// StageError identifies which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result summarizes one completed run.
type Result struct {
	Status           string
	ReportDate       string
	ReportKey        string
	ReportURL        string
	ResourcesTracked int
	Summary          types.RunSummary
	Duration         time.Duration
}

// Runner executes one report run end to end.
type Runner struct {
	collector Collector
	renderer  Renderer
	publisher Publisher
	notifier  Notifier
	window    types.ReportWindow
	logger    *telemetry.Logger

	// DryRun stops the run after rendering. The workbook path is logged
	// and nothing is uploaded or mailed.
	DryRun bool
}

// NewRunner assembles a runner from its collaborators.
func NewRunner(collector Collector, renderer Renderer, publisher Publisher, notifier Notifier, window types.ReportWindow) *Runner {
	return &Runner{
		collector: collector,
		renderer:  renderer,
		publisher: publisher,
		notifier:  notifier,
		window:    window,
		logger:    telemetry.NewLogger("pipeline"),
	}
}

// Run executes the pipeline. The first stage failure aborts the run; no
// notification is sent for a failed run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "report.run")
	defer span.End()

	started := time.Now()

	r.logger.WithContext(ctx).Info().
		Str("report_date", r.window.Date()).
		Msg("starting report run")

	records, err := r.collect(ctx)
	if err != nil {
		return r.fail(ctx, "collect", err)
	}

	path, err := r.render(ctx, records)
	if err != nil {
		return r.fail(ctx, "render", err)
	}

	summary := types.Summarize(records)

	if r.DryRun {
		r.logger.WithContext(ctx).Info().
			Str("report_path", path).
			Int("resources_tracked", len(records)).
			Msg("dry run complete, workbook kept on disk")
		return &Result{
			Status:           "SUCCESS",
			ReportDate:       r.window.Date(),
			ReportURL:        path,
			ResourcesTracked: len(records),
			Summary:          summary,
			Duration:         time.Since(started),
		}, nil
	}

	key, url, err := r.publish(ctx, path)
	if err != nil {
		return r.fail(ctx, "publish", err)
	}

	if err := r.notify(ctx, summary, url); err != nil {
		return r.fail(ctx, "notify", err)
	}

	duration := time.Since(started)
	r.recordRunMetrics(ctx, len(records), duration)
	r.logger.LogRunComplete(ctx, r.window.Date(), key, summary)

	return &Result{
		Status:           "SUCCESS",
		ReportDate:       r.window.Date(),
		ReportKey:        key,
		ReportURL:        url,
		ResourcesTracked: len(records),
		Summary:          summary,
		Duration:         duration,
	}, nil
}

func (r *Runner) collect(ctx context.Context) ([]types.InventoryRecord, error) {
	r.logger.LogStageStart(ctx, "collect")

	snapshot, err := r.collector.CollectSnapshot(ctx)
	if err != nil {
		r.logger.LogStageEnd(ctx, "collect", err)
		return nil, err
	}

	deletions, err := r.collector.CollectDeletions(ctx)
	if err != nil {
		r.logger.LogStageEnd(ctx, "collect", err)
		return nil, err
	}

	records := reconciler.Merge(snapshot, deletions)
	if telemetry.RecordsCollected != nil {
		telemetry.RecordsCollected.Add(ctx, int64(len(records)))
	}

	r.logger.LogStageEnd(ctx, "collect", nil)
	return records, nil
}

func (r *Runner) render(ctx context.Context, records []types.InventoryRecord) (string, error) {
	r.logger.LogStageStart(ctx, "render")
	path, err := r.renderer.WriteTemp(records)
	r.logger.LogStageEnd(ctx, "render", err)
	return path, err
}

func (r *Runner) publish(ctx context.Context, path string) (string, string, error) {
	r.logger.LogStageStart(ctx, "publish")
	key, url, err := r.publisher.Publish(ctx, path, r.window)
	r.logger.LogStageEnd(ctx, "publish", err)
	return key, url, err
}

func (r *Runner) notify(ctx context.Context, summary types.RunSummary, url string) error {
	r.logger.LogStageStart(ctx, "notify")
	err := r.notifier.Notify(ctx, r.window.Date(), summary, url, time.Now())
	r.logger.LogStageEnd(ctx, "notify", err)
	return err
}

func (r *Runner) fail(ctx context.Context, stage string, err error) (*Result, error) {
	if telemetry.RunsFailed != nil {
		telemetry.RunsFailed.Add(ctx, 1)
	}
	r.logger.WithContext(ctx).Error().
		Err(err).
		Str("stage", stage).
		Str("report_date", r.window.Date()).
		Msg("report run failed")
	return nil, &StageError{Stage: stage, Err: err}
}

func (r *Runner) recordRunMetrics(ctx context.Context, tracked int, duration time.Duration) {
	if telemetry.RunsCompleted != nil {
		telemetry.RunsCompleted.Add(ctx, 1)
	}
	if telemetry.RunDuration != nil {
		telemetry.RunDuration.Record(ctx, duration.Seconds())
	}
	if telemetry.ResourcesTracked != nil {
		telemetry.ResourcesTracked.Record(ctx, int64(tracked))
	}
}
