package workers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/convgate/convgate/converters"
	"github.com/convgate/convgate/models"
	"github.com/convgate/convgate/utils"
)

// Runner owns the execution of admitted conversions: one submitted task per
// job, driving the backend and recording the outcome on the tracker. Errors
// inside the task are captured on the job, never raised; no caller is waiting.
type Runner struct {
	tracker *Tracker
	pool    *Pool
	opts    converters.Options
}

func NewRunner(tracker *Tracker, pool *Pool, opts converters.Options) *Runner {
	return &Runner{tracker: tracker, pool: pool, opts: opts}
}

// Launch submits the background execution unit for an admitted job. On a
// saturated queue the job is failed immediately and ErrQueueFull returned so
// the HTTP surface can answer with a retry hint.
func (r *Runner) Launch(jobID string, cat converters.Category, inputPath, target string) error {
	backend := converters.ForCategory(cat, r.opts)

	task := func(ctx context.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				utils.Sugar.Errorw("worker panic", "job_id", jobID, "panic", rec)
				r.tracker.Fail(jobID, fmt.Sprintf("internal error: %v", rec))
			}
		}()

		_ = r.tracker.Start(jobID)
		progress := func(percent int, message string) {
			r.tracker.Progress(jobID, percent, message)
		}

		outPath, err := backend.Convert(ctx, inputPath, target, progress)
		if err != nil {
			r.tracker.Fail(jobID, failureDetail(err))
			return
		}
		// Clients download by bare file name; the path never leaves the server.
		r.tracker.Complete(jobID, filepath.Base(outPath))
	}

	if err := r.pool.Submit(task); err != nil {
		r.tracker.Fail(jobID, "server is busy, retry later")
		return err
	}
	return nil
}

// failureDetail extracts the sanitized detail for the job record.
func failureDetail(err error) string {
	var convErr *models.ConversionError
	if errors.As(err, &convErr) {
		return convErr.Detail
	}
	if errors.Is(err, models.ErrUnsupportedPairing) {
		return models.ErrUnsupportedPairing.Error()
	}
	detail := err.Error()
	const limit = 300
	if len(detail) > limit {
		detail = detail[:limit] + "..."
	}
	return detail
}
