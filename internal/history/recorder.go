package history

import (
	"context"
	"log/slog"

	"livecap/internal/capture"
	"livecap/internal/logging"
)

// Recorder journals capture lifecycle events. It implements capture.Observer.
type Recorder struct {
	store  *Store
	runID  string
	logger *slog.Logger
}

// NewRecorder returns an observer writing to store under runID.
func NewRecorder(store *Store, runID string, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		runID:  runID,
		logger: logging.NewComponentLogger(logger, "history"),
	}
}

func (r *Recorder) JobStarted(ctx context.Context, job capture.Job) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Begin(ctx, r.runID, job); err != nil {
		r.warn(ctx, "history begin failed", job.SourceID, err)
	}
}

func (r *Recorder) JobFinished(ctx context.Context, result capture.Result) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Finish(ctx, r.runID, result); err != nil {
		r.warn(ctx, "history finish failed", result.Job.SourceID, err)
	}
}

func (r *Recorder) warn(ctx context.Context, msg, sourceID string, err error) {
	logger := logging.WithContext(ctx, r.logger)
	logging.WarnWithContext(logger, msg, "history_write_failed",
		logging.String(logging.FieldSourceID, sourceID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check history.path permissions and disk space"),
		logging.String(logging.FieldImpact, "capture continues; the journal entry is incomplete"),
	)
}
