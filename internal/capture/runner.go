package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"livecap/internal/lockstore"
	"livecap/internal/logging"
	"livecap/internal/registry"
	"livecap/internal/services"
	"livecap/internal/textutil"
)

// Observer is notified when jobs start and finish. Implementations must not
// block for long; they run on the job goroutine.
type Observer interface {
	JobStarted(ctx context.Context, job Job)
	JobFinished(ctx context.Context, result Result)
}

// Runner executes capture jobs and releases their lock markers.
type Runner struct {
	store     lockstore.Store
	executor  Executor
	outputDir string
	extension string
	settle    time.Duration
	logger    *slog.Logger
	observers []Observer
	sleep     func(time.Duration)
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSettleDelay sets the pause after a successful capture before the
// marker is released.
func WithSettleDelay(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.settle = d
		}
	}
}

// WithExtension sets the output container extension (without the dot).
func WithExtension(ext string) Option {
	return func(r *Runner) {
		if ext = strings.TrimPrefix(strings.TrimSpace(ext), "."); ext != "" {
			r.extension = ext
		}
	}
}

// WithObserver registers an observer for job lifecycle events.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithSleep replaces the settle sleep, for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(r *Runner) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(fn func() time.Time) Option {
	return func(r *Runner) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRunner constructs a Runner writing into outputDir.
func NewRunner(store lockstore.Store, executor Executor, outputDir string, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		store:     store,
		executor:  executor,
		outputDir: outputDir,
		extension: "mkv",
		settle:    time.Second,
		logger:    logging.NewComponentLogger(logger, component),
		sleep:     time.Sleep,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prepare resolves the job for src and creates its output directory.
func (r *Runner) Prepare(src registry.Source, now time.Time) (Job, error) {
	name := textutil.SanitizeFileName(src.ID)
	job := Job{
		ID:        uuid.NewString(),
		SourceID:  src.ID,
		Address:   src.Address,
		SessionID: SessionID(src.Address),
		StartedAt: now,
	}
	if name == "" {
		return job, services.Wrap(services.ErrCapture, component, "prepare", fmt.Sprintf("invalid source id %q", src.ID), nil)
	}
	dir := filepath.Join(r.outputDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return job, services.Wrap(services.ErrCapture, component, "prepare", "create output directory", err)
	}
	job.OutputPath = filepath.Join(dir, fmt.Sprintf("%s_%s.%s", name, now.Format(TimestampLayout), r.extension))
	return job, nil
}

// Launch prepares and runs a job for src. The source's marker must already be
// held; it is released before Launch returns whatever happens.
func (r *Runner) Launch(ctx context.Context, src registry.Source) Result {
	job, err := r.Prepare(src, r.now())
	if err != nil {
		logger := r.jobLogger(ctx, job)
		logging.ErrorWithContext(logger, "capture could not start", "capture_prepare_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldErrorHint, "check output_dir permissions and free space"),
		)
		result := Result{Job: job, Outcome: OutcomeFailed, Err: err}
		result.ReleaseErr = r.release(logger, job)
		result.FinishedAt = r.now()
		r.notifyFinished(ctx, result)
		return result
	}
	return r.Run(ctx, job)
}

// Run executes a prepared job, then releases the source's marker.
func (r *Runner) Run(ctx context.Context, job Job) Result {
	ctx = services.WithSourceID(ctx, job.SourceID)
	ctx = services.WithSessionID(ctx, job.SessionID)
	logger := r.jobLogger(ctx, job)

	logger.Info("capture started",
		logging.String("output_path", job.OutputPath),
		logging.String(logging.FieldEventType, "capture_started"),
	)
	logger.Debug("capture address", logging.String("address", job.Address))
	for _, o := range r.observers {
		o.JobStarted(ctx, job)
	}

	result := Result{Job: job}
	if err := r.executor.Capture(ctx, job.Address, job.OutputPath); err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		logging.ErrorWithContext(logger, "capture failed", "capture_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String("output_path", job.OutputPath),
			logging.String(logging.FieldErrorHint, "source is retried on the next poll cycle"),
		)
	} else {
		result.Outcome = OutcomeSucceeded
		logger.Info("capture finished",
			logging.String("output_path", job.OutputPath),
			logging.Duration("elapsed", r.now().Sub(job.StartedAt).Round(time.Second)),
			logging.String(logging.FieldEventType, "capture_finished"),
		)
		if r.settle > 0 {
			r.sleep(r.settle)
		}
	}

	result.ReleaseErr = r.release(logger, job)
	result.FinishedAt = r.now()
	r.notifyFinished(ctx, result)
	return result
}

func (r *Runner) release(logger *slog.Logger, job Job) error {
	if err := r.store.Release(job.SourceID); err != nil {
		logging.WarnWithContext(logger, "lock release failed; source stays locked", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, lockstore.ManualClearHint(job.SourceID)),
			logging.String(logging.FieldImpact, "source will not be captured again until the marker is removed"),
		)
		return err
	}
	logger.Debug("lock released", logging.String(logging.FieldEventType, "lock_released"))
	return nil
}

func (r *Runner) notifyFinished(ctx context.Context, result Result) {
	for _, o := range r.observers {
		o.JobFinished(ctx, result)
	}
}

func (r *Runner) jobLogger(ctx context.Context, job Job) *slog.Logger {
	logger := logging.WithContext(ctx, r.logger)
	if _, ok := services.SourceIDFromContext(ctx); !ok {
		logger = logger.With(logging.String(logging.FieldSourceID, job.SourceID))
	}
	return logger
}
