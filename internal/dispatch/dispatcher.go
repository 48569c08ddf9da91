package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"livecap/internal/capture"
	"livecap/internal/lockstore"
	"livecap/internal/logging"
	"livecap/internal/registry"
	"livecap/internal/services"
)

const component = "dispatch"

// JobRunner runs one capture to completion. The source's marker is held when
// Launch is called and Launch must release it.
type JobRunner interface {
	Launch(ctx context.Context, src registry.Source) capture.Result
}

// CycleReport lists what a single poll cycle did, by source id.
type CycleReport struct {
	Sources    []string
	Dispatched []string
	Skipped    []string
	Failed     []string
}

// Dispatcher owns the poll loop.
type Dispatcher struct {
	store    lockstore.Store
	registry registry.Reader
	runner   JobRunner
	logger   *slog.Logger

	pollInterval time.Duration
	stagger      time.Duration
	maxJobs      int
	runID        string
	sleep        func(context.Context, time.Duration) error
	now          func() time.Time

	mu     sync.Mutex
	active map[string]int
	wg     sync.WaitGroup

	// problems holds the last reported configuration problem per source so
	// a bad entry warns once instead of every cycle.
	problems map[string]string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPollInterval sets the pause after each full registry scan.
func WithPollInterval(d time.Duration) Option {
	return func(dp *Dispatcher) {
		if d >= 0 {
			dp.pollInterval = d
		}
	}
}

// WithStaggerDelay sets the pause after each successful dispatch.
func WithStaggerDelay(d time.Duration) Option {
	return func(dp *Dispatcher) {
		if d >= 0 {
			dp.stagger = d
		}
	}
}

// WithMaxConcurrentJobs bounds running jobs. Zero means unbounded.
func WithMaxConcurrentJobs(n int) Option {
	return func(dp *Dispatcher) {
		if n >= 0 {
			dp.maxJobs = n
		}
	}
}

// WithRunID stamps markers and job contexts with the orchestrator run id.
func WithRunID(id string) Option {
	return func(dp *Dispatcher) {
		dp.runID = id
	}
}

// WithSleep replaces the cancellable sleep, for tests.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(dp *Dispatcher) {
		if fn != nil {
			dp.sleep = fn
		}
	}
}

// WithClock replaces the wall clock used for marker timestamps.
func WithClock(fn func() time.Time) Option {
	return func(dp *Dispatcher) {
		if fn != nil {
			dp.now = fn
		}
	}
}

// New constructs a Dispatcher with the default pacing (3s poll, 1s stagger,
// unbounded jobs).
func New(store lockstore.Store, reg registry.Reader, runner JobRunner, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:        store,
		registry:     reg,
		runner:       runner,
		logger:       logging.NewComponentLogger(logger, component),
		pollInterval: 3 * time.Second,
		stagger:      time.Second,
		sleep:        sleepContext,
		now:          time.Now,
		active:       make(map[string]int),
		problems:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Recover removes every marker left by a previous process. Failure is
// returned for the caller to log; it does not prevent the loop from running.
func (d *Dispatcher) Recover(ctx context.Context) error {
	logger := logging.WithContext(ctx, d.logger)
	removed, err := d.store.ClearAll()
	if err != nil {
		logging.WarnWithContext(logger, "startup recovery incomplete; some markers remain", "recovery_failed",
			logging.Error(err),
			logging.Int("removed", removed),
			logging.String(logging.FieldErrorHint, "check lock_dir permissions, then "+lockstore.ManualClearHint()),
			logging.String(logging.FieldImpact, "sources with remaining markers will not be captured"),
		)
		return err
	}
	logger.Info("startup recovery complete",
		logging.Int("removed", removed),
		logging.String(logging.FieldEventType, "recovery_complete"),
	)
	return nil
}

// Run polls until ctx is cancelled or the registry cannot be read. It returns
// nil on cancellation and the registry error otherwise. Jobs still running
// when Run returns are left alone.
func (d *Dispatcher) Run(ctx context.Context) error {
	logger := logging.WithContext(ctx, d.logger)
	logger.Info("dispatcher started",
		logging.Duration("poll_interval", d.pollInterval),
		logging.Duration("stagger_delay", d.stagger),
		logging.Int("max_concurrent_jobs", d.maxJobs),
		logging.String(logging.FieldEventType, "dispatcher_started"),
	)
	for {
		report, err := d.Cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("dispatcher stopped", logging.Int("active_jobs", d.Active()))
				return nil
			}
			logging.ErrorWithContext(logger, "registry unavailable; stopping", "registry_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.String(logging.FieldErrorHint, "fix the registry file and restart livecap"),
			)
			return err
		}
		logger.Debug("poll cycle complete",
			logging.Int("sources", len(report.Sources)),
			logging.Any("dispatched", report.Dispatched),
			logging.Any("skipped", report.Skipped),
			logging.Any("failed", report.Failed),
			logging.Int("active_jobs", d.Active()),
			logging.String(logging.FieldEventType, "cycle_complete"),
		)
		if err := d.sleep(ctx, d.pollInterval); err != nil {
			logger.Info("dispatcher stopped", logging.Int("active_jobs", d.Active()))
			return nil
		}
	}
}

// Cycle performs one scan of the registry.
func (d *Dispatcher) Cycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport
	sources, err := d.registry.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if !errors.Is(err, services.ErrRegistry) {
			err = services.Wrap(services.ErrRegistry, component, "read registry", "", err)
		}
		return report, err
	}

	for _, src := range sources {
		report.Sources = append(report.Sources, src.ID)
	}
	usable, rejected := registry.Screen(sources)
	current := make(map[string]string, len(rejected))
	for _, r := range rejected {
		report.Skipped = append(report.Skipped, r.Source.ID)
		current[r.Source.ID] = r.Reason
		if d.noteProblem(r.Source.ID, r.Reason) {
			logging.WarnWithContext(logging.WithContext(services.WithSourceID(ctx, r.Source.ID), d.logger),
				"registry entry unusable; source skipped", "source_rejected",
				logging.String("reason", r.Reason),
				logging.String(logging.FieldErrorHint, "fix the entry in the registry file"),
				logging.String(logging.FieldImpact, "other sources are unaffected"),
			)
		}
	}

	for _, src := range usable {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		logger := logging.WithContext(services.WithSourceID(ctx, src.ID), d.logger)

		held, err := d.store.Exists(src.ID)
		if err != nil {
			report.Failed = append(report.Failed, src.ID)
			if errors.Is(err, lockstore.ErrInvalidID) {
				current[src.ID] = lockstore.ErrInvalidID.Error()
				if d.noteProblem(src.ID, lockstore.ErrInvalidID.Error()) {
					logging.WarnWithContext(logger, "source id cannot name a lock marker; source skipped", "source_id_invalid",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "rename the source using letters, digits, dashes, or underscores"),
						logging.String(logging.FieldImpact, "other sources are unaffected"),
					)
				}
				continue
			}
			logging.WarnWithContext(logger, "lock check failed; source skipped this cycle", "lock_check_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check lock_dir permissions"),
				logging.String(logging.FieldImpact, "source retried next cycle"),
			)
			continue
		}
		if held {
			report.Skipped = append(report.Skipped, src.ID)
			logger.Debug("source locked; capture presumed running", logging.String(logging.FieldEventType, "source_locked"))
			continue
		}
		if d.maxJobs > 0 && d.Active() >= d.maxJobs {
			report.Skipped = append(report.Skipped, src.ID)
			logger.Debug("concurrency limit reached; source deferred",
				logging.Int("max_concurrent_jobs", d.maxJobs),
				logging.String(logging.FieldEventType, "source_deferred"),
			)
			continue
		}

		marker := lockstore.NewMarker(src.ID, src.Address, d.runID, d.now())
		if err := d.store.Acquire(src.ID, marker); err != nil {
			if errors.Is(err, lockstore.ErrHeld) {
				report.Skipped = append(report.Skipped, src.ID)
				logger.Debug("marker appeared before acquire; source skipped", logging.String(logging.FieldEventType, "source_locked"))
				continue
			}
			report.Failed = append(report.Failed, src.ID)
			logging.WarnWithContext(logger, "lock acquire failed; source skipped this cycle", "lock_acquire_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check lock_dir permissions and free space"),
				logging.String(logging.FieldImpact, "source retried next cycle"),
			)
			continue
		}

		d.spawn(ctx, src)
		report.Dispatched = append(report.Dispatched, src.ID)
		logger.Info("capture dispatched",
			logging.String(logging.FieldSessionID, capture.SessionID(src.Address)),
			logging.String(logging.FieldEventType, "capture_dispatched"),
		)
		if err := d.sleep(ctx, d.stagger); err != nil {
			return report, err
		}
	}
	d.forgetResolved(current)
	return report, nil
}

// noteProblem records reason for id and reports whether it is new.
func (d *Dispatcher) noteProblem(id, reason string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.problems[id] == reason {
		return false
	}
	d.problems[id] = reason
	return true
}

// forgetResolved drops problems that no longer occur, so a source that breaks
// again later is reported again.
func (d *Dispatcher) forgetResolved(current map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.problems {
		if _, ok := current[id]; !ok {
			delete(d.problems, id)
		}
	}
}

// spawn launches the job detached from ctx cancellation: a dispatched
// capture runs until its executor exits.
func (d *Dispatcher) spawn(ctx context.Context, src registry.Source) {
	jobCtx := context.WithoutCancel(services.WithRunID(services.WithSourceID(ctx, src.ID), d.runID))
	d.mu.Lock()
	d.active[src.ID]++
	d.mu.Unlock()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			if d.active[src.ID]--; d.active[src.ID] <= 0 {
				delete(d.active, src.ID)
			}
			d.mu.Unlock()
		}()
		d.runner.Launch(jobCtx, src)
	}()
}

// Active returns the number of jobs launched by this dispatcher that have not
// returned yet.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, count := range d.active {
		n += count
	}
	return n
}

// ActiveSources returns the ids of running jobs.
func (d *Dispatcher) ActiveSources() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.active))
	for id := range d.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Wait blocks until every launched job has returned. The loop itself never
// calls it.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
