package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"livecap/internal/api"
	"livecap/internal/capture"
	"livecap/internal/config"
	"livecap/internal/deps"
	"livecap/internal/dispatch"
	"livecap/internal/history"
	"livecap/internal/lockstore"
	"livecap/internal/logging"
	"livecap/internal/preflight"
	"livecap/internal/registry"
	"livecap/internal/services"
)

const component = "daemonrun"

// Options configures orchestrator process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Diagnostic  bool
}

// Run starts the orchestrator and blocks until a signal arrives, cmdCtx is
// cancelled, or the registry becomes unreadable. The registry and setup
// failures are returned; shutdown by signal returns nil.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return services.Wrap(services.ErrSetup, component, "run", "config is required", nil)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrSetup, component, "ensure directories", "", err)
	}

	// The instance lock comes before any log file is opened so a refused
	// second process leaves the running orchestrator's logs alone.
	instance, err := AcquireInstance(cfg.Paths.LockDir)
	if err != nil {
		return services.Wrap(services.ErrSetup, component, "startup",
			"instance lock unavailable; stop the other livecap process or point lock_dir elsewhere", err)
	}
	defer func() {
		if err := instance.Release(); err != nil {
			fmt.Fprintf(os.Stderr, "warn: instance lock release failed: %v\n", err)
		}
	}()

	runID := uuid.NewString()
	startedAt := time.Now()
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("livecap-%s.log", startedAt.UTC().Format("20060102T150405.000Z")))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
		RunID:            runID,
	})
	if err != nil {
		return services.Wrap(services.ErrSetup, component, "init logger", "", err)
	}

	if opts.Diagnostic {
		logger = attachDiagnosticLog(logger, cfg.Paths.LogDir, logPath, runID)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update livecap.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "livecap-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "debug"), Pattern: "livecap-*.log"},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return setupFailure(logger, "pid file not written", "check log_dir permissions", err)
	}
	defer os.Remove(pidPath)

	executor := deps.ResolveExecutor(cfg.Capture.Executor)
	logDependencySnapshot(logger, cfg, executor)
	if !executor.Available {
		return setupFailure(logger, "capture executor unavailable", "install ffmpeg or set capture.executor", errors.New(executor.Detail))
	}
	if results := preflight.RunAll(cfg, executor.Command); len(preflight.Failures(results)) > 0 {
		return setupFailure(logger, "preflight checks failed", "fix the reported paths and restart", errors.New(preflight.Summary(results)))
	}

	store := lockstore.NewDirStore(cfg.Paths.LockDir)
	runnerOpts := []capture.Option{
		capture.WithSettleDelay(cfg.SettleDelay()),
		capture.WithExtension(cfg.Capture.OutputExtension),
	}

	var journal *history.Store
	if cfg.History.Enabled {
		journal = openHistory(signalCtx, logger, cfg.History.Path, runID, cfg.Logging.RetentionDays)
		if journal != nil {
			defer journal.Close()
			runnerOpts = append(runnerOpts, capture.WithObserver(history.NewRecorder(journal, runID, logger)))
		}
	}

	runner := capture.NewRunner(store, capture.NewCommandExecutor(executor.Command, cfg.Capture.Args), cfg.Paths.OutputDir, logger, runnerOpts...)
	dispatcher := dispatch.New(store, registry.NewFileReader(cfg.Paths.RegistryPath), runner, logger,
		dispatch.WithPollInterval(cfg.PollInterval()),
		dispatch.WithStaggerDelay(cfg.StaggerDelay()),
		dispatch.WithMaxConcurrentJobs(cfg.Dispatch.MaxConcurrentJobs),
		dispatch.WithRunID(runID),
	)

	if cfg.API.Bind != "" {
		apiOpts := api.Options{
			Bind:      cfg.API.Bind,
			Token:     cfg.API.Token,
			Locks:     store,
			Active:    dispatcher,
			RunID:     runID,
			StartedAt: startedAt,
			Logger:    logger,
		}
		if journal != nil {
			apiOpts.History = journal
		}
		if err := api.NewServer(apiOpts).Start(signalCtx); err != nil {
			logging.WarnWithContext(logger, "status api disabled", "api_start_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check api.bind or clear it to disable the api"),
				logging.String(logging.FieldImpact, "captures continue; status is only available via the cli"),
			)
		}
	}

	ctx := services.WithRunID(signalCtx, runID)
	logger.Info("livecap started",
		logging.String("registry", cfg.Paths.RegistryPath),
		logging.String("lock_dir", cfg.Paths.LockDir),
		logging.String("output_dir", cfg.Paths.OutputDir),
		logging.String("log_path", logPath),
		logging.String(logging.FieldEventType, "orchestrator_started"),
	)
	// Recovery failure is logged by the dispatcher and is not fatal.
	_ = dispatcher.Recover(ctx)

	if err := dispatcher.Run(ctx); err != nil {
		return err
	}
	logger.Info("livecap shutting down",
		logging.Int("abandoned_jobs", dispatcher.Active()),
		logging.String(logging.FieldEventType, "orchestrator_stopped"),
	)
	return nil
}

func setupFailure(logger *slog.Logger, msg, hint string, err error) error {
	wrapped := services.Wrap(services.ErrSetup, component, "startup", msg, err)
	logging.ErrorWithContext(logger, msg, "setup_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
	)
	return wrapped
}

func openHistory(ctx context.Context, logger *slog.Logger, path, runID string, retentionDays int) *history.Store {
	journal, err := history.Open(path)
	if err != nil {
		logging.WarnWithContext(logger, "capture history disabled", "history_open_failed",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "check history.path or set history.enabled = false"),
			logging.String(logging.FieldImpact, "captures continue without a journal"),
		)
		return nil
	}
	if n, err := journal.MarkAbandoned(ctx, runID, time.Now()); err != nil {
		logger.Warn("history cleanup failed", logging.Error(err))
	} else if n > 0 {
		logger.Info("previous run left captures open; marked abandoned",
			logging.Int64("count", n),
			logging.String(logging.FieldEventType, "history_abandoned"),
		)
	}
	if retentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if n, err := journal.Prune(ctx, cutoff); err != nil {
			logger.Warn("history prune failed", logging.Error(err))
		} else if n > 0 {
			logger.Info("pruned capture history", logging.Int64("removed", n), logging.Int("retention_days", retentionDays))
		}
	}
	return journal
}

func attachDiagnosticLog(logger *slog.Logger, logDir, logPath, runID string) *slog.Logger {
	debugDir := filepath.Join(logDir, "debug")
	debugLogPath := filepath.Join(debugDir, filepath.Base(logPath))
	debugLogger, err := logging.New(logging.Options{
		Level:            "debug",
		Format:           "json",
		OutputPaths:      []string{debugLogPath},
		ErrorOutputPaths: []string{debugLogPath},
		Development:      true,
		RunID:            runID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", err)
		return logger
	}
	logger = logging.TeeLogger(logger, debugLogger.Handler())
	if err := ensureCurrentLogPointer(debugDir, debugLogPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update debug/livecap.log link: %v\n", err)
	}
	logger.Info("diagnostic mode enabled",
		logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
		logging.String("debug_log_path", debugLogPath),
	)
	return logger
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "livecap.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config, executor deps.Status) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("executor_available", executor.Available),
		logging.String("executor_binary", executor.Command),
		logging.String("executor_detail", executor.Detail),
		logging.Any("executor_args", cfg.Capture.Args),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.Bool("api_enabled", cfg.API.Bind != ""),
		logging.Int("max_concurrent_jobs", cfg.Dispatch.MaxConcurrentJobs),
	)
}
