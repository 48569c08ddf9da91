package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"livecap/internal/config"
	"livecap/internal/daemonrun"
	"livecap/internal/deps"
	"livecap/internal/history"
	"livecap/internal/lockstore"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show orchestrator state, active markers, and recent captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			now := time.Now()

			fmt.Fprintln(out, renderSectionHeader("Orchestrator"))
			for _, line := range orchestratorLines(ctx, cfg, colorize) {
				fmt.Fprintln(out, line)
			}

			markers, err := lockstore.NewDirStore(cfg.Paths.LockDir).List()
			if err != nil {
				return fmt.Errorf("list markers: %w", err)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Active markers"))
			if len(markers) == 0 {
				fmt.Fprintln(out, "No active markers")
			} else {
				fmt.Fprintln(out, renderMarkers(markers, now))
			}

			if !cfg.History.Enabled {
				return nil
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Recent captures"))
			entries, err := recentCaptures(cmd, cfg, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No captures recorded")
				return nil
			}
			fmt.Fprintln(out, renderCaptures(entries, now))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "Number of recent captures to show")
	return cmd
}

func orchestratorLines(ctx *commandContext, cfg *config.Config, colorize bool) []string {
	lines := make([]string, 0, 4)

	configMsg := ctx.configPath
	if !ctx.configSeen {
		configMsg = "defaults (no file at " + ctx.configPath + ")"
	}
	lines = append(lines, renderStatusLine("Config", statusInfo, configMsg, colorize))

	running, err := daemonrun.InstanceRunning(cfg.Paths.LockDir)
	switch {
	case err != nil:
		lines = append(lines, renderStatusLine("Orchestrator", statusError, err.Error(), colorize))
	case running:
		msg := "running"
		if pid, pidErr := daemonrun.ReadPID(cfg.Paths.LogDir); pidErr == nil && pid > 0 {
			msg += " (pid " + strconv.Itoa(pid) + ")"
		}
		lines = append(lines, renderStatusLine("Orchestrator", statusOK, msg, colorize))
	default:
		lines = append(lines, renderStatusLine("Orchestrator", statusWarn, "not running", colorize))
	}

	executor := deps.ResolveExecutor(cfg.Capture.Executor)
	if executor.Available {
		lines = append(lines, renderStatusLine("Executor", statusOK, executor.Command, colorize))
	} else {
		lines = append(lines, renderStatusLine("Executor", statusError, executor.Detail, colorize))
	}

	lines = append(lines, renderStatusLine("Lock directory", statusInfo, cfg.Paths.LockDir, colorize))
	return lines
}

func renderMarkers(markers []lockstore.Marker, now time.Time) string {
	rows := make([][]string, 0, len(markers))
	for _, m := range markers {
		pid := "-"
		if m.PID > 0 {
			pid = strconv.Itoa(m.PID)
		}
		rows = append(rows, []string{
			m.ID,
			valueOrDash(m.Address),
			formatAge(m.Age(now)),
			pid,
			valueOrDash(shortRunID(m.RunID)),
		})
	}
	return renderTable(
		[]string{"Source", "Address", "Age", "PID", "Run"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func recentCaptures(cmd *cobra.Command, cfg *config.Config, limit int) ([]history.Entry, error) {
	if _, err := os.Stat(cfg.History.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat history: %w", err)
	}
	journal, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer journal.Close()
	entries, err := journal.Recent(cmd.Context(), limit)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

func renderCaptures(entries []history.Entry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		outcome := e.Outcome
		if e.ErrorKind != "" {
			outcome += " (" + e.ErrorKind + ")"
		}
		rows = append(rows, []string{
			formatTimestamp(e.StartedAt),
			e.SourceID,
			valueOrDash(e.SessionID),
			outcome,
			formatAge(e.Duration(now)),
			valueOrDash(e.OutputPath),
		})
	}
	return renderTable(
		[]string{"Started", "Source", "Session", "Outcome", "Duration", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func shortRunID(runID string) string {
	runID = strings.TrimSpace(runID)
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
