package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"livecap/internal/daemonrun"
	"livecap/internal/lockstore"
)

func newLocksCommand(ctx *commandContext) *cobra.Command {
	locksCmd := &cobra.Command{
		Use:   "locks",
		Short: "Inspect or clear per-source lock markers",
	}
	locksCmd.AddCommand(newLocksListCommand(ctx))
	locksCmd.AddCommand(newLocksClearCommand(ctx))
	return locksCmd
}

func newLocksListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lock markers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			markers, err := lockstore.NewDirStore(cfg.Paths.LockDir).List()
			if err != nil {
				return fmt.Errorf("list markers: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(markers) == 0 {
				fmt.Fprintln(out, "No active markers")
				return nil
			}
			fmt.Fprintln(out, renderMarkers(markers, time.Now()))
			return nil
		},
	}
}

func newLocksClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear [source-id...]",
		Short: "Remove lock markers (all markers when no ids are given)",
		Long: `Clear removes lock markers so the sources become eligible for capture again.
While an orchestrator holds the lock directory, clearing a marker lets a
second capture of the same source start, so --force is required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			running, err := daemonrun.InstanceRunning(cfg.Paths.LockDir)
			if err != nil {
				return fmt.Errorf("check orchestrator: %w", err)
			}
			if running && !force {
				return errors.New("an orchestrator is running against this lock directory; stop it or pass --force")
			}

			store := lockstore.NewDirStore(cfg.Paths.LockDir)
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				removed, err := store.ClearAll()
				fmt.Fprintf(out, "Removed %d marker(s)\n", removed)
				if err != nil {
					return fmt.Errorf("clear markers: %w", err)
				}
				return nil
			}

			var errs []error
			removed := 0
			for _, id := range args {
				held, err := store.Exists(id)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if !held {
					fmt.Fprintf(out, "No marker for %s\n", id)
					continue
				}
				if err := store.Release(id); err != nil {
					errs = append(errs, err)
					continue
				}
				removed++
				fmt.Fprintf(out, "Removed marker for %s\n", id)
			}
			if removed > 0 || len(errs) == 0 {
				fmt.Fprintf(out, "Removed %d marker(s)\n", removed)
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Clear markers even while an orchestrator is running")
	return cmd
}
