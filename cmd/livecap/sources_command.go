package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"livecap/internal/capture"
	"livecap/internal/lockstore"
	"livecap/internal/registry"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Validate and list the source registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sources, err := registry.NewFileReader(cfg.Paths.RegistryPath).Read(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registry: %s\n", cfg.Paths.RegistryPath)
			if len(sources) == 0 {
				fmt.Fprintln(out, "No sources registered")
				return nil
			}

			store := lockstore.NewDirStore(cfg.Paths.LockDir)
			_, rejected := registry.Screen(sources)
			reasons := make(map[string]string, len(rejected))
			for _, r := range rejected {
				reasons[r.Source.ID] = r.Reason
			}

			rows := make([][]string, 0, len(sources))
			for _, src := range sources {
				status, locked := "ok", "-"
				if reason, ok := reasons[src.ID]; ok {
					status = "skipped: " + reason
				} else if err := lockstore.ValidateID(src.ID); err != nil {
					status = "skipped: " + lockstore.ErrInvalidID.Error()
				} else if held, err := store.Exists(src.ID); err == nil {
					locked = yesNo(held)
				} else {
					locked = "?"
				}
				rows = append(rows, []string{src.ID, src.Address, capture.SessionID(src.Address), locked, status})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Address", "Session", "Capturing", "Status"},
				rows,
				nil,
			))
			return nil
		},
	}
}
