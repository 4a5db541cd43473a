package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"callboard/internal/catalog"
	"callboard/internal/config"
	"callboard/internal/dispatch"
	"callboard/internal/poller"
	"callboard/internal/provider"
	"callboard/internal/recovery"
	"callboard/internal/refs"
)

func newDispatchCommand(ctx *commandContext) *cobra.Command {
	var (
		modelFlag      string
		styleIndexFlag int
		allRefsFlag    bool
	)

	cmd := &cobra.Command{
		Use:   "dispatch <clip-id>",
		Short: "Submit a clip to the generation provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(cfg *config.Config, store *catalog.Store, api provider.API, logger *slog.Logger) error {
				opts := dispatch.Options{ModelOverride: modelFlag}
				if allRefsFlag {
					opts.Mode = refs.ModeAll
				}
				if styleIndexFlag >= 0 {
					idx := styleIndexFlag
					opts.StyleImageIndex = &idx
				}

				result, err := dispatch.New(store, api, cfg, logger).DispatchWith(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				switch {
				case result.ResultURL != "":
					cmd.Printf("clip %s: %s (%s)\n", result.ClipID, result.Status.Display(), result.ResultURL)
				case result.TaskID != "":
					cmd.Printf("clip %s: %s (task %s)\n", result.ClipID, result.Status.Display(), result.TaskID)
				default:
					cmd.Printf("clip %s: %s\n", result.ClipID, result.Status.Display())
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&modelFlag, "model", "", "Model id override for this dispatch")
	cmd.Flags().IntVar(&styleIndexFlag, "style-index", -1, "Zero-based position of the style image in the numbered sequence")
	cmd.Flags().BoolVar(&allRefsFlag, "all-refs", false, "Use every URL of multi-image library assets")
	return cmd
}

func newPollCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run one reconciliation tick against the provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(cfg *config.Config, store *catalog.Store, api provider.API, logger *slog.Logger) error {
				stats, err := poller.New(store, api, cfg, logger).Tick(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("checked %d: %d completed, %d failed, %d in flight, %d skipped, %d zombies (%d corrected)\n",
					stats.Checked, stats.Completed, stats.Failed, stats.InFlight,
					stats.Skipped, stats.Zombies, stats.ZombiesCorrected)
				return nil
			})
		},
	}
}

func newRecoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Reconcile clips stuck in Generating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(cfg *config.Config, store *catalog.Store, api provider.API, logger *slog.Logger) error {
				summary, err := recovery.New(store, api, cfg, logger).Run(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("scanned %d: %d completed, %d failed, %d in flight, %d zombies, %d legacy tasks, %d skipped\n",
					summary.Scanned, summary.Completed, summary.Failed, summary.InFlight,
					summary.Zombies, summary.LegacyTasks, summary.Skipped)
				return nil
			})
		},
	}
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <clip-id>",
		Short: "Advance a clip's archival version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				status, err := store.ArchiveClip(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cmd.Printf("clip %s: %s\n", args[0], status.Display())
				return nil
			})
		},
	}
}
