package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"callboard/internal/catalog"
	"callboard/internal/config"
	"callboard/internal/daemon"
	"callboard/internal/logging"
	"callboard/internal/provider"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the callboard daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewWithFile(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: os.Stderr,
			}, cfg.Paths.LogDir, "callboard.log")
			if err != nil {
				return err
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}

			client, err := provider.New(cfg)
			if err != nil {
				store.Close()
				return err
			}

			d, err := daemon.New(cfg, store, client, logger)
			if err != nil {
				store.Close()
				return err
			}
			defer d.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			d.Stop()
			return nil
		},
	}
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage callboard configuration",
	}

	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = *ctx.configFlag
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			cmd.Printf("wrote sample configuration to %s\n", path)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"data_dir", cfg.Paths.DataDir},
				{"log_dir", cfg.Paths.LogDir},
				{"api_bind", cfg.Paths.APIBind},
				{"provider.base_url", cfg.Provider.BaseURL},
				{"poller.interval", itoa(cfg.Poller.Interval)},
				{"poller.task_timeout", itoa(cfg.Poller.TaskTimeout)},
				{"poller.parallelism", itoa(cfg.Poller.Parallelism)},
				{"poller.zombie_ticks", itoa(cfg.Poller.ZombieTicks)},
				{"generation.default_model", cfg.Generation.DefaultModel},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			cmd.Println(renderTable([]string{"KEY", "VALUE"}, rows))
			return nil
		},
	}

	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	return configCmd
}
