package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"callboard/internal/catalog"
	"callboard/internal/config"
	"callboard/internal/logging"
	"callboard/internal/provider"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: os.Stderr,
	})
}

// withStore runs fn against the catalog store and closes it afterwards.
func (c *commandContext) withStore(fn func(cfg *config.Config, store *catalog.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withServices additionally wires the provider client and a logger.
func (c *commandContext) withServices(fn func(cfg *config.Config, store *catalog.Store, api provider.API, logger *slog.Logger) error) error {
	return c.withStore(func(cfg *config.Config, store *catalog.Store) error {
		logger, err := c.newLogger(cfg)
		if err != nil {
			return err
		}
		client, err := provider.New(cfg)
		if err != nil {
			return err
		}
		return fn(cfg, store, client, logger)
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
