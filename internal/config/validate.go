package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration values that cannot work at runtime.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if c.Provider.RequestTimeout <= 0 {
		problems = append(problems, "provider.request_timeout must be positive")
	}
	if c.Poller.Interval <= 0 {
		problems = append(problems, "poller.interval must be positive")
	}
	if c.Poller.TaskTimeout <= 0 {
		problems = append(problems, "poller.task_timeout must be positive")
	}
	if c.Poller.Parallelism <= 0 {
		problems = append(problems, "poller.parallelism must be positive")
	}
	if c.Poller.ZombieTicks <= 0 {
		problems = append(problems, "poller.zombie_ticks must be positive")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
