package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/apperrors"
)

// Validate checks the configuration for errors. All problems are reported at
// once so a broken file can be fixed in a single pass.
func (c *Config) Validate() error {
	var errs []error

	if c.PlayerName == "" {
		errs = append(errs, errors.New("player_name is required"))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.validateEvents(); err != nil {
		errs = append(errs, err)
	}
	if err := c.validateSchedules(); err != nil {
		errs = append(errs, err)
	}
	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("api: %w", err))
	}
	if err := c.Audit.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("audit: %w", err))
	}

	if joined := errors.Join(errs...); joined != nil {
		return apperrors.NewConfigError("invalid configuration", joined)
	}
	return nil
}

// Validate checks ServerConfig for errors.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.RestartDelay < 1 {
		errs = append(errs, errors.New("restart_delay must be at least 1 second"))
	}
	return errors.Join(errs...)
}

// Validate checks APIConfig for errors.
func (c *APIConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// Validate checks AuditConfig for errors.
func (c *AuditConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}
	if c.RetentionDays < 1 {
		errs = append(errs, errors.New("retention_days must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *Config) validateEvents() error {
	var errs []error
	for kind, commands := range c.Events {
		if !knownEvent(kind) {
			errs = append(errs, fmt.Errorf("events: unknown event kind %q", kind))
			continue
		}
		for i, cmd := range commands {
			if cmd.Delay < 0 {
				errs = append(errs, fmt.Errorf("events: %s[%d]: delay must be non-negative", kind, i))
			}
			if cmd.Script == "" && c.DefaultScript == "" {
				errs = append(errs, fmt.Errorf("events: %s[%d]: no script and no default_script configured", kind, i))
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Config) validateSchedules() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	var errs []error
	for i, schedule := range c.Schedules {
		if schedule.Cron == "" {
			errs = append(errs, fmt.Errorf("schedules[%d]: cron expression is required", i))
		} else if _, err := parser.Parse(schedule.Cron); err != nil {
			errs = append(errs, fmt.Errorf("schedules[%d]: invalid cron expression %q: %w", i, schedule.Cron, err))
		}
		if !knownEvent(schedule.Event) {
			errs = append(errs, fmt.Errorf("schedules[%d]: unknown event kind %q", i, schedule.Event))
		}
	}
	return errors.Join(errs...)
}

func knownEvent(kind string) bool {
	for _, known := range KnownEvents {
		if kind == known {
			return true
		}
	}
	return false
}
