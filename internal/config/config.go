package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/apperrors"
)

// Event kinds recognized in the events mapping.
const (
	EventPowerOn     = "power:on"
	EventPowerOff    = "power:off"
	EventVolumeRaise = "volume:raise"
	EventVolumeLower = "volume:lower"
)

// KnownEvents lists every event kind a command list may be attached to.
var KnownEvents = []string{EventPowerOn, EventPowerOff, EventVolumeRaise, EventVolumeLower}

// Config is the immutable daemon configuration, loaded once at startup and
// passed into every component at construction.
type Config struct {
	PlayerName    string                   `yaml:"player_name"`
	Server        ServerConfig             `yaml:"server"`
	DefaultScript string                   `yaml:"default_script"`
	VolumeLock    *bool                    `yaml:"volume_lock"`
	Events        map[string][]CommandSpec `yaml:"events"`
	Schedules     []ScheduleSpec           `yaml:"schedules"`
	API           APIConfig                `yaml:"api"`
	Audit         AuditConfig              `yaml:"audit"`
}

// ServerConfig locates the LMS CLI endpoint.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RestartDelay is the wait in seconds between one session's end and the
	// next connection attempt.
	RestartDelay int `yaml:"restart_delay"`
}

// CommandSpec describes one external command run for an event. Commands in a
// list execute in order, each preceded by its own delay.
type CommandSpec struct {
	Script string `yaml:"script"`
	Param  string `yaml:"param"`
	// Delay in milliseconds before the command runs.
	Delay int `yaml:"delay"`
	// IncludeValue appends the event value (volume step count) to the param.
	IncludeValue bool `yaml:"include_value"`
}

// ScheduleSpec fires an event's command list on a cron schedule.
type ScheduleSpec struct {
	Name  string `yaml:"name"`
	Cron  string `yaml:"cron"`
	Event string `yaml:"event"`
}

// APIConfig controls the local read-only status API.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// AuditConfig controls the sqlite audit trail.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load reads and parses the configuration file. The result still needs
// Validate; the caller may override PlayerName from the command line first.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, apperrors.NewConfigError("read config file "+path, err)
	}

	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, apperrors.NewConfigError("parse config file "+path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 9090
	}
	if c.Server.RestartDelay == 0 {
		c.Server.RestartDelay = 10
	}
	if c.VolumeLock == nil {
		lock := true
		c.VolumeLock = &lock
	}
	if c.API.Host == "" {
		c.API.Host = "127.0.0.1"
	}
	if c.API.Port == 0 {
		c.API.Port = 9802
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "./data/sb-ir-events.db"
	}
	if c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = 30
	}
}

// VolumeLockEnabled reports whether volume debouncing is on. Defaults to true.
func (c *Config) VolumeLockEnabled() bool {
	return c.VolumeLock == nil || *c.VolumeLock
}
