// Package config loads editor configuration from TOML files and the
// environment. Files provide the base values; INKWELL_-prefixed
// environment variables override them, which is how containerized and CI
// setups tune the editor without touching files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "INKWELL_"

// Config is the full editor configuration.
type Config struct {
	Logging   Logging   `toml:"logging"`
	History   History   `toml:"history"`
	Scripting Scripting `toml:"scripting"`
	View      View      `toml:"view"`
}

// Logging configures the editor log output.
type Logging struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// File is the log destination path. Empty leaves the destination to
	// the host; the terminal editor discards logs so the UI stays clean.
	File string `toml:"file"`
}

// History configures the undo history.
type History struct {
	// Depth is the maximum number of undo events kept.
	Depth int `toml:"depth"`

	// NewGroupDelayMS is the typing pause, in milliseconds, after which
	// the next change starts a new undo event.
	NewGroupDelayMS int `toml:"new-group-delay-ms"`
}

// NewGroupDelay returns the grouping pause as a duration.
func (h History) NewGroupDelay() time.Duration {
	return time.Duration(h.NewGroupDelayMS) * time.Millisecond
}

// Scripting configures the Lua plugin host.
type Scripting struct {
	// Enabled turns script plugins on.
	Enabled bool `toml:"enabled"`

	// Dir is the directory scanned for plugin scripts.
	Dir string `toml:"dir"`
}

// View configures rendering.
type View struct {
	// TabWidth is the display width of a tab character.
	TabWidth int `toml:"tab-width"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging:   Logging{Level: "info"},
		History:   History{Depth: 100, NewGroupDelayMS: 500},
		Scripting: Scripting{Enabled: true, Dir: "plugins"},
		View:      View{TabWidth: 4},
	}
}

// Load reads the configuration file at path, layered over the defaults and
// under the environment overrides. A missing file is not an error; the
// defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to environment overrides.
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides individual settings from the environment.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_FILE"); ok {
		c.Logging.File = v
	}
	if v, ok := lookupInt(EnvPrefix + "HISTORY_DEPTH"); ok {
		c.History.Depth = v
	}
	if v, ok := lookupInt(EnvPrefix + "HISTORY_NEW_GROUP_DELAY_MS"); ok {
		c.History.NewGroupDelayMS = v
	}
	if v, ok := lookupBool(EnvPrefix + "SCRIPTING_ENABLED"); ok {
		c.Scripting.Enabled = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SCRIPTING_DIR"); ok {
		c.Scripting.Dir = v
	}
	if v, ok := lookupInt(EnvPrefix + "VIEW_TAB_WIDTH"); ok {
		c.View.TabWidth = v
	}
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	if c.History.Depth < 1 {
		return fmt.Errorf("config: history depth must be positive, got %d", c.History.Depth)
	}
	if c.History.NewGroupDelayMS < 0 {
		return fmt.Errorf("config: negative new-group-delay-ms %d", c.History.NewGroupDelayMS)
	}
	if c.View.TabWidth < 1 {
		return fmt.Errorf("config: tab width must be positive, got %d", c.View.TabWidth)
	}
	return nil
}

func lookupInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func lookupBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
