// Package config resolves eegview settings from flags, the environment and
// an optional YAML config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. EEGVIEW_LOG_LEVEL or
// EEGVIEW_VIEWER_WINDOW.
const EnvPrefix = "EEGVIEW"

// Keys.
const (
	KeyView           = "view"
	KeyAllChannels    = "all-channels"
	KeyLogLevel       = "log-level"
	KeyLogFile        = "log-file"
	KeyViewerWindow   = "viewer.window"
	KeyViewerChannels = "viewer.channels"
)

// Config holds the resolved settings.
type Config struct {
	LogLevel    string `mapstructure:"log-level"`
	LogFile     string `mapstructure:"log-file"`
	Viewer      Viewer `mapstructure:"viewer"`
	View        bool   `mapstructure:"view"`
	AllChannels bool   `mapstructure:"all-channels"`
}

// Viewer configures the terminal trace browser.
type Viewer struct {
	// Window is the number of seconds shown per page.
	Window float64 `mapstructure:"window"`
	// Channels is the number of channels shown per page.
	Channels int `mapstructure:"channels"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		View: true,
		Viewer: Viewer{
			Window:   10,
			Channels: 20,
		},
	}
}

// New returns a viper instance seeded with defaults and wired to the
// EEGVIEW_ environment.
func New() *viper.Viper {
	d := Default()
	v := viper.New()
	v.SetDefault(KeyView, d.View)
	v.SetDefault(KeyAllChannels, d.AllChannels)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFile, d.LogFile)
	v.SetDefault(KeyViewerWindow, d.Viewer.Window)
	v.SetDefault(KeyViewerChannels, d.Viewer.Channels)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in fs whose name is a config key. Flags only
// override other sources when set on the command line.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range []string{KeyView, KeyAllChannels, KeyLogLevel, KeyLogFile} {
		f := fs.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/eegview/config.yaml, falling back to
// the OS user config directory. It returns "" if neither is known.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "eegview", "config.yaml")
}

// Load reads the config file at path, if any, and returns the merged
// settings.
//
// An explicit path that does not exist is an error. When path is empty the
// default location is tried and silently skipped if absent.
func Load(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		case explicit || !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the viewer cannot work with.
func (c *Config) Validate() error {
	if c.Viewer.Window <= 0 {
		return fmt.Errorf("viewer.window must be positive, got %g", c.Viewer.Window)
	}
	if c.Viewer.Channels <= 0 {
		return fmt.Errorf("viewer.channels must be positive, got %d", c.Viewer.Channels)
	}
	return nil
}
