// Package config holds the analyzer and server tunables. Everything has a
// working default so running without a config file is the normal case.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type Config struct {
	// Port is the HTTP listen port.
	Port int `toml:"port"`

	// MaxFileBytes aborts analysis of log files larger than this. Zero
	// disables the cap.
	MaxFileBytes int64 `toml:"max_file_bytes"`

	// MaxWindows caps how many block windows boundary detection may emit.
	// Zero disables the cap.
	MaxWindows int `toml:"max_windows"`

	// ChartBlocks limits how many common blocks the overview chart plots.
	ChartBlocks int `toml:"chart_blocks"`

	// LogLevel is the terminal log verbosity.
	LogLevel string `toml:"log_level"`
}

func Default() Config {
	return Config{
		Port:         8000,
		MaxFileBytes: 1 << 30,
		MaxWindows:   100000,
		ChartBlocks:  100,
		LogLevel:     "info",
	}
}

// Load reads a TOML config file over the defaults. An empty path returns
// the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}
