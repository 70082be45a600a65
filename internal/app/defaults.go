package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
)

// Defaults holds the application default paths.
type Defaults struct {
	ConfigPath string `env:"PM_CONFIG_PATH"`
	BaseDir    string `env:"PM_HOME"`
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PM_CONFIG_PATH: config file location (default: ~/.config/pm.toml)
//   - PM_HOME: base directory for pm data (default: ~/.local/share/pm)
func GetDefaults() (Defaults, error) {
	var d Defaults
	if err := env.Parse(&d); err != nil {
		return Defaults{}, fmt.Errorf("parsing environment: %w", err)
	}

	if d.ConfigPath == "" || d.BaseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Defaults{}, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if d.ConfigPath == "" {
			d.ConfigPath = filepath.Join(homeDir, ".config", "pm.toml")
		}
		if d.BaseDir == "" {
			d.BaseDir = filepath.Join(homeDir, ".local", "share", "pm")
		}
	}

	d.LogDir = filepath.Join(d.BaseDir, "log")
	return d, nil
}
