// Package config provides configuration loading and path utilities.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/Halewood/shoebox/internal/common"
	"github.com/Halewood/shoebox/internal/service"
)

// Settings is the typed view of the application configuration.
type Settings struct {
	// Root is the storage root holding the year partitions.
	Root string
	// Mode is the persistent copy-vs-move import preference.
	Mode service.ImportMode
	// DownloadTimeout bounds remote materialization waits.
	DownloadTimeout time.Duration
}

// SetDefaults registers configuration defaults with viper. Called once
// before the config file is read.
func SetDefaults() {
	viper.SetDefault("storage.root", filepath.Join(xdg.DataHome, "shoebox"))
	viper.SetDefault("import.mode", "copy")
	viper.SetDefault("download.timeout", "30s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// ConfigDir returns the directory holding the config file and the status
// registry.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "shoebox")
}

// RegistryPath returns the status registry file location.
func RegistryPath() string {
	return filepath.Join(ConfigDir(), "statuses.json")
}

// LoadSettings reads the typed settings out of viper.
func LoadSettings() (*Settings, error) {
	root := ExpandPath(viper.GetString("storage.root"))
	if root == "" {
		return nil, common.ErrMissingRoot
	}

	timeout := viper.GetDuration("download.timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Settings{
		Root:            root,
		Mode:            service.ParseImportMode(viper.GetString("import.mode")),
		DownloadTimeout: timeout,
	}, nil
}

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
