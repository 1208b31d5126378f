// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/butcapp/butcap/internal/common"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// First expand tilde if present
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

	// Then expand environment variables
	return os.ExpandEnv(path)
}

// DatabasePath resolves the SQLite database location: the configured
// database.path if set, otherwise ~/.local/share/butcap/butcap.db.
func DatabasePath() (string, error) {
	if path := viper.GetString("database.path"); path != "" {
		return ExpandPath(path), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: database.path not set and home directory unknown: %v",
			common.ErrMissingConfig, err)
	}
	return filepath.Join(home, ".local", "share", "butcap", "butcap.db"), nil
}
