package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// expandEnvVar expands an environment variable reference.
// Supports both $VAR and ${VAR} syntax; anything else is returned as-is.
// An unset variable expands to the empty string.
func expandEnvVar(value string) string {
	if !strings.HasPrefix(value, "$") {
		return value
	}

	var name string
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		name = value[2 : len(value)-1]
	} else {
		name = strings.TrimPrefix(value, "$")
	}

	return os.Getenv(name)
}

// UserConfigDir returns $HOME/.config/nlens.
func UserConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "nlens"), nil
}

// Dir returns the directory of the config file in use, made absolute.
// Without a config file it falls back to UserConfigDir.
func Dir() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		return UserConfigDir()
	}

	configDir := filepath.Dir(configFile)
	if !filepath.IsAbs(configDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
		configDir = filepath.Join(cwd, configDir)
	}
	return configDir, nil
}

// ResolvePath converts a relative path to an absolute one, relative to the
// config file directory.
func ResolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, path), nil
}
