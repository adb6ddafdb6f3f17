// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the omero-rdf configuration from the platform
// config directory, the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/German-BioImaging/omero-rdf/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "omero-rdf"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
)

type (
	// ServerConfig holds the connection settings for an OMERO server.
	ServerConfig struct {
		// Host is the server name, e.g. "idr.openmicroscopy.org".
		Host string `mapstructure:"host"`
		// Port is the web port (443 for https).
		Port int `mapstructure:"port"`
		// User and Password authenticate a new session.
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		// Session reuses an existing session token instead of logging in.
		Session string `mapstructure:"session"`
		// ID selects the OMERO.server instance behind the web gateway.
		ID int `mapstructure:"id"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `mapstructure:"verbose"`
	}

	// Config is the root configuration.
	Config struct {
		Server ServerConfig `mapstructure:"server"`
		UI     UIConfig     `mapstructure:"ui"`
		// Handlers names the annotation handlers enabled by default.
		Handlers []string `mapstructure:"handlers"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 443,
			ID:   1,
		},
	}
}

// ConfigDir returns the omero-rdf configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string
	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(configDir, AppName), nil
}

// Load reads the configuration. When path is non-empty it is used
// exclusively and must exist; otherwise the platform config directory and
// the current directory are searched, falling back to defaults. A .env
// file in the current directory is loaded into the environment first, so
// credentials can be kept out of the config file.
func Load(path string) (*Config, error) {
	// Best effort: absence of a .env file is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType(ConfigFileExt)

	defaults := DefaultConfig()
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.id", defaults.Server.ID)
	// Unmarshal only sees env-bound keys that viper already knows about,
	// so the credential keys need explicit (empty) defaults.
	v.SetDefault("server.user", "")
	v.SetDefault("server.password", "")
	v.SetDefault("server.session", "")
	v.SetDefault("ui.verbose", false)
	v.SetDefault("handlers", []string{})

	for key, env := range map[string]string{
		"server.host":     "OMERO_HOST",
		"server.port":     "OMERO_PORT",
		"server.user":     "OMERO_USER",
		"server.password": "OMERO_PASSWORD",
		"server.session":  "OMERO_SESSION",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if !fileExists(path) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, wrapReadError(err, path)
		}
	} else {
		cfgDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		for _, candidate := range []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			AppName + "." + ConfigFileExt,
		} {
			if !fileExists(candidate) {
				continue
			}
			v.SetConfigFile(candidate)
			if err := v.ReadInConfig(); err != nil {
				return nil, wrapReadError(err, candidate)
			}
			break
		}
		// No config file found: defaults plus environment.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func wrapReadError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid YAML").
		WithSuggestion("See 'omero-rdf --help' for the expected settings").
		Wrap(err).
		BuildError()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
