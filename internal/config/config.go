// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"modvalidator-cli/internal/issue"
	"modvalidator-cli/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "modvalidator"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "MODVALIDATOR"
)

//go:embed config_schema.cue
var configSchema string

// configDirOverride lets tests bypass the platform lookup.
var configDirOverride string

// SetConfigDirOverride replaces the platform configuration directory. Pass "" to restore it.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the configuration directory using platform conventions: Windows
// uses %APPDATA%, macOS ~/Library/Application Support, and everything else
// $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
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

// FilePath returns the config file path inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
}

// Load resolves, validates and decodes the configuration. It returns the path of the
// file that was loaded, or "" when only defaults and environment overrides apply.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the configuration schema").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	cfg, err := decode(v, path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Defaults returns the built-in defaults with environment overrides applied,
// ignoring any config file.
func Defaults() (*Config, error) {
	return decode(newViper(), "")
}

func decode(v *viper.Viper, path string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables as well as the config file").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return &cfg, nil
}

// newViper returns a Viper instance seeded with defaults and environment overrides.
// Every key must have a default for AutomaticEnv to apply during Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("modules_dir", defaults.ModulesDir)
	v.SetDefault("subnets_dir", defaults.SubnetsDir)
	v.SetDefault("env_root", defaults.EnvRoot)
	v.SetDefault("base_interpreter", defaults.BaseInterpreter)
	v.SetDefault("shell", defaults.Shell)
	v.SetDefault("registrar_url", defaults.RegistrarURL)
	v.SetDefault("registry_path", defaults.RegistryPath)
	v.SetDefault("api.host", defaults.API.Host)
	v.SetDefault("api.port", defaults.API.Port)
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("log.timestamp", defaults.Log.Timestamp)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// resolvePath picks the config file: the explicit path, then the config directory,
// then the working directory. A missing explicit file is an error; missing lookup
// candidates are not.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'modvalidator config init' to create a default file").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	for _, candidate := range []string{FilePath(dir), ConfigFileName + "." + ConfigFileExt} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper validates the CUE file at path and merges it over the defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := decodeCUE(data, path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Save writes cfg as CUE to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateDefaultConfig writes the default configuration to path unless a file
// already exists there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := Save(DefaultConfig(), path); err != nil {
		return false, err
	}
	return true, nil
}

// GenerateCUE renders cfg as a config.cue document.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// modvalidator configuration\n\n")

	fmt.Fprintf(&sb, "modules_dir:      %q\n", cfg.ModulesDir)
	fmt.Fprintf(&sb, "subnets_dir:      %q\n", cfg.SubnetsDir)
	fmt.Fprintf(&sb, "env_root:         %q\n", cfg.EnvRoot)
	fmt.Fprintf(&sb, "base_interpreter: %q\n", cfg.BaseInterpreter)
	if cfg.Shell != "" {
		fmt.Fprintf(&sb, "shell:            %q\n", cfg.Shell)
	}
	fmt.Fprintf(&sb, "registrar_url:    %q\n", cfg.RegistrarURL)
	fmt.Fprintf(&sb, "registry_path:    %q\n", cfg.RegistryPath)

	sb.WriteString("\napi: {\n")
	fmt.Fprintf(&sb, "\thost: %q\n", cfg.API.Host)
	fmt.Fprintf(&sb, "\tport: %d\n", cfg.API.Port)
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel:     %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "\ttimestamp: %v\n", cfg.Log.Timestamp)
	sb.WriteString("}\n")

	return sb.String()
}
