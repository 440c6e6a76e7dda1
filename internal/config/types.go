// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"modvalidator-cli/internal/install"
	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/pyenv"
	"modvalidator-cli/internal/registry"
)

const (
	// LogLevelDebug logs everything including executed commands.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"

	// DefaultEnvRoot is where isolation environments live by default.
	DefaultEnvRoot = "."
	// DefaultAPIHost is the address the command API binds to.
	DefaultAPIHost = "0.0.0.0"
	// DefaultAPIPort is the command API port.
	DefaultAPIPort = 8000
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level written by the CLI logger.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects every field-level validation failure of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the application configuration.
	Config struct {
		// ModulesDir holds inference modules.
		ModulesDir string `json:"modules_dir" mapstructure:"modules_dir"`
		// SubnetsDir holds subnet modules.
		SubnetsDir string `json:"subnets_dir" mapstructure:"subnets_dir"`
		// EnvRoot is the parent of every isolation environment.
		EnvRoot string `json:"env_root" mapstructure:"env_root"`
		// BaseInterpreter creates isolation environments.
		BaseInterpreter string `json:"base_interpreter" mapstructure:"base_interpreter"`
		// Shell overrides shell auto-detection when set.
		Shell string `json:"shell,omitempty" mapstructure:"shell"`
		// RegistrarURL serves inference module scripts.
		RegistrarURL string `json:"registrar_url" mapstructure:"registrar_url"`
		// RegistryPath is the installed-module database.
		RegistryPath string `json:"registry_path" mapstructure:"registry_path"`
		// API configures the command API server.
		API APIConfig `json:"api" mapstructure:"api"`
		// Log configures CLI logging.
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// APIConfig configures the command API server.
	APIConfig struct {
		Host string `json:"host" mapstructure:"host"`
		Port int    `json:"port" mapstructure:"port"`
	}

	// LogConfig configures CLI logging.
	LogConfig struct {
		Level     LogLevel `json:"level" mapstructure:"level"`
		Timestamp bool     `json:"timestamp" mapstructure:"timestamp"`
	}
)

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig followed by every field error, so errors.Is()
// matches both the category and the specific violation.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks constraints the CUE schema cannot see, such as values supplied
// through environment variables.
func (c *Config) Validate() error {
	var errs []error
	if ok, fieldErrs := c.Log.Level.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	for key, dir := range map[string]string{"modules_dir": c.ModulesDir, "subnets_dir": c.SubnetsDir, "env_root": c.EnvRoot} {
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", key))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Layout returns the module directories as a module.Layout.
func (c *Config) Layout() module.Layout {
	return module.Layout{ModulesDir: c.ModulesDir, SubnetsDir: c.SubnetsDir}
}

// APIAddr returns host:port for the command API.
func (c *Config) APIAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ModulesDir:      module.DefaultModulesDir,
		SubnetsDir:      module.DefaultSubnetsDir,
		EnvRoot:         DefaultEnvRoot,
		BaseInterpreter: pyenv.DefaultBaseInterpreter,
		RegistrarURL:    install.DefaultRegistrarURL,
		RegistryPath:    registry.DefaultPath,
		API: APIConfig{
			Host: DefaultAPIHost,
			Port: DefaultAPIPort,
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
	}
}
