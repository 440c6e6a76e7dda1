// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"slices"
)

type (
	// ModuleConfig is the extraction result for one module. It is built fresh on every
	// Extract call and never cached.
	ModuleConfig struct {
		// EnvVars maps variable names to their default or example values.
		EnvVars map[string]string `json:"env_vars" toml:"env_vars"`
		// Commands maps external command names to their specs.
		Commands map[string]*CommandSpec `json:"commands" toml:"commands"`
	}

	// CommandSpec is one discovered invocable operation.
	CommandSpec struct {
		// CommandName is the external name used to invoke the command.
		CommandName string `json:"command" toml:"command"`
		// BackingFunction is the source-level function implementing it.
		BackingFunction string `json:"function" toml:"function"`
		// SourceFile is the script the command was declared in.
		SourceFile string `json:"source_file" toml:"source_file"`
		// Parameters are in declaration order; names are unique.
		Parameters []ParamSpec `json:"parameters" toml:"parameters"`
	}

	// ParamSpec is one declared parameter of a command.
	ParamSpec struct {
		Name string `json:"name" toml:"name"`
		// DeclaredType is a free-form type token; it is not validated.
		DeclaredType string `json:"type" toml:"type"`
		// DefaultValue is nil when the parameter is required.
		DefaultValue *string `json:"default,omitempty" toml:"default,omitempty"`
		HelpText     *string `json:"help,omitempty" toml:"help,omitempty"`
		// Option is true for parameters declared through an option helper call, which
		// are passed as --name value instead of positionally.
		Option bool `json:"option,omitempty" toml:"option,omitempty"`
	}
)

// NewModuleConfig returns an empty config.
func NewModuleConfig() *ModuleConfig {
	return &ModuleConfig{
		EnvVars:  make(map[string]string),
		Commands: make(map[string]*CommandSpec),
	}
}

// Required reports whether the parameter has no default.
func (p ParamSpec) Required() bool { return p.DefaultValue == nil }

// RequiredParams returns the names of parameters without defaults, in declaration order.
func (c *CommandSpec) RequiredParams() []string {
	var names []string
	for _, p := range c.Parameters {
		if p.Required() {
			names = append(names, p.Name)
		}
	}
	return names
}

// CommandNames returns the command names sorted alphabetically.
func (m *ModuleConfig) CommandNames() []string {
	names := make([]string, 0, len(m.Commands))
	for name := range m.Commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EnvVarNames returns the variable names sorted alphabetically.
func (m *ModuleConfig) EnvVarNames() []string {
	names := make([]string, 0, len(m.EnvVars))
	for name := range m.EnvVars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func strPtr(s string) *string { return &s }
