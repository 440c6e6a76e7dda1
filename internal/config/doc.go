// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from the path given with --config, otherwise from
// config.cue in the platform configuration directory ($XDG_CONFIG_HOME/modvalidator on
// Linux), otherwise from ./config.cue. Missing files mean defaults. Every key can be
// overridden with a MODVALIDATOR_ environment variable (api.port -> MODVALIDATOR_API_PORT).
//
// Files are validated against the embedded CUE schema (config_schema.cue) before they
// are merged into Viper.
package config
