// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// EncodeTOML renders the config as TOML.
func (m *ModuleConfig) EncodeTOML() ([]byte, error) {
	out, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode module config as TOML: %w", err)
	}
	return out, nil
}

// EncodeJSON renders the config as indented JSON.
func (m *ModuleConfig) EncodeJSON() ([]byte, error) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode module config as JSON: %w", err)
	}
	return out, nil
}
