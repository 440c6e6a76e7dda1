// SPDX-License-Identifier: MPL-2.0

package pyenv

import (
	"strings"
)

// CapturedVars is an insertion-ordered mapping of variable name to value.
// Setting an existing key replaces its value but keeps its original position.
type CapturedVars struct {
	keys   []string
	values map[string]string
}

// NewCapturedVars returns an empty mapping.
func NewCapturedVars() *CapturedVars {
	return &CapturedVars{values: make(map[string]string)}
}

// Set stores value under key.
func (c *CapturedVars) Set(key, value string) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value stored under key.
func (c *CapturedVars) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of variables.
func (c *CapturedVars) Len() int { return len(c.keys) }

// Keys returns the variable names in insertion order.
func (c *CapturedVars) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Environ renders the variables as KEY=VALUE entries in insertion order.
func (c *CapturedVars) Environ() []string {
	out := make([]string, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, k+"="+c.values[k])
	}
	return out
}

// ParseCapturedVars parses activation output into variables.
//
// Each line is split on its first '=' only, so values may themselves contain '='.
// Whitespace around the key is trimmed; the value is kept verbatim apart from a
// trailing carriage return. Blank lines, lines without '=' and lines with an empty
// key are ignored.
func ParseCapturedVars(output string) *CapturedVars {
	vars := NewCapturedVars()
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSuffix(line, "\r")
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars.Set(key, value)
	}
	return vars
}
