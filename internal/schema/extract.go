// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"modvalidator-cli/internal/module"
)

// ExampleVarsFile holds a module's example variable assignments.
const ExampleVarsFile = ".env.example"

var (
	// ErrExtract is the sentinel wrapped by ExtractError.
	ErrExtract = errors.New("command schema extraction failed")

	// <recv>.add_argument(["-f",] "--flag" ...) at the start of a line. Only quoted
	// or bare-token defaults are literals; any other expression yields "".
	argumentPattern   = regexp.MustCompile(`(?m)^[ \t]*\w+\.add_argument\(\s*(?:['"]-\w['"]\s*,\s*)?['"](--[\w-]+)['"]((?:[^()]|\([^()]*\))*)\)`)
	argDefaultPattern = regexp.MustCompile(`\bdefault\s*=\s*("[^"]*"|'[^']*'|[\w.+-]+)\s*(?:[,)]|$)`)

	// @<recv>.command("name" ...) at the start of a line, followed by def fn(params)[ -> T]:
	commandPattern = regexp.MustCompile(`(?m)^[ \t]*@\w+\.command\(\s*['"]([\w-]+)['"][^)]*\)\s*(?:async\s+)?def\s+(\w+)\(((?s:.*?))\)\s*(?:->\s*[^:\n]+)?:`)

	// name: Type [= default-expression]
	paramPattern    = regexp.MustCompile(`(?s)^\s*(\w+)\s*:\s*(.+?)\s*(?:=\s*(.+?))?\s*$`)
	typePattern     = regexp.MustCompile(`^[\w.]+(?:\[[\w.\[\], ]*\])?$`)
	optionalPattern = regexp.MustCompile(`^(?:typing\.)?Optional\[\s*(.+?)\s*\]$`)
	helperPattern   = regexp.MustCompile(`(?s)^(?:[\w.]+\.)?(Argument|Option)\((.*)\)$`)
	keywordPattern  = regexp.MustCompile(`(?s)^(\w+)\s*=\s*(.*)$`)
)

// ExtractError reports a file that could not be read. The partial config is discarded.
type ExtractError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

// Unwrap returns both ErrExtract and the underlying cause.
func (e *ExtractError) Unwrap() []error { return []error{ErrExtract, e.Err} }

// Extract builds the ModuleConfig of the module at sourceRoot.
//
// Example variables come first from .env.example, then from flag registrations
// in every direct-child script (sorted by file name). Commands are keyed by external
// name; a later declaration with the same name replaces an earlier one.
func Extract(sourceRoot string) (*ModuleConfig, error) {
	cfg := NewModuleConfig()

	examplePath := filepath.Join(sourceRoot, ExampleVarsFile)
	if content, err := os.ReadFile(examplePath); err == nil {
		for k, v := range ParseExampleVars(string(content)) {
			cfg.EnvVars[k] = v
		}
	} else if !os.IsNotExist(err) {
		return nil, &ExtractError{Path: examplePath, Err: err}
	}

	entries, err := os.ReadDir(sourceRoot)
	if err != nil {
		return nil, &ExtractError{Path: sourceRoot, Err: err}
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != module.ScriptExt {
			continue
		}
		path := filepath.Join(sourceRoot, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, &ExtractError{Path: path, Err: err}
		}
		extractSource(cfg, string(content), path)
	}

	slog.Debug("extracted command schema", "root", sourceRoot, "commands", len(cfg.Commands), "env_vars", len(cfg.EnvVars))
	return cfg, nil
}

// scanSource runs the source idioms over a single script's text.
func scanSource(content, sourceFile string) *ModuleConfig {
	cfg := NewModuleConfig()
	extractSource(cfg, content, sourceFile)
	return cfg
}

func extractSource(cfg *ModuleConfig, content, sourceFile string) {
	for _, m := range argumentPattern.FindAllStringSubmatch(content, -1) {
		key := strings.ReplaceAll(strings.TrimLeft(m[1], "-"), "-", "_")
		value := ""
		if d := argDefaultPattern.FindStringSubmatch(m[2]); d != nil {
			value = unquote(d[1])
		}
		cfg.EnvVars[key] = value
	}

	for _, m := range commandPattern.FindAllStringSubmatch(content, -1) {
		spec := &CommandSpec{
			CommandName:     m[1],
			BackingFunction: m[2],
			SourceFile:      sourceFile,
			Parameters:      parseParams(m[3]),
		}
		if prev, ok := cfg.Commands[spec.CommandName]; ok {
			slog.Debug("command redeclared", "command", spec.CommandName, "previous", prev.SourceFile, "file", sourceFile)
		}
		cfg.Commands[spec.CommandName] = spec
	}
}

// parseParams turns raw parameter-list text into specs. Entries that do not have
// the name: Type shape (self, *args, untyped names) are skipped.
func parseParams(text string) []ParamSpec {
	var params []ParamSpec
	seen := make(map[string]bool)
	for _, raw := range splitTopLevel(text, ',') {
		m := paramPattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		name, typ := m[1], m[2]
		if !typePattern.MatchString(typ) || seen[name] {
			continue
		}
		if o := optionalPattern.FindStringSubmatch(typ); o != nil {
			typ = o[1]
		}
		p := ParamSpec{Name: name, DeclaredType: typ}
		if expr := strings.TrimSpace(m[3]); expr != "" {
			applyDefault(&p, expr)
		}
		seen[name] = true
		params = append(params, p)
	}
	return params
}

// applyDefault fills DefaultValue and HelpText from a default expression.
// An Argument/Option helper call is read for default=, its first positional literal
// (... marks the parameter required) and help=. Any other expression is taken as a
// literal default.
func applyDefault(p *ParamSpec, expr string) {
	call := helperPattern.FindStringSubmatch(expr)
	if call == nil {
		p.DefaultValue = strPtr(unquote(expr))
		return
	}
	p.Option = call[1] == "Option"

	var positional *string
	var keywordDefault *string
	for i, arg := range splitTopLevel(call[2], ',') {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if kw := keywordPattern.FindStringSubmatch(arg); kw != nil {
			switch kw[1] {
			case "default":
				keywordDefault = strPtr(unquote(kw[2]))
			case "help":
				p.HelpText = strPtr(unquote(kw[2]))
			}
			continue
		}
		if i == 0 {
			positional = strPtr(unquote(arg))
		}
	}

	switch {
	case keywordDefault != nil:
		p.DefaultValue = keywordDefault
	case positional != nil && *positional != "..." && *positional != "Ellipsis":
		p.DefaultValue = positional
	}
}

// splitTopLevel splits s on sep, ignoring separators nested in brackets or quotes.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if rest := s[start:]; strings.TrimSpace(rest) != "" {
		parts = append(parts, rest)
	}
	return parts
}

// unquote trims s and strips one pair of matching surrounding quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
