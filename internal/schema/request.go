// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCommandNotFound is returned when a request names a command the module does not declare.
	ErrCommandNotFound = errors.New("command not found")
	// ErrMissingArgument is the sentinel wrapped by MissingArgumentError.
	ErrMissingArgument = errors.New("missing argument")
)

type (
	// MissingArgumentError names a required parameter absent from a request.
	MissingArgumentError struct {
		Command   string
		Parameter string
	}

	// Invocation is a validated request, ready to hand to the executor.
	Invocation struct {
		Command *CommandSpec
		// EntryPoint is the script declaring the command.
		EntryPoint string
		// Argv is the command name followed by its argument words, unquoted.
		Argv []string
	}

	// Quoter quotes one word for the target shell.
	Quoter interface {
		Quote(word string) (string, error)
	}
)

// Error implements the error interface.
func (e *MissingArgumentError) Error() string {
	return "Missing argument: " + e.Parameter
}

// Unwrap returns ErrMissingArgument so callers can use errors.Is for programmatic detection.
func (e *MissingArgumentError) Unwrap() error { return ErrMissingArgument }

// ValidateRequest checks a request against the schema before anything is spawned.
//
// Positional parameters are emitted in declaration order; a missing one falls back to
// its default, and trailing defaults are dropped so the module applies them itself.
// Option parameters are emitted as --name value only when supplied. A required
// parameter absent from args yields *MissingArgumentError.
func ValidateRequest(cfg *ModuleConfig, command string, args map[string]string) (*Invocation, error) {
	spec, ok := cfg.Commands[command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, command)
	}

	var (
		positional []string
		explicit   int
		options    []string
	)
	for _, p := range spec.Parameters {
		value, supplied := args[p.Name]
		if !supplied && p.Required() {
			return nil, &MissingArgumentError{Command: command, Parameter: p.Name}
		}
		if p.Option {
			if supplied {
				options = append(options, "--"+strings.ReplaceAll(p.Name, "_", "-"), value)
			}
			continue
		}
		if !supplied {
			value = *p.DefaultValue
		}
		positional = append(positional, value)
		if supplied {
			explicit = len(positional)
		}
	}

	argv := make([]string, 0, 1+explicit+len(options))
	argv = append(argv, command)
	argv = append(argv, positional[:explicit]...)
	argv = append(argv, options...)
	return &Invocation{Command: spec, EntryPoint: spec.SourceFile, Argv: argv}, nil
}

// Args renders Argv as a single shell-quoted argument string.
func (inv *Invocation) Args(q Quoter) (string, error) {
	words := make([]string, 0, len(inv.Argv))
	for _, w := range inv.Argv {
		quoted, err := q.Quote(w)
		if err != nil {
			return "", err
		}
		words = append(words, quoted)
	}
	return strings.Join(words, " "), nil
}
