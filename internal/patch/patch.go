// SPDX-License-Identifier: MPL-2.0

// Package patch rewrites the forward entry point of a role script so it delegates
// to an installed inference module.
package patch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

const (
	// OutcomePatched means the first forward body was replaced.
	OutcomePatched Outcome = iota + 1
	// OutcomeAlreadyPatched means the shim was present and the file was not written.
	OutcomeAlreadyPatched
)

// ErrForwardNotFound is returned when the script has no forward definition.
// Callers may fall back to asking the operator for a script path.
var ErrForwardNotFound = errors.New("forward function not found")

// headerPattern matches the signature line(s) `[async ]def forward(...)[ -> T]:` at
// the start of a line. Group 1 starts after the indentation.
var headerPattern = regexp.MustCompile(`(?m)^[ \t]*((?:async[ \t]+)?def forward\((?s:.*?)\)\s*(?:->[^:\n]*)?:)`)

type (
	// Outcome reports what RedirectEntryPoint did.
	Outcome int

	// WriteError reports a failure to read or write the script, as opposed to
	// ErrForwardNotFound.
	WriteError struct {
		Path string
		Op   string
		Err  error
	}
)

// String returns a human-readable outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePatched:
		return "patched"
	case OutcomeAlreadyPatched:
		return "already patched"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error { return e.Err }

// Shim returns the replacement forward definition for inferenceName.
func Shim(inferenceName string) string {
	return fmt.Sprintf("def forward(self, x: dict) -> dict:\n    return subprocess.run([\"python\", \"modules/%[1]s/%[1]s.py\"], capture_output=True, text=True)\n", inferenceName)
}

// RedirectEntryPoint replaces the body of the first forward definition in
// scriptPath with the shim for inferenceName. Every byte outside the matched span
// is preserved, as is the file mode. The result is not checked for syntax.
func RedirectEntryPoint(scriptPath, inferenceName string) (Outcome, error) {
	info, err := os.Stat(scriptPath)
	if err != nil {
		return 0, &WriteError{Path: scriptPath, Op: "stat", Err: err}
	}
	content, err := os.ReadFile(scriptPath)
	if err != nil {
		return 0, &WriteError{Path: scriptPath, Op: "read", Err: err}
	}

	patched, outcome, err := Apply(string(content), inferenceName)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", scriptPath, err)
	}
	if outcome == OutcomeAlreadyPatched {
		slog.Debug("script already patched", "script", scriptPath, "inference", inferenceName)
		return outcome, nil
	}

	if err := os.WriteFile(scriptPath, []byte(patched), info.Mode().Perm()); err != nil {
		return 0, &WriteError{Path: scriptPath, Op: "write", Err: err}
	}
	slog.Debug("patched forward", "script", scriptPath, "inference", inferenceName)
	return outcome, nil
}

// Apply performs the substitution on source text.
func Apply(content, inferenceName string) (string, Outcome, error) {
	shim := Shim(inferenceName)
	if strings.Contains(content, shim) {
		return content, OutcomeAlreadyPatched, nil
	}

	loc := headerPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", 0, ErrForwardNotFound
	}
	start, end := loc[2], bodyEnd(content, loc[3])

	var sb strings.Builder
	sb.Grow(len(content) - (end - start) + len(shim))
	sb.WriteString(content[:start])
	sb.WriteString(shim)
	sb.WriteString(content[end:])
	return sb.String(), OutcomePatched, nil
}

// bodyEnd returns the offset just past the body that starts at from: the newline
// before the next line beginning with a non-whitespace byte, or EOF. Blank lines
// separating the body from that line are left outside the span.
func bodyEnd(content string, from int) int {
	end := len(content)
	for i := from; i < len(content)-1; i++ {
		if content[i] == '\n' && !isSpace(content[i+1]) {
			end = i + 1
			break
		}
	}
	for end > from {
		prev := strings.LastIndexByte(content[from:end-1], '\n')
		if prev < 0 || strings.TrimSpace(content[from+prev+1:end]) != "" {
			break
		}
		end = from + prev + 1
	}
	return end
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}
