// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"modvalidator-cli/pkg/platform"
)

const (
	// FlavorBash is GNU bash; supports `source`.
	FlavorBash Flavor = "bash"
	// FlavorPOSIX is any other POSIX shell (sh, dash, zsh); uses `.` to source.
	FlavorPOSIX Flavor = "posix"
	// FlavorCmd is Windows cmd.exe.
	FlavorCmd Flavor = "cmd"
)

// ErrNoShell is returned when no usable shell can be found on the host.
var ErrNoShell = errors.New("no shell found")

type (
	// Flavor groups shells by how they source scripts and quote words.
	Flavor string

	// Shell is a resolved host shell.
	Shell struct {
		// Path is the shell executable.
		Path string
		// Args precede the command string (e.g. "-c", "/C").
		Args []string
		// Flavor selects the quoting and sourcing rules.
		Flavor Flavor
	}
)

// Resolve returns the shell to use. A non-empty override (from configuration) wins;
// otherwise cmd.exe is used on Windows and bash, then sh, elsewhere.
func Resolve(override string) (*Shell, error) {
	if override != "" {
		path, err := exec.LookPath(override)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNoShell, override, err)
		}
		return fromPath(path), nil
	}

	if runtime.GOOS == platform.Windows {
		path, err := exec.LookPath("cmd")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoShell, err)
		}
		return fromPath(path), nil
	}

	for _, name := range []string{"bash", "sh"} {
		if path, err := exec.LookPath(name); err == nil {
			return fromPath(path), nil
		}
	}
	return nil, ErrNoShell
}

// fromPath derives flavor and arguments from the shell's base name.
func fromPath(path string) *Shell {
	base := filepath.Base(path)
	// Also handle Windows paths on Unix systems
	if idx := strings.LastIndex(base, `\`); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.ToLower(strings.TrimSuffix(base, ".exe"))

	switch base {
	case "cmd":
		return &Shell{Path: path, Args: []string{"/C"}, Flavor: FlavorCmd}
	case "bash":
		return &Shell{Path: path, Args: []string{"-c"}, Flavor: FlavorBash}
	default:
		return &Shell{Path: path, Args: []string{"-c"}, Flavor: FlavorPOSIX}
	}
}

// Command returns an unstarted exec.Cmd running script through the shell.
func (s *Shell) Command(script string) *exec.Cmd {
	args := make([]string, 0, len(s.Args)+1)
	args = append(args, s.Args...)
	args = append(args, script)
	return exec.Command(s.Path, args...) //nolint:gosec // the shell path comes from LookPath or configuration
}

// Quote returns word quoted so the shell reads it back as a single literal word.
func (s *Shell) Quote(word string) (string, error) {
	if s.Flavor == FlavorCmd {
		if strings.ContainsRune(word, '"') {
			return "", fmt.Errorf("cannot quote %q for cmd.exe", word)
		}
		return `"` + word + `"`, nil
	}
	quoted, err := syntax.Quote(word, s.lang())
	if err != nil {
		return "", fmt.Errorf("cannot quote %q: %w", word, err)
	}
	return quoted, nil
}

// Source returns the statement that sources script into the current shell.
func (s *Shell) Source(script string) (string, error) {
	quoted, err := s.Quote(script)
	if err != nil {
		return "", err
	}
	switch s.Flavor {
	case FlavorCmd:
		return "call " + quoted, nil
	case FlavorBash:
		return "source " + quoted, nil
	default:
		return ". " + quoted, nil
	}
}

// Concat returns the file-printing statement used to emit a declared-variables file.
func (s *Shell) Concat(file string) (string, error) {
	quoted, err := s.Quote(file)
	if err != nil {
		return "", err
	}
	if s.Flavor == FlavorCmd {
		return "type " + quoted, nil
	}
	return "cat " + quoted, nil
}

// AndThen joins statements so each runs only if the previous one succeeded.
func AndThen(statements ...string) string {
	return strings.Join(statements, " && ")
}

// Check parses script with the shell grammar and reports syntax errors before
// anything is spawned. cmd.exe scripts are not checked.
func (s *Shell) Check(script string) error {
	if s.Flavor == FlavorCmd {
		return nil
	}
	parser := syntax.NewParser(syntax.Variant(s.lang()))
	if _, err := parser.Parse(strings.NewReader(script), "command"); err != nil {
		return fmt.Errorf("invalid shell command: %w", err)
	}
	return nil
}

func (s *Shell) lang() syntax.LangVariant {
	if s.Flavor == FlavorBash {
		return syntax.LangBash
	}
	return syntax.LangPOSIX
}
