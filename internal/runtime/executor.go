// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"modvalidator-cli/internal/pyenv"
	"modvalidator-cli/internal/shell"
)

// ErrEnvironmentNotReady is returned when Run gets a handle that was never created.
var ErrEnvironmentNotReady = errors.New("environment is not created")

// Executor runs entry points through the host shell.
type Executor struct {
	// Shell runs the command string.
	Shell *shell.Shell
	// Echo receives every stdout line as it arrives. Nil discards.
	Echo io.Writer
	// ErrEcho receives every stderr line as it arrives. Nil discards.
	ErrEcho io.Writer
}

// NewExecutor creates an executor that echoes child output to the process streams.
func NewExecutor(sh *shell.Shell) *Executor {
	return &Executor{Shell: sh, Echo: os.Stdout, ErrEcho: os.Stderr}
}

// Command builds `source <activate> && <interpreter> -m <modulePath> <args>`.
// args is appended verbatim and is not re-tokenized.
func (e *Executor) Command(h *pyenv.EnvironmentHandle, modulePath, args string) (string, error) {
	source, err := e.Shell.Source(h.ActivateScript())
	if err != nil {
		return "", err
	}
	interp, err := e.Shell.Quote(h.InterpreterPath)
	if err != nil {
		return "", err
	}
	run := interp + " -m " + modulePath
	if args = strings.TrimSpace(args); args != "" {
		run += " " + args
	}
	return shell.AndThen(source, run), nil
}

// Run executes entryPoint with args inside the environment of h, with workDir as the
// child's working directory. It returns only after both output streams reach EOF and
// the child has exited.
func (e *Executor) Run(h *pyenv.EnvironmentHandle, entryPoint, args, workDir string) *Result {
	if !h.Ready() {
		return NewErrorResult(1, ErrEnvironmentNotReady)
	}
	modulePath, err := ModulePath(entryPoint, workDir)
	if err != nil {
		return NewErrorResult(1, err)
	}
	script, err := e.Command(h, modulePath, args)
	if err != nil {
		return NewErrorResult(1, err)
	}
	if err := e.Shell.Check(script); err != nil {
		return NewErrorResult(1, err)
	}

	slog.Debug("executing", "command", script, "dir", workDir)

	cmd := e.Shell.Command(script)
	cmd.Dir = workDir
	// exec keeps the last value of a duplicated key, so captured vars win.
	cmd.Env = append(os.Environ(), h.Environ()...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to open stdout: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to open stderr: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to start %s: %w", e.Shell.Path, err))
	}

	type drained struct {
		output string
		err    error
	}
	done := make(chan drained, 1)
	go func() {
		var sb strings.Builder
		err := readLines(stdout, func(line string) {
			sb.WriteString(line)
			sb.WriteByte('\n')
			writeLine(e.Echo, line)
		})
		done <- drained{output: sb.String(), err: err}
	}()

	errReadErr := readLines(stderr, func(line string) {
		writeLine(e.ErrEcho, line)
		slog.Debug("child stderr", "line", line)
	})

	// Both pipes must hit EOF before Wait closes them.
	out := <-done
	waitErr := cmd.Wait()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code := ExitCode(exitErr.ExitCode())
			if ok, errs := code.IsValid(); !ok {
				// Killed by a signal.
				slog.Debug("child terminated abnormally", "error", errs[0])
				code = 1
			}
			return NewErrorResult(code, &ExitError{Code: code})
		}
		return NewErrorResult(1, waitErr)
	}
	if out.err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to read stdout: %w", out.err))
	}
	if errReadErr != nil {
		slog.Warn("stderr read failed", "error", errReadErr)
	}
	return NewSuccessResult(out.output)
}

// readLines calls fn for every line of r, without its line terminator. A final line
// without a newline is still delivered. Lines of any length are supported.
func readLines(r io.Reader, fn func(string)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			fn(strings.TrimSuffix(line, "\r"))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// Keep draining so the child never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, br)
			return err
		}
	}
}

func writeLine(w io.Writer, line string) {
	if w == nil {
		return
	}
	_, _ = io.WriteString(w, line+"\n")
}
