// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"modvalidator-cli/internal/install"
	"modvalidator-cli/internal/issue"
	"modvalidator-cli/internal/launch"
	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/patch"
	"modvalidator-cli/internal/pyenv"
	"modvalidator-cli/internal/runtime"
	"modvalidator-cli/internal/schema"
	"modvalidator-cli/internal/shell"
)

// classifyIssue maps an engine error to its catalog entry. Zero means no entry.
func classifyIssue(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}

	switch {
	case errors.Is(err, module.ErrInvalidName):
		return issue.InvalidModuleNameId
	case errors.Is(err, pyenv.ErrActivation):
		return issue.EnvironmentActivationFailedId
	case errors.Is(err, pyenv.ErrProvision):
		return issue.EnvironmentProvisionFailedId
	case errors.Is(err, schema.ErrExtract):
		return issue.SchemaExtractionFailedId
	case errors.Is(err, schema.ErrCommandNotFound):
		return issue.CommandNotFoundId
	case errors.Is(err, schema.ErrMissingArgument):
		return issue.MissingArgumentId
	case errors.Is(err, patch.ErrForwardNotFound):
		return issue.ForwardNotFoundId
	case errors.Is(err, launch.ErrScriptNotFound):
		return issue.LaunchScriptNotFoundId
	case errors.Is(err, launch.ErrInferenceNotFound):
		return issue.InferenceNotFoundId
	case exitedNotFound(err):
		return issue.InterpreterNotFoundId
	case errors.Is(err, runtime.ErrCommandFailed):
		return issue.ExecutionFailedId
	case errors.Is(err, shell.ErrNoShell):
		return issue.ShellNotFoundId
	case errors.Is(err, install.ErrInvalidSource):
		return issue.InstallFailedId
	case errors.Is(err, fs.ErrNotExist):
		return issue.ModuleNotFoundId
	default:
		return 0
	}
}

// actionable wraps err with the operation and resource that failed, attaching the
// catalog entry it classifies as. Errors that are already actionable are returned as-is.
func actionable(err error, operation, resource string) error {
	if err == nil {
		return nil
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithIssue(classifyIssue(err)).
		Wrap(err).
		BuildError()
}

// formatErrorForDisplay formats an error for user display. ActionableErrors include
// their suggestions, and verbose mode adds the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderError writes err to w. In verbose mode the matching catalog entry is rendered
// below the message.
func renderError(w io.Writer, err error, verboseMode bool) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verboseMode))

	if !verboseMode {
		return
	}
	id := classifyIssue(err)
	if id == 0 {
		return
	}
	if entry := issue.Get(id); entry != nil {
		rendered, renderErr := entry.Render("dark")
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// exitCodeOf returns the process exit code for err.
// exitedNotFound reports a child whose shell could not find the program to run.
func exitedNotFound(err error) bool {
	var exitErr *runtime.ExitError
	return errors.As(err, &exitErr) && exitErr.Code.IsNotFound()
}

func exitCodeOf(err error) runtime.ExitCode {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var childErr *runtime.ExitError
	if errors.As(err, &childErr) {
		return childErr.Code
	}
	return 1
}
