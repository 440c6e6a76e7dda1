// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "modvalidator",
		Short: "Install, inspect and run foreign modules in isolated environments",
		Long: TitleStyle.Render("modvalidator") + SubtitleStyle.Render(" - foreign module execution engine") + `

modvalidator installs inference and subnet modules, gives each its own isolated
interpreter environment, reads the commands a subnet declares, and runs them from
the command line or over HTTP.

` + SubtitleStyle.Render("Examples:") + `
  modvalidator install translation                Install an inference module
  modvalidator install https://github.com/x/sn1   Install a subnet module
  modvalidator parse-config sn1                   Show the commands sn1 declares
  modvalidator launch-miner sn1                   Run sn1's miner
  modvalidator serve                              Serve subnet commands over HTTP`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.loadConfig(cmd.Context())
		},
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/modvalidator/config.cue)")

	root.AddCommand(
		newInstallCommand(app),
		newListCommand(app),
		newUninstallCommand(app),
		newRunInferenceCommand(app),
		newParseConfigCommand(app),
		newLaunchCommand(app, "launch-miner", "miner"),
		newLaunchCommand(app, "launch-validator", "validator"),
		newPatchCommand(),
		newServeCommand(app),
		newProxyCommand(),
		newConfigCommand(app),
	)

	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI and exits with the resulting code. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.verbose)
		}),
	); err != nil {
		os.Exit(int(exitCodeOf(err)))
	}
}
