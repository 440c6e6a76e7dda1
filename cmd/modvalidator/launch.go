// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"modvalidator-cli/internal/launch"
	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/patch"
)

// newLaunchCommand builds launch-miner and launch-validator.
func newLaunchCommand(app *App, use, roleName string) *cobra.Command {
	var script string

	cmd := &cobra.Command{
		Use:   use + " <name> [args...]",
		Short: fmt.Sprintf("Launch a subnet module's %s", roleName),
		Long: fmt.Sprintf(`Locate %s.py inside the subnet module, redirect its forward function to the
inference module it references, and run it inside the subnet's environment.
Arguments after the name are passed to the script verbatim.`, roleName),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			role, err := launch.ParseRole(roleName)
			if err != nil {
				return err
			}
			svc, err := app.services(ctx, true)
			if err != nil {
				return err
			}
			subnet, err := installedModule(svc.layout, name, module.KindSubnet)
			if err != nil {
				return actionable(err, "launch "+roleName, name)
			}

			l := &launch.Launcher{
				Subnet:     subnet,
				Role:       role,
				ModulesDir: svc.layout.ModulesDir,
				Envs:       svc.envs,
				Exec:       svc.exec,
			}
			inference, outcome, err := l.Prepare(script)
			if err != nil {
				return actionable(err, "prepare "+roleName, name)
			}
			slog.Info("entry point redirected", "script", l.Script, "inference", inference, "outcome", outcome)

			result, err := l.Launch(ctx, strings.Join(args[1:], " "))
			if err != nil {
				return actionable(err, "launch "+roleName, name)
			}
			if !result.Succeeded() {
				return resultError(result, "run "+roleName, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&script, "script", "", "role script to run instead of searching the subnet tree")

	return cmd
}

func newPatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "patch <script> <inference>",
		Short: "Redirect a launch script's forward function to an inference module",
		Long: `Replace the body of the first "def forward(...)" in script with a shim that
runs modules/<inference>/<inference>.py. Patching an already patched script is a
no-op.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := module.ValidateName(args[1]); err != nil {
				return actionable(err, "patch launch script", args[1])
			}
			outcome, err := patch.RedirectEntryPoint(args[0], args[1])
			if err != nil {
				return actionable(err, "patch launch script", args[0])
			}

			out := cmd.OutOrStdout()
			if outcome == patch.OutcomeAlreadyPatched {
				fmt.Fprintf(out, "%s already redirected to %s\n", args[0], CmdStyle.Render(args[1]))
				return nil
			}
			fmt.Fprintf(out, "%s %s redirected to %s\n", SuccessStyle.Render("✓"), args[0], CmdStyle.Render(args[1]))
			return nil
		},
	}
}
