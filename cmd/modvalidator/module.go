// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"modvalidator-cli/internal/install"
	"modvalidator-cli/internal/issue"
	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/registry"
)

func newInstallCommand(app *App) *cobra.Command {
	var opts install.Options

	cmd := &cobra.Command{
		Use:   "install <name|url>",
		Short: "Install an inference or subnet module",
		Long: `Install an inference module by name (fetched from the registrar) or a subnet
module by repository URL (cloned with git). Each module gets its own isolated
interpreter environment.`,
		Example: `  modvalidator install translation --api-port 8010
  modvalidator install https://github.com/example/subnet-9`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inst, store, err := app.installer(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := inst.Install(ctx, args[0], opts)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("install module").
					WithResource(args[0]).
					WithSuggestion("Re-run with --verbose to see the installer output").
					WithIssue(installIssue(err)).
					Wrap(err).
					BuildError()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s module %s\n", SuccessStyle.Render("✓"), report.Module.Kind, CmdStyle.Render(report.Module.Name))
			if report.Schema != nil {
				fmt.Fprintf(out, "  %d command(s) declared, %d environment variable(s) expected\n",
					len(report.Schema.Commands), len(report.Schema.EnvVars))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.APIHost, "api-host", "", "API host recorded for an inference module")
	cmd.Flags().StringVar(&opts.APIPort, "api-port", "", "API port recorded for an inference module")

	return cmd
}

// installIssue keeps specific catalog entries and falls back to the generic one.
func installIssue(err error) issue.Id {
	if id := classifyIssue(err); id != 0 {
		return id
	}
	return issue.InstallFailedId
}

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return issue.WrapWithContext(err, "list modules", "")
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, SubtitleStyle.Render("No modules installed."))
				return nil
			}

			fmt.Fprintln(out, TitleStyle.Render("Installed modules"))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", CmdStyle.Render(e.Name), e.Kind, SubtitleStyle.Render(e.RegisteredAt.Format("2006-01-02 15:04")))
			}
			return tw.Flush()
		},
	}
}

func newUninstallCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove a module, its environment and its registry entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			inst, store, err := app.installer(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			kind, err := installedKind(ctx, store, inst.Layout, name)
			if err != nil {
				return actionable(err, "uninstall module", name)
			}
			if err := inst.Uninstall(ctx, name, kind); err != nil {
				return actionable(err, "uninstall module", name)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s module %s\n", SuccessStyle.Render("✓"), kind, CmdStyle.Render(name))
			return nil
		},
	}
}

// installedKind looks the module up in the registry, falling back to the directory
// layout for modules installed before the registry existed.
func installedKind(ctx context.Context, store *registry.Store, layout module.Layout, name string) (module.Kind, error) {
	if err := module.ValidateName(name); err != nil {
		return "", err
	}
	entry, err := store.Get(ctx, name)
	if err == nil {
		return entry.Kind, nil
	}
	if !errors.Is(err, registry.ErrNotRegistered) {
		return "", err
	}

	for _, kind := range []module.Kind{module.KindInference, module.KindSubnet} {
		mod, err := layout.Module(name, kind)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(mod.SourceRoot); err == nil {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, os.ErrNotExist)
}
