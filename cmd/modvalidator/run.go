// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"modvalidator-cli/internal/issue"
	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/runtime"
	"modvalidator-cli/internal/schema"
)

const (
	formatText = "text"
	formatTOML = "toml"
	formatJSON = "json"
)

func newRunInferenceCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run-inference <name> <input> [args...]",
		Short: "Run an inference module with the given input",
		Long: `Run an inference module's entry point (<modules_dir>/<name>/<name>.py) inside its
isolated environment. Every argument after the name is passed to the module as a
separate, shell-quoted word.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			svc, err := app.services(ctx, false)
			if err != nil {
				return err
			}

			mod, err := installedModule(svc.layout, name, module.KindInference)
			if err != nil {
				return actionable(err, "run inference", name)
			}
			h, err := svc.envs.Ensure(ctx, mod)
			if err != nil {
				return actionable(err, "prepare environment", name)
			}
			if _, err := svc.envs.Activate(ctx, h, mod); err != nil {
				return actionable(err, "activate environment", name)
			}

			words := make([]string, 0, len(args)-1)
			for _, a := range args[1:] {
				q, err := svc.shell.Quote(a)
				if err != nil {
					return actionable(err, "run inference", name)
				}
				words = append(words, q)
			}

			// `-m modules.<name>.<name>` resolves only with the project root on sys.path.
			workDir := filepath.Dir(filepath.Clean(svc.layout.ModulesDir))
			entry, err := runtime.EntryPointIn(mod.DefaultEntryPoint(), workDir)
			if err != nil {
				return actionable(err, "run inference", name)
			}
			result := svc.exec.Run(h, entry, strings.Join(words, " "), workDir)
			if !result.Succeeded() {
				return resultError(result, "run inference", name)
			}

			fmt.Fprint(cmd.OutOrStdout(), "Inference result: "+result.Output)
			return nil
		},
	}
}

// resultError turns a failed execution result into an ExitError carrying the
// child's exit code.
func resultError(result *runtime.Result, operation, resource string) error {
	err := result.Error
	if err == nil {
		err = &runtime.ExitError{Code: result.ExitCode}
	}
	return &ExitError{Code: result.ExitCode, Err: actionable(err, operation, resource)}
}

// installedModule resolves name in layout and checks its source tree exists.
func installedModule(layout module.Layout, name string, kind module.Kind) (module.ManagedModule, error) {
	mod, err := layout.Module(name, kind)
	if err != nil {
		return mod, err
	}
	if _, err := os.Stat(mod.SourceRoot); err != nil {
		return mod, fmt.Errorf("%s module %s: %w", kind, name, err)
	}
	return mod, nil
}

func newParseConfigCommand(app *App) *cobra.Command {
	var (
		save   bool
		format string
		sets   []string
	)

	cmd := &cobra.Command{
		Use:   "parse-config <name>",
		Short: "Show the commands and environment variables a subnet module declares",
		Long: `Read the subnet module's top-level source files and print every command it
declares with its parameters, plus the environment variables listed in its
.env.example file.

Values given with --set override the example defaults; --save appends the
variables to the module's .env file, which is sourced on every activation.`,
		Example: `  modvalidator parse-config sn1
  modvalidator parse-config sn1 --format json
  modvalidator parse-config sn1 --set WALLET_NAME=default --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			layout := app.loadConfig(cmd.Context()).Layout()

			mod, err := installedModule(layout, name, module.KindSubnet)
			if err != nil {
				return actionable(err, "parse module configuration", name)
			}
			cfg, err := schema.Extract(mod.SourceRoot)
			if err != nil {
				return actionable(err, "parse module configuration", name)
			}
			for _, s := range sets {
				if err := cfg.Set(s); err != nil {
					return actionable(err, "set environment variable", s)
				}
			}

			out := cmd.OutOrStdout()
			if err := writeModuleConfig(out, cfg, format); err != nil {
				return err
			}

			if save {
				path, err := cfg.Save(mod.SourceRoot)
				if err != nil {
					return actionable(err, "save environment variables", mod.SourceRoot)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s saved %d variable(s) to %s\n", SuccessStyle.Render("✓"), len(cfg.EnvVars), path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "append the environment variables to the module's .env file")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, toml or json")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "set an environment variable (KEY=VALUE, repeatable)")

	return cmd
}

// writeModuleConfig prints cfg in the requested format.
func writeModuleConfig(w io.Writer, cfg *schema.ModuleConfig, format string) error {
	switch format {
	case formatTOML:
		b, err := cfg.EncodeTOML()
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case formatJSON:
		b, err := cfg.EncodeJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case formatText:
		return writeModuleConfigText(w, cfg)
	default:
		return issue.NewErrorContext().
			WithOperation("print module configuration").
			WithResource(format).
			WithSuggestion("Use one of: text, toml, json").
			Wrap(errors.New("unknown format")).
			BuildError()
	}
}

func writeModuleConfigText(w io.Writer, cfg *schema.ModuleConfig) error {
	fmt.Fprintln(w, TitleStyle.Render("Commands"))
	names := cfg.CommandNames()
	if len(names) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("  (none declared)"))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		c := cfg.Commands[name]
		origin := filepath.Base(c.SourceFile) + ": " + c.BackingFunction
		if required := c.RequiredParams(); len(required) > 0 {
			origin += " (requires " + strings.Join(required, ", ") + ")"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", CmdStyle.Render(name), SubtitleStyle.Render(origin))
		for _, p := range c.Parameters {
			fmt.Fprintf(tw, "    %s\t%s\t%s\n", p.Name, p.DeclaredType, describeParam(p))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Environment variables"))
	vars := cfg.EnvVarNames()
	if len(vars) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("  (none declared)"))
	}
	for _, k := range vars {
		fmt.Fprintf(w, "  %s=%s\n", CmdStyle.Render(k), cfg.EnvVars[k])
	}
	return nil
}

func describeParam(p schema.ParamSpec) string {
	var parts []string
	if p.Option {
		parts = append(parts, "option")
	}
	if p.Required() {
		parts = append(parts, requiredStyle.Render("required"))
	} else {
		parts = append(parts, fmt.Sprintf("default %q", *p.DefaultValue))
	}
	if p.HelpText != nil && *p.HelpText != "" {
		parts = append(parts, *p.HelpText)
	}
	return strings.Join(parts, "  ")
}
