// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"modvalidator-cli/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modvalidator configuration",
		Long: `Manage modvalidator configuration.

Configuration is stored in:
  - Linux: ~/.config/modvalidator/config.cue
  - macOS: ~/Library/Application Support/modvalidator/config.cue
  - Windows: %APPDATA%\modvalidator\config.cue

Every key can be overridden with a MODVALIDATOR_ environment variable,
for example MODVALIDATOR_API_PORT=9000.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.loadConfig(cmd.Context())
			showConfig(cmd.OutOrStdout(), cfg, app.configPath)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := app.configPath
			if path == "" {
				dir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				path = config.FilePath(dir)
			}

			out := cmd.OutOrStdout()
			if force {
				if err := config.Save(config.DefaultConfig(), path); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s wrote %s\n", SuccessStyle.Render("✓"), path)
				return nil
			}
			created, err := config.CreateDefaultConfig(path)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(out, "%s already exists (use --force to overwrite)\n", path)
				return nil
			}
			fmt.Fprintf(out, "%s wrote %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(app.loadConfig(cmd.Context())))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, explicitPath string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if explicitPath != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), explicitPath)
	}

	rows := []struct{ key, value string }{
		{"modules_dir", cfg.ModulesDir},
		{"subnets_dir", cfg.SubnetsDir},
		{"env_root", cfg.EnvRoot},
		{"base_interpreter", cfg.BaseInterpreter},
		{"shell", cfg.Shell},
		{"registrar_url", cfg.RegistrarURL},
		{"registry_path", cfg.RegistryPath},
		{"api.host", cfg.API.Host},
		{"api.port", strconv.Itoa(cfg.API.Port)},
		{"log.level", cfg.Log.Level.String()},
		{"log.timestamp", strconv.FormatBool(cfg.Log.Timestamp)},
	}
	for _, r := range rows {
		value := r.value
		if value == "" {
			value = SubtitleStyle.Render("(auto)")
		} else {
			value = valueStyle.Render(value)
		}
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render(r.key), value)
	}
}
