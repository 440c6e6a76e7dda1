// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"modvalidator-cli/internal/config"
	"modvalidator-cli/internal/install"
	"modvalidator-cli/internal/issue"
	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/pyenv"
	"modvalidator-cli/internal/registry"
	"modvalidator-cli/internal/runtime"
	"modvalidator-cli/internal/shell"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler receives
	// an App and builds its collaborators through it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer

		verbose    bool
		configPath string
		cfg        *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}

	// services are the engine components configured for one invocation.
	services struct {
		layout module.Layout
		shell  *shell.Shell
		envs   *pyenv.Manager
		exec   *runtime.Executor
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{Config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr}
}

// loadConfig loads configuration once per invocation. A broken config file is
// reported and replaced by defaults plus environment overrides so that
// `config init` and friends still work.
func (a *App) loadConfig(ctx context.Context) *config.Config {
	if a.cfg != nil {
		return a.cfg
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.verbose))
		if cfg, err = config.Defaults(); err != nil {
			cfg = config.DefaultConfig()
		}
	}
	a.cfg = cfg
	a.setupLogger()
	return cfg
}

// setupLogger installs charmbracelet/log as the slog handler.
func (a *App) setupLogger() {
	level, err := log.ParseLevel(a.cfg.Log.Level.String())
	if err != nil {
		level = log.InfoLevel
	}
	if a.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix:          config.AppName,
		Level:           level,
		ReportTimestamp: a.cfg.Log.Timestamp,
	})
	slog.SetDefault(slog.New(logger))
}

// services resolves the shell and builds the environment manager and executor.
// Child stdout is echoed only when echoStdout is set; stderr is always echoed.
func (a *App) services(ctx context.Context, echoStdout bool) (*services, error) {
	cfg := a.loadConfig(ctx)

	sh, err := shell.Resolve(cfg.Shell)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve shell").
			WithResource(cfg.Shell).
			WithIssue(issue.ShellNotFoundId).
			Wrap(err).
			BuildError()
	}

	envs := pyenv.NewManager(cfg.EnvRoot)
	envs.BaseInterpreter = cfg.BaseInterpreter
	envs.Shell = sh

	exec := &runtime.Executor{Shell: sh, ErrEcho: a.stderr}
	if echoStdout {
		exec.Echo = a.stdout
	}

	return &services{layout: cfg.Layout(), shell: sh, envs: envs, exec: exec}, nil
}

// openRegistry opens the installed-module database.
func (a *App) openRegistry(ctx context.Context) (*registry.Store, error) {
	cfg := a.loadConfig(ctx)
	store, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return nil, issue.WrapWithContext(err, "open module registry", cfg.RegistryPath)
	}
	return store, nil
}

// installer builds an Installer backed by the registry. The caller closes the store.
func (a *App) installer(ctx context.Context) (*install.Installer, *registry.Store, error) {
	svc, err := a.services(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	store, err := a.openRegistry(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &install.Installer{
		Layout:       svc.layout,
		RegistrarURL: a.cfg.RegistrarURL,
		Envs:         svc.envs,
		Registry:     store,
		Git:          &install.GitCloner{Progress: a.progressWriter()},
		HostEnvFile:  filepath.Join(".", pyenv.DeclaredVarsFile),
	}, store, nil
}

// progressWriter receives git clone progress in verbose mode.
func (a *App) progressWriter() io.Writer {
	if a.verbose {
		return a.stderr
	}
	return nil
}
