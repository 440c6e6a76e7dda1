// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"modvalidator-cli/internal/api"
	"modvalidator-cli/internal/issue"
)

func newServeCommand(app *App) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve subnet commands over HTTP",
		Long: `Start the command API. POST /subnet_command with
{"subnet": "...", "command": "...", "args": {...}} runs the command inside the
subnet's environment and returns {"message": "..."}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := app.services(ctx, false)
			if err != nil {
				return err
			}
			cfg := app.loadConfig(ctx)
			if !cmd.Flags().Changed("host") {
				host = cfg.API.Host
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.API.Port
			}

			srv := &api.Server{Layout: svc.layout, Envs: svc.envs, Exec: svc.exec}
			addr := net.JoinHostPort(host, strconv.Itoa(port))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s command API on %s\n", TitleStyle.Render("Serving"), CmdStyle.Render(addr))
			if err := api.ListenAndServe(ctx, addr, srv.Handler()); err != nil {
				return issue.WrapWithContext(err, "serve command API", addr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "address to bind (default from config api.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config api.port)")

	return cmd
}

func newProxyCommand() *cobra.Command {
	var (
		ip        string
		port      int
		targetURL string
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Forward HTTP requests to a target URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := api.NewProxy(targetURL)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("start proxy").
					WithResource(targetURL).
					WithSuggestion("Pass an absolute URL such as http://127.0.0.1:8000").
					Wrap(err).
					BuildError()
			}
			addr := net.JoinHostPort(ip, strconv.Itoa(port))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s -> %s\n", TitleStyle.Render("Proxying"), CmdStyle.Render(addr), targetURL)
			if err := api.ListenAndServe(cmd.Context(), addr, h); err != nil {
				return issue.WrapWithContext(err, "run proxy", addr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ip, "ip", "0.0.0.0", "address to bind")
	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().StringVar(&targetURL, "target-url", "", "URL requests are forwarded to")
	_ = cmd.MarkFlagRequired("target-url")

	return cmd
}
