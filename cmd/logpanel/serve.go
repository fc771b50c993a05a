package main

import (
	"time"

	"github.com/spf13/cobra"

	"logpanel/internal/auth"
	"logpanel/internal/dashboard"
	"logpanel/internal/demo"
	"logpanel/internal/menu"
	"logpanel/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		addr     string
		input    string
		withDemo bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the log buffer, panel and demo pages over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			ctrl := a.newController()
			defer ctrl.Detach()
			if err := a.importFile(cmd, ctrl.Store(), input); err != nil {
				return err
			}

			dash := dashboard.New(dashboard.WithKV(a.kv), dashboard.WithLogger(a.log))
			dash.Initialize(ctx)
			if dash.AutoRefresh() {
				dash.StartAutoRefresh(ctx)
			}
			defer dash.StopAutoRefresh()

			ac := a.cfg.Auth
			svc := auth.New(
				auth.WithKV(a.kv),
				auth.WithSecret([]byte(ac.Secret)),
				auth.WithDelay(time.Duration(ac.Delay)*time.Millisecond),
				auth.WithLogger(a.log),
			)
			if ac.Email != "" {
				if err := svc.AddAccount(ac.Email, ac.Password); err != nil {
					return err
				}
			}

			opts := server.Options{
				Controller:  ctrl,
				Dashboard:   dash,
				Auth:        svc,
				Routes:      menu.DefaultRoutes(),
				RequireAuth: ac.Secret != "",
				RateLimit:   a.cfg.Server.RateLimit,
				Burst:       a.cfg.Server.Burst,
				Location:    a.loc,
				ExportBase:  a.cfg.Export.Base,
				Logger:      a.log,
			}
			if withDemo {
				d := demo.New(ctrl.Store(), demo.WithKV(a.kv), demo.WithLogger(a.log), demo.WithPanel(ctrl))
				defer d.Close()
				d.Initialize(ctx)
				opts.Demo = d
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return server.New(opts).Run(ctx, addr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	flags.StringVar(&input, "input", "", "JSON Lines log file to preload")
	flags.BoolVar(&withDemo, "demo", false, "enable the demo endpoints")

	return cmd
}
