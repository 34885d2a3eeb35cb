package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/navtree/navtree/httpapi"
)

const shutdownTimeout = 10 * time.Second

func (cli *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, rendered navigation and the change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cli.serve(ctx)
		},
	}
	flags := cmd.Flags()
	flags.String("addr", ":8080", "Listen address")
	flags.StringSlice("cors-origins", nil, "Allowed browser origins")
	flags.String("site", "", "Site navigation is rendered for by default")
	_ = cli.v.BindPFlag("addr", flags.Lookup("addr"))
	_ = cli.v.BindPFlag("cors-origins", flags.Lookup("cors-origins"))
	_ = cli.v.BindPFlag("site", flags.Lookup("site"))
	return cmd
}

// serve runs until ctx is cancelled, then drains the HTTP server
func (cli *CLI) serve(ctx context.Context) error {
	authn, err := cli.authenticator()
	if err != nil {
		return err
	}
	svc, _, err := cli.openService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	hub := httpapi.NewHub(cli.logger)
	svc.SetNotifier(hub)

	srv := httpapi.NewServer(httpapi.Config{
		CORSOrigins: cli.v.GetStringSlice("cors-origins"),
		Site:        cli.v.GetString("site"),
	}, svc, authn, hub, httpapi.WithLogger(cli.logger))
	httpServer := srv.HTTPServer(cli.v.GetString("addr"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		cli.logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapError("serve", err, "Check that --addr is free")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		cli.logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
