package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/cfpgen/internal/metrics"
	"github.com/kingrea/cfpgen/internal/server"
	"github.com/kingrea/cfpgen/internal/session"
	"github.com/kingrea/cfpgen/internal/workbench"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(e *env) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API used by web front ends",
		Long: `serve exposes idea generation, per-idea drafts, the refinement chat and
downloads over HTTP. Sessions are kept in memory unless sessions.backend is
set to sqlite in .cfpgen/config.yaml. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := server.SettingsFromConfig(e.cfg)
			if cmd.Flags().Changed("host") {
				settings.Host = host
			}
			if cmd.Flags().Changed("port") {
				settings.Port = port
			}
			return runServe(cmd.Context(), e, settings, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&host, "host", server.DefaultHost, "interface to listen on")
	cmd.Flags().IntVarP(&port, "port", "p", server.DefaultPort, "TCP port to listen on")
	return cmd
}

func runServe(ctx context.Context, e *env, settings server.Settings, out io.Writer) error {
	sessions := e.cfg.File.Sessions
	store, err := session.Open(ctx, sessions.Backend, sessions.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			e.logger.Warn("close session store", zap.Error(err))
		}
	}()

	m := metrics.New()
	bench := e.workbench(
		workbench.WithStore(store),
		workbench.WithMetrics(m),
		workbench.WithChatTimeout(settings.ChatBudget()),
	)
	srv := server.New(settings, bench,
		server.WithCatalog(e.cfg.Catalog()),
		server.WithMetrics(m),
		server.WithLogger(e.logger),
		server.WithDefaults(e.cfg.DefaultAudience(), e.cfg.File.Defaults.IdeaCount),
	)

	g, gctx := errgroup.WithContext(ctx)
	if err := srv.Start(gctx); err != nil {
		return err
	}
	e.logger.Info("serving",
		zap.String("url", srv.BaseURL()),
		zap.String("sessions", sessions.Backend),
		zap.Duration("ttl", sessions.TTL))
	fmt.Fprintf(out, "🎤 cfpgen API listening on %s (Ctrl+C to stop)\n", srv.BaseURL())

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		e.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
