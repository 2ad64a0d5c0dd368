package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voyago-poc/server/internal/api"
	logx "github.com/voyago-poc/server/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the planner HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, "api")
		if err != nil {
			return err
		}
		defer a.close()

		srv := &api.Server{
			Graph:        a.graph,
			Generator:    a.generator,
			Preferences:  a.preferences,
			Finder:       a.store,
			Checkpointer: a.checkpointer,
		}

		httpSrv := &http.Server{
			Addr:    a.cfg.Server.Addr,
			Handler: srv.Handler(),
		}

		go func() {
			<-ctx.Done()
			logx.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()

		logx.Info().Str("addr", a.cfg.Server.Addr).Msg("planner listening")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
