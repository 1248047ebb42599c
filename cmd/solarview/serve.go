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

	"solarview/internal/logging"
	"solarview/internal/positionsvc"
)

var servePositionsAddr string

var servePositionsCmd = &cobra.Command{
	Use:   "serve-positions",
	Short: "Serve approximate planet positions for development",
	Long:  "serve-positions answers GET /api/positions?t= from a circular orbit model. It is not an ephemeris.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.NewFromEnv(os.Stderr)
		srv := positionsvc.NewServer(servePositionsAddr, positionsvc.NewModel(nil), logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("position service stopped")
		return nil
	},
}

func init() {
	servePositionsCmd.Flags().StringVar(&servePositionsAddr, "addr", ":8000", "Listen address")
}
