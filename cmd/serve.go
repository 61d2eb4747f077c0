package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-restream-stats/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve face-off statistics and layouts over HTTP",
	Long: `Start an HTTP server for overlay tooling.

Endpoints:
  GET /health
  GET /faceoff?p1=<racetime-id>&p2=<racetime-id>[&goal=&category=&standard=&non_custom=&recorded=&fetch=]
  GET /matches
  GET /matches/{id}/layout?deck=<deck>

Allowed CORS origins come from RESTREAM_CORS_ORIGINS (comma-separated).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $RESTREAM_API_ADDR or :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.APIAddr
	}

	db, svc, err := newService()
	if err != nil {
		return err
	}
	defer db.Close()

	router := api.NewRouter(api.NewHandler(svc, db, log), cfg.CORSOrigins)
	srv := api.NewServer(addr, router)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
