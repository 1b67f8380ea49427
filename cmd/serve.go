package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/api"
)

// newServeCmd creates the 'serve' subcommand, which runs the read API.
func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the read-only HTTP API over harvested data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if port <= 0 {
				port = a.Config().Server.Port
			}

			server := api.NewServer(
				a.Organizations(), a.Combinations(), a.Industries(), a.Keywords(), a.Logger())
			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.Logger().Info("read API listening", zap.Int("port", port))
				errCh <- httpServer.ListenAndServe()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve API: %w", err)
				}
			case sig := <-stop:
				a.Logger().Info("shutting down read API", zap.String("signal", sig.String()))
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown API: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (0 = configured default)")
	return cmd
}
