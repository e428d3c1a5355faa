package main

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

	"github.com/sells-group/rfplan/internal/api"
	"github.com/sells-group/rfplan/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the planner HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}

		env, err := initApp(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		alerter := monitoring.NewAlerter(cfg.Monitoring.FailureRateThreshold)
		checker := monitoring.NewChecker(env.Collector, alerter, env.Graph, secs(cfg.Monitoring.CheckIntervalSecs))
		go checker.Run(ctx)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(env, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			zap.L().Info("shutting down server")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		zap.L().Info("server stopped")
		return nil
	},
}

// buildRouter wires the API handler for env.
func buildRouter(env *appEnv, origins []string) http.Handler {
	h := api.NewHandler(env.Graph, env.Gate, env.Orchestrator,
		api.WithAllowedOrigins(origins),
		api.WithCollector(env.Collector),
		api.WithMetrics(env.Metrics),
	)
	return h.Router()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}
