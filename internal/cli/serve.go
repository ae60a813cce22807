package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"growtasks/internal/handlers"
	"growtasks/internal/middleware"
	"growtasks/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the HTTP API over rt, with monitoring routes at the root.
func NewRouter(rt *Runtime, monitor *monitoring.Monitor) *gin.Engine {
	cfg := rt.Config

	router := gin.New()
	router.Use(
		middleware.RecoveryWithLog(rt.Logger),
		middleware.RequestLogger(rt.Logger),
		middleware.CORS(cfg.Server.AllowedOrigins),
		monitor.Middleware(),
	)

	monitor.RegisterHealthCheck("storage", rt.Backend.Health)
	if s, ok := rt.Backend.(interface{ Stats() map[string]interface{} }); ok {
		monitor.RegisterStats("storage", s.Stats)
	}
	monitor.RegisterRoutes(router)

	api := router.Group("")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMin,
		BurstSize:         cfg.RateLimit.BurstSize,
	}))
	handlers.RegisterRoutes(api, rt.Service, rt.Service, rt.Logger)

	return router
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Server.Port = port
			}
			if cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			rt, err := NewRuntime(cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt, NewRouter(rt, monitoring.New()))
		},
	}
	cmd.Flags().String("port", "", "Override server.port")
	return cmd
}

// serve runs the server until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, rt *Runtime, handler http.Handler) error {
	cfg := rt.Config
	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.Logger.Infof(ctx, "growtasks listening on %s (%s storage)", srv.Addr, cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.Logger.Infof(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
