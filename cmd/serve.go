package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shopfloor/internal/api"
	"github.com/sells-group/shopfloor/internal/audit"
	"github.com/sells-group/shopfloor/internal/auth"
	"github.com/sells-group/shopfloor/internal/config"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lookup API server",
	Long:  "Serves code search, parts lists and recent lots over HTTP. Every /user route requires a bearer token signed with auth.jwt_secret.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, pool, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		st, err := initAudit(ctx, pool)
		if err != nil {
			return err
		}
		var rec audit.Recorder
		if st != nil {
			defer st.Close() //nolint:errcheck
			rec = st
		}

		srv, err := buildServer(cfg, engine, rec)
		if err != nil {
			return err
		}
		return runServer(ctx, srv)
	},
}

// buildServer wires the API handler into an http.Server listening on the
// configured port.
func buildServer(c *config.Config, lk api.Lookup, rec audit.Recorder) (*http.Server, error) {
	verifier, err := auth.NewVerifier(c.Auth.JWTSecret)
	if err != nil {
		return nil, eris.Wrap(err, "serve: init verifier")
	}

	handler := api.NewServer(lk, verifier, rec, api.Options{
		RequestTimeout: time.Duration(c.Server.RequestTimeoutSecs) * time.Second,
		RateLimitRPS:   c.Server.RateLimitRPS,
		RateLimitBurst: c.Server.RateLimitBurst,
		CORSOrigins:    c.Server.CORSOrigins,
	}).Handler()

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// runServer serves until ctx is done, then drains in-flight requests.
func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
