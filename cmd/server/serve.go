package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/autofund-backend/internal/adapter/grpc"
	httpadapter "github.com/simaogato/autofund-backend/internal/adapter/http"
	"github.com/simaogato/autofund-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/autofund-backend/internal/usecase/coordinator"
)

func serveCmd(configPath *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API, the trigger RPC service and the sweep ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if migrate && a.db != nil {
				if err := postgres.Migrate(ctx, a.db); err != nil {
					return err
				}
			}

			return a.serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	errCh := make(chan error, 2)

	// REST
	var httpServer *http.Server
	if a.cfg.HTTP.Addr != "" {
		api := httpadapter.NewServer(a.schedules, a.ledger, a.coordinator, a.cfg.Auth.APIToken, a.logger)
		if a.cfg.Metrics.Enabled {
			api.EnableMetrics()
		}
		httpServer = &http.Server{Addr: a.cfg.HTTP.Addr, Handler: api.Handler()}

		go func() {
			a.logger.Infow("HTTP server listening", "addr", a.cfg.HTTP.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- errors.Wrap(err, "http server")
			}
		}()
	}

	// Trigger RPC
	var grpcServer *grpclib.Server
	if a.cfg.GRPC.Addr != "" {
		grpcServer = grpclib.NewServer(
			grpclib.ChainUnaryInterceptor(
				grpcadapter.LoggingInterceptor(a.logger),
				grpcadapter.AuthInterceptor(a.cfg.Auth.APIToken),
			),
		)
		grpcadapter.RegisterAutoTransferServiceServer(grpcServer, grpcadapter.NewServer(a.coordinator, a.logger))
		if a.cfg.GRPC.Reflection {
			reflection.Register(grpcServer)
		}

		lis, err := net.Listen("tcp", a.cfg.GRPC.Addr)
		if err != nil {
			return errors.Wrapf(err, "failed to listen on %s", a.cfg.GRPC.Addr)
		}
		go func() {
			a.logger.Infow("gRPC server listening", "addr", a.cfg.GRPC.Addr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- errors.Wrap(err, "grpc server")
			}
		}()
	}

	// Periodic sweep
	var ticker *coordinator.Ticker
	if a.cfg.Sweep.Enabled {
		ticker = coordinator.NewTicker(ctx, a.coordinator, coordinator.TickerConfig{Interval: a.cfg.Sweep.Interval}, a.logger)
		ticker.Start()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Infow("Shutting down gracefully")
	case serveErr = <-errCh:
		a.logger.Errorw("Server failed, shutting down", "error", serveErr)
	}

	// Graceful shutdown
	if ticker != nil {
		ticker.Stop()
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
		a.logger.Infow("gRPC server stopped")
	}
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warnw("HTTP shutdown incomplete", "error", err)
		}
		a.logger.Infow("HTTP server stopped")
	}

	return serveErr
}
