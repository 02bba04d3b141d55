package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/adu-proposal/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the estimate, proposal and pricing configuration API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig, err := server.NewConfig(a.conf.Server)
			if err != nil {
				return err
			}
			if address != "" {
				serverConfig.Address = address
			}

			template, err := a.conf.LoadTemplate()
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			handler := server.NewHandler(a.logger, server.Dependencies{
				Store:     s,
				Assembler: a.assembler(),
				Company:   a.conf.Company,
				Template:  template,
			}, serverConfig.UploadSizeBytes(), version)

			srv := &http.Server{
				Addr:              serverConfig.Address,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("listening",
					zap.String("op", "main.serve"),
					zap.String("address", serverConfig.Address),
					zap.Int64("maxUploadSize", serverConfig.UploadSizeBytes()),
				)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down",
				zap.String("op", "main.serve"),
			)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address override")
	return cmd
}
