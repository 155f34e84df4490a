package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"
	chorus "github.com/tphakala/go-chorus"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chorus extraction HTTP service",
		Long: `Serves POST /extract-chorus, GET /download/{file_id},
DELETE /cleanup/{file_id}, GET /supported-formats and GET /health.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := serveConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("host", defaultHost, "listen host (env HOST)")
	cmd.Flags().Int("port", defaultPort, "listen port (env PORT)")
	cmd.Flags().String("output-dir", defaultOutputDir, "directory for extracted clips (env OUTPUT_DIR)")
	return cmd
}

// serveConfig loads the environment and applies the flags the user set.
func serveConfig(cmd *cobra.Command) (serviceConfig, error) {
	cfg, err := loadServiceConfig()
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("output-dir") {
		dir, _ := flags.GetString("output-dir")
		cfg.setOutputDir(dir)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg serviceConfig) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := os.MkdirAll(cfg.OutputDir, outputDirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	l, err := openLedger(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer l.Close()

	ex, err := chorus.New(cfg.extractorConfig(logger))
	if err != nil {
		return err
	}
	defer ex.Close()

	s := newServer(cfg, ex, l, logger)
	go s.runSweeper(ctx, sweepInterval)

	srv := &http.Server{
		Addr:              cfg.addr(),
		Handler:           s.handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr), slog.String("output_dir", cfg.OutputDir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("server stopped", slog.Any("error", xerrors.New(err)))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
