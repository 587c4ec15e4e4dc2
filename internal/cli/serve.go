package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	tthttp "tokentrim/internal/http"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  POST /analyze-file         quick size, language and token estimate
  POST /compress             full compression report
  POST /decode               expand hash references
  POST /pipeline/raw         raw context bundle
  POST /pipeline/compressed  compressed context bundle
  POST /lossless/encode      lossless bundle
  POST /lossless/decode      restore a lossless bundle
  GET  /metrics              Prometheus metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := GetLogger()

	svc := newServices(cfg, nil)
	svc.enableReportCache(cfg)

	server, err := tthttp.NewServer(tthttp.Services{
		Compress: svc.compress,
		Analyze:  svc.analyze,
		Bundle:   svc.bundle,
		Lossless: svc.lossless,
		Reports:  svc.reports,
	}, log, cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		log.Info("received signal", zap.String("signal", s.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
