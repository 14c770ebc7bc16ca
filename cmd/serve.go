package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetlens/meetlens/pkg/api"
	"github.com/meetlens/meetlens/pkg/logging"
	"github.com/meetlens/meetlens/pkg/upload"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *GlobalOptions) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MeetLens HTTP service",
		Long: `Run the MeetLens HTTP service.

The service accepts chunked media uploads, transcribes them through the
configured diarization provider, runs the analysis pipeline, and serves
persisted results.

Endpoints:
  POST /v1/uploads?action=init|upload|complete|abort
  GET  /v1/records
  GET  /v1/records/{id}
  GET  /healthz
  GET  /version
  GET  /metrics

Examples:
  meetlens serve
  meetlens serve --listen :9090
  MEETLENS_REDIS_ADDR=localhost:6379 meetlens serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.Load()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}

			sessions, err := newSessionStore(cfg)
			if err != nil {
				return err
			}
			manager := upload.NewManager(sessions, log, upload.ManagerOptions{
				MaxSize:       cfg.Upload.MaxSize,
				IdleTimeout:   cfg.Upload.SessionIdleTimeout,
				SweepInterval: cfg.Upload.SweepInterval,
			})

			store, err := openRecords(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline, err := newPipeline(cfg, log, store)
			if err != nil {
				return err
			}

			handler := &api.Handler{
				Uploads:  manager,
				Pipeline: pipeline,
				Records:  store,
				Log:      log,
			}

			srv := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           api.NewRouter(handler),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go manager.RunSweeper(ctx)

			errCh := make(chan error, 1)
			go func() {
				log.Info("http server listening", logging.F("addr", cfg.ListenAddr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				log.Info("shutting down")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")

	return cmd
}
