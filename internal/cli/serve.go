package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/closure-importer/internal/api"
	"github.com/insightdelivered/closure-importer/internal/config"
	"github.com/insightdelivered/closure-importer/internal/extractor"
	"github.com/insightdelivered/closure-importer/internal/importer"
)

// ServeCmd returns the serve command.
func ServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the web client when STATIC_DIR is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			if port == "" {
				port = e.cfg.Port
			}

			h := &api.Handler{
				Importer:  importer.New(e.store, extractor.PDFExtractor{}, e.log),
				Store:     e.store,
				StaticDir: e.cfg.StaticDir,
				Log:       e.log,
			}
			app := api.NewApp(h, e.cfg.MaxUploadBytes())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				e.log.WithField("port", port).Info("server listening")
				errc <- app.Listen(":" + port)
			}()

			select {
			case err := <-errc:
				if err != nil {
					config.LogError(e.log, "cli", "ServeCmd", "listen", port, err)
				}
				return err
			case <-ctx.Done():
			}

			e.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default from PORT)")

	return cmd
}
