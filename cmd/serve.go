package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/panelvault/coverid/internal/catalog"
	"github.com/panelvault/coverid/internal/config"
	"github.com/panelvault/coverid/internal/handlers"
	"github.com/panelvault/coverid/internal/identify"
	"github.com/panelvault/coverid/internal/ocr"
	"github.com/panelvault/coverid/internal/storage"
)

const janitorInterval = time.Minute

func newServeCmd(cfg func() config.Config) *cobra.Command {
	var port string
	var catalogPath string
	var noOCR bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scan-session HTTP API",
		Long: `Starts the coverid API on the specified port.

Clients post OCR text (or a cover photo) to open a scan session, then select
one of the offered issues, request a manual search, or rescan. Sessions live
in memory and expire after the configured TTL.`,
		Example: `  # Start server on the configured port (default 8888)
  coverid serve --catalog ./catalog.jsonl

  # Start server on a custom port without image uploads
  coverid serve --catalog ./catalog.parquet --port 3000 --no-ocr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if port != "" {
				c.Port = port
			}
			if catalogPath != "" {
				c.Catalog = catalogPath
			}
			if c.Catalog == "" {
				return errors.New("no catalog: pass --catalog or set COVERID_CATALOG")
			}

			src, err := catalog.LoadFile(c.Catalog)
			if err != nil {
				return err
			}
			log.Info().Str("catalog", c.Catalog).Int("records", src.Len()).Msg("catalog loaded")

			var ocrService *ocr.Service
			if !noOCR {
				ocrService = ocr.FromConfig(c.OCR)
			}

			return serve(cmd.Context(), c, src, ocrService)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog dump (.json, .jsonl or .parquet)")
	cmd.Flags().BoolVar(&noOCR, "no-ocr", false, "Disable image uploads")

	return cmd
}

func serve(ctx context.Context, c config.Config, src catalog.Source, ocrService *ocr.Service) error {
	store := storage.New(nil, c.SessionTTL)
	identifier := identify.NewService(src, identify.WithPolicy(c.Decision), identify.WithLimit(c.CatalogLimit))
	handler := handlers.New(store, identifier, ocrService)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go store.RunJanitor(janitorCtx, janitorInterval)

	addr := ":" + c.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Routes(c.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("url", "http://localhost"+addr).Msg("coverid API available")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
			return err
		}
		log.Info().Msg("server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
