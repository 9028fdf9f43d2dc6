package commands

// Serves the web form: GET / shows the form, POST /generate renders and
// returns the preview with download links, POST /generate/{png|jpg} streams
// the file directly.

import (
	"context"
	"dtr-image/internal/infra/ratelimit"
	"dtr-image/internal/web"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the DTR image web form",
	Long:  `Serve the single-page form that renders the DTR image and offers it for download.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address (env: DTR_SERVER_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, renderer, layout, err := setup(cmd)
	if err != nil {
		return err
	}

	var limiter *ratelimit.Keyed
	if cfg.Server.RateLimit > 0 {
		limiter = ratelimit.New(cfg.Server.RateLimit, cfg.Server.RateBurst)
	}

	srv, err := web.NewServer(web.Options{
		Renderer:     renderer,
		Layout:       layout,
		OutputDir:    cfg.App.OutputDir,
		SaveOutputs:  cfg.App.SaveOutputs,
		Limiter:      limiter,
		MaxFormBytes: cfg.Server.MaxFormBytes,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}
