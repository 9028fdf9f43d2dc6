package commands

import (
	"dtr-image/internal/dtr"
	"dtr-image/internal/infra/config"
	logging "dtr-image/internal/infra/log"
	"dtr-image/internal/render"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setup loads configuration, points the logger at the configured directory and
// loads the template. A missing template aborts the command.
func setup(cmd *cobra.Command) (*config.Config, *render.Renderer, dtr.Layout, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		logging.LogError("Failed to load config", zap.Error(err))
		return nil, nil, dtr.Layout{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logging.Init(cfg.App.LogDir); err != nil {
		logging.LogWarn("Failed to move logs, keeping default directory", zap.Error(err))
	}

	layout, err := cfg.SelectedLayout()
	if err != nil {
		return nil, nil, dtr.Layout{}, err
	}
	if err := render.ValidateLayout(layout); err != nil {
		return nil, nil, dtr.Layout{}, fmt.Errorf("invalid layout: %w", err)
	}

	tpl, err := render.LoadTemplate(cfg.App.TemplatePath)
	if err != nil {
		logging.LogError("Template image not found. Make sure it exists next to the binary or set --template",
			zap.String("path", cfg.App.TemplatePath),
			zap.Error(err))
		return nil, nil, dtr.Layout{}, err
	}
	logging.LogInfo("Template loaded",
		zap.String("path", tpl.Path()),
		zap.Int("width", tpl.Width()),
		zap.Int("height", tpl.Height()))

	fonts := render.NewFontLoader(cfg.Fonts.Primary, cfg.Fonts.Secondary)
	return cfg, render.NewRenderer(tpl, fonts), layout, nil
}
