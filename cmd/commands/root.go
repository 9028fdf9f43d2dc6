package commands

// Root command: global flags shared by serve, render and bot.

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dtr-image",
	Short: "DTR Image Generator - overlays trade figures onto a card template",
	Long: `DTR Image Generator renders entry price, mark price, ATH, token symbol and the
computed percent-change onto a fixed background image and offers the result as
PNG/JPEG downloads, through a web form, the command line or a Telegram bot.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ./config.yaml)")
	flags.String("template", "template.png", "Background template image (env: DTR_APP_TEMPLATE_PATH)")
	flags.String("layout", "classic", "Layout variant: classic, ticker or one from config (env: DTR_APP_LAYOUT)")
	flags.String("output-dir", "output", "Directory rendered images are written to (env: DTR_APP_OUTPUT_DIR)")
	flags.Bool("save-outputs", true, "Write every rendered image to --output-dir (env: DTR_APP_SAVE_OUTPUTS)")
	flags.String("log-dir", "logs", "Directory for app.log (env: DTR_APP_LOG_DIR)")
	flags.String("font-primary", "RobotoMono-Bold.ttf", "Primary font file (env: DTR_FONTS_PRIMARY)")
	flags.String("font-secondary", "Montserrat-Bold.ttf", "Secondary font file (env: DTR_FONTS_SECONDARY)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(botCmd)
}
