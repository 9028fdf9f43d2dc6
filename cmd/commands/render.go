package commands

// One-shot render from the command line; writes every export format of the
// layout into the output directory.

import (
	"dtr-image/internal/dtr"
	"dtr-image/internal/infra/fs"
	logging "dtr-image/internal/infra/log"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one DTR image to the output directory",
	Long:  `Render the DTR image once from flag values and write it to the output directory.`,
	RunE:  runRender,
}

func init() {
	flags := renderCmd.Flags()
	flags.String("entry", dtr.DefaultPrice, "Entry price")
	flags.String("mark", dtr.DefaultPrice, "Mark price")
	flags.String("ath", dtr.DefaultPrice, "All-time-high")
	flags.String("symbol", "", "Token symbol")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, renderer, layout, err := setup(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	in := dtr.Inputs{}
	in.EntryPrice, _ = flags.GetString("entry")
	in.MarkPrice, _ = flags.GetString("mark")
	in.ATH, _ = flags.GetString("ath")
	in.TokenSymbol, _ = flags.GetString("symbol")

	res, err := renderer.Render(layout, in)
	if err != nil {
		logging.LogError("Failed to render image", zap.Error(err))
		return fmt.Errorf("failed to render image: %w", err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}

	paths, err := fs.SaveArtifacts(cfg.App.OutputDir, uuid.NewString(), res.Artifacts)
	if err != nil {
		logging.LogError("Failed to save rendered image", zap.Error(err))
		return err
	}

	logging.LogSuccess("Image rendered",
		zap.String("layout", res.Layout),
		zap.String("percent_change", res.PercentChange),
		zap.Strings("paths", paths))
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
