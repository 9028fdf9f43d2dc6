package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("template", "template.png", "")
	flags.String("layout", "classic", "")
	flags.String("addr", ":8080", "")
	flags.Bool("save-outputs", true, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "template.png", cfg.App.TemplatePath)
	assert.Equal(t, "output", cfg.App.OutputDir)
	assert.True(t, cfg.App.SaveOutputs)
	assert.Equal(t, "classic", cfg.App.Layout)
	assert.Equal(t, "RobotoMono-Bold.ttf", cfg.Fonts.Primary)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 3, cfg.Telegram.SendRetries)
}

func TestLoadConfigFileAndLayouts(t *testing.T) {
	path := writeConfig(t, `
app:
  template_path: assets/card.png
  layout: square
fonts:
  secondary: assets/Inter-Bold.ttf
server:
  write_timeout: 5s
layouts:
  square:
    max_width: 600
    formats: [png, jpg]
    fields:
      - key: percent_change
        x: 40
        y_ratio: 0.5
        font_size: 96
        family: secondary
        color: sign
`)

	cfg, err := LoadConfig(newFlags(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "assets/card.png", cfg.App.TemplatePath)
	assert.Equal(t, "assets/Inter-Bold.ttf", cfg.Fonts.Secondary)
	assert.Equal(t, 5*time.Second, cfg.Server.WriteTimeout)

	l, err := cfg.SelectedLayout()
	require.NoError(t, err)
	assert.Equal(t, "square", l.Name)
	assert.Equal(t, 600.0, l.MaxWidth)
	require.Len(t, l.Fields, 1)
	assert.Equal(t, 0.5, l.Fields[0].YRatio)
	assert.Equal(t, []string{"png", "jpg"}, l.Formats)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("DTR_APP_LAYOUT", "ticker")
	t.Setenv("TEMPLATE_PATH", "from-env.png")

	cfg, err := LoadConfig(newFlags(t, "--addr", "127.0.0.1:9000"))
	require.NoError(t, err)

	assert.Equal(t, "ticker", cfg.App.Layout)
	assert.Equal(t, "from-env.png", cfg.App.TemplatePath)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoadConfigUnknownLayout(t *testing.T) {
	_, err := LoadConfig(newFlags(t, "--layout", "poster"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poster")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestLoadConfigLayoutNameIgnoresCase(t *testing.T) {
	path := writeConfig(t, `
layouts:
  Square:
    fields:
      - {key: percent_change, x: 40, y_ratio: 0.5, font_size: 96, family: primary}
`)

	cfg, err := LoadConfig(newFlags(t, "--config", path, "--layout", "Square"))
	require.NoError(t, err)

	l, err := cfg.SelectedLayout()
	require.NoError(t, err)
	assert.Equal(t, "square", l.Name)
	assert.Equal(t, 96.0, l.Fields[0].FontSize)
}

func TestLoadConfigRejectsNaNFontSize(t *testing.T) {
	path := writeConfig(t, `
app:
  layout: broken
layouts:
  broken:
    fields:
      - {key: percent_change, x: 40, y: 100, font_size: .nan, family: primary}
`)

	_, err := LoadConfig(newFlags(t, "--config", path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "font_size")
}
