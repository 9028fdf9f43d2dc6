package config

import (
	"dtr-image/internal/dtr"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig             `mapstructure:"app"`
	Fonts    FontsConfig           `mapstructure:"fonts"`
	Server   ServerConfig          `mapstructure:"server"`
	Telegram TelegramConfig        `mapstructure:"telegram"`
	Layouts  map[string]dtr.Layout `mapstructure:"layouts"` // added to or replacing the built-in layouts
}

type AppConfig struct {
	TemplatePath string `mapstructure:"template_path"`
	OutputDir    string `mapstructure:"output_dir"`
	SaveOutputs  bool   `mapstructure:"save_outputs"` // also write each render to OutputDir
	Layout       string `mapstructure:"layout"`
	LogDir       string `mapstructure:"log_dir"`
}

type FontsConfig struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	RateLimit    float64       `mapstructure:"rate_limit"` // generate requests per second per client, 0 disables
	RateBurst    int           `mapstructure:"rate_burst"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxFormBytes int64         `mapstructure:"max_form_bytes"`
}

type TelegramConfig struct {
	BotToken     string  `mapstructure:"bot_token"`
	ChatRateMsgs float64 `mapstructure:"chat_rate"` // /dtr commands per second per chat
	SendRetries  int     `mapstructure:"send_retries"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"config":         "",
	"template":       "app.template_path",
	"output-dir":     "app.output_dir",
	"save-outputs":   "app.save_outputs",
	"layout":         "app.layout",
	"log-dir":        "app.log_dir",
	"font-primary":   "fonts.primary",
	"font-secondary": "fonts.secondary",
	"addr":           "server.addr",
	"bot-token":      "telegram.bot_token",
}

// LoadConfig resolves configuration in increasing priority:
// 1. defaults
// 2. config.yaml (or the file given with --config)
// 3. .env file and environment (DTR_* plus a few aliases)
// 4. command-line flags
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	if err := readConfigFile(v, flags); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("DTR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setupEnvAliases(v)

	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	explicit := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", explicit, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config.yaml: %w", err)
		}
	}
	return nil
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("telegram.bot_token", "DTR_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("server.addr", "DTR_SERVER_ADDR", "ADDR")
	v.BindEnv("app.template_path", "DTR_APP_TEMPLATE_PATH", "TEMPLATE_PATH")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.template_path", "template.png")
	v.SetDefault("app.output_dir", "output")
	v.SetDefault("app.save_outputs", true)
	v.SetDefault("app.layout", dtr.DefaultLayout)
	v.SetDefault("app.log_dir", "logs")

	v.SetDefault("fonts.primary", "RobotoMono-Bold.ttf")
	v.SetDefault("fonts.secondary", "Montserrat-Bold.ttf")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 2.0)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_form_bytes", 64*1024)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_rate", 0.5)
	v.SetDefault("telegram.send_retries", 3)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		if key == "" {
			continue
		}
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Registry builds the layout registry from the built-ins and cfg.Layouts.
func (c *Config) Registry() (*dtr.Registry, error) {
	return dtr.NewRegistry(c.Layouts)
}

// SelectedLayout returns the layout named by app.layout.
func (c *Config) SelectedLayout() (dtr.Layout, error) {
	reg, err := c.Registry()
	if err != nil {
		return dtr.Layout{}, err
	}
	l, ok := reg.Get(c.App.Layout)
	if !ok {
		return dtr.Layout{}, fmt.Errorf("unknown layout %q (available: %s)", c.App.Layout, strings.Join(reg.Names(), ", "))
	}
	return l, nil
}

func validateConfig(cfg *Config) error {
	if cfg.App.TemplatePath == "" {
		return fmt.Errorf("app.template_path is required")
	}
	if cfg.App.SaveOutputs && cfg.App.OutputDir == "" {
		return fmt.Errorf("app.output_dir is required when app.save_outputs is set")
	}
	if cfg.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if _, err := cfg.SelectedLayout(); err != nil {
		return err
	}
	return nil
}
