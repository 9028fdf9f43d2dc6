package commands

// Runs the Telegram bot answering /dtr with the rendered image.
// Implements graceful shutdown for proper termination.

import (
	"context"
	logging "dtr-image/internal/infra/log"
	"dtr-image/internal/telegram"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot (/dtr entry mark ath [symbol])",
	Long:  `Run a Telegram bot that replies to /dtr with the rendered DTR image as a photo and as downloadable files.`,
	RunE:  runBot,
}

func init() {
	botCmd.Flags().String("bot-token", "", "Telegram bot token (env: TELEGRAM_BOT_TOKEN)")
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, renderer, layout, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required (env: TELEGRAM_BOT_TOKEN)")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logging.LogError("Failed to authorize Telegram bot", zap.Error(err))
		return fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	logging.LogSuccess("Bot authorized", zap.String("username", api.Self.UserName))

	bot := telegram.NewBot(api, telegram.Options{
		Renderer:    renderer,
		Layout:      layout,
		ChatRate:    cfg.Telegram.ChatRateMsgs,
		SendRetries: cfg.Telegram.SendRetries,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bot.Run(ctx, api)
	}()

	logging.LogSuccess("Bot is running", zap.String("layout", layout.Name))

	<-ctx.Done()
	logging.LogInfo("Shutdown signal received, gracefully stopping...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.LogSuccess("Bot stopped gracefully")
	case <-time.After(10 * time.Second):
		logging.LogWarn("Timeout waiting for bot to stop")
	}
	return nil
}
