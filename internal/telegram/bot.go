package telegram

// Telegram front end: "/dtr <entry> <mark> <ath> [symbol]" replies with the
// rendered image as a photo followed by every export as a document.
// Sends go through a circuit breaker and are retried on 429/5xx.

import (
	"context"
	"dtr-image/internal/dtr"
	"dtr-image/internal/infra/log"
	"dtr-image/internal/infra/ratelimit"
	"dtr-image/internal/infra/retry"
	"dtr-image/internal/render"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const usageText = "" +
	"Commands:\n" +
	"• <code>/dtr {entry} {mark} {ath} [symbol]</code> - renders the DTR image\n" +
	"• <code>/help</code> - this message\n" +
	"\n" +
	"Example: <code>/dtr 0.0042 0.0063 0.0071 SOL</code>"

var ErrUsage = errors.New("usage: /dtr <entry> <mark> <ath> [symbol]")

// Sender is the part of *tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Options struct {
	Renderer    *render.Renderer
	Layout      dtr.Layout
	ChatRate    float64 // /dtr commands per second per chat
	SendRetries int
}

type Bot struct {
	sender   Sender
	breaker  *gobreaker.CircuitBreaker
	renderer *render.Renderer
	layout   dtr.Layout
	limiter  *ratelimit.Keyed
	retry    retry.Options
}

func NewBot(sender Sender, opts Options) *Bot {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TelegramSend",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.LogWarn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Bot{
		sender:   sender,
		breaker:  breaker,
		renderer: opts.Renderer,
		layout:   opts.Layout.Clone(),
		limiter:  ratelimit.New(opts.ChatRate, 2),
		retry: retry.Options{
			MaxRetries: opts.SendRetries,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   30 * time.Second,
			Retryable:  isRetryable,
			RetryAfter: retryAfter,
		},
	}
}

// ParseCommand turns the arguments of /dtr into inputs.
func ParseCommand(args string) (dtr.Inputs, error) {
	parts := strings.Fields(args)
	if len(parts) < 3 || len(parts) > 4 {
		return dtr.Inputs{}, ErrUsage
	}

	in := dtr.Inputs{EntryPrice: parts[0], MarkPrice: parts[1], ATH: parts[2]}
	if len(parts) == 4 {
		in.TokenSymbol = parts[3]
	}
	return in, nil
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	go b.limiter.RunCleanup(ctx, 10*time.Minute, 30*time.Minute)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil && update.Message.IsCommand() {
				b.HandleMessage(ctx, update.Message)
			}
		}
	}
}

// HandleMessage answers a single command message.
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	switch message.Command() {
	case "start", "help", "helps":
		b.reply(ctx, message, usageText)
	case "dtr":
		if !b.limiter.Allow(strconv.FormatInt(chatID, 10)) {
			b.reply(ctx, message, "Too many requests, try again in a moment.")
			return
		}
		b.handleRender(ctx, message)
	default:
		log.LogDebug("Ignoring unknown command", zap.String("command", message.Command()))
	}
}

func (b *Bot) handleRender(ctx context.Context, message *tgbotapi.Message) {
	in, err := ParseCommand(message.CommandArguments())
	if err != nil {
		b.reply(ctx, message, usageText)
		return
	}

	start := time.Now()
	res, err := b.renderer.Render(b.layout, in)
	if err != nil {
		log.LogError("Failed to render image for Telegram", zap.Error(err))
		b.reply(ctx, message, "Failed to render image.")
		return
	}
	if len(res.Artifacts) == 0 {
		return
	}

	first := res.Artifacts[0]
	photo := tgbotapi.NewPhoto(message.Chat.ID, tgbotapi.FileBytes{Name: first.Filename, Bytes: first.Data})
	photo.Caption = caption(in, res)
	photo.ParseMode = tgbotapi.ModeHTML
	photo.ReplyToMessageID = message.MessageID
	if err := b.send(ctx, photo); err != nil {
		log.LogError("Failed to send DTR photo", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		return
	}

	for _, a := range res.Artifacts {
		doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FileBytes{Name: a.Filename, Bytes: a.Data})
		if err := b.send(ctx, doc); err != nil {
			log.LogError("Failed to send DTR document",
				zap.String("filename", a.Filename),
				zap.Error(err))
		}
	}

	log.LogSuccess("DTR image sent",
		zap.Int64("chat_id", message.Chat.ID),
		zap.String("percent_change", res.PercentChange),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))
}

func caption(in dtr.Inputs, res *render.Result) string {
	var sb strings.Builder
	if in.TokenSymbol != "" {
		fmt.Fprintf(&sb, "<b>%s</b> ", escapeHTML(in.TokenSymbol))
	}
	fmt.Fprintf(&sb, "%s", res.PercentChange)
	for _, w := range res.Warnings {
		fmt.Fprintf(&sb, "\n⚠️ %s", w)
	}
	return sb.String()
}

func (b *Bot) reply(ctx context.Context, message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = message.MessageID
	if err := b.send(ctx, msg); err != nil {
		log.LogError("Failed to send reply", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) error {
	return retry.Do(ctx, b.retry, func() error {
		_, err := b.breaker.Execute(func() (interface{}, error) {
			return b.sender.Send(c)
		})
		return err
	})
}

func isRetryable(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return tgErr.Code == 429 || tgErr.Code >= 500
	}
	return false
}

func retryAfter(err error) time.Duration {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second
	}
	return 0
}

func escapeHTML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
