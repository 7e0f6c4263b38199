package notifications

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Sender delivers one rendered notification to one channel. Retries of
// transport failures belong to the caller's next run, not here.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photoPath, caption string) error
}

// TelegramSender sends messages and captioned photos through the bot API,
// throttled by a token bucket so bursts of channels stay inside the API
// limits.
type TelegramSender struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewTelegramSender authenticates the bot. An empty token returns
// (nil, nil): callers should fall back to a LogSender.
func NewTelegramSender(token string, logger *slog.Logger) (*TelegramSender, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authenticate telegram bot: %w", err)
	}
	logger.Info("Telegram bot authenticated", "username", bot.Self.UserName)
	return &TelegramSender{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(sendsPerSecond), sendBurst),
		logger:  logger,
	}, nil
}

// SendMessage sends a plain text message.
func (s *TelegramSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send message to %d: %w", chatID, err)
	}
	return nil
}

// SendPhoto sends the image at photoPath with the caption attached.
func (s *TelegramSender) SendPhoto(ctx context.Context, chatID int64, photoPath, caption string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(photoPath))
	photo.Caption = caption
	if _, err := s.bot.Send(photo); err != nil {
		return fmt.Errorf("telegram send photo to %d: %w", chatID, err)
	}
	return nil
}

// LogSender logs sends instead of performing them. Used when no bot token
// is configured and in dry-run mode.
type LogSender struct {
	Logger *slog.Logger
}

// SendMessage logs the would-be message.
func (s *LogSender) SendMessage(_ context.Context, chatID int64, text string) error {
	s.Logger.Info("dry-run send", "chat_id", chatID, "chars", len(text))
	return nil
}

// SendPhoto logs the would-be photo send.
func (s *LogSender) SendPhoto(_ context.Context, chatID int64, photoPath, caption string) error {
	s.Logger.Info("dry-run send", "chat_id", chatID, "photo", photoPath, "chars", len(caption))
	return nil
}
