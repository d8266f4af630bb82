// Package telegram sends a short digest of each dashboard build via the
// Telegram Bot API. Messages use MarkdownV2 and delivery is retried.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/cinestat/internal/models"
)

// sender is the subset of the bot API used for delivery.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return newClient(bot, chatIDInt, maxRetries, retryDelayBase), nil
}

func newClient(bot sender, chatID int64, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// SendDigest sends the headline followed by the ranked insights.
func (c *Client) SendDigest(ctx context.Context, headline string, insights []models.Insight) error {
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(headline, insights))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("digest not sent: %w", ctx.Err())
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage renders a digest in MarkdownV2.
func formatMessage(headline string, insights []models.Insight) string {
	var b strings.Builder
	b.WriteString("🎬 *Dashboard updated*\n")
	if headline != "" {
		b.WriteString(escapeMarkdownV2(headline))
		b.WriteString("\n")
	}
	if len(insights) == 0 {
		b.WriteString("\n_No takeaways: insufficient data_\n")
		return b.String()
	}

	b.WriteString("\n")
	for i, in := range insights {
		fmt.Fprintf(&b, "%d\\. *%s*", i+1, escapeMarkdownV2(in.Title))
		if in.Category != "" {
			fmt.Fprintf(&b, ": %s", escapeMarkdownV2(in.Category))
		}
		b.WriteString("\n")
		if in.Detail != "" {
			fmt.Fprintf(&b, "   %s\n", escapeMarkdownV2(in.Detail))
		}
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '\\', '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
