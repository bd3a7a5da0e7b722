package notify

import (
	"fmt"
	"html"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"
)

const defaultAlertInterval = time.Minute

// TelegramAlerter forwards provider failures to an operator chat
type TelegramAlerter struct {
	bot  *tele.Bot
	chat *tele.Chat

	mu          sync.Mutex
	lastAlert   time.Time
	minInterval time.Duration
}

// NewTelegramAlerter creates a new TelegramAlerter for the official Bot API
func NewTelegramAlerter(botToken string, chatID int64) (*TelegramAlerter, error) {
	return NewTelegramAlerterWithURL(botToken, chatID, "")
}

// NewTelegramAlerterWithURL creates a TelegramAlerter against a custom Bot API
// endpoint (useful for testing). An empty apiURL means the official one.
func NewTelegramAlerterWithURL(botToken string, chatID int64, apiURL string) (*TelegramAlerter, error) {
	if botToken == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram alerter not configured: missing bot token or chat ID")
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:   botToken,
		URL:     apiURL,
		Offline: true, // send-only, no getMe or polling
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramAlerter{
		bot:         bot,
		chat:        &tele.Chat{ID: chatID},
		minInterval: defaultAlertInterval,
	}, nil
}

// SetMinInterval changes how far apart two alerts must be
func (a *TelegramAlerter) SetMinInterval(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.minInterval = d
}

// Alert sends one alert. Alerts inside the minimum interval are dropped.
func (a *TelegramAlerter) Alert(operation, message string) error {
	a.mu.Lock()
	if !a.lastAlert.IsZero() && time.Since(a.lastAlert) < a.minInterval {
		a.mu.Unlock()
		return nil
	}
	a.lastAlert = time.Now()
	a.mu.Unlock()

	if _, err := a.bot.Send(a.chat, FormatAlert(operation, message), tele.ModeHTML); err != nil {
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}
	return nil
}

// FormatAlert formats an operator alert message
// Exported for testing purposes
func FormatAlert(operation, message string) string {
	return fmt.Sprintf("⚠️ <b>tv-finder</b> %s failed: %s",
		html.EscapeString(operation), html.EscapeString(message))
}
