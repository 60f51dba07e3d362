package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/karanvs/vega/internal/notifier"
)

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}

	return nil
}

func (t *Telegram) Send(summary notifier.Summary) error {
	return t.sendMessage(formatSummary(summary))
}

func formatSummary(s notifier.Summary) string {
	var sb strings.Builder

	emoji := "📈"
	if s.TotalPnL < 0 {
		emoji = "📉"
	}

	sb.WriteString(fmt.Sprintf("%s *Backtest complete: %s*\n", emoji, s.Strategy))
	sb.WriteString(fmt.Sprintf("🎯 Symbol: %s\n", s.Symbol))
	sb.WriteString(fmt.Sprintf("📅 Period: %s to %s\n",
		s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("🔁 Trades: %d\n", s.TotalTrades))
	sb.WriteString(fmt.Sprintf("🏆 Win Rate: %.1f%%\n", s.WinRate))
	sb.WriteString(fmt.Sprintf("💰 PnL: %.2f\n", s.TotalPnL))
	sb.WriteString(fmt.Sprintf("🏦 Final Capital: %.2f", s.FinalCapital))

	return sb.String()
}

func (t *Telegram) sendMessage(text string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
