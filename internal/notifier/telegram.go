package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/strategy"
)

const (
	telegramBaseURL = "https://api.telegram.org"
	// Telegram rejects messages longer than 4096 characters.
	telegramMaxLen = 4096
	truncatedNote  = "\n\n<i>... truncated</i>"
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken   string
	ChatID     string
	BaseURL    string
	MaxRetries int
	Client     *http.Client
	PEField    strategy.PEField // P/E shown in alerts

	log *zap.Logger
	now func() time.Time
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, log *zap.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken:   botToken,
		ChatID:     chatID,
		BaseURL:    telegramBaseURL,
		MaxRetries: 3,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log: log,
		now: time.Now,
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Configured() bool { return t.BotToken != "" && t.ChatID != "" }

// Send formats the records and delivers them with retry.
func (t *TelegramNotifier) Send(ctx context.Context, subject string, records []model.ScanRecord) error {
	if !t.Configured() {
		return ErrNotConfigured
	}
	if err := t.SendWithRetry(ctx, FormatTelegram(subject, records, t.PEField, t.now()), t.MaxRetries); err != nil {
		return fmt.Errorf("%w: telegram: %w", ErrDelivery, err)
	}
	return nil
}

// SendText sends a message to the configured chat.
func (t *TelegramNotifier) SendText(ctx context.Context, text string) error {
	text = fitTelegram(text)
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.BotToken)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// fitTelegram shortens text to the message limit. It cuts at the last blank line,
// which ends a record, or failing that the last line break. Every line closes its
// own tags, so the result stays valid HTML.
func fitTelegram(text string) string {
	if len(text) <= telegramMaxLen {
		return text
	}
	n := telegramMaxLen - len(truncatedNote)
	head := text[:n]
	for _, sep := range []string{"\n\n", "\n"} {
		if i := strings.LastIndex(head, sep); i > 0 {
			return head[:i] + truncatedNote
		}
	}

	// One oversized line: cut on a rune and drop a dangling tag or entity.
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	head = text[:n]
	if i := strings.LastIndexAny(head, "<&"); i >= 0 && !strings.ContainsAny(head[i:], ">;") {
		head = head[:i]
	}
	return head + truncatedNote
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.SendText(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		t.log.Warn("telegram send failed, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}
