package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"flowscreen/internal/tally"
)

// Notification 封装一次筛查运行的摘要。
type Notification struct {
	RunID       string
	Source      string
	FinishedAt  time.Time
	Valid       int
	Malformed   int
	Flagged     int
	Entities    int
	TopEntities []tally.EntityTally
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Str("run_id", note.RunID).
		Int("flagged", note.Flagged).
		Msg("运行摘要已发送 (Telegram)")
	return nil
}

// LogNotifier writes the run summary to the log instead of an external channel.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a notifier backed by logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Notify logs the rendered summary at warn level.
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.logger.Warn().Str("run_id", note.RunID).
		Int("flagged", note.Flagged).
		Int("entities", note.Entities).
		Msg(renderMessage(note))
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Pass-through Screening]\n")
	builder.WriteString(fmt.Sprintf("Run: %s\n", note.RunID))
	if note.Source != "" {
		builder.WriteString(fmt.Sprintf("Ledger: %s\n", note.Source))
	}
	if !note.FinishedAt.IsZero() {
		builder.WriteString(fmt.Sprintf("Finished: %s UTC\n", note.FinishedAt.UTC().Format(time.RFC3339)))
	}
	builder.WriteString(fmt.Sprintf("Records: %d valid, %d malformed\n", note.Valid, note.Malformed))
	builder.WriteString(fmt.Sprintf("Flagged: %d transactions, %d entities\n", note.Flagged, note.Entities))
	if len(note.TopEntities) > 0 {
		builder.WriteString("Top entities:\n")
		for _, e := range note.TopEntities {
			builder.WriteString(fmt.Sprintf("  %s  %d\n", e.Entity, e.Total))
		}
	}
	return builder.String()
}

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
