package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"flowscreen/internal/tally"
)

func sampleNote() Notification {
	return Notification{
		RunID:      "run-1",
		Source:     "transactions.csv",
		FinishedAt: time.Date(2017, 11, 3, 12, 0, 0, 0, time.UTC),
		Valid:      10,
		Malformed:  1,
		Flagged:    2,
		Entities:   3,
		TopEntities: []tally.EntityTally{
			{Entity: "ID00000000000002", Sent: 1, Received: 1, Total: 2},
		},
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNote()); err != nil {
		t.Fatalf("Telegram Notify 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	if !strings.Contains(received["text"], "run-1") || !strings.Contains(received["text"], "ID00000000000002") {
		t.Fatalf("text 应包含运行信息: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNote()); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestTelegramNotifierHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNote()); err == nil {
		t.Fatal("HTTP 401 应报错")
	}
}

func TestLogNotifier(t *testing.T) {
	buf := &bytes.Buffer{}
	notifier := NewLogNotifier(zerolog.New(buf))

	if err := notifier.Notify(context.Background(), sampleNote()); err != nil {
		t.Fatalf("log notify: %v", err)
	}
	if !strings.Contains(buf.String(), `"flagged":2`) || !strings.Contains(buf.String(), "alert_log") {
		t.Fatalf("unexpected log entry: %s", buf.String())
	}
}

func TestRenderMessage(t *testing.T) {
	msg := renderMessage(sampleNote())
	for _, want := range []string{"Run: run-1", "Ledger: transactions.csv", "10 valid, 1 malformed", "2 transactions, 3 entities", "ID00000000000002  2"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
