package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/bdobrica/nikki/common/trace"
	"github.com/bdobrica/nikki/internal/nikki/observability"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := observability.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.New(&buf, "info", "json")
	logger.Info("hello", "user", "@alice:example.com")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "hello" || rec["user"] != "@alice:example.com" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.New(&buf, "warn", "text")
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestWithTrace(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(observability.New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := trace.WithTraceID(context.Background(), "t_abc")
	observability.WithTrace(ctx).Info("traced")
	if !strings.Contains(buf.String(), "trace_id=t_abc") {
		t.Errorf("expected trace_id in %q", buf.String())
	}
}

func TestNew_RedactsSecretsAndJournalText(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.New(&buf, "info", "text", "syt_access_token_value")
	logger.Info("send failed",
		"body", "today I felt anxious",
		"err", errors.New("401 for syt_access_token_value"),
		"user", "@alice:example.com")

	out := buf.String()
	for _, leaked := range []string{"felt anxious", "syt_access_token_value"} {
		if strings.Contains(out, leaked) {
			t.Errorf("log output leaked %q: %s", leaked, out)
		}
	}
	if !strings.Contains(out, "@alice:example.com") {
		t.Errorf("non-sensitive attribute was dropped: %s", out)
	}
}
