package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"log/slog"
)

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: aw,
		format: formatKV,
	})
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "app")
	LogEvent(ctx, log, slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: aw,
		format: formatJSON,
	})
	ctx := WithRID(Background(), "1:2:3")
	ctx = WithUpdateMeta(ctx, 1, 3, 2)
	ctx = WithHandler(ctx, "start")

	log := slog.New(handler)
	LogEvent(ctx, log, slog.LevelInfo, "handler.handled",
		slog.Duration("duration", 1500000),
	)
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if decoded["rid"] != "1:2:3" {
		t.Errorf("rid = %v", decoded["rid"])
	}
	if decoded["handler"] != "start" {
		t.Errorf("handler = %v", decoded["handler"])
	}
	if decoded["event"] != "handler.handled" {
		t.Errorf("event = %v", decoded["event"])
	}
	if _, ok := decoded["duration_ms"]; !ok {
		t.Errorf("expected duration_ms, got keys %v", decoded)
	}
	if decoded["user_id"] != float64(3) {
		t.Errorf("user_id = %v", decoded["user_id"])
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	allowed := 0
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler should always allow")
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "abc\x00def\x7fghi"
	if got := Sanitize(in); got != "abcdefghi" {
		t.Fatalf("Sanitize = %q", got)
	}
	if got := SanitizeLimit("hello world", 5); got != "hello" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("hey", 0); got != "" {
		t.Fatalf("SanitizeLimit zero max = %q", got)
	}
}
