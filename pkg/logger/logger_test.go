package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTextHandlerUsesTint(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, "text", slog.LevelInfo, true))
	log.Info("transfer sent", slog.String("hash", "0xabc"))
	log.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "transfer sent") || !strings.Contains(out, "hash=0xabc") {
		t.Fatalf("unexpected text output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line must be filtered: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("color codes must be disabled: %q", out)
	}
}

func TestJSONHandlerIsDefault(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler(&buf, "", slog.LevelInfo, false)).Info("ready", slog.Int("actions", 8))
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"actions":8`) {
		t.Fatalf("unexpected json output: %q", buf.String())
	}
}

func TestAuditLoggerRequiresPath(t *testing.T) {
	if _, err := buildAuditLogger(AuditConfig{Enabled: true}); err == nil {
		t.Fatal("expected error for empty audit path")
	}
}
