package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSelfHealSamplingAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := New(l, Options{SelfHealEvery: 2})

	for i := 0; i < 4; i++ {
		h.SelfHeal("session:app:secret-id", "expired")
	}
	if n := strings.Count(buf.String(), "squirrel.self_heal"); n != 2 {
		t.Fatalf("sampled %d events, want 2", n)
	}
	if strings.Contains(buf.String(), "secret-id") {
		t.Fatalf("key leaked: %q", buf.String())
	}
}

func TestCustomRedactorAndOutage(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	h := New(l, Options{Redact: func(string) string { return "REDACTED" }})

	h.DeleteOutage("abc", errors.New("bump"), errors.New("del"))
	out := buf.String()
	if !strings.Contains(out, "id=REDACTED") || !strings.Contains(out, "bump_err=bump") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	h := New(nil, Options{})
	h.SelfHeal("k", "corrupt")
	h.ProviderSetRejected("k")
	h.GenSnapshotError("k", errors.New("x"))
	h.GenBumpError("k", errors.New("x"))
	h.DeleteOutage("k", nil, nil)
}
