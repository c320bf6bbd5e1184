package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentWorker, Output: &buf})

	logger.Info("hello", "k", "v")
	logger.WithComponent(ComponentGoals).Info("again")

	out := buf.String()
	if !strings.Contains(out, "component=worker") || !strings.Contains(out, "k=v") {
		t.Fatalf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=goals") {
		t.Fatalf("component override not applied: %q", out)
	}
}

func TestLogGoalDecisionLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))

	sl.LogGoalDecision(context.Background(), "user-1", "goal-1", "skip", "rate_limited")
	if buf.Len() != 0 {
		t.Fatalf("skip decisions must log at debug, got %q", buf.String())
	}

	sl.LogGoalDecision(context.Background(), "user-1", "goal-1", "apply", "")
	out := buf.String()
	if !strings.Contains(out, "decision=apply") || !strings.Contains(out, "goal_id=goal-1") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLogErrorIncludesType(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, JSON: true, Output: &buf}))

	sl.LogError(context.Background(), "boom", errors.New("db down"), ErrorTypeDatabase, ComponentStorage, OpRead, nil)

	out := buf.String()
	if !strings.Contains(out, `"error_type":"database_error"`) || !strings.Contains(out, `"error":"db down"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	logger := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})

	var got *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated: %+v", got)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}
