package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDefaultLoggerRoutesBySeverity(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewDefaultLoggerWithWriters(&stdout, &stderr)
	l.setColors(false)

	l.Info("analysis started", Fields{"file": "a.wav"})
	l.Warn("low intensity")
	l.Error(errors.New("boom"), "decode failed")

	if !strings.Contains(stdout.String(), "analysis started") || !strings.Contains(stdout.String(), "file=a.wav") {
		t.Errorf("stdout = %q, want info message with fields", stdout.String())
	}
	if strings.Contains(stdout.String(), "low intensity") {
		t.Errorf("warning leaked to stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "low intensity") {
		t.Errorf("stderr = %q, want warning", stderr.String())
	}
	if !strings.Contains(stderr.String(), "error=boom") {
		t.Errorf("stderr = %q, want error field", stderr.String())
	}
}

func TestDefaultLoggerLevelFilter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewDefaultLoggerWithWriters(&stdout, &stderr)
	l.SetLevel(WarnLevel)

	l.Debug("hidden")
	l.Info("hidden too")
	if stdout.Len() != 0 {
		t.Errorf("expected no output below WarnLevel, got %q", stdout.String())
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var stdout, stderr bytes.Buffer
	parent := NewDefaultLoggerWithWriters(&stdout, &stderr)
	child := parent.WithFields(Fields{"component": "differencer"})

	parent.Info("parent")
	child.Info("child")

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if strings.Contains(lines[0], "component=") {
		t.Errorf("parent line carries child field: %q", lines[0])
	}
	if !strings.Contains(lines[1], "component=differencer") {
		t.Errorf("child line missing field: %q", lines[1])
	}
}

func TestWithContextPicksUpFields(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewDefaultLoggerWithWriters(&stdout, &stderr)

	ctx := ContextWithFields(context.Background(), Fields{"run": 7})
	l.WithContext(ctx).Info("tracked")

	if !strings.Contains(stdout.String(), "run=7") {
		t.Errorf("stdout = %q, want run=7", stdout.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", DebugLevel, true},
		{"INFO", InfoLevel, true},
		{" warning ", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"verbose", InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Fatalf("SetGlobalLogger(nil) installed %T, want *NoOpLogger", GetGlobalLogger())
	}
	Info("discarded") // must not panic
}
