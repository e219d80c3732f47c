package log

import (
	"log/slog"
	"sync"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOr(t *testing.T) {
	d := Discard()
	if Or(d) != d {
		t.Error("Or should return the given logger")
	}
	if Or(nil) == nil {
		t.Error("Or(nil) should fall back to the global logger")
	}
}

func TestL_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	loggers := make([]*slog.Logger, 8)
	for i := range loggers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loggers[i] = With("worker", i)
		}()
	}
	wg.Wait()

	for i, l := range loggers {
		if l == nil {
			t.Fatalf("logger %d is nil", i)
		}
	}
	if L() != L() {
		t.Error("L should return the same logger every time")
	}
}
