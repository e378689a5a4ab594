package logging

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		logger := New(level, "production")
		if logger == nil || logger.Logger == nil {
			t.Fatalf("New(%q) returned nil logger", level)
		}
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default returned nil")
	}
}

func TestDevelopmentHandler(t *testing.T) {
	logger := New("debug", "development")
	if logger == nil {
		t.Fatal("expected logger for development env")
	}
	logger.Debug("dev logger smoke test", "key", "value")
}
