package logging

import "testing"

func TestGetLogger_FallbackWithoutInit(t *testing.T) {
	mu.Lock()
	globalLogger = nil
	mu.Unlock()

	if GetLogger() == nil {
		t.Fatal("Expected fallback logger")
	}
	Info("fallback logger works", "key", "value")
}

func TestInit_Development(t *testing.T) {
	if err := Init("development"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	With("test", "k", 1).Debugw("component logger")
	UseNop()
}
