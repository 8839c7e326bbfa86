package notify

import (
	"strings"
	"testing"
)

func TestDisabledNotifierIsNoOp(t *testing.T) {
	d, err := NewDiscord("", "")
	if err != nil {
		t.Fatalf("NewDiscord with empty token failed: %v", err)
	}
	if d.Enabled() {
		t.Errorf("Notifier without token should be disabled")
	}
	if err := d.TraceReport("anything"); err != nil {
		t.Errorf("Disabled TraceReport returned error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Disabled Close returned error: %v", err)
	}
}

func TestSplitMessageShortPassthrough(t *testing.T) {
	chunks := splitMessage("hello")
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("Short message should pass through unchanged: %v", chunks)
	}
}

func TestSplitMessageBreaksOnLines(t *testing.T) {
	line := strings.Repeat("x", 600)
	content := strings.Join([]string{line, line, line, line}, "\n")

	chunks := splitMessage(content)
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks for %d bytes, got %d", len(content), len(chunks))
	}
	for i, c := range chunks {
		if len(c) > maxMessageLen {
			t.Errorf("Chunk %d exceeds limit: %d bytes", i, len(c))
		}
	}
	if strings.Join(chunks, "\n") != content {
		t.Errorf("Chunks do not reassemble to original content")
	}
}
