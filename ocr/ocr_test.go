package ocr

import (
	"testing"

	"vely-capture/llm"
)

func TestExtractEmptyImage(t *testing.T) {
	c := NewClient(llm.NewClient(llm.Config{APIKey: "k", Model: "m"}))
	if _, err := c.Extract(nil); err == nil {
		t.Error("Expected error for empty image data")
	}
}

func TestExtractUnconfiguredClient(t *testing.T) {
	c := NewClient(llm.NewClient(llm.Config{}))
	if _, err := c.Extract([]byte{0xFF}); err == nil {
		t.Error("Expected error from unconfigured LLM client")
	}
}
