// Package ocr extracts text from captured images through a vision model.
package ocr

import (
	"fmt"
	"strings"

	"vely-capture/llm"
)

// Result is the outcome of one extraction. Confidence is coarse: vision
// chat models report no per-character scores, so it only distinguishes
// "got text" from "got nothing usable".
type Result struct {
	Text       string
	Confidence float32
}

// Client runs OCR against an injected LLM client.
type Client struct {
	llm *llm.Client
}

// NewClient wraps an LLM client for OCR use.
func NewClient(l *llm.Client) *Client {
	return &Client{llm: l}
}

// Extract performs OCR on encoded image data.
func (c *Client) Extract(imageData []byte) (Result, error) {
	if len(imageData) == 0 {
		return Result{}, fmt.Errorf("empty image data")
	}

	text, err := c.llm.QueryVision(imageData)
	if err != nil {
		return Result{}, err
	}

	confidence := float32(0.9)
	if strings.TrimSpace(text) == "" {
		confidence = 0
	}
	return Result{Text: text, Confidence: confidence}, nil
}
