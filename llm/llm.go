// Package llm talks to OpenRouter vision models. It is the transport behind
// the OCR collaborator; nothing in the cache/pool core depends on it.
package llm

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Config selects the model and providers used for vision OCR.
type Config struct {
	APIKey    string
	Model     string
	Providers []string
}

// Client is an OpenRouter chat-completions client. Construct one at startup
// and pass it down; it holds no mutable state and is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	url  string
}

// OpenRouter API structures
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Provider    *ProviderPreferences `json:"provider,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // Can be string or number
}

const (
	openRouterURL = "https://openrouter.ai/api/v1/chat/completions"
	maxRetries    = 3
	initialDelay  = 1 * time.Second
)

// NewClient creates a client for the given config.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 45 * time.Second},
		url:  openRouterURL,
	}
}

// providerPreferences pins the provider order when the config names any.
func (c *Client) providerPreferences() *ProviderPreferences {
	if len(c.cfg.Providers) == 0 {
		return nil
	}
	allowFallbacks := false
	return &ProviderPreferences{
		Order:          c.cfg.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// QueryVision sends a PNG image to the configured vision model and returns
// the raw extracted text. Transient failures are retried with backoff; an
// explicit "no text" answer from the model is terminal.
func (c *Client) QueryVision(imageData []byte) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("API key is required")
	}
	if c.cfg.Model == "" {
		return "", fmt.Errorf("model is required")
	}

	base64Image := base64.StdEncoding.EncodeToString(imageData)
	imageURL := fmt.Sprintf("data:image/png;base64,%s", base64Image)

	request := ChatRequest{
		Model: c.cfg.Model,
		Messages: []Message{
			{
				Role: "user",
				Content: []Content{
					{
						Type: "text",
						Text: "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
							"- No formatting\n" +
							"- No XML/HTML tags\n" +
							"- No markdown\n" +
							"- No explanations\n" +
							"- Preserve line breaks accurately from the visual layout.\n" +
							"If no text found, return 'NO_TEXT_FOUND'",
					},
					{
						Type: "image_url",
						ImageURL: &ImageURL{
							URL: imageURL,
						},
					},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
		Provider:    c.providerPreferences(),
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(initialDelay) * (1.5 * float64(attempt)))
			time.Sleep(delay)
		}

		response, err := c.makeAPIRequest(request)
		if err != nil {
			lastErr = err
			continue
		}

		if len(response.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in API response")
			continue
		}

		extractedText := response.Choices[0].Message.Content
		if extractedText == "" || extractedText == "NO_TEXT_FOUND" {
			return "", fmt.Errorf("no text detected in image")
		}

		return cleanExtractedText(extractedText), nil
	}

	return "", fmt.Errorf("failed after %d attempts: %v", maxRetries, lastErr)
}

func (c *Client) makeAPIRequest(request ChatRequest) (*ChatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest("POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))
	req.Header.Set("X-Title", "Vely Capture")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %v", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return &response, nil
}

func cleanExtractedText(text string) string {
	// Some models echo trailing image tags; strip them.
	if text == "</image>" {
		return ""
	}
	if len(text) > 8 && text[len(text)-8:] == "</image>" {
		text = text[:len(text)-8]
	}
	return text
}
