// Package azure implements the Azure OpenAI connectivity probe that
// exercises the credentials artifact end to end against the deployment's
// chat-completions endpoint.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bch9248/benchctl/internal/keys"
)

const (
	// APIVersion is the Azure OpenAI REST API version the probe targets.
	APIVersion = "2023-05-15"

	probeTimeout = 30 * time.Second
	maxRetries   = 3
)

// The probe asks a fixed question so a healthy deployment produces a short,
// recognizable answer.
var probeMessages = []chatMessage{
	{Role: "system", Content: "You are a helpful assistant."},
	{Role: "user", Content: "What is 7 multiplied by 8?"},
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type contentHolder struct {
	Content json.RawMessage `json:"content"`
}

type chatChoice struct {
	Message *contentHolder `json:"message"`
	Text    string         `json:"text"`
}

type chatResponse struct {
	Choices []chatChoice   `json:"choices"`
	Message *contentHolder `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ProbeResult reports one completed connectivity probe.
type ProbeResult struct {
	StatusCode int
	Reply      string
	RawBody    string
	Attempts   int
}

// Client talks to one Azure OpenAI deployment.
type Client struct {
	endpoint   string
	key        string
	deployment string
	httpClient *http.Client

	// Debugf receives request/response traces with the key already redacted.
	Debugf func(format string, args ...any)

	sleep func(d time.Duration)
}

// NewClient builds a probe client from resolved credentials.
func NewClient(creds *keys.Credentials) *Client {
	return &Client{
		endpoint:   strings.TrimRight(creds.AzureEndpoint, "/"),
		key:        creds.AzureKey,
		deployment: creds.AzureDeployment,
		httpClient: &http.Client{Timeout: probeTimeout},
		sleep:      time.Sleep,
	}
}

// URL returns the chat-completions URL the probe posts to.
func (c *Client) URL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", c.endpoint, c.deployment, APIVersion)
}

func (c *Client) debugf(format string, args ...any) {
	if c.Debugf != nil {
		c.Debugf(format, args...)
	}
}

// Probe sends the fixed two-message prompt and extracts the assistant reply.
// 429 responses and transport failures retry with exponential backoff; any
// other non-200 status fails immediately.
func (c *Client) Probe(ctx context.Context) (*ProbeResult, error) {
	if c.key == "" {
		return nil, fmt.Errorf("API key not configured")
	}
	if c.endpoint == "" || c.deployment == "" {
		return nil, fmt.Errorf("endpoint and deployment must be configured")
	}

	reqBody := chatRequest{
		Messages:    probeMessages,
		MaxTokens:   512,
		Temperature: 0,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.URL()
	c.debugf("POST %s", url)
	c.debugf("Headers: api-key=%s Content-Type=application/json", keys.Redact(c.key))
	c.debugf("Body: %s", string(jsonData))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("api-key", c.key)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}

		result := &ProbeResult{
			StatusCode: resp.StatusCode,
			RawBody:    string(body),
			Attempts:   attempt + 1,
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			if resp.StatusCode == http.StatusOK {
				return nil, fmt.Errorf("non-JSON response: %s", strings.TrimSpace(string(body)))
			}
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		if parsed.Error != nil {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		result.Reply = extractReply(&parsed)
		c.debugf("HTTP status: %d, attempts: %d", result.StatusCode, result.Attempts)
		return result, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// extractReply pulls assistant text out of the known Azure/OpenAI response
// shapes: choices[0].message.content, then choices[0].text, then a top-level
// message.content.
func extractReply(resp *chatResponse) string {
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		if choice.Message != nil {
			if text := decodeContent(choice.Message.Content); text != "" {
				return text
			}
		}
		if choice.Text != "" {
			return choice.Text
		}
	}
	if resp.Message != nil {
		return decodeContent(resp.Message.Content)
	}
	return ""
}

// decodeContent accepts both a plain string and the chunked list form some
// deployments return.
func decodeContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}

	var out []string
	for _, part := range parts {
		var ps string
		if err := json.Unmarshal(part, &ps); err == nil {
			out = append(out, ps)
			continue
		}
		var obj struct {
			Text    string `json:"text"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(part, &obj); err == nil {
			if obj.Text != "" {
				out = append(out, obj.Text)
			} else if obj.Content != "" {
				out = append(out, obj.Content)
			}
		}
	}
	return strings.Join(out, "\n")
}
