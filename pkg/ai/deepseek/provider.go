package deepseek

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devora-bit/sphere/pkg/ai"
)

const (
	defaultBaseURL = "https://api.deepseek.com"
	defaultModel   = "deepseek-chat"

	missingKeyMessage = "Error: DeepSeek API key is not configured. Set it in the settings."
)

// Provider talks to the DeepSeek hosted API, which speaks the
// OpenAI-compatible chat-completions protocol.
type Provider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewProvider(apiKey, baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *Provider) Name() string {
	return "deepseek"
}

// Request payload structure (OpenAI compatible)
type chatRequest struct {
	Model       string       `json:"model"`
	Messages    []ai.Message `json:"messages"`
	Stream      bool         `json:"stream"`
	Temperature float64      `json:"temperature,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *Provider) newRequest(ctx context.Context, history []ai.Message, stream bool, options ...ai.Option) (*http.Request, error) {
	opts := ai.ApplyOptions(ai.Options{Model: p.model}, options...)

	reqBody := chatRequest{
		Model:       opts.Model,
		Messages:    history,
		Stream:      stream,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	return req, nil
}

func (p *Provider) Chat(ctx context.Context, history []ai.Message, options ...ai.Option) string {
	if p.apiKey == "" {
		return missingKeyMessage
	}

	req, err := p.newRequest(ctx, history, false, options...)
	if err != nil {
		return fmt.Sprintf("Error: failed to build DeepSeek request: %v", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error: DeepSeek: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error: DeepSeek returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return fmt.Sprintf("Error: failed to decode DeepSeek response: %v", err)
	}
	if chatResp.Error != nil {
		return fmt.Sprintf("Error: DeepSeek: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "Error: DeepSeek returned no choices."
	}
	return chatResp.Choices[0].Message.Content
}

func (p *Provider) ChatStream(ctx context.Context, history []ai.Message, options ...ai.Option) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		if p.apiKey == "" {
			emit(ctx, out, missingKeyMessage)
			return
		}

		req, err := p.newRequest(ctx, history, true, options...)
		if err != nil {
			emit(ctx, out, fmt.Sprintf("Error: failed to build DeepSeek request: %v", err))
			return
		}

		resp, err := p.client.Do(req)
		if err != nil {
			emit(ctx, out, fmt.Sprintf("Error: DeepSeek: %v", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			emit(ctx, out, fmt.Sprintf("Error: DeepSeek returned status %d: %s", resp.StatusCode, string(bodyBytes)))
			return
		}

		// Server-sent events, one "data: {...}" line per fragment.
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if content := chunk.Choices[0].Delta.Content; content != "" {
				if !emit(ctx, out, content) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			emit(ctx, out, fmt.Sprintf("Error: DeepSeek stream interrupted: %v", err))
		}
	}()

	return out
}

// IsAvailable reports whether the provider is usable. With an API-key-gated
// backend there is nothing cheap to probe over the network, so presence of
// the key is the signal.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.apiKey != ""
}

func emit(ctx context.Context, out chan<- string, fragment string) bool {
	select {
	case out <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}
