package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/devora-bit/sphere/pkg/ai"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama2"

	chatEndpoint = "/api/chat"
	tagsEndpoint = "/api/tags"

	// First request after a cold start loads the model into memory, which
	// can take a while on modest hardware.
	chatTimeout  = 120 * time.Second
	probeTimeout = 3 * time.Second
)

// Provider talks to a locally hosted Ollama server.
type Provider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewProvider(baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: chatTimeout},
	}
}

func (p *Provider) Name() string {
	return "ollama"
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ai.Message  `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *modelOptions `json:"options,omitempty"`
}

type modelOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message ai.Message `json:"message"`
	Done    bool       `json:"done"`
	Error   string     `json:"error,omitempty"`
}

func (p *Provider) buildRequest(history []ai.Message, stream bool, options ...ai.Option) ([]byte, error) {
	opts := ai.ApplyOptions(ai.Options{Model: p.model}, options...)

	payload := chatRequest{
		Model:    opts.Model,
		Messages: history,
		Stream:   stream,
	}
	if opts.Temperature > 0 || opts.MaxTokens > 0 {
		payload.Options = &modelOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		}
	}
	return json.Marshal(payload)
}

func (p *Provider) Chat(ctx context.Context, history []ai.Message, options ...ai.Option) string {
	body, err := p.buildRequest(history, false, options...)
	if err != nil {
		return fmt.Sprintf("Error: failed to build Ollama request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+chatEndpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Sprintf("Error: failed to build Ollama request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error connecting to Ollama: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error connecting to Ollama: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error: Ollama returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return fmt.Sprintf("Error: failed to decode Ollama response: %v", err)
	}
	if chatResp.Error != "" {
		return fmt.Sprintf("Error: Ollama: %s", chatResp.Error)
	}
	return chatResp.Message.Content
}

func (p *Provider) ChatStream(ctx context.Context, history []ai.Message, options ...ai.Option) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		body, err := p.buildRequest(history, true, options...)
		if err != nil {
			emit(ctx, out, fmt.Sprintf("Error: failed to build Ollama request: %v", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+chatEndpoint, bytes.NewBuffer(body))
		if err != nil {
			emit(ctx, out, fmt.Sprintf("Error: failed to build Ollama request: %v", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			emit(ctx, out, fmt.Sprintf("Error connecting to Ollama: %v", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			emit(ctx, out, fmt.Sprintf("Error: Ollama returned status %d: %s", resp.StatusCode, string(bodyBytes)))
			return
		}

		// Ollama streams newline-delimited JSON objects, one per fragment.
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk chatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Error != "" {
				emit(ctx, out, fmt.Sprintf("Error: Ollama: %s", chunk.Error))
				return
			}
			if chunk.Message.Content != "" {
				if !emit(ctx, out, chunk.Message.Content) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			emit(ctx, out, fmt.Sprintf("Error: Ollama stream interrupted: %v", err))
		}
	}()

	return out
}

func (p *Provider) IsAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.baseURL+tagsEndpoint, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// emit sends a fragment unless the consumer has gone away. It returns false
// when the context is done.
func emit(ctx context.Context, out chan<- string, fragment string) bool {
	select {
	case out <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}
