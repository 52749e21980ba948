package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func ApplyOptions(defaults Options, options ...Option) *Options {
	opts := defaults
	for _, o := range options {
		o(&opts)
	}
	return &opts
}

// Provider defines the contract for any AI chat backend.
//
// Chat and ChatStream never fail out-of-band: transport and credential
// problems come back as a descriptive message in the response text, so the
// conversation transcript records the failure where the user can see it.
type Provider interface {
	Name() string

	// Chat sends a chat history to the model and returns the full response.
	Chat(ctx context.Context, history []Message, options ...Option) string

	// ChatStream returns response fragments as they arrive. The channel is
	// closed when the response is complete or the context is cancelled.
	// After cancellation no further fragments are produced.
	ChatStream(ctx context.Context, history []Message, options ...Option) <-chan string

	// IsAvailable probes the backend with a short timeout. It never blocks
	// indefinitely.
	IsAvailable(ctx context.Context) bool
}
