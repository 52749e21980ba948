package ai

import (
	"context"
	"testing"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Chat(ctx context.Context, history []Message, options ...Option) string {
	return "reply from " + s.name
}

func (s *stubProvider) ChatStream(ctx context.Context, history []Message, options ...Option) <-chan string {
	out := make(chan string, 1)
	out <- "reply from " + s.name
	close(out)
	return out
}

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubProvider{name: "ollama"})
	reg.Register(&stubProvider{name: "deepseek"})

	tests := []struct {
		name     string
		lookup   string
		wantName string
	}{
		{"exact match", "deepseek", "deepseek"},
		{"unknown falls back to first registered", "claude", "ollama"},
		{"empty name falls back to first registered", "", "ollama"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reg.Resolve(tt.lookup)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.lookup, err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Resolve(%q) = %q, want %q", tt.lookup, p.Name(), tt.wantName)
			}
		})
	}
}

func TestRegistryResolveEmpty(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Resolve("ollama"); err == nil {
		t.Error("Resolve on empty registry should error")
	}
}

func TestRegistryOrderAndHas(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubProvider{name: "ollama"})
	reg.Register(&stubProvider{name: "deepseek"})
	reg.Register(&stubProvider{name: "ollama"}) // re-register must not duplicate

	names := reg.Names()
	if len(names) != 2 || names[0] != "ollama" || names[1] != "deepseek" {
		t.Errorf("Names() = %v, want [ollama deepseek]", names)
	}

	if !reg.Has("deepseek") {
		t.Error("Has(deepseek) = false, want true")
	}
	if reg.Has("gemini") {
		t.Error("Has(gemini) = true, want false")
	}
}
