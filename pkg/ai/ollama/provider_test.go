package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devora-bit/sphere/pkg/ai"
)

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"hi there"},"done":true}`)
	}))
	defer server.Close()

	p := NewProvider(server.URL, "llama3")
	got := p.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hello"}})
	if got != "hi there" {
		t.Errorf("Chat() = %q, want %q", got, "hi there")
	}
}

func TestChatConnectionError(t *testing.T) {
	// Closed server, the request must fail in-band.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	p := NewProvider(server.URL, "llama3")
	got := p.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hello"}})
	if !strings.HasPrefix(got, "Error connecting to Ollama:") {
		t.Errorf("Chat() against dead server = %q, want connection error message", got)
	}
}

func TestChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"one "},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"two"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer server.Close()

	p := NewProvider(server.URL, "llama3")

	var sb strings.Builder
	for f := range p.ChatStream(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "count"}}) {
		sb.WriteString(f)
	}
	if sb.String() != "one two" {
		t.Errorf("streamed = %q, want %q", sb.String(), "one two")
	}
}

func TestChatStreamModelError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error":"model not found"}`)
	}))
	defer server.Close()

	p := NewProvider(server.URL, "nope")

	var fragments []string
	for f := range p.ChatStream(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "x"}}) {
		fragments = append(fragments, f)
	}
	if len(fragments) != 1 || !strings.Contains(fragments[0], "model not found") {
		t.Errorf("stream error fragments = %v", fragments)
	}
}

func TestChatStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"partial"},"done":false}`)
		flusher.Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	p := NewProvider(server.URL, "llama3")
	out := p.ChatStream(ctx, []ai.Message{{Role: ai.RoleUser, Content: "x"}})

	first, ok := <-out
	if !ok || first != "partial" {
		t.Fatalf("first fragment = %q, ok = %v", first, ok)
	}

	cancel()

	// The channel must close without further content fragments.
	for f := range out {
		if !strings.HasPrefix(f, "Error") {
			t.Errorf("fragment after cancel = %q", f)
		}
	}
}

func TestIsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		fmt.Fprint(w, `{"models":[]}`)
	}))
	defer server.Close()

	p := NewProvider(server.URL, "llama3")
	if !p.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = false, want true")
	}

	server.Close()
	if p.IsAvailable(context.Background()) {
		t.Error("IsAvailable() after shutdown = true, want false")
	}
}
