package assembler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/devora-bit/sphere/internal/constant"
	"github.com/devora-bit/sphere/pkg/ai"
	"github.com/devora-bit/sphere/pkg/vectorstore"
)

type fakeSource struct {
	tasks     []string
	events    []string
	notes     []NoteHit
	taskHits  []TaskHit
	searchErr error
}

func (f *fakeSource) OpenTaskTitles(ctx context.Context, limit int) ([]string, error) {
	return f.tasks, nil
}

func (f *fakeSource) UpcomingEventTitles(ctx context.Context, from time.Time, limit int) ([]string, error) {
	return f.events, nil
}

func (f *fakeSource) SearchNotes(ctx context.Context, query string) ([]NoteHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.notes, nil
}

func (f *fakeSource) SearchTasks(ctx context.Context, query string) ([]TaskHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.taskHits, nil
}

type fakeIndex struct {
	available bool
	results   []vectorstore.Result
}

func (f *fakeIndex) Available() bool { return f.available }

func (f *fakeIndex) Add(ctx context.Context, ids []string, texts []string, metadatas []map[string]string) error {
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, query string, k int) ([]vectorstore.Result, error) {
	return f.results, nil
}

func (f *fakeIndex) Delete(ctx context.Context, ids []string) error { return nil }
func (f *fakeIndex) Count(ctx context.Context) (int64, error)       { return int64(len(f.results)), nil }

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"knowledge", ModeKnowledge},
		{"hybrid", ModeHybrid},
		{"model_only", ModeModelOnly},
		{"", ModeHybrid},
		{"turbo", ModeHybrid},
	}

	for _, tt := range tests {
		if got := NormalizeMode(tt.in); got != tt.want {
			t.Errorf("NormalizeMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGatherModelOnly(t *testing.T) {
	source := &fakeSource{
		tasks: []string{"buy milk"},
		notes: []NoteHit{{Title: "groceries", Content: "milk"}},
	}
	a := NewAssembler(source, &fakeIndex{available: true}, nil)

	bundle := a.Gather(context.Background(), "what should I buy", ModeModelOnly)
	if !bundle.Empty() {
		t.Errorf("model_only bundle = %+v, want empty", bundle)
	}
}

func TestGatherHybrid(t *testing.T) {
	source := &fakeSource{
		tasks:    []string{"buy milk", "walk dog"},
		events:   []string{"dentist"},
		notes:    []NoteHit{{Title: "groceries", Content: "milk and eggs"}},
		taskHits: []TaskHit{{Title: "buy milk", Description: "2 liters"}},
	}
	index := &fakeIndex{
		available: true,
		results:   []vectorstore.Result{{ID: "doc_x_chunk_0", Text: "milk fragment"}},
	}
	a := NewAssembler(source, index, nil)

	bundle := a.Gather(context.Background(), "milk", ModeHybrid)
	if len(bundle.OpenTasks) != 2 {
		t.Errorf("OpenTasks = %v", bundle.OpenTasks)
	}
	if len(bundle.UpcomingEvents) != 1 {
		t.Errorf("UpcomingEvents = %v", bundle.UpcomingEvents)
	}
	if len(bundle.FoundNotes) != 1 || len(bundle.FoundTasks) != 1 {
		t.Errorf("search hits = %v / %v", bundle.FoundNotes, bundle.FoundTasks)
	}
	if len(bundle.FoundFragments) != 1 || bundle.FoundFragments[0] != "milk fragment" {
		t.Errorf("FoundFragments = %v", bundle.FoundFragments)
	}
}

func TestGatherKnowledgeSkipsAmbient(t *testing.T) {
	source := &fakeSource{
		tasks:  []string{"buy milk"},
		events: []string{"dentist"},
		notes:  []NoteHit{{Title: "groceries", Content: "milk"}},
	}
	a := NewAssembler(source, nil, nil)

	bundle := a.Gather(context.Background(), "milk", ModeKnowledge)
	if len(bundle.OpenTasks) != 0 || len(bundle.UpcomingEvents) != 0 {
		t.Errorf("knowledge mode pulled ambient data: %+v", bundle)
	}
	if len(bundle.FoundNotes) != 1 {
		t.Errorf("FoundNotes = %v", bundle.FoundNotes)
	}
}

func TestGatherShortQuerySkipsSearch(t *testing.T) {
	source := &fakeSource{
		tasks: []string{"buy milk"},
		notes: []NoteHit{{Title: "groceries", Content: "milk"}},
	}
	a := NewAssembler(source, nil, nil)

	bundle := a.Gather(context.Background(), " a ", ModeHybrid)
	if len(bundle.FoundNotes) != 0 {
		t.Errorf("short query still searched: %v", bundle.FoundNotes)
	}
	if len(bundle.OpenTasks) != 1 {
		t.Errorf("ambient data missing: %v", bundle.OpenTasks)
	}
}

func TestGatherSearchErrorIsNotFatal(t *testing.T) {
	source := &fakeSource{
		tasks:     []string{"buy milk"},
		searchErr: errors.New("db down"),
	}
	a := NewAssembler(source, nil, nil)

	bundle := a.Gather(context.Background(), "milk", ModeHybrid)
	if len(bundle.OpenTasks) != 1 {
		t.Errorf("ambient data missing after search failure: %+v", bundle)
	}
	if len(bundle.FoundNotes) != 0 || len(bundle.FoundTasks) != 0 {
		t.Errorf("failed search produced hits: %+v", bundle)
	}
}

func TestFormat(t *testing.T) {
	a := NewAssembler(&fakeSource{}, nil, nil)

	bundle := &Bundle{
		OpenTasks:      []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"},
		UpcomingEvents: []string{"e1"},
		FoundNotes:     []NoteHit{{Title: "n", Content: strings.Repeat("x", 300)}},
		FoundTasks:     []TaskHit{{Title: "task", Description: "desc"}},
		FoundFragments: []string{"fragment text"},
	}

	got := a.Format(bundle)

	if !strings.Contains(got, "Current tasks: t1, t2, t3, t4, t5") {
		t.Errorf("task line wrong:\n%s", got)
	}
	if strings.Contains(got, "t6") {
		t.Errorf("more than five tasks rendered:\n%s", got)
	}
	if !strings.Contains(got, "Upcoming events: e1") {
		t.Errorf("events line wrong:\n%s", got)
	}
	wantNote := fmt.Sprintf("%q: %s...", "n", strings.Repeat("x", 200))
	if !strings.Contains(got, wantNote) {
		t.Errorf("note excerpt not truncated to 200 runes:\n%s", got)
	}
	if !strings.Contains(got, "- task: desc") {
		t.Errorf("task hit line wrong:\n%s", got)
	}
	if !strings.Contains(got, "- fragment text...") {
		t.Errorf("fragment line wrong:\n%s", got)
	}
}

func TestFormatEmptyBundle(t *testing.T) {
	a := NewAssembler(&fakeSource{}, nil, nil)
	if got := a.Format(&Bundle{}); got != "" {
		t.Errorf("empty bundle formatted to %q", got)
	}
}

func TestBuildMessages(t *testing.T) {
	a := NewAssembler(&fakeSource{}, nil, nil)

	history := make([]ai.Message, 30)
	for i := range history {
		history[i] = ai.Message{Role: ai.RoleUser, Content: fmt.Sprintf("msg %d", i)}
	}

	msgs := a.BuildMessages("Current tasks: t1", ModeKnowledge, history, "question")

	if msgs[0].Role != ai.RoleSystem || msgs[0].Content != constant.SystemPrompt {
		t.Fatalf("first message is not the system prompt")
	}
	if !strings.HasPrefix(msgs[1].Content, constant.UserContextHeader) {
		t.Errorf("context message missing header: %q", msgs[1].Content)
	}
	if !strings.Contains(msgs[1].Content, constant.KnowledgeModeRestriction) {
		t.Errorf("knowledge restriction missing: %q", msgs[1].Content)
	}

	// 2 system + last 20 history + user message.
	if len(msgs) != 23 {
		t.Fatalf("message count = %d, want 23", len(msgs))
	}
	if msgs[2].Content != "msg 10" {
		t.Errorf("history window starts at %q, want msg 10", msgs[2].Content)
	}
	if msgs[len(msgs)-1].Content != "question" {
		t.Errorf("last message = %q, want the user question", msgs[len(msgs)-1].Content)
	}
}

func TestBuildMessagesNoContext(t *testing.T) {
	a := NewAssembler(&fakeSource{}, nil, nil)

	msgs := a.BuildMessages("", ModeHybrid, nil, "hi")
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2", len(msgs))
	}
	if strings.Contains(msgs[0].Content, constant.UserContextHeader) {
		t.Errorf("context header leaked into system prompt")
	}
}
