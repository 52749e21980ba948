package assembler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devora-bit/sphere/internal/constant"
	"github.com/devora-bit/sphere/internal/pkg/logger"
	"github.com/devora-bit/sphere/pkg/ai"
	"github.com/devora-bit/sphere/pkg/vectorstore"
)

// Mode controls which sources feed the context bundle.
type Mode string

const (
	// ModeKnowledge searches the user's data only; the model must not
	// answer from general knowledge.
	ModeKnowledge Mode = constant.SearchModeKnowledge
	// ModeHybrid adds current tasks and upcoming events on top of search.
	ModeHybrid Mode = constant.SearchModeHybrid
	// ModeModelOnly sends no context at all.
	ModeModelOnly Mode = constant.SearchModeModelOnly
)

// NormalizeMode maps unknown mode strings to hybrid.
func NormalizeMode(s string) Mode {
	switch Mode(s) {
	case ModeKnowledge, ModeHybrid, ModeModelOnly:
		return Mode(s)
	}
	return ModeHybrid
}

const (
	minQueryLength = 2

	ambientLimit   = 5
	vectorTopK     = 5
	formatKeep     = 5
	noteExcerptLen = 200
	taskExcerptLen = 150
	docExcerptLen  = 300

	sourceTimeout = 5 * time.Second
)

type NoteHit struct {
	Title   string
	Content string
}

type TaskHit struct {
	Title       string
	Description string
}

// Bundle is everything the assembler gathered for one turn.
type Bundle struct {
	OpenTasks      []string
	UpcomingEvents []string
	FoundNotes     []NoteHit
	FoundTasks     []TaskHit
	FoundFragments []string
}

func (b *Bundle) Empty() bool {
	return len(b.OpenTasks) == 0 &&
		len(b.UpcomingEvents) == 0 &&
		len(b.FoundNotes) == 0 &&
		len(b.FoundTasks) == 0 &&
		len(b.FoundFragments) == 0
}

// DataSource is the slice of the user's data the assembler reads. Search
// methods do substring matching; result caps are the implementation's.
type DataSource interface {
	OpenTaskTitles(ctx context.Context, limit int) ([]string, error)
	UpcomingEventTitles(ctx context.Context, from time.Time, limit int) ([]string, error)
	SearchNotes(ctx context.Context, query string) ([]NoteHit, error)
	SearchTasks(ctx context.Context, query string) ([]TaskHit, error)
}

// Assembler builds the context bundle for a chat turn. Every source is
// optional: a failing or missing source is skipped, never fatal, because a
// degraded answer beats no answer.
type Assembler struct {
	source DataSource
	index  vectorstore.Index
	log    logger.ILogger
}

func NewAssembler(source DataSource, index vectorstore.Index, log logger.ILogger) *Assembler {
	return &Assembler{
		source: source,
		index:  index,
		log:    log,
	}
}

// Gather collects context for the given user message and mode.
func (a *Assembler) Gather(ctx context.Context, userMessage string, mode Mode) *Bundle {
	bundle := &Bundle{}
	if mode == ModeModelOnly {
		return bundle
	}

	// Tasks and events only in hybrid mode.
	if mode == ModeHybrid {
		a.withTimeout(ctx, func(ctx context.Context) {
			tasks, err := a.source.OpenTaskTitles(ctx, ambientLimit)
			if err != nil {
				a.warn("failed to load open tasks", err)
				return
			}
			bundle.OpenTasks = tasks
		})
		a.withTimeout(ctx, func(ctx context.Context) {
			events, err := a.source.UpcomingEventTitles(ctx, startOfDay(time.Now()), ambientLimit)
			if err != nil {
				a.warn("failed to load upcoming events", err)
				return
			}
			bundle.UpcomingEvents = events
		})
	}

	// Search across the user's data in knowledge and hybrid modes.
	query := strings.TrimSpace(userMessage)
	if len([]rune(query)) < minQueryLength {
		return bundle
	}

	a.withTimeout(ctx, func(ctx context.Context) {
		notes, err := a.source.SearchNotes(ctx, query)
		if err != nil {
			a.warn("note search failed", err)
			return
		}
		bundle.FoundNotes = notes
	})
	a.withTimeout(ctx, func(ctx context.Context) {
		tasks, err := a.source.SearchTasks(ctx, query)
		if err != nil {
			a.warn("task search failed", err)
			return
		}
		bundle.FoundTasks = tasks
	})
	if a.index != nil && a.index.Available() {
		a.withTimeout(ctx, func(ctx context.Context) {
			results, err := a.index.Query(ctx, query, vectorTopK)
			if err != nil {
				a.warn("vector search failed", err)
				return
			}
			for _, r := range results {
				bundle.FoundFragments = append(bundle.FoundFragments, r.Text)
			}
		})
	}

	return bundle
}

// Format renders the bundle as labeled paragraphs for the model. An empty
// bundle renders to the empty string.
func (a *Assembler) Format(bundle *Bundle) string {
	var parts []string

	if len(bundle.OpenTasks) > 0 {
		parts = append(parts, "Current tasks: "+strings.Join(keep(bundle.OpenTasks), ", "))
	}
	if len(bundle.UpcomingEvents) > 0 {
		parts = append(parts, "Upcoming events: "+strings.Join(keep(bundle.UpcomingEvents), ", "))
	}

	if len(bundle.FoundNotes) > 0 {
		items := make([]string, 0, formatKeep)
		for _, n := range bundle.FoundNotes {
			if len(items) == formatKeep {
				break
			}
			content := truncate(n.Content, noteExcerptLen)
			if content != "" {
				items = append(items, fmt.Sprintf("%q: %s...", n.Title, content))
			} else {
				items = append(items, n.Title)
			}
		}
		parts = append(parts, "Relevant notes:\n"+strings.Join(items, "\n"))
	}
	if len(bundle.FoundTasks) > 0 {
		items := make([]string, 0, formatKeep)
		for _, t := range bundle.FoundTasks {
			if len(items) == formatKeep {
				break
			}
			items = append(items, fmt.Sprintf("- %s: %s", t.Title, truncate(t.Description, taskExcerptLen)))
		}
		parts = append(parts, "Relevant tasks:\n"+strings.Join(items, "\n"))
	}
	if len(bundle.FoundFragments) > 0 {
		items := make([]string, 0, formatKeep)
		for _, f := range bundle.FoundFragments {
			if len(items) == formatKeep {
				break
			}
			items = append(items, fmt.Sprintf("- %s...", truncate(f, docExcerptLen)))
		}
		parts = append(parts, "Relevant document fragments:\n"+strings.Join(items, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

// BuildMessages assembles the full message list sent to the provider:
// system prompt, optional context message, recent history and the current
// user message.
func (a *Assembler) BuildMessages(contextText string, mode Mode, history []ai.Message, userMessage string) []ai.Message {
	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: constant.SystemPrompt},
	}

	if contextText != "" {
		ctxMsg := constant.UserContextHeader + "\n" + contextText
		if mode == ModeKnowledge {
			ctxMsg += "\n\n" + constant.KnowledgeModeRestriction
		}
		messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: ctxMsg})
	}

	if len(history) > 0 {
		start := 0
		if len(history) > 20 {
			start = len(history) - 20
		}
		messages = append(messages, history[start:]...)
	}

	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: userMessage})
	return messages
}

func (a *Assembler) withTimeout(ctx context.Context, fn func(context.Context)) {
	timeoutCtx, cancel := context.WithTimeout(ctx, sourceTimeout)
	defer cancel()
	fn(timeoutCtx)
}

func (a *Assembler) warn(message string, err error) {
	if a.log == nil {
		return
	}
	a.log.Warn("assembler", message, map[string]interface{}{
		"error": err.Error(),
	})
}

func keep(items []string) []string {
	if len(items) > formatKeep {
		return items[:formatKeep]
	}
	return items
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
