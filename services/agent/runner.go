package agent

import (
	"context"
	"sync"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services/reconciler"
)

// Author is the event author for everything the runtime emits
const Author = "marketing_video_agent"

// Request is one user turn handed to the agent runtime
type Request struct {
	UserID    string
	SessionID string
	Message   string
	// Session is the turn-local copy; tools may mutate it and the caller persists it
	Session *model.Session
}

// Runner turns a user message into an ordered event stream. emit errors
// must stop the run and be returned.
type Runner interface {
	Run(ctx context.Context, req Request, emit func(reconciler.Event) error) error
}

// Source adapts a runner call to the reconciler's input
func Source(r Runner, req Request) reconciler.Source {
	return func(ctx context.Context, yield func(reconciler.Event) error) error {
		return r.Run(ctx, req, yield)
	}
}

// DefaultHistoryLimit caps the remembered messages per session
const DefaultHistoryLimit = 40

// History keeps recent conversation messages per session in process memory
type History struct {
	mu       sync.Mutex
	limit    int
	messages map[string][]openai.ChatCompletionMessage
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, messages: make(map[string][]openai.ChatCompletionMessage)}
}

// Load returns a copy of the session's messages
func (h *History) Load(sessionID string) []openai.ChatCompletionMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.messages[sessionID]
	out := make([]openai.ChatCompletionMessage, len(msgs))
	copy(out, msgs)
	return out
}

// Append adds a finished turn. Trimming drops whole leading turns so a
// tool message never loses the assistant call it answers.
func (h *History) Append(sessionID string, msgs ...openai.ChatCompletionMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	all := append(h.messages[sessionID], msgs...)
	for len(all) > h.limit {
		next := 1
		for next < len(all) && all[next].Role != openai.ChatMessageRoleUser {
			next++
		}
		all = all[next:]
	}
	h.messages[sessionID] = all
}

func (h *History) Forget(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.messages, sessionID)
}
