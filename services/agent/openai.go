package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/sahilchouksey/video-agent-api/services/reconciler"
)

const (
	DefaultModel         = "gpt-4o-mini"
	DefaultMaxToolRounds = 4
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// SystemPrompt defaults to DefaultSystemPrompt
	SystemPrompt string
	// MaxToolRounds bounds model calls per turn
	MaxToolRounds int
	HistoryLimit  int
}

// OpenAIRunner drives an OpenAI-compatible chat completion endpoint with tool calling
type OpenAIRunner struct {
	client  *openai.Client
	cfg     OpenAIConfig
	tools   *ToolsRegistry
	history *History
}

func NewOpenAIRunner(cfg OpenAIConfig, tools *ToolsRegistry) *OpenAIRunner {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	return &OpenAIRunner{
		client:  openai.NewClientWithConfig(config),
		cfg:     cfg,
		tools:   tools,
		history: NewHistory(cfg.HistoryLimit),
	}
}

// History exposes the conversation memory so deleted sessions can be forgotten
func (r *OpenAIRunner) History() *History {
	return r.history
}

func (r *OpenAIRunner) Run(ctx context.Context, req Request, emit func(reconciler.Event) error) error {
	system := r.cfg.SystemPrompt
	if req.Session != nil {
		system += "\n\nCurrent session: " + req.Session.ContextSummary()
	}

	userMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message}
	messages := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: system}}
	messages = append(messages, r.history.Load(req.SessionID)...)
	messages = append(messages, userMsg)
	turn := []openai.ChatCompletionMessage{userMsg}

	tools := r.openAITools()
	for round := 0; round < r.cfg.MaxToolRounds; round++ {
		text, calls, err := r.stream(ctx, messages, tools, emit)
		if err != nil {
			return err
		}

		assistant := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}
		if len(calls) == 0 {
			turn = append(turn, assistant)
			r.history.Append(req.SessionID, turn...)
			return nil
		}
		if assistant.Content == "" {
			// some providers reject an empty assistant message
			assistant.Content = " "
		}
		assistant.ToolCalls = calls
		messages = append(messages, assistant)
		turn = append(turn, assistant)

		for _, call := range calls {
			toolMsg, err := r.runTool(ctx, req, call, emit)
			if err != nil {
				return err
			}
			messages = append(messages, toolMsg)
			turn = append(turn, toolMsg)
		}
	}

	log.Printf("[Agent] session %s: stopped after %d tool rounds", req.SessionID, r.cfg.MaxToolRounds)
	r.history.Append(req.SessionID, turn...)
	return nil
}

func (r *OpenAIRunner) runTool(ctx context.Context, req Request, call openai.ToolCall, emit func(reconciler.Event) error) (openai.ChatCompletionMessage, error) {
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			log.Printf("[Agent] tool %s: malformed arguments: %v", call.Function.Name, err)
		}
	}

	if err := emit(reconciler.Event{Author: Author, Content: &reconciler.Content{Parts: []reconciler.Part{{
		FunctionCall: &reconciler.FunctionCall{ID: call.ID, Name: call.Function.Name, Args: args},
	}}}}); err != nil {
		return openai.ChatCompletionMessage{}, err
	}

	result := r.tools.ExecuteTool(ctx, req.Session, &ToolCall{Name: call.Function.Name, Arguments: args})

	if err := emit(reconciler.Event{Author: Author, Content: &reconciler.Content{Parts: []reconciler.Part{{
		FunctionResponse: &reconciler.FunctionResponse{ID: call.ID, Name: call.Function.Name, Response: result},
	}}}}); err != nil {
		return openai.ChatCompletionMessage{}, err
	}

	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    result,
		ToolCallID: call.ID,
	}, nil
}

func (r *OpenAIRunner) openAITools() []openai.Tool {
	defs := r.tools.GetAvailableTools()
	tools := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.JSONSchema(),
			},
		})
	}
	return tools
}

type toolCallAccumulator struct {
	id    string
	name  string
	args  strings.Builder
	order int
}

// stream runs one completion. Plain text is forwarded as it arrives; a reply
// that opens with '{' is held back and emitted whole so JSON stays intact.
func (r *OpenAIRunner) stream(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool, emit func(reconciler.Event) error) (string, []openai.ToolCall, error) {
	req := openai.ChatCompletionRequest{
		Model:    r.cfg.Model,
		Messages: messages,
		Stream:   true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}
	if len(tools) > 0 {
		req.Tools = tools
		req.ToolChoice = "auto"
	}

	stream, err := r.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start completion: %w", err)
	}
	defer stream.Close()

	var (
		full     strings.Builder
		held     strings.Builder
		decided  bool
		holding  bool
		accByKey = map[string]*toolCallAccumulator{}
	)

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("completion stream failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.Content != "" {
			full.WriteString(delta.Content)
			if !decided {
				held.WriteString(delta.Content)
				if lead := strings.TrimSpace(held.String()); lead != "" {
					decided = true
					holding = strings.HasPrefix(lead, "{")
					if !holding {
						if err := emit(reconciler.TextEvent(Author, held.String())); err != nil {
							return "", nil, err
						}
					}
				}
			} else if holding {
				held.WriteString(delta.Content)
			} else if err := emit(reconciler.TextEvent(Author, delta.Content)); err != nil {
				return "", nil, err
			}
		}

		for _, tc := range delta.ToolCalls {
			key := tc.ID
			if tc.Index != nil {
				key = fmt.Sprintf("idx_%d", *tc.Index)
			}
			if key == "" {
				continue
			}
			acc, ok := accByKey[key]
			if !ok {
				acc = &toolCallAccumulator{order: len(accByKey)}
				accByKey[key] = acc
			}
			if tc.ID != "" {
				acc.id = tc.ID
			}
			if tc.Function.Name != "" {
				acc.name = tc.Function.Name
			}
			acc.args.WriteString(tc.Function.Arguments)
		}
	}

	if holding && strings.TrimSpace(held.String()) != "" {
		if err := emit(reconciler.TextEvent(Author, held.String())); err != nil {
			return "", nil, err
		}
	}

	accs := make([]*toolCallAccumulator, 0, len(accByKey))
	for _, acc := range accByKey {
		if acc.name != "" {
			accs = append(accs, acc)
		}
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].order < accs[j].order })

	calls := make([]openai.ToolCall, 0, len(accs))
	for i, acc := range accs {
		if acc.id == "" {
			acc.id = fmt.Sprintf("call_%d", i)
		}
		calls = append(calls, openai.ToolCall{
			ID:   acc.id,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      acc.name,
				Arguments: acc.args.String(),
			},
		})
	}
	return full.String(), calls, nil
}
