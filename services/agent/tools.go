package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services/reconciler"
	"github.com/sahilchouksey/video-agent-api/services/videogen"
)

const (
	ToolFormatResponse = "format_response_for_user"
	ToolBrandContext   = "get_brand_context"
	ToolSaveMemory     = "save_to_memory"
	ToolRecallMemory   = "recall_from_memory"
	ToolGenerateVideo  = "generate_video"

	memoryKey = "memory"
)

// ToolParameter defines a single parameter for a tool
type ToolParameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // string, integer, boolean, array
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolDefinition defines a tool that the model can call
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	// Internal fields (not exposed to the model)
	RequiresVideoBackend bool `json:"-"`
	RequiresWriter       bool `json:"-"`
}

// JSONSchema renders the parameters as a JSON schema object
func (d ToolDefinition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	required := []string{}
	for _, p := range d.Parameters {
		prop := map[string]any{"type": p.Type, "description": p.Description}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == "array" {
			prop["items"] = map[string]any{"type": "object"}
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{"type": "object", "properties": props, "required": required}
}

// ToolCall is a parsed tool invocation
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolsRegistry holds the agent's tools and the services they need
type ToolsRegistry struct {
	tools  map[string]ToolDefinition
	video  *videogen.Client
	writer Writer
}

func NewToolsRegistry(video *videogen.Client) *ToolsRegistry {
	r := &ToolsRegistry{tools: make(map[string]ToolDefinition), video: video}
	r.registerDefaultTools()
	r.registerContentTools()
	r.registerVideoTools()
	return r
}

// WithWriter enables the caption and script tools
func (r *ToolsRegistry) WithWriter(w Writer) *ToolsRegistry {
	r.writer = w
	return r
}

func (r *ToolsRegistry) registerDefaultTools() {
	r.RegisterTool(ToolDefinition{
		Name: ToolFormatResponse,
		Description: "Format your reply for the user interface. Call this before every reply that offers the user options, " +
			"passing the full reply text and, when you know them, the exact choices as a list of {id, label, value, icon}.",
		Parameters: []ToolParameter{
			{Name: "response_text", Type: "string", Description: "The full reply text shown to the user", Required: true},
			{Name: "force_choices", Type: "array", Description: "Explicit choices to render as buttons"},
			{Name: "choice_type", Type: "string", Description: "How choices are rendered", Enum: []string{
				string(model.ChoiceSingleSelect), string(model.ChoiceMultiSelect), string(model.ChoiceConfirmation), string(model.ChoiceMenu),
			}},
			{Name: "allow_free_input", Type: "boolean", Description: "Whether the user may type a free-form answer (default true)"},
			{Name: "input_hint", Type: "string", Description: "Hint shown above the text input"},
			{Name: "input_placeholder", Type: "string", Description: "Placeholder for the text input"},
		},
	})

	r.RegisterTool(ToolDefinition{
		Name:        ToolBrandContext,
		Description: "Get the saved brand profile, marketing context and current video progress for this session.",
	})

	r.RegisterTool(ToolDefinition{
		Name:        ToolSaveMemory,
		Description: "Remember a value for the rest of this video cycle, such as the chosen concept or script notes.",
		Parameters: []ToolParameter{
			{Name: "key", Type: "string", Description: "Short name for the value", Required: true},
			{Name: "value", Type: "string", Description: "The value to remember", Required: true},
		},
	})

	r.RegisterTool(ToolDefinition{
		Name:        ToolRecallMemory,
		Description: "Recall a value saved with save_to_memory. Omit key to list everything saved.",
		Parameters: []ToolParameter{
			{Name: "key", Type: "string", Description: "Name of the value to recall"},
		},
	})

	r.RegisterTool(ToolDefinition{
		Name: ToolGenerateVideo,
		Description: "Render the approved marketing video. Only call after the user confirmed the script. " +
			"Rendering takes several minutes.",
		Parameters: []ToolParameter{
			{Name: "prompt", Type: "string", Description: "Detailed visual description of the video, scene by scene", Required: true},
			{Name: "video_type", Type: "string", Description: "The selected video type", Enum: lo.Map(reconciler.VideoTypeChoices(), func(c model.Choice, _ int) string {
				return c.ID
			})},
			{Name: "duration_seconds", Type: "integer", Description: "Target length in seconds (default 8)"},
			{Name: "aspect_ratio", Type: "string", Description: "16:9 or 9:16", Enum: []string{"16:9", "9:16"}},
		},
		RequiresVideoBackend: true,
	})
}

func (r *ToolsRegistry) RegisterTool(tool ToolDefinition) {
	r.tools[tool.Name] = tool
}

// GetAvailableTools returns the usable tools sorted by name
func (r *ToolsRegistry) GetAvailableTools() []ToolDefinition {
	available := lo.Filter(lo.Values(r.tools), func(t ToolDefinition, _ int) bool {
		return r.usable(t)
	})
	sort.Slice(available, func(i, j int) bool { return available[i].Name < available[j].Name })
	return available
}

func (r *ToolsRegistry) usable(t ToolDefinition) bool {
	if t.RequiresVideoBackend && !r.video.Configured() {
		return false
	}
	return !t.RequiresWriter || r.writer != nil
}

// ExecuteTool runs a tool against the turn's session and returns the text handed back to the model
func (r *ToolsRegistry) ExecuteTool(ctx context.Context, sess *model.Session, call *ToolCall) string {
	tool, exists := r.tools[call.Name]
	if !exists {
		return errorResult(fmt.Sprintf("Unknown tool: %s", call.Name))
	}
	for _, param := range tool.Parameters {
		if param.Required {
			if _, ok := call.Arguments[param.Name]; !ok {
				return errorResult(fmt.Sprintf("Missing required parameter: %s", param.Name))
			}
		}
	}

	if tool.RequiresWriter && r.writer == nil {
		return errorResult("Content writing is not configured")
	}

	switch call.Name {
	case ToolFormatResponse:
		return r.executeFormatResponse(call.Arguments)
	case ToolBrandContext:
		return r.executeBrandContext(sess)
	case ToolSaveMemory:
		return r.executeSaveMemory(sess, call.Arguments)
	case ToolRecallMemory:
		return r.executeRecallMemory(sess, call.Arguments)
	case ToolGenerateVideo:
		return r.executeGenerateVideo(ctx, sess, call.Arguments)
	case ToolAnimateImage:
		return r.executeAnimateImage(ctx, sess, call.Arguments)
	case ToolVideoFromText:
		return r.executeVideoFromText(ctx, sess, call.Arguments)
	case ToolProductVideo:
		return r.executeProductVideo(ctx, sess, call.Arguments)
	case ToolMotionGraphicsVideo:
		return r.executeMotionGraphics(ctx, sess, call.Arguments)
	case ToolWriteCaption:
		return r.executeWriteCaption(ctx, sess, call.Arguments)
	case ToolGenerateHashtags:
		return r.executeGenerateHashtags(ctx, sess, call.Arguments)
	case ToolImproveCaption:
		return r.executeImproveCaption(ctx, call.Arguments)
	case ToolGenerateScript:
		return r.executeGenerateScript(ctx, sess, call.Arguments)
	case ToolRefineScript:
		return r.executeRefineScript(ctx, sess, call.Arguments)
	default:
		return errorResult(fmt.Sprintf("Tool execution not implemented: %s", call.Name))
	}
}

func (r *ToolsRegistry) executeFormatResponse(args map[string]any) string {
	opts := reconciler.FormatOptions{
		ChoiceType:  model.ChoiceType(stringArg(args, "choice_type")),
		Hint:        stringArg(args, "input_hint"),
		Placeholder: stringArg(args, "input_placeholder"),
	}
	if v, ok := args["allow_free_input"].(bool); ok {
		opts.DisallowFreeInput = !v
	}
	if raw, ok := args["force_choices"]; ok {
		choices, err := decodeChoices(raw)
		if err != nil {
			log.Printf("[Agent] ignoring malformed force_choices: %v", err)
		}
		opts.Choices = choices
	}

	resp := reconciler.FormatResponse(stringArg(args, "response_text"), opts)
	doc, err := resp.JSON()
	if err != nil {
		return errorResult("could not encode response")
	}
	if err := reconciler.ValidateChoicePayload(doc); err != nil {
		return errorResult(err.Error())
	}
	return doc
}

// decodeChoices accepts a list of objects or its JSON string form
func decodeChoices(raw any) ([]model.Choice, error) {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		data = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = b
	}
	var choices []model.Choice
	if err := json.Unmarshal(data, &choices); err != nil {
		return nil, err
	}
	return lo.Filter(choices, func(c model.Choice, _ int) bool { return c.Label != "" }), nil
}

func (r *ToolsRegistry) executeBrandContext(sess *model.Session) string {
	if sess == nil {
		return errorResult("no active session")
	}
	return jsonResult(map[string]any{
		"status":            "success",
		"summary":           sess.ContextSummary(),
		"stage":             sess.Stage,
		"brand":             sess.Brand,
		"marketing_ready":   sess.Brand.MarketingContext.IsComplete(),
		"has_user_images":   sess.Brand.HasUserImages(),
		"style_references":  sess.Brand.StyleReferenceImages(),
		"current_video":     sess.Video,
		"generation_images": len(sess.Brand.ImagesForGeneration()),
	})
}

func memory(sess *model.Session) map[string]any {
	if sess.Video.VideoMetadata == nil {
		sess.Video.VideoMetadata = map[string]any{}
	}
	m, ok := sess.Video.VideoMetadata[memoryKey].(map[string]any)
	if !ok {
		m = map[string]any{}
		sess.Video.VideoMetadata[memoryKey] = m
	}
	return m
}

func (r *ToolsRegistry) executeSaveMemory(sess *model.Session, args map[string]any) string {
	if sess == nil {
		return errorResult("no active session")
	}
	key := strings.TrimSpace(stringArg(args, "key"))
	if key == "" {
		return errorResult("key must not be empty")
	}
	memory(sess)[key] = args["value"]
	return jsonResult(map[string]any{"status": "success", "saved": key})
}

func (r *ToolsRegistry) executeRecallMemory(sess *model.Session, args map[string]any) string {
	if sess == nil {
		return errorResult("no active session")
	}
	mem := memory(sess)
	key := strings.TrimSpace(stringArg(args, "key"))
	if key == "" {
		return jsonResult(map[string]any{"status": "success", "values": mem})
	}
	v, ok := mem[key]
	if !ok {
		return jsonResult(map[string]any{"status": "not_found", "key": key})
	}
	return jsonResult(map[string]any{"status": "success", "key": key, "value": v})
}

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

func jsonResult(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return errorResult("could not encode tool result")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func errorResult(msg string) string {
	return jsonResult(map[string]string{"status": "error", "message": msg})
}
