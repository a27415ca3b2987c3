package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
)

const (
	DefaultStatusMessage     = "🎬 Generating your video... This may take 2-5 minutes. Please wait."
	DefaultErrorMessage      = "An error occurred. Please try again."
	DefaultVideoReadyMessage = "🎬 Your video is ready!"
)

// DefaultGenerationTools lists the long-running video tool names
var DefaultGenerationTools = []string{
	"generate_video",
	"generate_animated_product_video",
	"generate_motion_graphics_video",
	"animate_image",
	"generate_video_from_text",
}

type Config struct {
	// GenerationTools match a tool name exactly or as a substring
	GenerationTools   []string
	StatusMessage     string
	ErrorMessage      string
	VideoReadyMessage string
	// Fallbacks run in order; the first match wins
	Fallbacks []FallbackRule
}

func DefaultConfig() Config {
	return Config{
		GenerationTools:   DefaultGenerationTools,
		StatusMessage:     DefaultStatusMessage,
		ErrorMessage:      DefaultErrorMessage,
		VideoReadyMessage: DefaultVideoReadyMessage,
		Fallbacks:         DefaultFallbacks(),
	}
}

// Turn identifies one chat request
type Turn struct {
	SessionID   string
	UserMessage string
}

// Source produces the agent events of one turn, calling yield for each in order.
// A non-nil error from yield must stop the source and be returned.
type Source func(ctx context.Context, yield func(Event) error) error

// Emitter delivers one UI event to the client
type Emitter func(UIEvent) error

// Outcome summarizes a finished turn for the caller
type Outcome struct {
	// Structured is true when the agent produced choices itself
	Structured bool
	// Fallback names the rule that synthesized choices, if any
	Fallback          string
	GenerationStarted bool
	Videos            []VideoResult
	CollectedText     string
	Err               error
}

type Reconciler struct {
	cfg Config
}

func New(cfg Config) *Reconciler {
	def := DefaultConfig()
	if len(cfg.GenerationTools) == 0 {
		cfg.GenerationTools = def.GenerationTools
	}
	if cfg.StatusMessage == "" {
		cfg.StatusMessage = def.StatusMessage
	}
	if cfg.ErrorMessage == "" {
		cfg.ErrorMessage = def.ErrorMessage
	}
	if cfg.VideoReadyMessage == "" {
		cfg.VideoReadyMessage = def.VideoReadyMessage
	}
	if cfg.Fallbacks == nil {
		cfg.Fallbacks = def.Fallbacks
	}
	return &Reconciler{cfg: cfg}
}

var errPanic = errors.New("agent stream panicked")

// Run consumes one turn. The session event is always first and done is always last.
func (r *Reconciler) Run(ctx context.Context, turn Turn, src Source, emit Emitter) Outcome {
	t := &turnState{r: r, emit: emit}

	defer func() {
		_ = t.send(UIEvent{Type: UIEventDone})
	}()

	if err := t.send(UIEvent{Type: UIEventSession, SessionID: turn.SessionID}); err != nil {
		return t.outcome(err)
	}

	err := r.consume(ctx, t, src)
	switch {
	case err == nil || t.emitErr != nil:
	case ctx.Err() != nil:
		log.Printf("[Reconciler] session %s: turn cancelled: %v", turn.SessionID, err)
	default:
		log.Printf("[Reconciler] session %s: stream failed: %v", turn.SessionID, err)
		_ = t.send(UIEvent{Type: UIEventError, Message: r.cfg.ErrorMessage})
	}

	if t.emitErr == nil && ctx.Err() == nil && !t.structured {
		t.runFallbacks(turn)
	}
	return t.outcome(err)
}

func (r *Reconciler) consume(ctx context.Context, t *turnState, src Source) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Reconciler] panic in agent stream: %v\n%s", rec, debug.Stack())
			err = fmt.Errorf("%w: %v", errPanic, rec)
		}
	}()

	return src(ctx, func(ev Event) error {
		if t.emitErr != nil {
			return t.emitErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		t.handle(ev)
		return t.emitErr
	})
}

func (r *Reconciler) isGenerationTool(name string) bool {
	if name == "" {
		return false
	}
	for _, tool := range r.cfg.GenerationTools {
		if name == tool || strings.Contains(name, tool) {
			return true
		}
	}
	return false
}

type turnState struct {
	r       *Reconciler
	emit    Emitter
	emitErr error

	structured bool
	payloads   []string
	fallback   string
	started    bool
	videos     []VideoResult
	collected  strings.Builder
}

func (t *turnState) send(ev UIEvent) error {
	if t.emitErr != nil {
		return t.emitErr
	}
	if err := t.emit(ev); err != nil {
		t.emitErr = err
		return err
	}
	return nil
}

func (t *turnState) sendText(text string, collect bool) {
	if collect {
		t.collected.WriteString(text)
	}
	_ = t.send(UIEvent{Type: UIEventText, Content: text})
}

func (t *turnState) outcome(err error) Outcome {
	return Outcome{
		Structured:        t.structured && t.fallback == "",
		Fallback:          t.fallback,
		GenerationStarted: t.started,
		Videos:            t.videos,
		CollectedText:     t.collected.String(),
		Err:               err,
	}
}

func (t *turnState) handle(ev Event) {
	if ev.Content == nil {
		return
	}
	for _, part := range ev.Content.Parts {
		if t.emitErr != nil {
			return
		}
		if part.Text != "" {
			t.handleText(part.Text)
		}
		if part.FunctionCall != nil {
			t.handleCall(part.FunctionCall)
		}
		if part.FunctionResponse != nil {
			t.handleResponse(part.FunctionResponse)
		}
	}
}

func (t *turnState) handleText(text string) {
	trimmed := strings.TrimSpace(text)

	if isWrapperEcho(trimmed) {
		res := NormalizeToolResult(trimmed)
		if !res.HasChoices {
			log.Printf("[Reconciler] dropping unparseable wrapper chunk (%d chars)", len(trimmed))
			return
		}
		t.emitPayload(res.Text)
		return
	}

	if clean, ok := cleanChoicePayload(trimmed); ok {
		if len(t.payloads) > 0 {
			t.structured = true
			return
		}
		t.emitPayload(clean)
		return
	}

	if t.structured && looksLikeChoiceEcho(trimmed) {
		return
	}

	t.sendText(text, true)
}

func (t *turnState) handleCall(call *FunctionCall) {
	if strings.Contains(strings.ToLower(call.Name), "format_response") {
		t.structured = true
	}
	if t.r.isGenerationTool(call.Name) {
		t.started = true
		_ = t.send(UIEvent{Type: UIEventStatus, Message: t.r.cfg.StatusMessage})
	}
}

func (t *turnState) handleResponse(resp *FunctionResponse) {
	res := NormalizeToolResult(resp.Response)

	if t.r.isGenerationTool(resp.Name) {
		if v, ok := videoResult(res); ok {
			t.videos = append(t.videos, v)
			_ = t.send(UIEvent{
				Type:      UIEventVideoGenerated,
				URL:       v.URL,
				Filename:  v.Filename,
				VideoPath: v.VideoPath,
				VideoType: v.VideoType,
			})
			t.sendText(t.videoNarrative(v), true)
			return
		}
	}

	formatter := strings.Contains(strings.ToLower(resp.Name), "format_response")
	switch {
	case res.HasChoices:
		t.emitPayload(res.Text)
	case formatter && res.Text != "":
		t.structured = true
		t.sendText(res.Text, true)
	}
}

// emitPayload sends a structured-choice document once per turn. Schema
// failures are logged, never discarded.
func (t *turnState) emitPayload(doc string) {
	// the agent chose to answer with choices; an off-schema document is still its reply
	if err := ValidateChoicePayload(doc); err != nil {
		log.Printf("[Reconciler] passing through off-schema choice payload: %v", err)
	}
	t.structured = true
	for _, p := range t.payloads {
		if p == doc {
			return
		}
	}
	t.payloads = append(t.payloads, doc)
	t.sendText(doc, true)
}

func (t *turnState) videoNarrative(v VideoResult) string {
	msg := v.Message
	if msg == "" {
		msg = t.r.cfg.VideoReadyMessage
	}
	if strings.Contains(msg, v.URL) {
		return msg
	}
	return msg + "\n\n" + v.URL
}

func (t *turnState) runFallbacks(turn Turn) {
	in := FallbackInput{UserMessage: turn.UserMessage, Collected: t.collected.String()}
	for _, rule := range t.r.cfg.Fallbacks {
		resp, ok := rule.Apply(in)
		if !ok {
			continue
		}
		doc, err := resp.JSON()
		if err != nil {
			log.Printf("[Reconciler] fallback %s: encode failed: %v", rule.Name(), err)
			return
		}
		log.Printf("[Reconciler] session %s: injected %s fallback with %d choices", turn.SessionID, rule.Name(), len(resp.Choices))
		t.fallback = rule.Name()
		t.structured = true
		_ = t.send(UIEvent{Type: UIEventText, Content: doc})
		return
	}
}
