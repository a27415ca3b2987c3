package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceSource(events ...Event) Source {
	return func(ctx context.Context, yield func(Event) error) error {
		for _, ev := range events {
			if err := yield(ev); err != nil {
				return err
			}
		}
		return nil
	}
}

func failingSource(err error, before ...Event) Source {
	return func(ctx context.Context, yield func(Event) error) error {
		for _, ev := range before {
			if e := yield(ev); e != nil {
				return e
			}
		}
		return err
	}
}

type recorder struct {
	events []UIEvent
}

func (r *recorder) emit(ev UIEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) ofType(typ UIEventType) []UIEvent {
	var out []UIEvent
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func run(t *testing.T, msg string, src Source) (*recorder, Outcome) {
	t.Helper()
	rec := &recorder{}
	out := New(DefaultConfig()).Run(context.Background(), Turn{SessionID: "s-1", UserMessage: msg}, src, rec.emit)
	return rec, out
}

func assertFramed(t *testing.T, rec *recorder) {
	t.Helper()
	require.NotEmpty(t, rec.events)
	assert.Equal(t, UIEventSession, rec.events[0].Type)
	assert.Equal(t, "s-1", rec.events[0].SessionID)
	assert.Equal(t, UIEventDone, rec.events[len(rec.events)-1].Type)
	assert.Len(t, rec.ofType(UIEventDone), 1)
}

func TestRunFramesEveryTurn(t *testing.T) {
	tests := []struct {
		name string
		src  Source
	}{
		{"empty stream", sliceSource()},
		{"plain text", sliceSource(TextEvent("agent", "hello"))},
		{"stream error", failingSource(errors.New("boom"), TextEvent("agent", "partial"))},
		{"panic", func(ctx context.Context, yield func(Event) error) error { panic("kaboom") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := run(t, "hi", tt.src)
			assertFramed(t, rec)
		})
	}
}

func TestRunStreamErrorIsGeneric(t *testing.T) {
	rec, out := run(t, "hi", failingSource(errors.New("db password=hunter2"), TextEvent("agent", "partial")))

	assertFramed(t, rec)
	errs := rec.ofType(UIEventError)
	require.Len(t, errs, 1)
	assert.Equal(t, DefaultErrorMessage, errs[0].Message)
	assert.NotContains(t, errs[0].Message, "hunter2")
	assert.Error(t, out.Err)

	// error sits between the partial text and done
	types := make([]UIEventType, len(rec.events))
	for i, ev := range rec.events {
		types[i] = ev.Type
	}
	assert.Equal(t, []UIEventType{UIEventSession, UIEventText, UIEventError, UIEventDone}, types)
}

func TestRunWrapperRoundTrip(t *testing.T) {
	result := `{'result': 'It\'s a {"has_choices": true, "choice_type": "menu", "choices": []}'}`
	rec, out := run(t, "hi", sliceSource(ResponseEvent("agent", "format_response_for_user", result)))

	assertFramed(t, rec)
	texts := rec.ofType(UIEventText)
	require.Len(t, texts, 1)
	assert.JSONEq(t, `{"has_choices": true, "choice_type": "menu", "choices": []}`, texts[0].Content)
	assert.True(t, out.Structured)
	assert.Empty(t, out.Fallback)
}

func TestRunWrapperEchoInText(t *testing.T) {
	inner := `{"text":"Pick one","has_choices":true,"choice_type":"single_select","choices":[{"id":"a","label":"A","value":"a","icon":"","description":""}]}`
	wrapped, err := json.Marshal(map[string]string{"result": inner})
	require.NoError(t, err)

	rec, out := run(t, "hi", sliceSource(TextEvent("agent", string(wrapped))))

	texts := rec.ofType(UIEventText)
	require.Len(t, texts, 1)
	assert.JSONEq(t, inner, texts[0].Content)
	assert.True(t, out.Structured)
}

func TestRunDropsUnparseableWrapper(t *testing.T) {
	rec, out := run(t, "hi", sliceSource(TextEvent("agent", `{'result': 'has_choices but not json at all'}`)))

	assert.Empty(t, rec.ofType(UIEventText))
	assert.False(t, out.Structured)
}

func TestRunSuppressesChoiceEcho(t *testing.T) {
	payload := `{"text":"Pick","has_choices":true,"choice_type":"menu","choices":[{"id":"x","label":"X"}]}`
	rec, _ := run(t, "hi", sliceSource(
		ResponseEvent("agent", "format_response_for_user", map[string]any{"result": payload}),
		TextEvent("agent", payload),
		TextEvent("agent", `{"has_choices": true, "choices": [`),
		TextEvent("agent", "Anything else?"),
	))

	texts := rec.ofType(UIEventText)
	require.Len(t, texts, 2)
	assert.JSONEq(t, payload, texts[0].Content)
	assert.Equal(t, "Anything else?", texts[1].Content)
}

func TestRunPassesFirstCleanPayload(t *testing.T) {
	payload := `{"text":"Pick","has_choices":true,"choice_type":"menu","choices":[]}`
	rec, out := run(t, "here are video concepts", sliceSource(TextEvent("agent", payload)))

	texts := rec.ofType(UIEventText)
	require.Len(t, texts, 1)
	assert.JSONEq(t, payload, texts[0].Content)
	assert.True(t, out.Structured)
}

func TestRunPassesOffSchemaPayloadInText(t *testing.T) {
	payload := `{"text":"Pick a style","has_choices":true,"choice_type":"menu","choices":[{"id":"a","value":"a"},{"id":"b","value":"b"}]}`
	require.Error(t, ValidateChoicePayload(payload))

	rec, out := run(t, "set up my brand: Acme", sliceSource(TextEvent("agent", payload)))

	assertFramed(t, rec)
	texts := rec.ofType(UIEventText)
	require.Len(t, texts, 1)
	assert.JSONEq(t, payload, texts[0].Content)
	assert.True(t, out.Structured)
	assert.Empty(t, out.Fallback)
}

func TestRunPassesOffSchemaPayloadFromTool(t *testing.T) {
	inner := `{"text":"Which one fits?","has_choices":"true","choices":[]}`
	require.Error(t, ValidateChoicePayload(inner))

	rec, out := run(t, "which video type", sliceSource(
		CallEvent("agent", "format_response_for_user", map[string]any{"text": "Which one fits?"}),
		ResponseEvent("agent", "format_response_for_user", map[string]any{"result": inner}),
	))

	assertFramed(t, rec)
	texts := rec.ofType(UIEventText)
	require.Len(t, texts, 1)
	assert.JSONEq(t, inner, texts[0].Content)
	assert.True(t, out.Structured)
	assert.Empty(t, out.Fallback)
}

func TestRunGenerationEvents(t *testing.T) {
	result := map[string]any{
		"result": `{"status":"success","video_path":"/data/v.mp4","filename":"v.mp4","url":"/generated/v.mp4","message":"Your brand story video is ready!","type":"brand_story"}`,
	}
	rec, out := run(t, "yes generate", sliceSource(
		CallEvent("agent", "generate_video", map[string]any{"prompt": "x"}),
		ResponseEvent("agent", "generate_video", result),
	))

	assertFramed(t, rec)
	status := rec.ofType(UIEventStatus)
	require.Len(t, status, 1)
	assert.Equal(t, DefaultStatusMessage, status[0].Message)

	videos := rec.ofType(UIEventVideoGenerated)
	require.Len(t, videos, 1)
	assert.Equal(t, "/generated/v.mp4", videos[0].URL)
	assert.Equal(t, "v.mp4", videos[0].Filename)
	assert.Equal(t, "/data/v.mp4", videos[0].VideoPath)
	assert.Equal(t, "brand_story", videos[0].VideoType)

	texts := rec.ofType(UIEventText)
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0].Content, "/generated/v.mp4")
	assert.Contains(t, texts[0].Content, "Your brand story video is ready!")

	assert.True(t, out.GenerationStarted)
	require.Len(t, out.Videos, 1)
}

func TestRunGenerationToolSubstringMatch(t *testing.T) {
	rec, _ := run(t, "go", sliceSource(CallEvent("agent", "tools.generate_video_from_text", nil)))
	assert.Len(t, rec.ofType(UIEventStatus), 1)
}

func TestRunFailedGenerationHasNoVideoEvent(t *testing.T) {
	rec, _ := run(t, "go", sliceSource(
		ResponseEvent("agent", "generate_video", map[string]any{"status": "error", "message": "quota"}),
	))
	assert.Empty(t, rec.ofType(UIEventVideoGenerated))
}

func TestRunBrandSetupScenario(t *testing.T) {
	rec, out := run(t,
		"set up my brand: Acme Co (Retail), Colors: #112233, Style: playful",
		sliceSource(TextEvent("agent", "Great, brand set up!")),
	)

	assertFramed(t, rec)
	texts := rec.ofType(UIEventText)
	require.Len(t, texts, 2)
	assert.Equal(t, "Great, brand set up!", texts[0].Content)

	var got struct {
		Text       string `json:"text"`
		HasChoices bool   `json:"has_choices"`
		ChoiceType string `json:"choice_type"`
		Choices    []struct {
			ID string `json:"id"`
		} `json:"choices"`
	}
	require.NoError(t, json.Unmarshal([]byte(texts[1].Content), &got))
	assert.True(t, got.HasChoices)
	assert.Equal(t, "menu", got.ChoiceType)
	require.Len(t, got.Choices, 9)
	ids := make([]string, len(got.Choices))
	for i, c := range got.Choices {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{
		"brand_story", "product_launch", "explainer", "testimonial", "educational",
		"promotional", "animated_product", "motion_graphics", "talking_head",
	}, ids)
	assert.Contains(t, got.Text, "Acme Co (Retail)")
	assert.Contains(t, got.Text, "vibrant #112233")
	assert.Contains(t, got.Text, "playful style")
	assert.Equal(t, "brand_setup", out.Fallback)
}

func TestRunFallbackExclusivity(t *testing.T) {
	collected := "Here are 3 strategic video concepts for you:\n\n" +
		"1. **Origin Story** - how it started\n" +
		"2. **Customer Wins** - real results\n" +
		"3. **Behind the Scenes** - the team\n\n" +
		"Which one would you like to develop?"
	rec, out := run(t, "show me ideas", sliceSource(TextEvent("agent", collected)))

	texts := rec.ofType(UIEventText)
	require.Len(t, texts, 2)
	assert.Equal(t, "concept_list", out.Fallback)

	var got struct {
		ChoiceType string `json:"choice_type"`
		Choices    []struct {
			ID    string `json:"id"`
			Value string `json:"value"`
			Icon  string `json:"icon"`
		} `json:"choices"`
	}
	require.NoError(t, json.Unmarshal([]byte(texts[1].Content), &got))
	assert.Equal(t, "single_select", got.ChoiceType)
	require.Len(t, got.Choices, 3)
	assert.Equal(t, "idea_1", got.Choices[0].ID)
	assert.Equal(t, "1", got.Choices[0].Value)
	assert.Equal(t, "1️⃣", got.Choices[0].Icon)
}

func TestRunNoFallbackWhenStructured(t *testing.T) {
	rec, out := run(t, "set up my brand", sliceSource(
		CallEvent("agent", "format_response_for_user", nil),
		ResponseEvent("agent", "format_response_for_user", `{"text":"ok","has_choices":false,"choices":[]}`),
	))

	assert.Len(t, rec.ofType(UIEventText), 1)
	assert.Empty(t, out.Fallback)
}

func TestRunNoFallbackMatch(t *testing.T) {
	rec, out := run(t, "thanks", sliceSource(TextEvent("agent", "You're welcome.")))

	texts := rec.ofType(UIEventText)
	require.Len(t, texts, 1)
	assert.Equal(t, "You're welcome.", texts[0].Content)
	assert.Empty(t, out.Fallback)
	assert.Equal(t, "You're welcome.", out.CollectedText)
}

func TestRunStopsWhenClientGone(t *testing.T) {
	gone := errors.New("client gone")
	calls := 0
	emit := func(ev UIEvent) error {
		calls++
		if ev.Type == UIEventText {
			return gone
		}
		return nil
	}
	yielded := 0
	src := func(ctx context.Context, yield func(Event) error) error {
		for i := 0; i < 5; i++ {
			yielded++
			if err := yield(TextEvent("agent", "chunk")); err != nil {
				return err
			}
		}
		return nil
	}

	out := New(DefaultConfig()).Run(context.Background(), Turn{SessionID: "s", UserMessage: "set up my brand"}, src, emit)

	assert.Equal(t, 1, yielded)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, out.Err, gone)
	assert.Empty(t, out.Fallback)
}

func TestRunCancelledContextSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	out := New(DefaultConfig()).Run(ctx, Turn{SessionID: "s-1", UserMessage: "set up my brand"},
		sliceSource(TextEvent("agent", "hello")), rec.emit)

	assertFramed(t, rec)
	assert.Empty(t, out.Fallback)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestNewFillsDefaults(t *testing.T) {
	r := New(Config{})
	assert.Equal(t, DefaultStatusMessage, r.cfg.StatusMessage)
	assert.Len(t, r.cfg.Fallbacks, 4)
	assert.True(t, r.isGenerationTool("animate_image"))
	assert.False(t, r.isGenerationTool(""))

	none := New(Config{Fallbacks: []FallbackRule{}})
	assert.Empty(t, none.cfg.Fallbacks)
}
