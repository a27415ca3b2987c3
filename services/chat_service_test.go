package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services/agent"
	"github.com/sahilchouksey/video-agent-api/services/brand"
	"github.com/sahilchouksey/video-agent-api/services/reconciler"
	"github.com/sahilchouksey/video-agent-api/services/store"
)

type capture struct {
	events []reconciler.UIEvent
}

func (c *capture) emit(ev reconciler.UIEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func (c *capture) types() []reconciler.UIEventType {
	out := make([]reconciler.UIEventType, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Type
	}
	return out
}

// recordingRunner remembers the request it was given
type recordingRunner struct {
	agent.ScriptedRunner
	got agent.Request
}

func (r *recordingRunner) Run(ctx context.Context, req agent.Request, emit func(reconciler.Event) error) error {
	r.got = req
	return r.ScriptedRunner.Run(ctx, req, emit)
}

func newChatService(events ...reconciler.Event) (*ChatService, *store.Store, *recordingRunner) {
	st := store.NewStore(store.NewMemoryRepository(), nil)
	runner := &recordingRunner{ScriptedRunner: agent.ScriptedRunner{Events: events}}
	return NewChatService(st, runner, reconciler.New(reconciler.DefaultConfig())), st, runner
}

func TestStreamCreatesAnonymousSession(t *testing.T) {
	svc, st, _ := newChatService(reconciler.TextEvent(agent.Author, "Hi! Tell me about your brand."))
	var out capture

	outcome := svc.Stream(context.Background(), ChatRequest{Message: "hello"}, out.emit)
	require.NoError(t, outcome.Err)

	require.NotEmpty(t, out.events)
	sessionID := out.events[0].SessionID
	assert.Len(t, sessionID, 36)
	assert.Equal(t, reconciler.UIEventDone, out.events[len(out.events)-1].Type)

	sess, err := st.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserID, sess.UserID)
	assert.Equal(t, model.StageStart, sess.Stage)
}

func TestStreamBrandSetupAdvancesWorkflow(t *testing.T) {
	svc, st, runner := newChatService(reconciler.TextEvent(agent.Author, "Great, your brand is saved."))
	var out capture

	outcome := svc.Stream(context.Background(), ChatRequest{
		SessionID: "s-1",
		Message:   "Company: Acme. Industry: Rockets. Style: bold. Brand configured",
		Attachments: []brand.Attachment{
			{Type: brand.AttachmentLogo, Path: "logo.png", Colors: &brand.ColorSet{Dominant: "#112233"}},
			{Type: brand.AttachmentTargetAudience, Content: "Engineers"},
		},
		LastGeneratedVideo: "/generated/old.mp4",
	}, out.emit)

	assert.Equal(t, "brand_setup", outcome.Fallback)
	assert.Contains(t, runner.got.Message, "[LAST GENERATED VIDEO: /generated/old.mp4]")
	assert.Contains(t, runner.got.Message, "👥 TARGET_AUDIENCE: Engineers")

	sess, err := st.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.StageVideoTypeSelection, sess.Stage)
	assert.Equal(t, "Acme", sess.Brand.Name)
	assert.Equal(t, "Rockets", sess.Brand.Industry)
	assert.Equal(t, "bold", sess.Brand.Tone)
	assert.Equal(t, []string{"#112233"}, sess.Brand.Colors)
	assert.Equal(t, "Engineers", sess.Brand.MarketingContext.TargetAudience)
}

func TestStreamRecordsGeneratedVideo(t *testing.T) {
	svc, st, _ := newChatService(
		reconciler.CallEvent(agent.Author, "generate_video", map[string]any{"prompt": "launch"}),
		reconciler.ResponseEvent(agent.Author, "generate_video",
			`{"status":"success","url":"https://cdn/v.mp4","filename":"v.mp4","video_path":"generated-videos/s-2/v.mp4","type":"product_launch"}`),
	)
	ctx := context.Background()
	sess, err := st.Create(ctx, "s-2", "u-1")
	require.NoError(t, err)
	sess.Stage = model.StageScriptApproved
	require.NoError(t, st.Update(ctx, sess))

	var out capture
	outcome := svc.Stream(ctx, ChatRequest{SessionID: "s-2", UserID: "u-1", Message: "yes, generate!"}, out.emit)
	require.NoError(t, outcome.Err)
	assert.True(t, outcome.GenerationStarted)
	assert.Contains(t, out.types(), reconciler.UIEventVideoGenerated)

	sess, err = st.Get(ctx, "s-2")
	require.NoError(t, err)
	assert.Equal(t, model.StageVideoGenerated, sess.Stage)
	assert.Equal(t, "generated-videos/s-2/v.mp4", sess.Video.VideoPath)
	assert.Equal(t, "product_launch", sess.Video.VideoType)
	assert.Equal(t, "https://cdn/v.mp4", sess.Video.VideoMetadata["url"])

	items, err := st.ListContent(ctx, "s-2", ContentTypeVideo)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "generated-videos/s-2/v.mp4", items[0].ContentPath)
}

func TestStreamPersistsToolChanges(t *testing.T) {
	st := store.NewStore(store.NewMemoryRepository(), nil)
	runner := &mutatingRunner{}
	svc := NewChatService(st, runner, reconciler.New(reconciler.DefaultConfig()))

	var out capture
	svc.Stream(context.Background(), ChatRequest{SessionID: "s-3", Message: "remember this"}, out.emit)

	sess, err := st.Get(context.Background(), "s-3")
	require.NoError(t, err)
	assert.Equal(t, "noted", sess.Video.ScriptNotes)
}

type mutatingRunner struct{}

func (mutatingRunner) Run(ctx context.Context, req agent.Request, emit func(reconciler.Event) error) error {
	req.Session.Video.ScriptNotes = "noted"
	return emit(reconciler.TextEvent(agent.Author, "ok"))
}

func TestStreamAgentFailureIsGeneric(t *testing.T) {
	svc, _, _ := newChatService()
	svc.runner = &agent.ScriptedRunner{Err: errors.New("upstream 500: secret detail")}

	var out capture
	outcome := svc.Stream(context.Background(), ChatRequest{SessionID: "s-4", Message: "hello"}, out.emit)
	require.Error(t, outcome.Err)

	for _, ev := range out.events {
		assert.False(t, strings.Contains(ev.Message, "secret"))
	}
	assert.Contains(t, out.types(), reconciler.UIEventError)
	assert.Equal(t, reconciler.UIEventDone, out.events[len(out.events)-1].Type)
}

type brokenRepo struct {
	*store.MemoryRepository
}

func (b brokenRepo) FindSession(ctx context.Context, id string) (*model.SessionRecord, error) {
	return nil, errors.New("connection refused")
}

func TestStreamStoreFailureFramesTurn(t *testing.T) {
	st := store.NewStore(brokenRepo{store.NewMemoryRepository()}, nil)
	svc := NewChatService(st, agent.NewOfflineRunner(), reconciler.New(reconciler.DefaultConfig()))

	var out capture
	outcome := svc.Stream(context.Background(), ChatRequest{SessionID: "s-5", Message: "hi"}, out.emit)
	require.Error(t, outcome.Err)
	assert.Equal(t, []reconciler.UIEventType{reconciler.UIEventSession, reconciler.UIEventError, reconciler.UIEventDone}, out.types())
}

func TestDeleteSessionForgetsHistory(t *testing.T) {
	st := store.NewStore(store.NewMemoryRepository(), nil)
	runner := agent.NewOpenAIRunner(agent.OpenAIConfig{APIKey: "k"}, agent.NewToolsRegistry(nil))
	svc := NewChatService(st, runner, reconciler.New(reconciler.DefaultConfig()))
	ctx := context.Background()

	_, err := st.Create(ctx, "s-6", "u")
	require.NoError(t, err)
	runner.History().Append("s-6", openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "hi"})
	require.Len(t, runner.History().Load("s-6"), 1)

	require.NoError(t, svc.DeleteSession(ctx, "s-6"))
	_, err = st.Get(ctx, "s-6")
	assert.True(t, IsNotFound(err))
	assert.Empty(t, runner.History().Load("s-6"))
}

func TestCleanupExpiredForgetsHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	st := store.NewStore(store.NewMemoryRepository(), nil, store.WithClock(func() time.Time { return clock }))
	runner := agent.NewOpenAIRunner(agent.OpenAIConfig{APIKey: "k"}, agent.NewToolsRegistry(nil))
	svc := NewChatService(st, runner, reconciler.New(reconciler.DefaultConfig()))
	ctx := context.Background()

	for _, id := range []string{"stale", "live"} {
		_, err := st.Create(ctx, id, "u")
		require.NoError(t, err)
		runner.History().Append(id, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "hi " + id})
	}
	clock = now.Add(2 * time.Hour)
	live, err := st.Get(ctx, "live")
	require.NoError(t, err)
	require.NoError(t, st.Update(ctx, live))
	clock = now.Add(25 * time.Hour)

	removed, err := svc.CleanupExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, removed)
	assert.Empty(t, runner.History().Load("stale"))
	assert.Len(t, runner.History().Load("live"), 1)

	// a reused id starts without the expired conversation
	sess, err := st.GetOrCreate(ctx, "stale", "u")
	require.NoError(t, err)
	assert.Equal(t, model.StageStart, sess.Stage)
	assert.Empty(t, runner.History().Load("stale"))
}
