package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services/reconciler"
	"github.com/sahilchouksey/video-agent-api/services/videogen"
)

// newVideoRegistry serves successful renders and records the last request
func newVideoRegistry(t *testing.T) (*ToolsRegistry, *videogen.Request, *int32) {
	t.Helper()
	var got videogen.Request
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req videogen.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		got = req
		_ = json.NewEncoder(w).Encode(videogen.Result{Status: "success", URL: "/generated/clip.mp4", Message: "Clip ready"})
	}))
	t.Cleanup(srv.Close)
	return NewToolsRegistry(videogen.NewClient(videogen.Config{BaseURL: srv.URL})), &got, &calls
}

func sessionWithImages() *model.Session {
	sess := model.NewSession("s-7", "u", time.Now())
	sess.Brand.Name = "Acme"
	sess.Brand.Colors = []string{"#FF0000", "#00FF00", "#0000FF", "#FFFFFF"}
	sess.Brand.UserImages = []model.UploadedImage{
		{URL: "https://cdn/style.png", UsageIntent: model.IntentStyleReference},
		{URL: "https://cdn/bg.png", UsageIntent: model.IntentBackground},
		{URL: "https://cdn/product.png", UsageIntent: model.IntentProductFocus},
	}
	return sess
}

func TestVideoToolsNeedBackend(t *testing.T) {
	names := toolNames(NewToolsRegistry(nil))
	for _, name := range []string{ToolAnimateImage, ToolVideoFromText, ToolProductVideo, ToolMotionGraphicsVideo} {
		assert.NotContains(t, names, name)
	}
	r, _, _ := newVideoRegistry(t)
	for _, name := range []string{ToolAnimateImage, ToolVideoFromText, ToolProductVideo, ToolMotionGraphicsVideo} {
		assert.Contains(t, toolNames(r), name)
	}
}

func TestAnimateImageUsesUploadedImage(t *testing.T) {
	r, got, _ := newVideoRegistry(t)
	sess := sessionWithImages()

	out := decode(t, r.ExecuteTool(context.Background(), sess, &ToolCall{Name: ToolAnimateImage, Arguments: map[string]any{
		"motion_prompt":    "slow pan across the launch pad",
		"negative_prompt":  "shaky camera",
		"duration_seconds": float64(20),
	}}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "/generated/clip.mp4", out["url"])

	assert.Equal(t, []string{"https://cdn/bg.png"}, got.ImageURLs)
	assert.Equal(t, maxClipSeconds, got.DurationSeconds)
	assert.Equal(t, DefaultClipAspect, got.AspectRatio)
	assert.Contains(t, got.Prompt, "MOTION DESCRIPTION: slow pan across the launch pad")
	assert.Contains(t, got.Prompt, "AVOID: shaky camera")
	assert.Equal(t, "s-7", got.SessionID)
	assert.Equal(t, "Acme", got.BrandName)
}

func TestAnimateImageWithoutImages(t *testing.T) {
	r, _, calls := newVideoRegistry(t)
	sess := model.NewSession("s-8", "u", time.Now())
	sess.Brand.UserImages = []model.UploadedImage{{URL: "https://cdn/style.png", UsageIntent: model.IntentStyleReference}}

	out := decode(t, r.ExecuteTool(context.Background(), sess, &ToolCall{Name: ToolAnimateImage, Arguments: map[string]any{"motion_prompt": "spin"}}))
	assert.Equal(t, "error", out["status"])
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestProductVideoPrefersProductImage(t *testing.T) {
	r, got, _ := newVideoRegistry(t)

	out := decode(t, r.ExecuteTool(context.Background(), sessionWithImages(), &ToolCall{Name: ToolProductVideo, Arguments: map[string]any{
		"product_name":    "Rocket X",
		"animation_style": "zoom",
		"aspect_ratio":    "16:9",
	}}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, []string{"https://cdn/product.png"}, got.ImageURLs)
	assert.Equal(t, "16:9", got.AspectRatio)
	assert.Contains(t, got.Prompt, "Dramatic product reveal video for Rocket X")
	assert.Contains(t, got.Prompt, "#FF0000, #00FF00, #0000FF")
	assert.NotContains(t, got.Prompt, "#FFFFFF")
}

func TestClipToolsClampInputs(t *testing.T) {
	r, got, _ := newVideoRegistry(t)
	ctx := context.Background()

	decode(t, r.ExecuteTool(ctx, sessionWithImages(), &ToolCall{Name: ToolMotionGraphicsVideo, Arguments: map[string]any{
		"message":          "Launch week",
		"style":            "unknown",
		"duration_seconds": float64(2),
		"aspect_ratio":     "4:3",
	}}))
	assert.Equal(t, minClipSeconds, got.DurationSeconds)
	assert.Equal(t, DefaultClipAspect, got.AspectRatio)
	assert.Empty(t, got.ImageURLs)
	assert.Contains(t, got.Prompt, `MAIN MESSAGE: "Launch week"`)
	assert.Contains(t, got.Prompt, motionStyles["modern"])

	decode(t, r.ExecuteTool(ctx, nil, &ToolCall{Name: ToolVideoFromText, Arguments: map[string]any{"prompt": "sunrise over the pad"}}))
	assert.Equal(t, "sunrise over the pad", got.Prompt)
	assert.Equal(t, defaultClipSeconds, got.DurationSeconds)
	assert.Empty(t, got.SessionID)
}

func TestAnimateImageResultReachesClient(t *testing.T) {
	r, _, _ := newVideoRegistry(t)
	sess := sessionWithImages()
	args := map[string]any{"motion_prompt": "spin"}
	result := r.ExecuteTool(context.Background(), sess, &ToolCall{Name: ToolAnimateImage, Arguments: args})

	var events []reconciler.UIEvent
	src := func(ctx context.Context, yield func(reconciler.Event) error) error {
		if err := yield(reconciler.CallEvent(Author, ToolAnimateImage, args)); err != nil {
			return err
		}
		return yield(reconciler.ResponseEvent(Author, ToolAnimateImage, result))
	}
	out := reconciler.New(reconciler.DefaultConfig()).Run(context.Background(),
		reconciler.Turn{SessionID: "s-7", UserMessage: "animate it"}, src,
		func(ev reconciler.UIEvent) error {
			events = append(events, ev)
			return nil
		})

	assert.True(t, out.GenerationStarted)
	require.Len(t, out.Videos, 1)
	assert.Equal(t, "/generated/clip.mp4", out.Videos[0].URL)

	var types []reconciler.UIEventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, reconciler.UIEventStatus)
	assert.Contains(t, types, reconciler.UIEventVideoGenerated)
}
