package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s1", "u1", now)

	assert.Equal(t, StageStart, s.Stage)
	assert.Equal(t, DefaultTone, s.Brand.Tone)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now, s.UpdatedAt)
	assert.Empty(t, s.Video.VideoType)
}

func TestContextSummary(t *testing.T) {
	s := NewSession("s1", "u1", time.Now())
	assert.Equal(t, "State: start", s.ContextSummary())

	s.Stage = StageVideoGenerated
	s.Brand.Name = "Acme"
	s.Video.VideoType = "explainer"
	s.Video.VideoPath = "/generated/a.mp4"
	assert.Equal(t, "State: video_generated | Brand: Acme | Video Type: explainer | Video: /generated/a.mp4", s.ContextSummary())
}

func TestImagesForGenerationExcludesStyleReferences(t *testing.T) {
	b := BrandProfile{
		ReferenceImages: []string{"/ref/legacy.png"},
		UserImages: []UploadedImage{
			{ID: "1", Path: "/u/bg.png", UsageIntent: IntentBackground},
			{ID: "2", Path: "/u/style.png", UsageIntent: IntentStyleReference},
			{ID: "3", Path: "/u/team.png", UsageIntent: IntentTeamPeople},
		},
	}

	gen := b.ImagesForGeneration()
	require.Len(t, gen, 2)
	assert.Equal(t, "1", gen[0].ID)
	assert.Equal(t, "3", gen[1].ID)

	assert.Equal(t, []string{"/u/style.png", "/ref/legacy.png"}, b.StyleReferenceImages())
}

func TestVideoResetKeepsBrand(t *testing.T) {
	s := NewSession("s1", "u1", time.Now())
	s.Brand.Name = "Acme"
	s.Video.VideoType = "promotional"
	s.Video.Script = "hook"

	s.Video.Reset()
	assert.Equal(t, VideoContext{}, s.Video)
	assert.Equal(t, "Acme", s.Brand.Name)
}

func TestParseImageIntent(t *testing.T) {
	assert.Equal(t, IntentStyleReference, ParseImageIntent("style_reference"))
	assert.Equal(t, IntentTeamPeople, ParseImageIntent("people"))
	assert.Equal(t, IntentAuto, ParseImageIntent("whatever"))
	assert.Equal(t, IntentAuto, ParseImageIntent(""))
}

func TestMarketingContextIsComplete(t *testing.T) {
	assert.False(t, MarketingContext{CompanyOverview: "x"}.IsComplete())
	assert.True(t, MarketingContext{CompanyOverview: "x", TargetAudience: "y"}.IsComplete())
}

func TestSessionRecordRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s1", "u1", now)
	s.Stage = StageScriptPresented
	s.Brand.Colors = []string{"#112233"}
	s.Video.Script = "Open on the product"
	s.Version = 3

	rec, err := NewSessionRecord(s)
	require.NoError(t, err)
	assert.Equal(t, "script_presented", rec.Stage)

	back, err := rec.ToSession()
	require.NoError(t, err)
	assert.Equal(t, s.Stage, back.Stage)
	assert.Equal(t, s.Brand, back.Brand)
	assert.Equal(t, s.Video.Script, back.Video.Script)
	assert.Equal(t, int64(3), back.Version)
}

func TestSessionRecordRejectsUnknownStage(t *testing.T) {
	rec := &SessionRecord{SessionID: "s1", Stage: "dancing"}
	_, err := rec.ToSession()
	assert.Error(t, err)
}

func TestSessionSerializesStageAndISOTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s1", "u1", now)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "start", raw["stage"])
	assert.Equal(t, "2026-03-01T10:00:00Z", raw["created_at"])
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSession("s1", "u1", time.Now())
	s.Brand.Colors = []string{"#000000"}

	cp := s.Clone()
	cp.Brand.Colors[0] = "#ffffff"
	assert.Equal(t, "#000000", s.Brand.Colors[0])
}

func TestFormattedResponseJSONKeepsEmoji(t *testing.T) {
	f := FormattedResponse{Text: "Pick <one>", HasChoices: true, ChoiceType: ChoiceMenu}
	out, err := f.JSON()
	require.NoError(t, err)
	assert.Contains(t, out, "Pick <one>")
	assert.Contains(t, out, `"choices":[]`)
}
