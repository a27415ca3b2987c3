package workflow

import (
	"testing"
	"time"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceFollowsTable(t *testing.T) {
	s := model.NewSession("s1", "u1", time.Now())

	require.NoError(t, Advance(s, model.StageBrandSetup))
	assert.Equal(t, model.StageBrandSetup, s.Stage)

	err := Advance(s, model.StageVideoGenerating)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.StageBrandSetup, s.Stage)
}

func TestAdvanceResetsVideoOnNewCycle(t *testing.T) {
	s := model.NewSession("s1", "u1", time.Now())
	s.Stage = model.StageComplete
	s.Brand.Name = "Acme"
	s.Video.VideoType = "explainer"
	s.Video.VideoPath = "/generated/x.mp4"

	require.NoError(t, Advance(s, model.StageVideoTypeSelection))
	assert.Equal(t, model.VideoContext{}, s.Video)
	assert.Equal(t, "Acme", s.Brand.Name)
}

func TestAdvanceKeepsVideoWithinCycle(t *testing.T) {
	s := model.NewSession("s1", "u1", time.Now())
	s.Stage = model.StageBrandComplete
	s.Video.VideoType = "explainer"

	require.NoError(t, Advance(s, model.StageVideoTypeSelection))
	assert.Equal(t, "explainer", s.Video.VideoType)
}

func TestPath(t *testing.T) {
	path, ok := Path(model.StageStart, model.StageVideoTypeSelection)
	require.True(t, ok)
	assert.Equal(t, []model.Stage{
		model.StageBrandSetup,
		model.StageBrandComplete,
		model.StageVideoTypeSelection,
	}, path)

	path, ok = Path(model.StageScriptApproved, model.StageScriptApproved)
	assert.True(t, ok)
	assert.Empty(t, path)

	_, ok = Path(model.Stage("nowhere"), model.StageStart)
	assert.False(t, ok)
}

func TestReachAppliesEveryEdge(t *testing.T) {
	s := model.NewSession("s1", "u1", time.Now())
	s.Stage = model.StageVideoGenerated
	s.Video.VideoPath = "/generated/a.mp4"

	require.NoError(t, Reach(s, model.StageStrategyIdeasShown))
	assert.Equal(t, model.StageStrategyIdeasShown, s.Stage)
	assert.Empty(t, s.Video.VideoPath, "passing through complete -> video_type_selection starts a new cycle")
}

func TestReachUnreachable(t *testing.T) {
	s := model.NewSession("s1", "u1", time.Now())
	s.Stage = model.Stage("nowhere")
	assert.ErrorIs(t, Reach(s, model.StageComplete), ErrUnreachableStage)
}

func TestFailThenRecover(t *testing.T) {
	s := model.NewSession("s1", "u1", time.Now())
	s.Stage = model.StageVideoGenerating
	Fail(s)
	assert.Equal(t, model.StageError, s.Stage)
	require.NoError(t, Advance(s, model.StageVideoTypeSelection))
}
