package reconciler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/video-agent-api/model"
)

func TestBrandSetupRule(t *testing.T) {
	rule := NewBrandSetupRule()

	t.Run("extracts details", func(t *testing.T) {
		d := rule.Details("I've set up my Brand: Luna Bakes (Food & Beverage). Colors: #FFAA00 Style: warm")
		assert.Equal(t, BrandSetupDetails{Name: "Luna Bakes", Industry: "Food & Beverage", Colors: "#FFAA00", Style: "warm"}, d)
	})

	t.Run("defaults when nothing extracted", func(t *testing.T) {
		resp, ok := rule.Apply(FallbackInput{UserMessage: "Brand setup complete"})
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(resp.Text, "Perfect! I see you've set up your brand with your brand colors branding. Great foundation! 🎨"))
		assert.Equal(t, model.ChoiceMenu, resp.ChoiceType)
		assert.Equal(t, "Or describe what you'd like to create", resp.InputHint)
		assert.Len(t, resp.Choices, 9)
	})

	t.Run("keyword match is case insensitive", func(t *testing.T) {
		assert.True(t, rule.Matches("logo: uploaded"))
		assert.False(t, rule.Matches("make me a video"))
	})
}

func TestConceptListRule(t *testing.T) {
	rule := NewConceptListRule()
	long := strings.Repeat("x", 70)
	collected := "Here are your video concepts:\n1. **Short**\n2. " + long + "\n3. Third\n4. Fourth\n5. Fifth\n6. Sixth"

	resp, ok := rule.Apply(FallbackInput{Collected: collected})
	require.True(t, ok)
	require.Len(t, resp.Choices, 5)
	assert.Equal(t, "Idea 1: Short", resp.Choices[0].Label)
	assert.Equal(t, "Idea 2: "+strings.Repeat("x", 57)+"...", resp.Choices[1].Label)
	assert.Equal(t, "5️⃣", resp.Choices[4].Icon)
	assert.Equal(t, model.ChoiceSingleSelect, resp.ChoiceType)
	assert.Equal(t, "Or describe your own concept", resp.InputHint)
	assert.Contains(t, resp.Text, "**Which idea do you like?** Pick one below!")

	_, ok = rule.Apply(FallbackInput{Collected: "1. alpha\n2. beta"})
	assert.False(t, ok, "needs a trigger phrase")
	_, ok = rule.Apply(FallbackInput{Collected: "Here are the steps. 1. only one"})
	assert.False(t, ok)
}

func TestConfirmationRule(t *testing.T) {
	rule := NewConfirmationRule()
	developed := "Great pick! Here is the concept in detail. Hook: a sunrise over the bakery. Script: warm narration about fresh bread. Duration: 30 seconds."

	for _, msg := range []string{"2", "yes", "Go with option 2", "idea #3", "let's go with 1", "pick number 4"} {
		assert.True(t, rule.IsSelection(msg), msg)
	}
	for _, msg := range []string{"7", "tell me more", "option nine"} {
		assert.False(t, rule.IsSelection(msg), msg)
	}

	resp, ok := rule.Apply(FallbackInput{UserMessage: "2", Collected: developed})
	require.True(t, ok)
	assert.Equal(t, model.ChoiceConfirmation, resp.ChoiceType)
	ids := []string{resp.Choices[0].ID, resp.Choices[1].ID, resp.Choices[2].ID}
	assert.Equal(t, []string{"yes", "refine", "different"}, ids)
	assert.Contains(t, resp.Text, "**Ready to generate this video?**")

	_, ok = rule.Apply(FallbackInput{UserMessage: "2", Collected: "Short concept."})
	assert.False(t, ok)
}

func TestTrailingQuestionRule(t *testing.T) {
	rule := NewTrailingQuestionRule()
	collected := "Motion graphics can go many ways. Some directions:\n" +
		"🔥 **Bold and energetic**\n" +
		"🌊 Calm and flowing\n" +
		"⚡ Fast cuts\n\n" +
		"Which style would you like?"

	resp, ok := rule.Apply(FallbackInput{Collected: collected})
	require.True(t, ok)
	require.Len(t, resp.Choices, 4)
	assert.Equal(t, "Bold and energetic", resp.Choices[0].Label)
	assert.Equal(t, "bold_and_energetic", resp.Choices[0].ID)
	assert.Equal(t, "🔥", resp.Choices[0].Icon)
	assert.Equal(t, "suggest", resp.Choices[3].ID)
	assert.Equal(t, model.ChoiceMenu, resp.ChoiceType)

	rule.Topics = []string{"talking head"}
	_, ok = rule.Apply(FallbackInput{Collected: collected})
	assert.False(t, ok, "topic gate")

	_, ok = NewTrailingQuestionRule().Apply(FallbackInput{Collected: "Would you like a video about your new product line today?"})
	assert.False(t, ok, "needs emoji options")
}

func TestTrailingQuestionCapsOptions(t *testing.T) {
	var b strings.Builder
	b.WriteString("Pick a mood for the piece:\n")
	for i := 0; i < 10; i++ {
		b.WriteString("🎵 Mood ")
		b.WriteByte(byte('a' + i))
		b.WriteString("\n")
	}
	b.WriteString("Which one?")

	resp, ok := NewTrailingQuestionRule().Apply(FallbackInput{Collected: b.String()})
	require.True(t, ok)
	assert.Len(t, resp.Choices, 8)
	assert.Equal(t, "suggest", resp.Choices[7].ID)
}

func TestDefaultFallbacksOrder(t *testing.T) {
	names := []string{}
	for _, r := range DefaultFallbacks() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"brand_setup", "concept_list", "confirmation", "trailing_question"}, names)
}
