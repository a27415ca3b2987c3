package reconciler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/sahilchouksey/video-agent-api/model"
)

// FallbackInput is what a rule sees once the upstream stream is drained
type FallbackInput struct {
	UserMessage string
	Collected   string
}

// FallbackRule synthesizes choices for a turn that produced none
type FallbackRule interface {
	Name() string
	Apply(in FallbackInput) (*model.FormattedResponse, bool)
}

// DefaultFallbacks returns the cascade in evaluation order
func DefaultFallbacks() []FallbackRule {
	return []FallbackRule{
		NewBrandSetupRule(),
		NewConceptListRule(),
		NewConfirmationRule(),
		NewTrailingQuestionRule(),
	}
}

// VideoTypeChoices is the canonical video type menu
func VideoTypeChoices() []model.Choice {
	return []model.Choice{
		{ID: "brand_story", Label: "Brand Story", Value: "brand story", Icon: "📖"},
		{ID: "product_launch", Label: "Product Launch", Value: "product launch", Icon: "🚀"},
		{ID: "explainer", Label: "Explainer", Value: "explainer", Icon: "💡"},
		{ID: "testimonial", Label: "Testimonial", Value: "testimonial", Icon: "⭐"},
		{ID: "educational", Label: "Educational", Value: "educational", Icon: "📚"},
		{ID: "promotional", Label: "Promotional", Value: "promotional", Icon: "🎯"},
		{ID: "animated_product", Label: "Animated Product", Value: "animated product", Icon: "📦"},
		{ID: "motion_graphics", Label: "Motion Graphics", Value: "motion graphics", Icon: "✨"},
		{ID: "talking_head", Label: "AI Talking Head", Value: "talking head", Icon: "🎙️"},
	}
}

const videoTypeMenuText = "Now, let's create an amazing marketing video! I can help you create **9 different types of marketing videos**:\n\n" +
	"**Marketing-Specific Types:**\n" +
	"📖 Brand Story - Tell your mission and values\n" +
	"🚀 Product Launch - Announce new products\n" +
	"💡 Explainer - Show how services work\n" +
	"⭐ Testimonial - Share customer stories\n" +
	"📚 Educational - Tips and insights\n" +
	"🎯 Promotional - Deals and campaigns\n\n" +
	"**Creative Types:**\n" +
	"📦 Animated Product - Showcase products\n" +
	"✨ Motion Graphics - Eye-catching animations\n" +
	"🎙️ AI Talking Head - AI presenter videos\n\n" +
	"**Which type would you like to create?**"

// BrandSetupDetails are values pulled out of a brand setup message
type BrandSetupDetails struct {
	Name     string
	Industry string
	Colors   string
	Style    string
}

// BrandSetupRule fires when the user message announces a finished brand setup
type BrandSetupRule struct {
	Keywords []string
	name     *regexp.Regexp
	industry *regexp.Regexp
	colors   *regexp.Regexp
	style    *regexp.Regexp
}

func NewBrandSetupRule() *BrandSetupRule {
	return &BrandSetupRule{
		Keywords: []string{"set up my brand", "brand setup", "I've set up", "setup complete", "brand configured", "Logo:", "Colors:", "Style:"},
		name:     regexp.MustCompile(`(?i)brand:\s*([^.(]+)`),
		industry: regexp.MustCompile(`\(([^)]+)\)`),
		colors:   regexp.MustCompile(`Colors?:\s*(#[0-9A-Fa-f]+)`),
		style:    regexp.MustCompile(`(?i)Style:\s*(\w+)`),
	}
}

func (r *BrandSetupRule) Name() string { return "brand_setup" }

// Matches reports whether message looks like a brand setup completion
func (r *BrandSetupRule) Matches(message string) bool {
	lower := strings.ToLower(message)
	return lo.SomeBy(r.Keywords, func(k string) bool {
		return strings.Contains(lower, strings.ToLower(k))
	})
}

// Details extracts brand values from the message; missing ones stay empty
func (r *BrandSetupRule) Details(message string) BrandSetupDetails {
	first := func(re *regexp.Regexp) string {
		if m := re.FindStringSubmatch(message); m != nil {
			return strings.TrimSpace(m[1])
		}
		return ""
	}
	return BrandSetupDetails{
		Name:     first(r.name),
		Industry: first(r.industry),
		Colors:   first(r.colors),
		Style:    first(r.style),
	}
}

func (r *BrandSetupRule) Apply(in FallbackInput) (*model.FormattedResponse, bool) {
	if !r.Matches(in.UserMessage) {
		return nil, false
	}
	d := r.Details(in.UserMessage)

	var b strings.Builder
	b.WriteString("Perfect! I see you've set up ")
	b.WriteString(lo.Ternary(d.Name != "", d.Name, "your brand"))
	if d.Industry != "" {
		fmt.Fprintf(&b, " (%s)", d.Industry)
	}
	fmt.Fprintf(&b, " with your %s branding", lo.Ternary(d.Colors != "", "vibrant "+d.Colors, "brand colors"))
	if d.Style != "" {
		fmt.Fprintf(&b, " and %s style", d.Style)
	}
	b.WriteString(". Great foundation! 🎨\n\n")
	b.WriteString(videoTypeMenuText)

	resp := FormatResponse(b.String(), FormatOptions{
		Choices:    VideoTypeChoices(),
		ChoiceType: model.ChoiceMenu,
		Hint:       "Or describe what you'd like to create",
	})
	return &resp, true
}

var keycaps = map[string]string{"1": "1️⃣", "2": "2️⃣", "3": "3️⃣", "4": "4️⃣", "5": "5️⃣"}

// ConceptListRule fires when the agent listed numbered concepts without offering buttons
type ConceptListRule struct {
	Triggers  []string
	MaxTitle  int
	MaxIdeas  int
	item      *regexp.Regexp
	firstItem *regexp.Regexp
	second    *regexp.Regexp
}

func NewConceptListRule() *ConceptListRule {
	return &ConceptListRule{
		Triggers:  []string{"video concepts", "video concept", "here are", "strategic video"},
		MaxTitle:  60,
		MaxIdeas:  5,
		item:      regexp.MustCompile(`(?m)^\s*(\d+)\.\s+(.+?)\s*$`),
		firstItem: regexp.MustCompile(`\b1\.\s+`),
		second:    regexp.MustCompile(`\b2\.\s+`),
	}
}

func (r *ConceptListRule) Name() string { return "concept_list" }

func (r *ConceptListRule) Apply(in FallbackInput) (*model.FormattedResponse, bool) {
	lower := strings.ToLower(in.Collected)
	if !containsAny(lower, r.Triggers) || !r.firstItem.MatchString(in.Collected) || !r.second.MatchString(in.Collected) {
		return nil, false
	}

	var choices []model.Choice
	for _, m := range r.item.FindAllStringSubmatch(in.Collected, -1) {
		num := m[1]
		title := strings.TrimSpace(strings.ReplaceAll(m[2], "**", ""))
		if title == "" {
			continue
		}
		if len([]rune(title)) > r.MaxTitle {
			title = truncateRunes(title, r.MaxTitle-3) + "..."
		}
		icon, ok := keycaps[num]
		if !ok {
			icon = "🔢"
		}
		choices = append(choices, model.Choice{
			ID:    "idea_" + num,
			Label: fmt.Sprintf("Idea %s: %s", num, title),
			Value: num,
			Icon:  icon,
		})
	}
	if len(choices) < 2 {
		return nil, false
	}
	if len(choices) > r.MaxIdeas {
		choices = choices[:r.MaxIdeas]
	}

	resp := FormatResponse(in.Collected+"\n\n**Which idea do you like?** Pick one below!", FormatOptions{
		Choices:    choices,
		ChoiceType: model.ChoiceSingleSelect,
		Hint:       "Or describe your own concept",
	})
	return &resp, true
}

// ConfirmationRule fires when the user picked an idea and the agent developed it
type ConfirmationRule struct {
	Markers   []string
	MinLength int
	selection *regexp.Regexp
}

func NewConfirmationRule() *ConfirmationRule {
	return &ConfirmationRule{
		Markers:   []string{"hook", "script", "key message", "duration", "concept"},
		MinLength: 100,
		selection: regexp.MustCompile(`^(go with|option|idea|concept|choose|select|pick|i like|let'?s go with|number)?\s*(option|idea|concept|number)?\s*#?\s*[1-5]\b`),
	}
}

func (r *ConfirmationRule) Name() string { return "confirmation" }

// IsSelection reports whether message picks one of the offered options
func (r *ConfirmationRule) IsSelection(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	if lo.Contains([]string{"1", "2", "3", "4", "5", "yes"}, m) {
		return true
	}
	return r.selection.MatchString(m)
}

func (r *ConfirmationRule) Apply(in FallbackInput) (*model.FormattedResponse, bool) {
	if !r.IsSelection(in.UserMessage) {
		return nil, false
	}
	if len(in.Collected) <= r.MinLength || !containsAny(strings.ToLower(in.Collected), r.Markers) {
		return nil, false
	}

	resp := FormatResponse(in.Collected+"\n\n**Ready to generate this video?**", FormatOptions{
		Choices: []model.Choice{
			{ID: "yes", Label: "Yes, generate!", Value: "yes generate", Icon: "✅"},
			{ID: "refine", Label: "Refine the concept", Value: "refine concept", Icon: "✏️"},
			{ID: "different", Label: "Pick a different idea", Value: "show ideas again", Icon: "🔄"},
		},
		ChoiceType: model.ChoiceConfirmation,
		Hint:       "Or tell me what to change",
	})
	return &resp, true
}

// TrailingQuestionRule fires when the response ends in a question over emoji-prefixed options.
// A non-empty Topics list additionally requires one of the topics to appear in the response.
type TrailingQuestionRule struct {
	Topics     []string
	MinLength  int
	MaxOptions int
	option     *regexp.Regexp
}

func NewTrailingQuestionRule() *TrailingQuestionRule {
	return &TrailingQuestionRule{
		MinLength:  50,
		MaxOptions: 7,
		option:     regexp.MustCompile(`([\x{1F300}-\x{1FAD6}\x{2600}-\x{27BF}\x{2702}-\x{27B0}])[\x{FE0F}]?\s+(.+?)(?:\n|$)`),
	}
}

func (r *TrailingQuestionRule) Name() string { return "trailing_question" }

func (r *TrailingQuestionRule) Apply(in FallbackInput) (*model.FormattedResponse, bool) {
	text := strings.TrimSpace(in.Collected)
	if len(text) <= r.MinLength || !endsWithQuestion(text) {
		return nil, false
	}
	lower := strings.ToLower(text)
	if len(r.Topics) > 0 && !containsAny(lower, r.Topics) {
		return nil, false
	}

	var options []model.Choice
	for _, m := range r.option.FindAllStringSubmatch(in.Collected, -1) {
		label := strings.TrimSpace(strings.ReplaceAll(m[2], "**", ""))
		if label == "" || len(label) >= 80 || strings.HasPrefix(label, "Video Concepts") {
			continue
		}
		short := truncateRunes(label, 50)
		options = append(options, model.Choice{
			ID:    truncateRunes(strings.ReplaceAll(strings.ToLower(label), " ", "_"), 30),
			Label: short,
			Value: short,
			Icon:  m[1],
		})
	}
	if len(options) < 2 {
		return nil, false
	}
	if len(options) > r.MaxOptions {
		options = options[:r.MaxOptions]
	}
	options = append(options, model.Choice{ID: "suggest", Label: "Suggest ideas for me", Value: "suggest ideas", Icon: "💡"})

	resp := FormatResponse(text, FormatOptions{
		Choices:    options,
		ChoiceType: model.ChoiceMenu,
		Hint:       "Or describe what you want",
	})
	return &resp, true
}

func endsWithQuestion(text string) bool {
	if strings.HasSuffix(text, "?") {
		return true
	}
	tail := text
	if len(tail) > 200 {
		tail = tail[len(tail)-200:]
	}
	tail = strings.ToLower(tail)
	return strings.Contains(tail, "which") || strings.Contains(tail, "would you like")
}

