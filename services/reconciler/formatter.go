package reconciler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sahilchouksey/video-agent-api/model"
)

const maxExtractedChoices = 8

var (
	numberedChoice = regexp.MustCompile(`(?m)^\s*(\d+)[.)\]]\s*\*?\*?([^*\n-]+)\*?\*?\s*(?:[-–—:]\s*([^\n]+))?`)
	bulletChoice   = regexp.MustCompile(`(?m)^\s*[-•*]\s+\*?\*?([^*\n-]+)\*?\*?\s*(?:[-–—:]\s*([^\n]+))?`)

	numberedLine = regexp.MustCompile(`^\s*\d+[.)\]]\s*\*?\*?[^*\n]+\*?\*?(?:\s*[-–—:].+)?$`)
	bulletLine   = regexp.MustCompile(`^\s*[-•*]\s+\*?\*?[^*\n]{1,50}\*?\*?(?:\s*[-–—:].+)?$`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
	nonIDChars   = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

var stepWords = []string{"step", "first", "then", "next", "finally"}

var iconKeywords = []struct{ keyword, icon string }{
	{"yes", "✅"}, {"approve", "✅"}, {"no", "❌"}, {"cancel", "❌"}, {"skip", "⏭️"},
	{"edit", "✏️"}, {"video", "🎬"}, {"animate", "🎬"}, {"animation", "🎬"},
	{"generate", "✨"}, {"create", "✨"}, {"download", "⬇️"},
	{"idea", "💡"}, {"suggest", "💡"}, {"done", "🎉"}, {"new", "🆕"},
}

// FormatOptions controls FormatResponse. Choices, when set, are used as-is
// instead of being extracted from the text.
type FormatOptions struct {
	Choices           []model.Choice
	ChoiceType        model.ChoiceType
	DisallowFreeInput bool
	Placeholder       string
	Hint              string
}

// FormatResponse builds the structured-choice envelope for a response text
func FormatResponse(text string, opts FormatOptions) model.FormattedResponse {
	allowFree := !opts.DisallowFreeInput
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = model.DefaultInputPlaceholder
	}
	hint := opts.Hint

	choices := opts.Choices
	choiceType := opts.ChoiceType
	if len(choices) > 0 {
		choices = normalizeChoices(choices)
		if choiceType == "" {
			choiceType = model.ChoiceSingleSelect
		}
	} else {
		choices = ExtractChoices(text)
		if len(choices) == 0 {
			return model.FormattedResponse{
				Text:             text,
				ChoiceType:       model.ChoiceSingleSelect,
				Choices:          []model.Choice{},
				AllowFreeInput:   allowFree,
				InputPlaceholder: placeholder,
				InputHint:        hint,
			}
		}
		choiceType = DetectChoiceType(choices)
	}

	if hint == "" && allowFree {
		hint = model.DefaultInputHint
	}
	return model.FormattedResponse{
		Text:             RemoveChoicePatterns(text),
		HasChoices:       true,
		ChoiceType:       choiceType,
		Choices:          choices,
		AllowFreeInput:   allowFree,
		InputPlaceholder: placeholder,
		InputHint:        hint,
	}
}

func normalizeChoices(in []model.Choice) []model.Choice {
	out := make([]model.Choice, len(in))
	for i, c := range in {
		if c.ID == "" {
			c.ID = fmt.Sprintf("option_%d", i)
		}
		if c.Value == "" {
			c.Value = c.Label
		}
		out[i] = c
	}
	return out
}

// ExtractChoices finds numbered options, falling back to bullet options
func ExtractChoices(text string) []model.Choice {
	var choices []model.Choice
	seen := map[string]bool{}

	for _, m := range numberedChoice.FindAllStringSubmatch(text, -1) {
		label := strings.TrimSpace(m[2])
		lower := strings.ToLower(label)
		if containsAny(lower, stepWords) {
			continue
		}
		if !seen[lower] && len(label) < 50 {
			seen[lower] = true
			choices = append(choices, newChoice(label, strings.TrimSpace(m[3])))
		}
	}
	if len(choices) >= 2 {
		if len(choices) > maxExtractedChoices {
			choices = choices[:maxExtractedChoices]
		}
		return choices
	}

	for _, m := range bulletChoice.FindAllStringSubmatch(text, -1) {
		label := strings.TrimSpace(m[1])
		if len(label) > 50 || strings.Count(label, " ") > 6 {
			continue
		}
		lower := strings.ToLower(label)
		if !seen[lower] {
			seen[lower] = true
			choices = append(choices, newChoice(label, strings.TrimSpace(m[2])))
		}
	}
	if len(choices) >= 2 && len(choices) <= maxExtractedChoices {
		return choices
	}
	return nil
}

func newChoice(label, description string) model.Choice {
	return model.Choice{
		ID:          ToID(label),
		Label:       label,
		Value:       strings.ToLower(label),
		Icon:        IconForLabel(label),
		Description: description,
	}
}

// RemoveChoicePatterns strips option lines that follow the first line
func RemoveChoicePatterns(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if i > 0 && (numberedLine.MatchString(line) || bulletLine.MatchString(line)) {
			continue
		}
		kept = append(kept, line)
	}
	out := blankRuns.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

// DetectChoiceType guesses the UI type from the option labels
func DetectChoiceType(choices []model.Choice) model.ChoiceType {
	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = strings.ToLower(c.Label)
	}
	joined := strings.Join(labels, " ")
	switch {
	case containsAny(joined, []string{"yes", "no", "approve", "reject", "confirm", "cancel", "skip"}):
		return model.ChoiceConfirmation
	case containsAny(joined, []string{"video", "animation", "create", "generate"}):
		return model.ChoiceMenu
	default:
		return model.ChoiceSingleSelect
	}
}

// ToID turns a label into a short snake_case identifier
func ToID(label string) string {
	clean := nonIDChars.ReplaceAllString(strings.ToLower(label), "")
	return truncateRunes(spaceRuns.ReplaceAllString(strings.TrimSpace(clean), "_"), 30)
}

func IconForLabel(label string) string {
	lower := strings.ToLower(label)
	for _, k := range iconKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.icon
		}
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
