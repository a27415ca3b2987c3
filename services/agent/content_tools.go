package agent

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/sahilchouksey/video-agent-api/model"
)

const (
	ToolWriteCaption     = "write_caption"
	ToolGenerateHashtags = "generate_hashtags"
	ToolImproveCaption   = "improve_caption"
	ToolGenerateScript   = "generate_video_script"
	ToolRefineScript     = "refine_script"

	DefaultMaxHashtags   = 15
	maxHashtags          = 30
	DefaultCaptionLength = 500
	DefaultScriptSeconds = 30
)

var emojiInstructions = map[string]string{
	"none":     "Do not use any emojis.",
	"minimal":  "Use 1-2 emojis strategically.",
	"moderate": "Use 3-5 emojis to enhance the message.",
	"heavy":    "Use emojis liberally throughout.",
}

// scriptHeader matches section headings such as "1. HOOK (first 3 seconds)" or "**CTA:** Shop now"
var scriptHeader = regexp.MustCompile(`(?i)^[#*\s]*(?:\d+[.)]\s*)?\**(hook|main content|body|cta|call[- ]to[- ]action|visual notes)\b(?:\s*\([^)]*\))?\**\s*([:\-]?)\**\s*(.*)$`)

func (r *ToolsRegistry) registerContentTools() {
	r.RegisterTool(ToolDefinition{
		Name: ToolWriteCaption,
		Description: "Write a short social media caption for the video or post. " +
			"Brand name, voice and audience come from the session when not given.",
		Parameters: []ToolParameter{
			{Name: "topic", Type: "string", Description: "Main topic or theme of the post", Required: true},
			{Name: "key_message", Type: "string", Description: "Main message to convey"},
			{Name: "brand_voice", Type: "string", Description: "Brand tone of voice"},
			{Name: "target_audience", Type: "string", Description: "Who the content is for"},
			{Name: "occasion", Type: "string", Description: "Special occasion or event"},
			{Name: "tone", Type: "string", Description: "engaging, professional, playful or inspirational"},
			{Name: "max_length", Type: "integer", Description: "Maximum caption length in characters (default 500)"},
			{Name: "include_cta", Type: "boolean", Description: "End with a call to action (default true)"},
			{Name: "emoji_level", Type: "string", Description: "How many emojis to use", Enum: []string{"none", "minimal", "moderate", "heavy"}},
			{Name: "image_description", Type: "string", Description: "What the accompanying image or video shows"},
		},
		RequiresWriter: true,
	})

	r.RegisterTool(ToolDefinition{
		Name:        ToolGenerateHashtags,
		Description: "Generate relevant hashtags for a post, mixing broad and niche tags.",
		Parameters: []ToolParameter{
			{Name: "topic", Type: "string", Description: "Main topic of the post", Required: true},
			{Name: "niche", Type: "string", Description: "Industry or niche; defaults to the brand industry"},
			{Name: "trending_context", Type: "string", Description: "Trending topics to work in"},
			{Name: "max_hashtags", Type: "integer", Description: "Maximum number of hashtags (default 15)"},
		},
		RequiresWriter: true,
	})

	r.RegisterTool(ToolDefinition{
		Name:        ToolImproveCaption,
		Description: "Rewrite an existing caption according to the user's feedback.",
		Parameters: []ToolParameter{
			{Name: "original_caption", Type: "string", Description: "The current caption", Required: true},
			{Name: "feedback", Type: "string", Description: "What to change", Required: true},
			{Name: "preserve_tone", Type: "boolean", Description: "Keep the same tone and voice (default true)"},
		},
		RequiresWriter: true,
	})

	r.RegisterTool(ToolDefinition{
		Name: ToolGenerateScript,
		Description: "Write the video script for the selected concept: hook, main content, call to action and visual notes. " +
			"The script is saved to the session for review.",
		Parameters: []ToolParameter{
			{Name: "strategy_concept", Type: "string", Description: "The concept the user selected", Required: true},
			{Name: "video_type", Type: "string", Description: "Video type; defaults to the session's selection"},
			{Name: "duration_seconds", Type: "integer", Description: "Target length in seconds (default 30)"},
			{Name: "tone", Type: "string", Description: "Tone of the script; defaults to the brand tone"},
			{Name: "products_services", Type: "string", Description: "Products or services to feature"},
		},
		RequiresWriter: true,
	})

	r.RegisterTool(ToolDefinition{
		Name:        ToolRefineScript,
		Description: "Revise the current script according to the user's feedback.",
		Parameters: []ToolParameter{
			{Name: "feedback", Type: "string", Description: "What the user wants changed", Required: true},
			{Name: "original_script", Type: "string", Description: "Script to revise; defaults to the session's script"},
		},
		RequiresWriter: true,
	})
}

func (r *ToolsRegistry) executeWriteCaption(ctx context.Context, sess *model.Session, args map[string]any) string {
	brand := brandOf(sess)
	voice := lo.CoalesceOrEmpty(stringArg(args, "brand_voice"), brand.Tone, "professional yet friendly")
	audience := lo.CoalesceOrEmpty(stringArg(args, "target_audience"), brand.MarketingContext.TargetAudience, "general")
	emoji, ok := emojiInstructions[stringArg(args, "emoji_level")]
	if !ok {
		emoji = emojiInstructions["moderate"]
	}
	maxLen := intArg(args, "max_length", DefaultCaptionLength)
	cta := "End with a clear call to action"
	if v, ok := args["include_cta"].(bool); ok && !v {
		cta = "No call to action needed"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a SHORT Instagram caption (50-150 words, at most %d characters).\n\n", maxLen)
	fmt.Fprintf(&sb, "Topic: %s\n", stringArg(args, "topic"))
	fmt.Fprintf(&sb, "Brand voice: %s\n", voice)
	fmt.Fprintf(&sb, "Audience: %s\n", audience)
	fmt.Fprintf(&sb, "Message: %s\n", lo.CoalesceOrEmpty(stringArg(args, "key_message"), "Engage and connect"))
	fmt.Fprintf(&sb, "Occasion: %s\n", lo.CoalesceOrEmpty(stringArg(args, "occasion"), "Regular post"))
	fmt.Fprintf(&sb, "Tone: %s\n", lo.CoalesceOrEmpty(stringArg(args, "tone"), "engaging"))
	if brand.Name != "" {
		fmt.Fprintf(&sb, "Brand: %s\n", brand.Name)
	}
	if overview := lo.CoalesceOrEmpty(brand.MarketingContext.CompanyOverview, brand.Overview); overview != "" {
		fmt.Fprintf(&sb, "About: %s\n", overview)
	}
	if img := stringArg(args, "image_description"); img != "" {
		fmt.Fprintf(&sb, "Image shows: %s\n", img)
	}
	fmt.Fprintf(&sb, "\nRequirements:\n- First line is an attention-grabbing hook\n- 1-2 sentences of value\n- %s\n- %s\n\nWrite ONLY the caption text.", cta, emoji)

	caption, err := r.writer.Write(ctx, WritePrompt{User: sb.String(), Temperature: 0.8})
	if err != nil {
		return writeError(ToolWriteCaption, err)
	}
	return jsonResult(map[string]any{
		"status":          "success",
		"caption":         caption,
		"character_count": utf8.RuneCountInString(caption),
		"topic":           stringArg(args, "topic"),
		"tone":            lo.CoalesceOrEmpty(stringArg(args, "tone"), "engaging"),
	})
}

func (r *ToolsRegistry) executeGenerateHashtags(ctx context.Context, sess *model.Session, args map[string]any) string {
	brand := brandOf(sess)
	limit := intArg(args, "max_hashtags", DefaultMaxHashtags)
	if limit < 1 || limit > maxHashtags {
		limit = DefaultMaxHashtags
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d strategic Instagram hashtags.\n\n", limit)
	fmt.Fprintf(&sb, "Topic: %s\n", stringArg(args, "topic"))
	fmt.Fprintf(&sb, "Niche: %s\n", lo.CoalesceOrEmpty(stringArg(args, "niche"), brand.Industry, "general"))
	fmt.Fprintf(&sb, "Brand: %s\n", lo.CoalesceOrEmpty(brand.Name, "N/A"))
	if trending := stringArg(args, "trending_context"); trending != "" {
		fmt.Fprintf(&sb, "Trending: %s\n", trending)
	}
	sb.WriteString("\nMix high-volume and niche tags, include 1-2 branded tags when a brand is given.\n" +
		"Return ONLY hashtags, one per line, each starting with #.")

	raw, err := r.writer.Write(ctx, WritePrompt{User: sb.String(), Temperature: 0.7})
	if err != nil {
		return writeError(ToolGenerateHashtags, err)
	}
	tags := ParseHashtags(raw, limit)
	return jsonResult(map[string]any{
		"status":         "success",
		"hashtags":       tags,
		"hashtag_string": strings.Join(tags, " "),
		"count":          len(tags),
		"topic":          stringArg(args, "topic"),
	})
}

// ParseHashtags pulls unique #tags out of model output, keeping letters and digits only
func ParseHashtags(text string, limit int) []string {
	var tags []string
	for _, field := range strings.Fields(text) {
		if !strings.HasPrefix(field, "#") {
			continue
		}
		tag := "#" + strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, field)
		if len(tag) > 1 {
			tags = append(tags, tag)
		}
	}
	tags = lo.Uniq(tags)
	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

func (r *ToolsRegistry) executeImproveCaption(ctx context.Context, args map[string]any) string {
	tone := "Maintain the same tone and voice"
	if v, ok := args["preserve_tone"].(bool); ok && !v {
		tone = "Adjust the tone as needed"
	}
	prompt := fmt.Sprintf("Improve this Instagram caption based on the feedback.\n\nOriginal:\n%s\n\nFeedback:\n%s\n\n"+
		"- %s\n- Keep it engaging and concise (50-150 words)\n\nWrite ONLY the improved caption.",
		stringArg(args, "original_caption"), stringArg(args, "feedback"), tone)

	improved, err := r.writer.Write(ctx, WritePrompt{User: prompt, Temperature: 0.7})
	if err != nil {
		return writeError(ToolImproveCaption, err)
	}
	return jsonResult(map[string]any{
		"status":           "success",
		"improved_caption": improved,
		"character_count":  utf8.RuneCountInString(improved),
		"changes_applied":  stringArg(args, "feedback"),
	})
}

func (r *ToolsRegistry) executeGenerateScript(ctx context.Context, sess *model.Session, args map[string]any) string {
	brand := brandOf(sess)
	mc := brand.MarketingContext
	videoType := stringArg(args, "video_type")
	if videoType == "" && sess != nil {
		videoType = sess.Video.VideoType
	}
	if videoType == "" {
		return errorResult("video_type is required until the user has picked a video type")
	}
	duration := intArg(args, "duration_seconds", DefaultScriptSeconds)
	if duration <= 0 {
		duration = DefaultScriptSeconds
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a compelling %d-second video script for a %s video.\n\n", duration, videoType)
	fmt.Fprintf(&sb, "BRAND: %s\n", lo.CoalesceOrEmpty(brand.Name, "the brand"))
	fmt.Fprintf(&sb, "TARGET AUDIENCE: %s\n", lo.CoalesceOrEmpty(mc.TargetAudience, "general"))
	if len(mc.MarketingGoals) > 0 {
		fmt.Fprintf(&sb, "MARKETING GOALS: %s\n", strings.Join(mc.MarketingGoals, ", "))
	}
	if mc.BrandMessaging != "" {
		fmt.Fprintf(&sb, "BRAND MESSAGING: %s\n", mc.BrandMessaging)
	}
	fmt.Fprintf(&sb, "\nSTRATEGY CONCEPT: %s\n", stringArg(args, "strategy_concept"))
	if products := lo.CoalesceOrEmpty(stringArg(args, "products_services"), mc.ProductsServices); products != "" {
		fmt.Fprintf(&sb, "PRODUCTS/SERVICES: %s\n", products)
	}
	fmt.Fprintf(&sb, "\nREQUIREMENTS:\n- Tone: %s\n- Hook in the first 3 seconds\n- Clear value proposition\n"+
		"- Strong call to action at the end\n- Natural, conversational language\n- Fits %d seconds\n\n",
		lo.CoalesceOrEmpty(stringArg(args, "tone"), brand.Tone, "professional"), duration)
	sb.WriteString("OUTPUT FORMAT:\n1. HOOK\n2. MAIN CONTENT\n3. CTA\n4. VISUAL NOTES")

	script, err := r.writer.Write(ctx, WritePrompt{User: sb.String(), Temperature: 0.8, MaxTokens: 2048})
	if err != nil {
		return writeError(ToolGenerateScript, err)
	}

	sections := SplitScript(script)
	if sess != nil {
		sess.Video.Script = script
		if sess.Video.VideoType == "" {
			sess.Video.VideoType = videoType
		}
	}
	return jsonResult(map[string]any{
		"status":            "success",
		"script":            script,
		"hook":              lo.CoalesceOrEmpty(sections.Hook, firstLine(script)),
		"main_content":      lo.CoalesceOrEmpty(sections.MainContent, script),
		"cta":               sections.CTA,
		"visual_notes":      sections.VisualNotes,
		"duration_estimate": duration,
		"word_count":        len(strings.Fields(script)),
		"video_type":        videoType,
	})
}

func (r *ToolsRegistry) executeRefineScript(ctx context.Context, sess *model.Session, args map[string]any) string {
	brand := brandOf(sess)
	original := stringArg(args, "original_script")
	if original == "" && sess != nil {
		original = sess.Video.Script
	}
	if strings.TrimSpace(original) == "" {
		return errorResult("There is no script to refine yet")
	}
	feedback := stringArg(args, "feedback")

	prompt := fmt.Sprintf("Refine this video script based on the feedback.\n\nORIGINAL SCRIPT:\n%s\n\nFEEDBACK:\n%s\n\n"+
		"BRAND CONTEXT:\n- Name: %s\n- Tone: %s\n- Messaging: %s\n\nTARGET AUDIENCE:\n%s\n\n"+
		"Address the feedback while keeping the brand consistent. Keep the HOOK, MAIN CONTENT, CTA and VISUAL NOTES sections.",
		original, feedback, brand.Name, lo.CoalesceOrEmpty(brand.Tone, "professional"),
		brand.MarketingContext.BrandMessaging, lo.CoalesceOrEmpty(brand.MarketingContext.TargetAudience, "general"))

	refined, err := r.writer.Write(ctx, WritePrompt{User: prompt, Temperature: 0.7, MaxTokens: 2048})
	if err != nil {
		log.Printf("[Agent] %s failed: %v", ToolRefineScript, err)
		return jsonResult(map[string]any{
			"status":  "error",
			"message": writeFailureMessage(err),
			"script":  original,
		})
	}
	if sess != nil {
		sess.Video.Script = refined
		sess.Video.ScriptNotes = feedback
	}
	return jsonResult(map[string]any{
		"status":          "success",
		"script":          refined,
		"original_script": original,
		"changes_made":    feedback,
	})
}

// ScriptSections are the labelled parts of a generated script
type ScriptSections struct {
	Hook        string
	MainContent string
	CTA         string
	VisualNotes string
}

// SplitScript reads HOOK / MAIN CONTENT (or BODY) / CTA / VISUAL NOTES sections out of a script
func SplitScript(script string) ScriptSections {
	parts := map[string]*strings.Builder{}
	current := ""
	for _, line := range strings.Split(script, "\n") {
		if m := scriptHeader.FindStringSubmatch(line); m != nil && (m[2] != "" || strings.TrimSpace(m[3]) == "") {
			current = sectionKey(m[1])
			if parts[current] == nil {
				parts[current] = &strings.Builder{}
			}
			line = m[3]
		}
		if current == "" {
			continue
		}
		if strings.TrimSpace(line) == "" && parts[current].Len() == 0 {
			continue
		}
		parts[current].WriteString(line)
		parts[current].WriteByte('\n')
	}
	get := func(key string) string {
		if b := parts[key]; b != nil {
			return strings.TrimSpace(b.String())
		}
		return ""
	}
	return ScriptSections{
		Hook:        get("hook"),
		MainContent: get("main_content"),
		CTA:         get("cta"),
		VisualNotes: get("visual_notes"),
	}
}

func sectionKey(name string) string {
	switch n := strings.ToLower(name); {
	case n == "hook":
		return "hook"
	case n == "main content" || n == "body":
		return "main_content"
	case n == "visual notes":
		return "visual_notes"
	default:
		return "cta"
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

func brandOf(sess *model.Session) model.BrandProfile {
	if sess == nil {
		return model.BrandProfile{}
	}
	return sess.Brand
}

func writeFailureMessage(err error) string {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "rate") || strings.Contains(msg, "429") {
		return "Service is busy. Please try again in a moment."
	}
	return "Could not generate content. Please try again."
}

func writeError(tool string, err error) string {
	log.Printf("[Agent] %s failed: %v", tool, err)
	return errorResult(writeFailureMessage(err))
}
