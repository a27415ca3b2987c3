package agent

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services/videogen"
)

const (
	ToolAnimateImage        = "animate_image"
	ToolVideoFromText       = "generate_video_from_text"
	ToolProductVideo        = "generate_animated_product_video"
	ToolMotionGraphicsVideo = "generate_motion_graphics_video"

	// image-to-video clips render between 5 and 8 seconds
	minClipSeconds     = 5
	maxClipSeconds     = 8
	DefaultClipAspect  = "9:16"
	defaultClipSeconds = 8
)

var clipAspects = []string{"9:16", "16:9", "1:1"}

var productStyles = map[string]string{
	"showcase":  "Professional product showcase video for %s. Smooth 360-degree rotation revealing all angles. Studio lighting with subtle reflections on a clean background. Premium commercial quality.",
	"zoom":      "Dramatic product reveal video for %s. Cinematic slow zoom from wide to close-up detail, focused on texture and quality. Studio lighting with depth of field.",
	"lifestyle": "Lifestyle video showing %s in use. Natural, aspirational setting with subtle movement. Warm, inviting atmosphere with an authentic yet polished look.",
	"unboxing":  "Elegant product reveal for %s. Satisfying unboxing with an anticipation build-up, clean hands revealing the product from premium packaging, slow motion on key moments.",
}

var motionStyles = map[string]string{
	"modern":  "Modern, sleek motion graphics with smooth transitions, clean geometric shapes and trendy color gradients.",
	"minimal": "Minimalist motion graphics with white space, subtle movement and refined, understated animation.",
	"bold":    "Bold motion graphics with kinetic typography, high contrast colors and energetic movement.",
	"elegant": "Sophisticated motion graphics with a refined palette, graceful flowing animation and a premium aesthetic.",
	"playful": "Fun motion graphics with bouncy animation, bright vibrant colors and a friendly style.",
}

func (r *ToolsRegistry) registerVideoTools() {
	clipParams := []ToolParameter{
		{Name: "duration_seconds", Type: "integer", Description: "Clip length, 5 to 8 seconds (default 8)"},
		{Name: "aspect_ratio", Type: "string", Description: "9:16 for Reels and TikTok (default), 16:9 or 1:1", Enum: clipAspects},
	}

	r.RegisterTool(ToolDefinition{
		Name:        ToolAnimateImage,
		Description: "Animate one of the user's uploaded images into a short clip. Rendering takes several minutes.",
		Parameters: append([]ToolParameter{
			{Name: "motion_prompt", Type: "string", Description: "The motion and scene to create from the image", Required: true},
			{Name: "image_url", Type: "string", Description: "Image to animate; defaults to the first uploaded image that is not a style reference"},
			{Name: "negative_prompt", Type: "string", Description: "What to avoid in the clip"},
		}, clipParams...),
		RequiresVideoBackend: true,
	})

	r.RegisterTool(ToolDefinition{
		Name:        ToolVideoFromText,
		Description: "Render a short clip from a text description only, without any uploaded images.",
		Parameters: append([]ToolParameter{
			{Name: "prompt", Type: "string", Description: "Detailed visual description of the clip", Required: true},
		}, clipParams...),
		RequiresVideoBackend: true,
	})

	r.RegisterTool(ToolDefinition{
		Name:        ToolProductVideo,
		Description: "Render an animated product video from the user's product photo.",
		Parameters: append([]ToolParameter{
			{Name: "product_name", Type: "string", Description: "Name or short description of the product", Required: true},
			{Name: "animation_style", Type: "string", Description: "How the product is presented", Enum: sortedKeys(productStyles)},
			{Name: "product_image_url", Type: "string", Description: "Product photo; defaults to the uploaded product image"},
		}, clipParams...),
		RequiresVideoBackend: true,
	})

	r.RegisterTool(ToolDefinition{
		Name:        ToolMotionGraphicsVideo,
		Description: "Render a branded motion graphics clip built around one message, for announcements and promos.",
		Parameters: append([]ToolParameter{
			{Name: "message", Type: "string", Description: "The main message the clip is about", Required: true},
			{Name: "style", Type: "string", Description: "Visual style", Enum: sortedKeys(motionStyles)},
		}, clipParams...),
		RequiresVideoBackend: true,
	})
}

func (r *ToolsRegistry) executeGenerateVideo(ctx context.Context, sess *model.Session, args map[string]any) string {
	req := videogen.Request{
		Prompt:          stringArg(args, "prompt"),
		VideoType:       stringArg(args, "video_type"),
		DurationSeconds: intArg(args, "duration_seconds", 8),
		AspectRatio:     stringArg(args, "aspect_ratio"),
	}
	if sess != nil {
		req.ImageURLs = lo.FilterMap(sess.Brand.ImagesForGeneration(), func(img model.UploadedImage, _ int) (string, bool) {
			return img.URL, img.URL != ""
		})
	}
	return r.renderVideo(ctx, ToolGenerateVideo, sess, req)
}

func (r *ToolsRegistry) executeAnimateImage(ctx context.Context, sess *model.Session, args map[string]any) string {
	image := stringArg(args, "image_url")
	if image == "" {
		image = firstImage(sess, "")
	}
	if image == "" {
		return errorResult("No image available to animate. Ask the user to upload one first.")
	}

	var sb strings.Builder
	sb.WriteString("Create a smooth, professional video animation from this image.\n\n")
	fmt.Fprintf(&sb, "MOTION DESCRIPTION: %s\n\n", stringArg(args, "motion_prompt"))
	sb.WriteString("GUIDELINES:\n- Smooth, cinematic motion\n- Keep brand elements (logo, text) stable and readable\n" +
		"- Professional quality suitable for Instagram Reels and Stories\n")
	if avoid := stringArg(args, "negative_prompt"); avoid != "" {
		fmt.Fprintf(&sb, "\nAVOID: %s", avoid)
	}

	return r.renderVideo(ctx, ToolAnimateImage, sess, clipRequest(args, sb.String(), []string{image}))
}

func (r *ToolsRegistry) executeVideoFromText(ctx context.Context, sess *model.Session, args map[string]any) string {
	return r.renderVideo(ctx, ToolVideoFromText, sess, clipRequest(args, stringArg(args, "prompt"), nil))
}

func (r *ToolsRegistry) executeProductVideo(ctx context.Context, sess *model.Session, args map[string]any) string {
	image := stringArg(args, "product_image_url")
	if image == "" {
		image = firstImage(sess, model.IntentProductFocus)
	}
	if image == "" {
		return errorResult("No product image available. Ask the user to upload a product photo first.")
	}
	style, ok := productStyles[stringArg(args, "animation_style")]
	if !ok {
		style = productStyles["showcase"]
	}
	prompt := fmt.Sprintf(style, stringArg(args, "product_name")) + brandStyle(sess)
	return r.renderVideo(ctx, ToolProductVideo, sess, clipRequest(args, prompt, []string{image}))
}

func (r *ToolsRegistry) executeMotionGraphics(ctx context.Context, sess *model.Session, args map[string]any) string {
	style, ok := motionStyles[stringArg(args, "style")]
	if !ok {
		style = motionStyles["modern"]
	}
	prompt := fmt.Sprintf("Create a professional motion graphics video.\n\nMAIN MESSAGE: %q\n\nVISUAL STYLE:\n%s",
		stringArg(args, "message"), style) + brandStyle(sess)
	return r.renderVideo(ctx, ToolMotionGraphicsVideo, sess, clipRequest(args, prompt, nil))
}

// renderVideo fills brand details from the session and runs the backend call
func (r *ToolsRegistry) renderVideo(ctx context.Context, tool string, sess *model.Session, req videogen.Request) string {
	if !r.video.Configured() {
		return errorResult("Video generation is not configured")
	}
	if sess != nil {
		req.SessionID = sess.SessionID
		if req.VideoType == "" {
			req.VideoType = sess.Video.VideoType
		}
		req.BrandName = sess.Brand.Name
		req.BrandColors = sess.Brand.Colors
		req.Tone = sess.Brand.Tone
		if req.VideoType != "" {
			sess.Video.VideoType = req.VideoType
		}
	}

	res, err := r.video.Generate(ctx, req)
	if err != nil {
		log.Printf("[Agent] %s failed: %v", tool, err)
		return errorResult("Video generation failed. Please try again in a few minutes.")
	}
	return jsonResult(res)
}

func clipRequest(args map[string]any, prompt string, images []string) videogen.Request {
	duration := intArg(args, "duration_seconds", defaultClipSeconds)
	duration = max(minClipSeconds, min(maxClipSeconds, duration))
	aspect := stringArg(args, "aspect_ratio")
	if !lo.Contains(clipAspects, aspect) {
		aspect = DefaultClipAspect
	}
	return videogen.Request{
		Prompt:          prompt,
		DurationSeconds: duration,
		AspectRatio:     aspect,
		ImageURLs:       images,
	}
}

// firstImage picks an uploaded image usable for generation, preferring the given intent
func firstImage(sess *model.Session, prefer model.ImageIntent) string {
	if sess == nil {
		return ""
	}
	images := lo.Filter(sess.Brand.ImagesForGeneration(), func(img model.UploadedImage, _ int) bool {
		return img.URL != "" || img.Path != ""
	})
	if prefer != "" {
		if img, ok := lo.Find(images, func(img model.UploadedImage) bool { return img.UsageIntent == prefer }); ok {
			return lo.CoalesceOrEmpty(img.URL, img.Path)
		}
	}
	if len(images) == 0 {
		return ""
	}
	return lo.CoalesceOrEmpty(images[0].URL, images[0].Path)
}

// brandStyle describes the brand look without asking for rendered text
func brandStyle(sess *model.Session) string {
	if sess == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nBRAND VISUAL STYLE:\n")
	if len(sess.Brand.Colors) > 0 {
		fmt.Fprintf(&sb, "- Use brand colors for visual accents: %s\n", strings.Join(lo.Subset(sess.Brand.Colors, 0, 3), ", "))
	}
	fmt.Fprintf(&sb, "- Visual tone: %s\n", lo.CoalesceOrEmpty(sess.Brand.Tone, "professional"))
	if audience := sess.Brand.MarketingContext.TargetAudience; audience != "" {
		fmt.Fprintf(&sb, "- Made for: %s\n", audience)
	}
	sb.WriteString("- Do not render any text or logos")
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
