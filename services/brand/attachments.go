package brand

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/sahilchouksey/video-agent-api/model"
)

// Attachment types accepted with a chat message
const (
	AttachmentLogo             = "logo"
	AttachmentCompanyOverview  = "company_overview"
	AttachmentTargetAudience   = "target_audience"
	AttachmentProductsServices = "products_services"
	AttachmentMarketingGoals   = "marketing_goals"
	AttachmentBrandMessaging   = "brand_messaging"
	AttachmentUserImages       = "user_images"
)

type ColorSet struct {
	Dominant string   `json:"dominant"`
	Palette  []string `json:"palette"`
}

// Attachment is structured brand context sent alongside a chat message
type Attachment struct {
	Type     string                `json:"type" validate:"required"`
	Path     string                `json:"path,omitempty"`
	FullPath string                `json:"full_path,omitempty"`
	Content  string                `json:"content,omitempty"`
	Goals    []string              `json:"goals,omitempty"`
	Colors   *ColorSet             `json:"colors,omitempty"`
	Images   []model.UploadedImage `json:"images,omitempty"`
}

func (a Attachment) path() string {
	if a.FullPath != "" {
		return a.FullPath
	}
	return a.Path
}

// ApplyAttachments copies attachment data into the brand and returns the
// context block appended to the user's message. Empty when nothing applied.
func ApplyAttachments(b *model.BrandProfile, attachments []Attachment) string {
	if len(attachments) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n[MARKETING CONTEXT PROVIDED:]")
	mc := &b.MarketingContext

	for _, att := range attachments {
		switch att.Type {
		case AttachmentLogo:
			b.LogoPath = att.path()
			fmt.Fprintf(&sb, "\n📷 LOGO_PATH: %s", b.LogoPath)
			if att.Colors != nil {
				colors := lo.Uniq(lo.Compact(append([]string{att.Colors.Dominant}, att.Colors.Palette...)))
				if len(colors) > 0 {
					b.Colors = colors
					fmt.Fprintf(&sb, "\n🎨 BRAND_COLORS: %s", strings.Join(colors, ","))
				}
			}
		case AttachmentCompanyOverview:
			mc.CompanyOverview = att.Content
			if b.Overview == "" {
				b.Overview = att.Content
			}
			fmt.Fprintf(&sb, "\n📋 COMPANY_OVERVIEW: %s", att.Content)
		case AttachmentTargetAudience:
			mc.TargetAudience = att.Content
			fmt.Fprintf(&sb, "\n👥 TARGET_AUDIENCE: %s", att.Content)
		case AttachmentProductsServices:
			mc.ProductsServices = att.Content
			fmt.Fprintf(&sb, "\n🛍️ PRODUCTS_SERVICES: %s", att.Content)
		case AttachmentMarketingGoals:
			mc.MarketingGoals = lo.Compact(att.Goals)
			fmt.Fprintf(&sb, "\n🎯 MARKETING_GOALS: %s", strings.Join(mc.MarketingGoals, ","))
		case AttachmentBrandMessaging:
			mc.BrandMessaging = att.Content
			fmt.Fprintf(&sb, "\n💬 BRAND_MESSAGING: %s", att.Content)
		case AttachmentUserImages:
			if len(att.Images) == 0 {
				continue
			}
			sb.WriteString("\n📸 USER_IMAGES_FOR_VIDEO:")
			for _, img := range att.Images {
				img.UsageIntent = model.ParseImageIntent(string(img.UsageIntent))
				b.UserImages = append(b.UserImages, img)
				fmt.Fprintf(&sb, "\n  - [%s] %s", strings.ToUpper(string(img.UsageIntent)), img.Path)
			}
			paths := lo.Compact(lo.Map(att.Images, func(img model.UploadedImage, _ int) string { return img.Path }))
			if len(paths) > 0 {
				fmt.Fprintf(&sb, "\n  USER_IMAGES_PATHS: %s", strings.Join(paths, ","))
			}
		}
	}
	return sb.String()
}

var (
	companyHint  = regexp.MustCompile(`Company:\s*([^.,\n\]]+)`)
	industryHint = regexp.MustCompile(`Industry:\s*([^.,\n\]]+(?:\s*&\s*[^.,\n\]]+)?)`)
	toneHint     = regexp.MustCompile(`(?i)(?:Style|Tone):\s*(\w+)`)
)

// ApplyMessageHints reads "Company:", "Industry:" and "Style:"/"Tone:" labels
// from a message. Name and industry are only filled when unset.
func ApplyMessageHints(b *model.BrandProfile, message string) bool {
	changed := false
	if m := companyHint.FindStringSubmatch(message); m != nil && b.Name == "" {
		b.Name = strings.TrimSpace(m[1])
		changed = true
	}
	if m := industryHint.FindStringSubmatch(message); m != nil && b.Industry == "" {
		b.Industry = strings.TrimSpace(m[1])
		changed = true
	}
	if m := toneHint.FindStringSubmatch(message); m != nil {
		if tone := strings.ToLower(m[1]); tone != b.Tone {
			b.Tone = tone
			changed = true
		}
	}
	return changed
}
