package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ImageIntent describes how an uploaded image should be used in generation
type ImageIntent string

const (
	IntentBackground     ImageIntent = "background"
	IntentProductFocus   ImageIntent = "product_focus"
	IntentTeamPeople     ImageIntent = "team_people"
	IntentStyleReference ImageIntent = "style_reference"
	IntentLogoBadge      ImageIntent = "logo_badge"
	IntentAuto           ImageIntent = "auto"
)

// ParseImageIntent maps a raw value to an intent, defaulting to auto
func ParseImageIntent(raw string) ImageIntent {
	switch i := ImageIntent(strings.ToLower(strings.TrimSpace(raw))); i {
	case IntentBackground, IntentProductFocus, IntentTeamPeople, IntentStyleReference, IntentLogoBadge:
		return i
	case "people":
		return IntentTeamPeople
	default:
		return IntentAuto
	}
}

type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UploadedImage is a user supplied image owned by the session's brand
type UploadedImage struct {
	ID              string           `json:"id"`
	Filename        string           `json:"filename"`
	Path            string           `json:"path"`
	URL             string           `json:"url"`
	UploadedAt      time.Time        `json:"uploaded_at"`
	UsageIntent     ImageIntent      `json:"usage_intent"`
	ExtractedColors []string         `json:"extracted_colors,omitempty"`
	Dimensions      *ImageDimensions `json:"dimensions,omitempty"`
}

type MarketingContext struct {
	CompanyOverview        string   `json:"company_overview,omitempty"`
	TargetAudience         string   `json:"target_audience,omitempty"`
	ProductsServices       string   `json:"products_services,omitempty"`
	MarketingGoals         []string `json:"marketing_goals,omitempty"`
	BrandMessaging         string   `json:"brand_messaging,omitempty"`
	CompetitivePositioning string   `json:"competitive_positioning,omitempty"`
	KeyDifferentiators     []string `json:"key_differentiators,omitempty"`
}

// IsComplete reports whether the minimum marketing context is present
func (m MarketingContext) IsComplete() bool {
	return m.CompanyOverview != "" && m.TargetAudience != ""
}

const DefaultTone = "professional"

// BrandProfile persists across video cycles
type BrandProfile struct {
	Name             string           `json:"name,omitempty"`
	Industry         string           `json:"industry,omitempty"`
	Overview         string           `json:"overview,omitempty"`
	Tone             string           `json:"tone,omitempty"`
	LogoPath         string           `json:"logo_path,omitempty"`
	Colors           []string         `json:"colors,omitempty"`
	ReferenceImages  []string         `json:"reference_images,omitempty"`
	UserImages       []UploadedImage  `json:"user_images,omitempty"`
	MarketingContext MarketingContext `json:"marketing_context"`
}

// ImagesForGeneration returns user images that may be fed to a generator.
// Style references only guide look and feel.
func (b BrandProfile) ImagesForGeneration() []UploadedImage {
	out := make([]UploadedImage, 0, len(b.UserImages))
	for _, img := range b.UserImages {
		if img.UsageIntent != IntentStyleReference {
			out = append(out, img)
		}
	}
	return out
}

// StyleReferenceImages returns the paths of style-reference uploads plus the legacy reference images
func (b BrandProfile) StyleReferenceImages() []string {
	out := make([]string, 0, len(b.ReferenceImages))
	for _, img := range b.UserImages {
		if img.UsageIntent == IntentStyleReference {
			out = append(out, img.Path)
		}
	}
	return append(out, b.ReferenceImages...)
}

func (b BrandProfile) HasUserImages() bool {
	return len(b.UserImages) > 0
}

// VideoContext is the transient state of the current video cycle
type VideoContext struct {
	VideoType         string         `json:"video_type,omitempty"`
	SelectedStrategy  map[string]any `json:"selected_strategy,omitempty"`
	Script            string         `json:"script,omitempty"`
	ScriptNotes       string         `json:"script_notes,omitempty"`
	VideoPath         string         `json:"video_path,omitempty"`
	VideoMetadata     map[string]any `json:"video_metadata,omitempty"`
	OptimizationNotes string         `json:"optimization_notes,omitempty"`
}

// Reset clears the cycle for a new video
func (v *VideoContext) Reset() {
	*v = VideoContext{}
}

// Session is the unit of conversation continuity
type Session struct {
	SessionID string       `json:"session_id"`
	UserID    string       `json:"user_id"`
	Stage     Stage        `json:"stage"`
	Brand     BrandProfile `json:"brand"`
	Video     VideoContext `json:"video"`
	Version   int64        `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewSession returns a fresh session in the start stage
func NewSession(sessionID, userID string, now time.Time) *Session {
	return &Session{
		SessionID: sessionID,
		UserID:    userID,
		Stage:     StageStart,
		Brand:     BrandProfile{Tone: DefaultTone},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the session to target without checking the workflow
// table. Use services/workflow to enforce the declared topology.
func (s *Session) Transition(target Stage) {
	s.Stage = target
}

// ContextSummary renders a one-line projection for agent context
func (s *Session) ContextSummary() string {
	parts := []string{"State: " + string(s.Stage)}
	if s.Brand.Name != "" {
		parts = append(parts, "Brand: "+s.Brand.Name)
	}
	if s.Video.VideoType != "" {
		parts = append(parts, "Video Type: "+s.Video.VideoType)
	}
	if s.Video.VideoPath != "" {
		parts = append(parts, "Video: "+s.Video.VideoPath)
	}
	return strings.Join(parts, " | ")
}

// Clone returns a deep copy so cached sessions are never shared with callers
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		cp := *s
		return &cp
	}
	var out Session
	if err := json.Unmarshal(data, &out); err != nil {
		cp := *s
		return &cp
	}
	return &out
}
