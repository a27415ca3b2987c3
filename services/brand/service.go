package brand

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services/storage"
)

// DefaultFolder holds uploads made without a session
const DefaultFolder = "default"

type Config struct {
	MaxUploadBytes    int64
	MaxImageDimension int
	MaxDocumentPages  int
}

// Service validates, analyzes and stores brand uploads
type Service struct {
	storage storage.Uploader
	cfg     Config
}

func NewService(up storage.Uploader, cfg Config) *Service {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.MaxImageDimension <= 0 {
		cfg.MaxImageDimension = DefaultMaxImageDimension
	}
	if cfg.MaxDocumentPages <= 0 {
		cfg.MaxDocumentPages = DefaultMaxDocumentPages
	}
	return &Service{storage: up, cfg: cfg}
}

func folder(sessionID string) string {
	if sessionID == "" {
		return DefaultFolder
	}
	return sessionID
}

// StoreImage validates an image upload, extracts its palette and stores it
func (s *Service) StoreImage(ctx context.Context, sessionID, filename string, data []byte, intent string) (*model.UploadedImage, error) {
	up, err := ValidateImage(data, s.cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	analysis, err := AnalyzeImage(data, s.cfg.MaxImageDimension)
	if err != nil {
		return nil, err
	}

	key := storage.ObjectKey(storage.PrefixImages, folder(sessionID), withExtension(filename, up.Extension), data)
	url, err := s.storage.UploadBytes(ctx, key, data, up.MIME)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	return &model.UploadedImage{
		ID:              uuid.NewString()[:8],
		Filename:        filename,
		Path:            key,
		URL:             url,
		UploadedAt:      time.Now(),
		UsageIntent:     model.ParseImageIntent(intent),
		ExtractedColors: analysis.Colors.Palette,
		Dimensions:      analysis.Dimensions,
	}, nil
}

// StoreLogo stores a logo and applies its colours to the brand
func (s *Service) StoreLogo(ctx context.Context, b *model.BrandProfile, sessionID, filename string, data []byte) (*model.UploadedImage, error) {
	img, err := s.StoreImage(ctx, sessionID, filename, data, string(model.IntentLogoBadge))
	if err != nil {
		return nil, err
	}
	ApplyAttachments(b, []Attachment{{
		Type:   AttachmentLogo,
		Path:   img.Path,
		Colors: &ColorSet{Dominant: firstOr(img.ExtractedColors, ""), Palette: img.ExtractedColors},
	}})
	return img, nil
}

// Document is a stored brand brief
type Document struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Text     string `json:"text"`
}

// StoreDocument extracts the text of a PDF brief and stores the file.
// The overview is filled from the brief only when the brand has none.
func (s *Service) StoreDocument(ctx context.Context, b *model.BrandProfile, sessionID, filename string, data []byte) (*Document, error) {
	up, err := ValidateDocument(data, s.cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	text, err := ExtractDocumentText(data, s.cfg.MaxDocumentPages)
	if err != nil {
		return nil, err
	}

	key := storage.ObjectKey(storage.PrefixDocuments, folder(sessionID), withExtension(filename, up.Extension), data)
	url, err := s.storage.UploadBytes(ctx, key, data, up.MIME)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	if b != nil && b.MarketingContext.CompanyOverview == "" {
		b.MarketingContext.CompanyOverview = text
		if b.Overview == "" {
			b.Overview = text
		}
	}
	log.Printf("[Brand] session %s: stored brief %s (%d chars)", sessionID, key, len(text))
	return &Document{Filename: filename, Path: key, URL: url, Text: text}, nil
}

func withExtension(filename, ext string) string {
	if filepath.Ext(filename) == "" {
		return filename + ext
	}
	return filename
}

func firstOr(s []string, def string) string {
	if len(s) == 0 {
		return def
	}
	return s[0]
}
