package brand

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxUploadBytes = 10 * 1024 * 1024

var (
	ErrEmptyFile       = errors.New("no file provided")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// AllowedImageTypes are the accepted image uploads
var AllowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Upload is a sniffed, size-checked file
type Upload struct {
	MIME      string
	Extension string
	Size      int
}

// ValidateImage checks size and sniffs the content rather than trusting the
// client's declared type or filename.
func ValidateImage(data []byte, maxBytes int64) (*Upload, error) {
	return validate(data, maxBytes, AllowedImageTypes...)
}

// ValidateDocument accepts PDF brand briefs only
func ValidateDocument(data []byte, maxBytes int64) (*Upload, error) {
	return validate(data, maxBytes, "application/pdf")
}

func validate(data []byte, maxBytes int64, allowed ...string) (*Upload, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: maximum size is %dMB", ErrFileTooLarge, maxBytes/(1024*1024))
	}

	mime := mimetype.Detect(data)
	for _, a := range allowed {
		if mime.Is(a) {
			return &Upload{MIME: a, Extension: mime.Extension(), Size: len(data)}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
}
