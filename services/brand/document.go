package brand

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	DefaultMaxDocumentPages = 50
	// minDocumentText rejects scanned briefs that carry no text layer
	minDocumentText = 50
)

var (
	ErrTooManyPages = errors.New("document has too many pages")
	ErrNoText       = errors.New("no readable text in document")
)

// sanitizePDF drops anything appended after the last %%EOF marker, which
// web downloads often carry.
func sanitizePDF(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return content
	}
	marker := []byte("%%EOF")
	last := bytes.LastIndex(content, marker)
	if last == -1 {
		return content
	}
	end := last + len(marker)
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	if len(content)-end > 10 {
		log.Printf("[Brand] removing %d bytes after %%%%EOF", len(content)-end)
		return content[:end]
	}
	return content
}

// ExtractDocumentText returns the text of a PDF brand brief, row by row
func ExtractDocumentText(content []byte, maxPages int) (string, error) {
	if len(content) == 0 {
		return "", ErrEmptyFile
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxDocumentPages
	}
	content = sanitizePDF(content)

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}
	numPages := reader.NumPage()
	if numPages == 0 {
		return "", ErrNoText
	}
	if numPages > maxPages {
		return "", fmt.Errorf("%w: %d pages, maximum is %d", ErrTooManyPages, numPages, maxPages)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			text, plainErr := page.GetPlainText(nil)
			if plainErr != nil {
				log.Printf("[Brand] page %d: text extraction failed: %v", i, plainErr)
				continue
			}
			sb.WriteString(text)
			sb.WriteString("\n")
			continue
		}
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			if s := strings.TrimSpace(line.String()); s != "" {
				sb.WriteString(s)
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if len(text) < minDocumentText {
		return "", fmt.Errorf("%w: only %d characters extracted", ErrNoText, len(text))
	}
	log.Printf("[Brand] extracted %d characters from %d pages", len(text), numPages)
	return text, nil
}
