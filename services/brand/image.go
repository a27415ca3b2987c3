package brand

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"

	"github.com/sahilchouksey/video-agent-api/model"
)

const (
	DefaultMaxImageDimension = 4096
	PaletteSize              = 6
	// sampleTarget bounds the number of pixels read per image
	sampleTarget = 40000
)

var (
	ErrImageTooLarge = errors.New("image exceeds maximum dimension")
	ErrInvalidImage  = errors.New("invalid or corrupted image")
)

// DefaultColors is returned when colours cannot be read from an image
var DefaultColors = ColorSet{Dominant: "#000000", Palette: []string{"#000000", "#FFFFFF", "#CCCCCC"}}

type ImageAnalysis struct {
	Dimensions *model.ImageDimensions
	Colors     ColorSet
}

// CheckDimensions reads only the image header. Formats without a
// registered decoder pass unchecked.
func CheckDimensions(data []byte, maxDim int) (*model.ImageDimensions, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxImageDimension
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width > maxDim || cfg.Height > maxDim {
		return nil, fmt.Errorf("%w (%dpx)", ErrImageTooLarge, maxDim)
	}
	return &model.ImageDimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// AnalyzeImage extracts dimensions and a brand palette. Colour extraction
// failures fall back to DefaultColors; only dimension violations are errors.
func AnalyzeImage(data []byte, maxDim int) (*ImageAnalysis, error) {
	dims, err := CheckDimensions(data, maxDim)
	if err != nil {
		return nil, err
	}
	out := &ImageAnalysis{Dimensions: dims, Colors: DefaultColors}
	if dims == nil {
		return out, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return out, nil
	}
	if colors, ok := extractPalette(img, PaletteSize); ok {
		out.Colors = colors
	}
	return out, nil
}

type bucket struct {
	count   int
	r, g, b int
}

// extractPalette groups sampled pixels into 4-bit-per-channel buckets and
// returns the average colour of the most populated ones.
func extractPalette(img image.Image, n int) (ColorSet, bool) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return ColorSet{}, false
	}
	step := 1
	for (w/step)*(h/step) > sampleTarget {
		step++
	}

	buckets := map[uint16]*bucket{}
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			r8, g8, b8 := int(r>>8), int(g>>8), int(b>>8)
			key := uint16(r8>>4)<<8 | uint16(g8>>4)<<4 | uint16(b8>>4)
			bk, ok := buckets[key]
			if !ok {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.count++
			bk.r += r8
			bk.g += g8
			bk.b += b8
		}
	}
	if len(buckets) == 0 {
		return ColorSet{}, false
	}

	keys := make([]uint16, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		bi, bj := buckets[keys[i]], buckets[keys[j]]
		if bi.count != bj.count {
			return bi.count > bj.count
		}
		return keys[i] < keys[j]
	})

	palette := make([]string, 0, n)
	for _, k := range keys {
		if len(palette) == n {
			break
		}
		bk := buckets[k]
		palette = append(palette, fmt.Sprintf("#%02x%02x%02x", bk.r/bk.count, bk.g/bk.count, bk.b/bk.count))
	}
	return ColorSet{Dominant: palette[0], Palette: palette}, true
}
