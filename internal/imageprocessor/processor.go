package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	// DefaultMaxSide bounds the longest edge of stored photos.
	DefaultMaxSide = 1600
	// DefaultMaxPixels bounds the decoded size of an upload.
	DefaultMaxPixels = 40_000_000
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrImageTooLarge     = errors.New("image dimensions exceed the pixel limit")
)

// Result is a photo ready to be stored.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Resized     bool
}

// Processor shrinks photos that exceed a maximum edge length.
type Processor struct {
	maxSide   int
	maxPixels int64
	quality   int // JPEG quality (1-100)
}

func NewProcessor(maxSide, quality int) *Processor {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{maxSide: maxSide, maxPixels: DefaultMaxPixels, quality: quality}
}

// Fit decodes data and, when either edge is longer than the limit, scales
// it down keeping the aspect ratio. Images within bounds are returned as
// they came. WebP has no encoder here, so oversized WebP is re-encoded as
// JPEG.
func (p *Processor) Fit(data []byte, contentType string) (*Result, error) {
	img, err := p.decode(data, contentType)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= p.maxSide && b.Dy() <= p.maxSide {
		return &Result{Data: data, ContentType: contentType, Width: b.Dx(), Height: b.Dy()}, nil
	}

	resized := p.resize(img)
	var buf bytes.Buffer
	outType := contentType
	switch contentType {
	case "image/png":
		if err := png.Encode(&buf, resized); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		outType = "image/jpeg"
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}

	rb := resized.Bounds()
	return &Result{
		Data:        buf.Bytes(),
		ContentType: outType,
		Width:       rb.Dx(),
		Height:      rb.Dy(),
		Resized:     true,
	}, nil
}

// decode reads the header first and refuses images whose pixel count is
// over the limit before any pixel buffer is allocated.
func (p *Processor) decode(data []byte, contentType string) (image.Image, error) {
	var (
		decodeConfig func(io.Reader) (image.Config, error)
		decodeImage  func(io.Reader) (image.Image, error)
	)
	switch contentType {
	case "image/jpeg":
		decodeConfig, decodeImage = jpeg.DecodeConfig, jpeg.Decode
	case "image/png":
		decodeConfig, decodeImage = png.DecodeConfig, png.Decode
	case "image/webp":
		decodeConfig, decodeImage = webp.DecodeConfig, webp.Decode
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}

	cfg, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > p.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := decodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// resize fits img inside a maxSide square.
func (p *Processor) resize(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	newWidth, newHeight := p.maxSide, p.maxSide
	if width >= height {
		newHeight = max(1, height*p.maxSide/width)
	} else {
		newWidth = max(1, width*p.maxSide/height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
