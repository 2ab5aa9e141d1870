// Package compositor renders curtain panels onto a room photo locally.
//
// It implements ai.MockupProvider without calling a remote model: the
// product's fabric swatch is scaled into two pleated panels, tinted toward
// the chosen colour and laid over the left and right edges of the photo.
package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"
	"time"

	"github.com/DukeRupert/drapery/internal/ai"
	"github.com/disintegration/imaging"
)

const (
	// MaxRoomImageSize is the largest room photo accepted (10MB).
	MaxRoomImageSize = 10 * 1024 * 1024

	// MaxDimension bounds the longest side of the output.
	MaxDimension = 1600

	// JPEGQuality for the encoded mockup.
	JPEGQuality = 85

	// MaxSourceSide and MaxSourcePixels bound the decoded size of any input
	// image, checked from the header before decoding.
	MaxSourceSide   = 12000
	MaxSourcePixels = 40_000_000

	panelWidthRatio  = 0.28
	panelHeightRatio = 0.92
	panelOpacity     = 0.9
	tintStrength     = 0.45
	pleatCount       = 7
)

// Palette maps catalog colour names to RGB.
var Palette = map[string]color.NRGBA{
	"white":      {R: 245, G: 245, B: 242, A: 255},
	"ivory":      {R: 240, G: 234, B: 214, A: 255},
	"natural":    {R: 214, G: 200, B: 176, A: 255},
	"sand":       {R: 194, G: 178, B: 128, A: 255},
	"grey":       {R: 150, G: 150, B: 150, A: 255},
	"charcoal":   {R: 54, G: 69, B: 79, A: 255},
	"navy":       {R: 31, G: 42, B: 68, A: 255},
	"sage":       {R: 156, G: 175, B: 136, A: 255},
	"emerald":    {R: 31, G: 107, B: 76, A: 255},
	"terracotta": {R: 204, G: 78, B: 52, A: 255},
	"rust":       {R: 168, G: 72, B: 38, A: 255},
	"blush":      {R: 222, G: 174, B: 170, A: 255},
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Compositor implements ai.MockupProvider with image compositing.
type Compositor struct{}

var _ ai.MockupProvider = (*Compositor)(nil)

// New creates a Compositor.
func New() *Compositor {
	return &Compositor{}
}

// GenerateMockup overlays curtain panels on the room photo and returns a JPEG.
func (c *Compositor) GenerateMockup(ctx context.Context, params ai.MockupParams) (*ai.MockupResult, error) {
	start := time.Now()

	if err := validate(params); err != nil {
		return nil, ai.WrapError("mockup", err)
	}

	if err := checkDimensions(params.RoomImage); err != nil {
		return nil, ai.WrapError("mockup", err)
	}

	room, err := imaging.Decode(bytes.NewReader(params.RoomImage), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ai.WrapError("mockup", fmt.Errorf("%w: decode room photo: %v", ai.EAIInvalidImage, err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canvas := imaging.Fit(room, MaxDimension, MaxDimension, imaging.Lanczos)
	bounds := canvas.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	pw := int(math.Round(float64(w) * panelWidthRatio))
	ph := int(math.Round(float64(h) * panelHeightRatio))
	if pw < 1 || ph < 1 {
		return nil, ai.WrapError("mockup", fmt.Errorf("%w: room photo too small", ai.EAIInvalidImage))
	}

	panel := buildPanel(params.FabricImage, params.Color, pw, ph)

	out := imaging.Overlay(canvas, panel, image.Pt(0, 0), panelOpacity)
	out = imaging.Overlay(out, imaging.FlipH(panel), image.Pt(w-pw, 0), panelOpacity)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, ai.WrapError("mockup", fmt.Errorf("encode mockup: %w", err))
	}

	return &ai.MockupResult{
		Image:       buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       w,
		Height:      h,
		Duration:    time.Since(start),
	}, nil
}

func validate(params ai.MockupParams) error {
	if len(params.RoomImage) == 0 {
		return fmt.Errorf("%w: room photo is required", ai.EAIInvalidImage)
	}
	if len(params.RoomImage) > MaxRoomImageSize {
		return fmt.Errorf("%w: room photo size %d exceeds maximum %d", ai.EAIInvalidImage, len(params.RoomImage), MaxRoomImageSize)
	}
	if ct := params.RoomContentType; ct != "" && !allowedContentTypes[ct] {
		return fmt.Errorf("%w: unsupported content type %s", ai.EAIInvalidImage, ct)
	}
	return nil
}

// checkDimensions reads only the image header and rejects images whose
// decoded pixel buffer would exceed the source budget.
func checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: read image header: %v", ai.EAIInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: empty image", ai.EAIInvalidImage)
	}
	if cfg.Width > MaxSourceSide || cfg.Height > MaxSourceSide ||
		int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return fmt.Errorf("%w: image %dx%d exceeds %d pixels or %d per side",
			ai.EAIInvalidImage, cfg.Width, cfg.Height, MaxSourcePixels, MaxSourceSide)
	}
	return nil
}

// buildPanel returns a pw x ph panel. A missing or unreadable swatch falls
// back to a flat panel in the requested colour.
func buildPanel(fabric []byte, colorName string, pw, ph int) *image.NRGBA {
	tint, hasTint := Palette[strings.ToLower(strings.TrimSpace(colorName))]

	var panel *image.NRGBA
	if len(fabric) > 0 && checkDimensions(fabric) == nil {
		if src, err := imaging.Decode(bytes.NewReader(fabric)); err == nil {
			panel = imaging.Fill(src, pw, ph, imaging.Center, imaging.Lanczos)
		}
	}
	if panel == nil {
		base := Palette["ivory"]
		if hasTint {
			base = tint
		}
		panel = imaging.New(pw, ph, base)
	} else if hasTint {
		panel = imaging.Overlay(panel, imaging.New(pw, ph, tint), image.Pt(0, 0), tintStrength)
	}

	return imaging.Overlay(panel, pleatShading(pw, ph), image.Pt(0, 0), 1.0)
}

// pleatShading is a translucent vertical gradient that reads as folds.
func pleatShading(pw, ph int) *image.NRGBA {
	shade := image.NewNRGBA(image.Rect(0, 0, pw, ph))
	for x := 0; x < pw; x++ {
		phase := float64(x) / float64(pw) * pleatCount * 2 * math.Pi
		alpha := uint8((1 - math.Cos(phase)) / 2 * 70)
		for y := 0; y < ph; y++ {
			shade.SetNRGBA(x, y, color.NRGBA{A: alpha})
		}
	}
	return shade
}
