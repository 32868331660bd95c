// Package synthetic is an offline generator used when no API key is
// configured. Prompts come from a fixed catalogue and images are rendered
// locally, so the whole service can run in development and CI.
package synthetic

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"wallpaper/internal/domain"
	"wallpaper/internal/infra"
)

var catalogue = map[string][]string{
	"Featured": {
		"A bioluminescent forest where the trees pulse with soft, ethereal light.",
		"A floating archipelago of glass islands drifting above a sea of clouds.",
		"A spiral staircase of stars winding into a violet nebula.",
	},
	"Landscapes": {
		"Snow-capped peaks reflected in a perfectly still alpine lake at sunrise.",
		"Rolling dunes of red sand beneath a sky streaked with auroras.",
		"A misty fjord where waterfalls pour from emerald cliffs.",
	},
	"Sci-Fi": {
		"A colossal starship docking at a ring station above a gas giant.",
		"Twin suns setting over a desert colony of chrome domes.",
		"An abandoned mech overgrown with luminous alien flora.",
	},
	"Abstract": {
		"Liquid ribbons of gold and indigo folding through infinite space.",
		"Shattered geometric prisms scattering rainbow light across darkness.",
		"Concentric waves of colour rippling from a single glowing point.",
	},
	"Animals": {
		"A white fox curled in the snow beneath the northern lights.",
		"A school of translucent jellyfish drifting through a sunlit lagoon.",
		"An owl with feathers of autumn leaves perched on a mossy branch.",
	},
	"Cityscapes": {
		"A rain-soaked neon metropolis seen from a rooftop garden at midnight.",
		"Venetian canals lined with lantern-lit towers at dusk.",
		"A vertical city of terraced skyscrapers wrapped in hanging gardens.",
	},
}

// Options tunes the synthetic generator.
type Options struct {
	// Latency simulates remote call duration for each step.
	Latency time.Duration
	Logger  *infra.Logger
}

// Generator returns catalogue prompts and locally rendered PNG images.
type Generator struct {
	latency time.Duration
	logger  *infra.Logger
	calls   atomic.Uint64
}

// New constructs a synthetic generator.
func New(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Generator{latency: opts.Latency, logger: logger}
}

// GeneratePromptText picks the next catalogue prompt for the category and
// decorates it with the selected options.
func (g *Generator) GeneratePromptText(ctx context.Context, category string, opts domain.PromptOptions) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	prompts, ok := catalogue[category]
	if !ok {
		prompts = catalogue[domain.DefaultCategory]
	}
	n := g.calls.Add(1) - 1
	text := prompts[n%uint64(len(prompts))]

	var extras []string
	if opts.ArtStyle != "" && opts.ArtStyle != domain.AnyOption {
		extras = append(extras, "in "+domain.DisplayName(opts.ArtStyle)+" style")
	}
	if opts.ColorPalette != "" && opts.ColorPalette != domain.AnyOption {
		extras = append(extras, "with a "+strings.ToLower(opts.ColorPalette)+" palette")
	}
	if len(extras) > 0 {
		text = strings.TrimSuffix(text, ".") + ", " + strings.Join(extras, " ") + "."
	}
	return text, nil
}

// GenerateImage renders a deterministic striped PNG seeded by the prompt.
func (g *Generator) GenerateImage(ctx context.Context, prompt string, aspect domain.AspectRatio) (domain.ImageHandle, error) {
	if err := g.wait(ctx); err != nil {
		return domain.ImageHandle{}, err
	}
	width, height := dimensions(aspect)
	seed := deterministicSeed(prompt, aspect)
	data, err := renderImage(width, height, seed)
	if err != nil {
		return domain.ImageHandle{}, fmt.Errorf("render synthetic image: %w: %w", domain.ErrGenerationFailed, err)
	}

	g.logger.Debug().
		Str("seed", seed).
		Str("aspect_ratio", string(aspect)).
		Msg("synthetic: rendered image")

	return domain.ImageHandle{MIMEType: domain.DefaultImageMIME, Data: data}, nil
}

func (g *Generator) wait(ctx context.Context) error {
	if g.latency <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return nil
	}
	timer := time.NewTimer(g.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", domain.ErrGenerationFailed, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func dimensions(aspect domain.AspectRatio) (int, int) {
	if aspect == domain.AspectPortrait {
		return 360, 640
	}
	return 640, 360
}

func renderImage(width, height int, seed string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := max(16, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, min(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(seed, 2)
	for x := 0; x < max(width, height); x += max(16, width/32) {
		for y := 0; y < height && x+y < width; y++ {
			img.Set(x+y, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func colorFromSeed(seed string, shift int) color.RGBA {
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{R: hexByte(segment[0:2]), G: hexByte(segment[2:4]), B: hexByte(segment[4:6]), A: 255}
}

func hexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(hasher, "%v|", part)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
