package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Size is the target device class of a wallpaper.
type Size string

const (
	SizeLaptop Size = "Laptop"
	SizePhone  Size = "Phone"
)

// AspectRatio is the ratio token understood by the image model.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

// AspectRatio maps the size to the ratio requested from the image model.
// Unknown sizes fall back to landscape.
func (s Size) AspectRatio() AspectRatio {
	if s == SizePhone {
		return AspectPortrait
	}
	return AspectLandscape
}

const (
	AnyOption = "Any"

	DefaultCategory    = "Featured"
	MinDetailLevel     = 1
	MaxDetailLevel     = 5
	DefaultDetailLevel = 3
)

// Categories is the fixed list offered by the category selector.
var Categories = []string{"Featured", "Landscapes", "Sci-Fi", "Abstract", "Animals", "Cityscapes"}

// Sizes lists the supported wallpaper sizes.
var Sizes = []Size{SizeLaptop, SizePhone}

// ArtStyles lists the art style options. "Any" leaves the style to the model.
var ArtStyles = []string{AnyOption, "Photorealistic", "Impressionistic", "Surrealist", "Pixel Art", "Bauhaus", "Anime", "Cyberpunk"}

// ColorPalettes lists the colour palette options.
var ColorPalettes = []string{AnyOption, "Vibrant", "Muted", "Monochromatic", "Pastel", "Neon"}

var detailLabels = [...]string{"Minimalist", "Simple", "Balanced", "Detailed", "Intricate"}

// DetailLabel returns the human label of a detail level, or "" when the
// level is out of range.
func DetailLabel(level int) string {
	if level < MinDetailLevel || level > MaxDetailLevel {
		return ""
	}
	return detailLabels[level-1]
}

// PromptOptions are the advanced options steering the prompt text model.
type PromptOptions struct {
	ArtStyle     string
	ColorPalette string
	DetailLevel  int
}

// GenerationRequestParams is the immutable snapshot passed to one cycle.
type GenerationRequestParams struct {
	Category     string `json:"category"`
	Size         Size   `json:"size"`
	ArtStyle     string `json:"art_style"`
	ColorPalette string `json:"color_palette"`
	DetailLevel  int    `json:"detail_level"`
}

// DefaultParams returns the selection used at startup.
func DefaultParams() GenerationRequestParams {
	return GenerationRequestParams{
		Category:     DefaultCategory,
		Size:         SizeLaptop,
		ArtStyle:     AnyOption,
		ColorPalette: AnyOption,
		DetailLevel:  DefaultDetailLevel,
	}
}

// PromptOptions extracts the advanced options.
func (p GenerationRequestParams) PromptOptions() PromptOptions {
	return PromptOptions{
		ArtStyle:     p.ArtStyle,
		ColorPalette: p.ColorPalette,
		DetailLevel:  p.DetailLevel,
	}
}

// SelectionPatch is a partial selection change. Nil fields are left as is.
type SelectionPatch struct {
	Category     *string `json:"category,omitempty"`
	Size         *string `json:"size,omitempty"`
	ArtStyle     *string `json:"art_style,omitempty"`
	ColorPalette *string `json:"color_palette,omitempty"`
	DetailLevel  *int    `json:"detail_level,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SelectionPatch) IsEmpty() bool {
	return p.Category == nil && p.Size == nil && p.ArtStyle == nil && p.ColorPalette == nil && p.DetailLevel == nil
}

// Merge validates the patch and returns the merged selection. The receiver is
// not modified, and on error the returned value is the receiver unchanged.
// Option names are matched case-insensitively and canonicalised.
func (p GenerationRequestParams) Merge(patch SelectionPatch) (GenerationRequestParams, error) {
	out := p
	if patch.Category != nil {
		v, ok := canonical(*patch.Category, Categories)
		if !ok {
			return p, fmt.Errorf("%w: unknown category %q", ErrInvalidSelection, *patch.Category)
		}
		out.Category = v
	}
	if patch.Size != nil {
		v, ok := canonical(*patch.Size, []string{string(SizeLaptop), string(SizePhone)})
		if !ok {
			return p, fmt.Errorf("%w: unknown size %q", ErrInvalidSelection, *patch.Size)
		}
		out.Size = Size(v)
	}
	if patch.ArtStyle != nil {
		v, ok := canonical(*patch.ArtStyle, ArtStyles)
		if !ok {
			return p, fmt.Errorf("%w: unknown art style %q", ErrInvalidSelection, *patch.ArtStyle)
		}
		out.ArtStyle = v
	}
	if patch.ColorPalette != nil {
		v, ok := canonical(*patch.ColorPalette, ColorPalettes)
		if !ok {
			return p, fmt.Errorf("%w: unknown color palette %q", ErrInvalidSelection, *patch.ColorPalette)
		}
		out.ColorPalette = v
	}
	if patch.DetailLevel != nil {
		if DetailLabel(*patch.DetailLevel) == "" {
			return p, fmt.Errorf("%w: detail level %d outside %d..%d", ErrInvalidSelection, *patch.DetailLevel, MinDetailLevel, MaxDetailLevel)
		}
		out.DetailLevel = *patch.DetailLevel
	}
	return out, nil
}

var folder = cases.Fold()

// canonical matches input against options ignoring case and surrounding
// whitespace, returning the option's canonical spelling.
func canonical(input string, options []string) (string, bool) {
	needle := folder.String(strings.TrimSpace(input))
	if needle == "" {
		return "", false
	}
	for _, opt := range options {
		if folder.String(opt) == needle {
			return opt, true
		}
	}
	return "", false
}

var titler = cases.Title(language.English)

// DisplayName renders an option for prompt text, e.g. "pixel art" -> "Pixel Art".
func DisplayName(option string) string {
	return titler.String(strings.TrimSpace(option))
}
