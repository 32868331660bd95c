// Package prompt builds the instructions sent to the text and image models.
package prompt

import (
	"fmt"
	"strings"

	"wallpaper/internal/domain"
)

const featuredTheme = "dreamlike or surreal landscapes, abstract concepts, or futuristic cityscapes"

var categoryThemes = map[string]string{
	"Featured":   featuredTheme,
	"Landscapes": "breathtaking natural landscapes such as mountains, oceans, forests or deserts",
	"Sci-Fi":     "science fiction scenes such as alien worlds, starships or distant galaxies",
	"Abstract":   "abstract compositions of shape, colour, texture and light",
	"Animals":    "majestic or whimsical animals in striking environments",
	"Cityscapes": "city skylines and streets, from historic towns to futuristic metropolises",
}

// BuildCreativePrompt returns the meta-prompt asking the text model for one
// wallpaper prompt sentence. Options set to "Any" are left to the model.
func BuildCreativePrompt(category string, opts domain.PromptOptions) string {
	theme, ok := categoryThemes[category]
	if !ok {
		theme = featuredTheme
	}

	sb := &strings.Builder{}
	sb.WriteString("Generate a short, creative, visually descriptive prompt for an AI image generator to create a stunning and unique wallpaper. ")
	fmt.Fprintf(sb, "The prompt should be a single sentence focusing on %s.", theme)
	if style := strings.TrimSpace(opts.ArtStyle); style != "" && style != domain.AnyOption {
		fmt.Fprintf(sb, " The art style must be %s.", domain.DisplayName(style))
	}
	if palette := strings.TrimSpace(opts.ColorPalette); palette != "" && palette != domain.AnyOption {
		fmt.Fprintf(sb, " Use a %s colour palette.", strings.ToLower(palette))
	}
	if label := domain.DetailLabel(opts.DetailLevel); label != "" {
		fmt.Fprintf(sb, " The level of detail should be %s (%d of %d).", strings.ToLower(label), opts.DetailLevel, domain.MaxDetailLevel)
	}
	sb.WriteString(` Reply with the prompt only. Example: "A bioluminescent forest where the trees pulse with soft, ethereal light."`)
	return sb.String()
}

// BuildImagePrompt wraps prompt text with the wallpaper framing sent to the
// image model.
func BuildImagePrompt(text string, aspect domain.AspectRatio) string {
	if aspect == "" {
		aspect = domain.AspectLandscape
	}
	return fmt.Sprintf("Wallpaper, %s aspect ratio, high resolution, stunning digital art, masterpiece. Prompt: %s", aspect, strings.TrimSpace(text))
}
