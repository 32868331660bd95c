package prompt

import (
	"strings"
	"testing"

	"wallpaper/internal/domain"
)

func TestCleanPromptText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "A glass city at dawn.", want: "A glass city at dawn."},
		{name: "double quotes", raw: `  "A glass city at dawn."  `, want: "A glass city at dawn."},
		{name: "curly quotes", raw: "“Neon koi in a midnight pond.”", want: "Neon koi in a midnight pond."},
		{name: "nested quotes", raw: `"'Floating islands'"`, want: "Floating islands"},
		{name: "label", raw: `Prompt: "Clockwork desert"`, want: "Clockwork desert"},
		{name: "code fence", raw: "```\nAurora over ice\n```", want: "Aurora over ice"},
		{name: "extra lines", raw: "Crystal caves\n\nThis prompt evokes wonder.", want: "Crystal caves"},
		{name: "whitespace", raw: "Velvet   storm\tclouds", want: "Velvet storm clouds"},
		{name: "lone quote", raw: `"`, want: `"`},
		{name: "empty", raw: "   ", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanPromptText(tc.raw); got != tc.want {
				t.Fatalf("CleanPromptText(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestBuildCreativePromptFeaturedDefaults(t *testing.T) {
	got := BuildCreativePrompt("Featured", domain.DefaultParams().PromptOptions())
	for _, want := range []string{
		"single sentence focusing on dreamlike or surreal landscapes, abstract concepts, or futuristic cityscapes.",
		"The level of detail should be balanced (3 of 5).",
		"A bioluminescent forest",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "art style") || strings.Contains(got, "palette") {
		t.Fatalf("Any options should be omitted: %q", got)
	}
}

func TestBuildCreativePromptOptions(t *testing.T) {
	got := BuildCreativePrompt("Sci-Fi", domain.PromptOptions{ArtStyle: "Pixel Art", ColorPalette: "Neon", DetailLevel: 5})
	for _, want := range []string{"science fiction", "The art style must be Pixel Art.", "Use a neon colour palette.", "intricate (5 of 5)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt %q missing %q", got, want)
		}
	}
}

func TestBuildCreativePromptUnknownCategory(t *testing.T) {
	got := BuildCreativePrompt("Underwater", domain.PromptOptions{})
	if !strings.Contains(got, featuredTheme) {
		t.Fatalf("unknown category should fall back to the featured theme: %q", got)
	}
	if strings.Contains(got, "level of detail") {
		t.Fatalf("zero detail level should be omitted: %q", got)
	}
}

func TestBuildImagePrompt(t *testing.T) {
	got := BuildImagePrompt(" Neon koi ", domain.AspectPortrait)
	want := "Wallpaper, 9:16 aspect ratio, high resolution, stunning digital art, masterpiece. Prompt: Neon koi"
	if got != want {
		t.Fatalf("BuildImagePrompt = %q, want %q", got, want)
	}
	if got := BuildImagePrompt("x", ""); !strings.HasPrefix(got, "Wallpaper, 16:9") {
		t.Fatalf("empty aspect should default to landscape: %q", got)
	}
}
