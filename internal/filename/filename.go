// Package filename derives download names for generated wallpapers.
package filename

import (
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultToken replaces a prompt that sanitises to nothing.
	DefaultToken = "ai-wallpaper"
	// MaxPrefixRunes bounds the prompt-derived part of the name.
	MaxPrefixRunes = 50

	timestampLayout = "20060102150405"
	extension       = ".png"
	separator       = "_"
)

var (
	unsafeRun    = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	separatorRun = regexp.MustCompile(`_{2,}`)
)

// Build returns "<sanitised prompt prefix>_<YYYYMMDDHHMMSS>.png".
func Build(prompt string, now time.Time) string {
	return Sanitize(prompt) + separator + now.Format(timestampLayout) + extension
}

// Sanitize reduces prompt to a filesystem-safe token of at most
// MaxPrefixRunes characters, falling back to DefaultToken.
func Sanitize(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > MaxPrefixRunes {
		runes = runes[:MaxPrefixRunes]
	}
	s := unsafeRun.ReplaceAllString(string(runes), separator)
	s = separatorRun.ReplaceAllString(s, separator)
	s = strings.Trim(s, separator)
	if s == "" {
		return DefaultToken
	}
	return s
}
