package prompt

import (
	"strings"
	"unicode"
)

// quotePairs lists the wrappers models like to put around a one-sentence answer.
var quotePairs = [][2]string{
	{`"`, `"`},
	{"'", "'"},
	{"`", "`"},
	{"“", "”"},
	{"‘", "’"},
}

// CleanPromptText normalises a text-model answer into a single prompt
// sentence: code fences, a leading "Prompt:" label and surrounding quotes are
// removed and internal whitespace is collapsed.
func CleanPromptText(raw string) string {
	text := trimCodeFence(raw)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 && strings.TrimSpace(text[:idx]) != "" {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	for _, label := range []string{"Prompt:", "prompt:", "PROMPT:"} {
		text = strings.TrimSpace(strings.TrimPrefix(text, label))
	}
	text = trimQuotes(text)
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}

func trimQuotes(text string) string {
	for {
		trimmed := strings.TrimSpace(text)
		stripped := false
		for _, pair := range quotePairs {
			if len(trimmed) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(trimmed, pair[0]) && strings.HasSuffix(trimmed, pair[1]) {
				trimmed = trimmed[len(pair[0]) : len(trimmed)-len(pair[1])]
				stripped = true
				break
			}
		}
		if !stripped {
			return trimmed
		}
		text = trimmed
	}
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```text")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
