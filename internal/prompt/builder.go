// Package prompt composes the single text prompt sent to the model from
// the recent conversation, the active persona, and the length setting.
// Build is a pure function: identical inputs always produce identical
// prompts.
package prompt

import (
	"fmt"
	"strings"

	"replyassist/internal/types"
)

// SuggestionCount is the number of output lines the model is instructed
// to produce. The parser tolerates fewer.
const SuggestionCount = 4

// lengthDirectives maps the response-length setting to the word-count
// guidance embedded in the prompt. Unknown values fall back to medium.
var lengthDirectives = map[types.ResponseLength]string{
	types.LengthShort:  "Keep each reply very short: at most 8 words.",
	types.LengthMedium: "Keep each reply conversational: roughly 8 to 20 words.",
	types.LengthLong:   "Each reply may be detailed: up to 40 words, never more.",
}

// Build assembles the generation prompt. The conversation section holds
// at most settings.MaxMessages of the most recent messages, serialized as
// "author: content" lines in chronological order. The persona prompt text
// is embedded verbatim.
func Build(messages []types.Message, p types.Persona, settings types.GenerationSettings) (string, error) {
	if len(messages) == 0 {
		return "", types.Validationf("no conversation to analyze")
	}

	recent := messages
	if settings.MaxMessages > 0 && len(recent) > settings.MaxMessages {
		recent = recent[len(recent)-settings.MaxMessages:]
	}

	lines := make([]string, len(recent))
	for i, msg := range recent {
		lines[i] = fmt.Sprintf("%s: %s", msg.Author, msg.Content)
	}

	directive, ok := lengthDirectives[settings.ResponseLength]
	if !ok {
		directive = lengthDirectives[types.LengthMedium]
	}

	var b strings.Builder
	b.WriteString("You are an assistant that writes reply suggestions for an ongoing chat conversation.\n\n")
	b.WriteString("Conversation (most recent messages last):\n---\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n---\n\n")
	b.WriteString("Persona to adopt for the replies:\n")
	b.WriteString(p.PromptText)
	b.WriteString("\n\n")
	b.WriteString(directive)
	b.WriteString("\n\nInstructions:\n")
	fmt.Fprintf(&b, "1. Produce exactly %d reply suggestions, one per line.\n", SuggestionCount)
	b.WriteString("2. Each line must be a plausible standalone continuation of the conversation, focused on the latest messages.\n")
	b.WriteString("3. Do not number the lines, do not use bullets, and do not add explanations, prefixes, or commentary.\n")
	b.WriteString("4. Output only the suggestions, nothing else.\n")
	return b.String(), nil
}
