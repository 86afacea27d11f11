// Package parser turns the model's free-text payload into a bounded,
// ordered list of reply suggestions. The cleanup rules here are the
// single canonical set; callers must not post-process further.
package parser

import (
	"math/rand"
	"regexp"
	"strings"

	"replyassist/internal/gemini"
	"replyassist/internal/types"
)

// MaxSuggestions bounds the parsed output.
const MaxSuggestions = 4

// minLineLength drops stray fragments ("ok", "-", emoji shrapnel) that
// survive bullet stripping.
const minLineLength = 3

// bulletPrefix matches a leading bullet or numbering marker: -, *, •, ►,
// ▸, or digits followed by "." or ")", plus trailing whitespace.
var bulletPrefix = regexp.MustCompile(`^(?:[-*•►▸]|\d+[.)])\s*`)

// metaWords flag leaked instructions and preambles rather than
// suggestions. The model occasionally answers in French, so both
// languages are covered.
var metaWords = []string{
	"suggestion",
	"réponse",
	"response",
	"here is",
	"voici",
	"here it is",
	"voilà",
}

// safetyFinishReasons are per-candidate finish reasons that indicate a
// safety stop rather than a normal completion.
var safetyFinishReasons = map[string]bool{
	"SAFETY":             true,
	"PROHIBITED_CONTENT": true,
	"BLOCKLIST":          true,
}

// Parse extracts 1 to MaxSuggestions suggestion strings from the raw
// generateContent payload, preserving the model's ordering.
func Parse(resp *gemini.Response) ([]string, error) {
	if resp == nil {
		return nil, types.ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &types.ContentBlockedError{Reason: resp.PromptFeedback.BlockReason}
	}
	if len(resp.Candidates) == 0 {
		return nil, types.ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if safetyFinishReasons[candidate.FinishReason] {
		return nil, &types.ContentBlockedError{Reason: candidate.FinishReason}
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, types.ErrEmptyResponse
	}

	suggestions := make([]string, 0, MaxSuggestions)
	for _, line := range strings.Split(text.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if len([]rune(line)) < minLineLength {
			continue
		}
		if containsMetaWord(line) {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == MaxSuggestions {
			break
		}
	}

	if len(suggestions) == 0 {
		return nil, types.ErrNoSuggestions
	}
	return suggestions, nil
}

func containsMetaWord(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range metaWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// variations are the cosmetic transforms Pad may apply. Each one keeps
// the semantic content of the base suggestion intact.
var variations = []func(string) string{
	func(s string) string { return s + " 🙂" },
	func(s string) string { return s + " haha" },
	func(s string) string {
		if strings.HasSuffix(s, ".") {
			return strings.TrimSuffix(s, ".") + "!"
		}
		return s + "!"
	},
	func(s string) string {
		if strings.HasSuffix(s, "!") {
			return strings.TrimSuffix(s, "!") + "…"
		}
		return s + "…"
	},
}

// Pad best-effort extends suggestions to MaxSuggestions by applying a
// cosmetic variation to existing entries. It never invents semantic
// content and never introduces a duplicate; if no non-duplicate
// variation exists the list is returned shorter. Deterministic for a
// fixed rng seed.
func Pad(suggestions []string, rng *rand.Rand) []string {
	if len(suggestions) == 0 || len(suggestions) >= MaxSuggestions {
		return suggestions
	}

	seen := make(map[string]bool, MaxSuggestions)
	for _, s := range suggestions {
		seen[s] = true
	}

	out := append([]string(nil), suggestions...)
	base := len(suggestions)
	for len(out) < MaxSuggestions {
		added := false
		srcStart := rng.Intn(base)
		varStart := rng.Intn(len(variations))
		for s := 0; s < base && !added; s++ {
			source := out[(srcStart+s)%base]
			for v := 0; v < len(variations) && !added; v++ {
				padded := variations[(varStart+v)%len(variations)](source)
				if !seen[padded] {
					seen[padded] = true
					out = append(out, padded)
					added = true
				}
			}
		}
		if !added {
			break
		}
	}
	return out
}
