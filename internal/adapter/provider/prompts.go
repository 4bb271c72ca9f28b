package provider

import (
	"fmt"
	"strings"
)

const (
	defaultLevel = "B1"
	defaultMode  = "simplify"
)

var levelDescriptions = map[string]string{
	"A2": "Basic everyday English. Very simple sentences, familiar words, minimal grammar.",
	"B1": "Lower-intermediate English. Short, clear sentences with common vocabulary. Avoid idioms or complex clauses.",
	"B2": "Upper-intermediate English. Use moderate sentence length, mostly common vocabulary, some abstract ideas allowed.",
	"C1": "Advanced English. Preserve nuance and meaning, but avoid overly academic or rare vocabulary.",
	"C2": "Near-native English. Maintain stylistic richness and complex structures if natural.",
}

var modeGoals = map[string]string{
	"simplify": "Simplify the text so that a learner at the given CEFR level can easily understand it.",
	"summary":  "Summarize the text in clear, concise English suitable for the given CEFR level.",
	"glossary": "Extract a glossary of difficult words from the text with short, simple explanations suitable for the given CEFR level.",
}

// normalizeLevel maps unrecognized CEFR levels to the baseline. Soft
// fallback: unknown input is not an error.
func normalizeLevel(level string) string {
	if _, ok := levelDescriptions[level]; ok {
		return level
	}
	return defaultLevel
}

func normalizeMode(mode string) string {
	if _, ok := modeGoals[mode]; ok {
		return mode
	}
	return defaultMode
}

// buildSystemPrompt renders the instruction segment for the requested CEFR
// level and task mode.
func buildSystemPrompt(level, mode string) string {
	level = normalizeLevel(level)
	mode = normalizeMode(mode)

	var sb strings.Builder
	sb.WriteString("You are an expert English language teacher and text simplification assistant.\n")
	fmt.Fprintf(&sb, "Your goal is to %s\n\n", modeGoals[mode])
	sb.WriteString("Follow these strict rules:\n")
	fmt.Fprintf(&sb, "1. Use the CEFR level: %s.\n", level)
	fmt.Fprintf(&sb, "2. Target audience: non-native English learners at %s level.\n", level)
	sb.WriteString("3. Preserve the original meaning and key facts.\n")
	sb.WriteString("4. Simplify vocabulary and sentence structure according to the level.\n")
	sb.WriteString("5. Avoid slang, idioms, and culture-specific references unless necessary.\n")
	sb.WriteString("6. Output plain text only - no explanations, bullet points, or markdown.\n\n")
	sb.WriteString("Here is the CEFR level guidance:\n")
	sb.WriteString(levelDescriptions[level])
	return sb.String()
}

// buildUserPrompt renders the payload segment.
func buildUserPrompt(text string) string {
	return "Adapt the following text:\n\n" + text
}
