package generation

import (
	"fmt"
	"strings"
)

// StudentProfile is the generation input for one student. Empty role,
// incidents or tags are carried as the "none" sentinel so the prompt stays
// unambiguous for the model.
type StudentProfile struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Incidents string `json:"incidents"`
	Tags      string `json:"tags"`
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

// BuildCommentPrompt renders the batched blueprint prompt. The profile line
// format ("- Name: ...") is also what the local mock vendor parses, so keep
// the two in sync.
func BuildCommentPrompt(profiles []StudentProfile, style string) string {

	lines := make([]string, 0, len(profiles))
	for _, p := range profiles {
		lines = append(lines, fmt.Sprintf("- Name: %s; Role: %s; Incidents: %s; Tags: %s",
			p.Name, orNone(p.Role), orNone(p.Incidents), orNone(p.Tags)))
	}

	return fmt.Sprintf(`You are a veteran teacher and an accomplished writer, preparing report-card comment blueprints.

**Comment style**: %s
---
**Core rules (follow strictly)**
1. **Structured output**: for every student return a JSON object with the keys 'studentName', 'intro', 'body' and 'conclusion'. 'studentName' must be the student's name. Each 'body' entry is an object with 'source' (the trait or category it draws on) and 'text' (one generated sentence).
2. **Name and pronoun rule (never violate)**: the student's full name may appear only once, in the intro. In the body and conclusion, address the student directly as "you".
3. **Content grounding (high priority)**: when a profile's role or incidents field is not 'none', that material must anchor the comment.
---
**Student profiles**:
%s
---
**Output format**: your entire output must be a single JSON array [...], one object per student. Do not add any explanatory text before or after the JSON array.`,
		style, strings.Join(lines, "\n"))
}

// BuildAlternativesPrompt renders the single-sentence rephrasing prompt.
func BuildAlternativesPrompt(text, sourceTag, style string) string {
	return fmt.Sprintf(`You are a master of expression. Rewrite the sentence below in 5 different, high-quality ways while keeping its core meaning and the "%s" style. Sentence: "%s". The concept it describes is "%s". Return the 5 rewrites as a JSON array of strings.`,
		style, text, sourceTag)
}
