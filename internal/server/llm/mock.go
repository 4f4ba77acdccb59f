package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// mockVendor is the template-based fallback generator: it produces
// deterministic comments locally, without network access or credits spent
// upstream. It reads student names and tags back out of the prompt's
// profile lines (the "- Name: ..." format the prompt builder emits).
type mockVendor struct{}

func (v *mockVendor) invoke(ctx context.Context, hc *http.Client, prompt string, expectStrings bool) (string, error) {

	if expectStrings {
		return v.alternatives()
	}
	return v.comments(prompt)
}

func (v *mockVendor) alternatives() (string, error) {

	phrasings := []string{
		"You consistently bring focus and care to everything you take on.",
		"Your steady effort shows in the quality of what you produce.",
		"You approach each task with an attention to detail that stands out.",
		"The commitment you bring to your work sets a strong example.",
		"You carry out your responsibilities with quiet, dependable diligence.",
	}

	out, err := json.Marshal(phrasings)
	if err != nil {
		return "", err
	}

	// fenced output mirrors what real vendors tend to send back
	return "```json\n" + string(out) + "\n```", nil
}

func (v *mockVendor) comments(prompt string) (string, error) {

	type profile struct {
		name string
		tags []string
	}

	var profiles []profile
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- Name: ") {
			continue
		}

		p := profile{}
		for _, field := range strings.Split(strings.TrimPrefix(line, "- "), "; ") {
			key, value, found := strings.Cut(field, ": ")
			if !found {
				continue
			}
			switch key {
			case "Name":
				p.name = value
			case "Tags":
				if value != "none" {
					for _, tag := range strings.Split(value, ",") {
						p.tags = append(p.tags, strings.TrimSpace(tag))
					}
				}
			}
		}

		if p.name != "" {
			profiles = append(profiles, p)
		}
	}

	comments := make([]Comment, 0, len(profiles))
	for _, p := range profiles {
		tags := p.tags
		if len(tags) == 0 {
			tags = []string{"effort"}
		}

		body := make([]Segment, 0, len(tags))
		for _, tag := range tags {
			body = append(body, Segment{
				Source: tag,
				Text:   fmt.Sprintf("You have shown real growth in %s this term.", tag),
			})
		}

		comments = append(comments, Comment{
			StudentName: p.name,
			Intro:       fmt.Sprintf("%s has had a steady and rewarding semester.", p.name),
			Body:        body,
			Conclusion:  "Keep building on this momentum next term.",
		})
	}

	out, err := json.Marshal(comments)
	if err != nil {
		return "", err
	}

	return string(out), nil
}
