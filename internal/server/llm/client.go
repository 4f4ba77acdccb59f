// Package llm adapts generation requests into vendor-specific API calls and
// digs structured results out of the loosely formatted text the vendors
// return.
package llm

import (
	"context"
	"net/http"

	"github.com/remarkly/backend/internal/logging"
	"github.com/remarkly/backend/internal/server/config"
	"github.com/remarkly/backend/internal/shared"
)

// Segment is one sentence of a comment body, labelled with the trait or
// category it was generated from.
type Segment struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Comment is the structured result produced for one student profile.
type Comment struct {
	StudentName string    `json:"studentName"`
	Intro       string    `json:"intro"`
	Body        []Segment `json:"body"`
	Conclusion  string    `json:"conclusion"`
}

// Gateway is the generation capability the workflow layer depends on.
type Gateway interface {
	// GenerateComments runs one batched call and returns one comment per
	// profile referenced by the prompt.
	GenerateComments(ctx context.Context, model, prompt string) ([]Comment, error)

	// GenerateStrings returns alternative phrasings as plain strings.
	GenerateStrings(ctx context.Context, model, prompt string) ([]string, error)
}

// invoker produces the raw response text for a prompt. HTTP vendors call
// out to their API; the mock vendor synthesizes text locally.
type invoker interface {
	invoke(ctx context.Context, hc *http.Client, prompt string, expectStrings bool) (string, error)
}

type Client struct {
	vendors map[string]invoker
	hc      *http.Client
	logger  logging.Logger
}

// compile-time interface check
var _ Gateway = (*Client)(nil)

func NewClient(cfg *config.Config, logger logging.Logger) *Client {
	return &Client{
		vendors: map[string]invoker{
			"gemini": &httpInvoker{
				name:    "gemini",
				adapter: &geminiAdapter{apiKey: cfg.GeminiAPIKey},
			},
			"deepseek": &httpInvoker{
				name:    "deepseek",
				adapter: newChatAdapter("https://api.deepseek.com", cfg.DeepseekAPIKey, "deepseek-chat"),
			},
			"openai": &httpInvoker{
				name:    "openai",
				adapter: newChatAdapter("https://api.openai.com", cfg.OpenAIAPIKey, "gpt-4o-mini"),
			},
			"mock": &mockVendor{},
		},
		hc:     &http.Client{Timeout: cfg.ProviderTimeout},
		logger: logger.With("module", "llm_client"),
	}
}

// Vendors lists the configured model selectors.
func (c *Client) Vendors() []string {
	names := make([]string, 0, len(c.vendors))
	for name := range c.vendors {
		names = append(names, name)
	}
	return names
}

func (c *Client) GenerateComments(ctx context.Context, model, prompt string) ([]Comment, error) {
	raw, err := c.rawText(ctx, model, prompt, false)
	if err != nil {
		return nil, err
	}
	return extractComments(raw)
}

func (c *Client) GenerateStrings(ctx context.Context, model, prompt string) ([]string, error) {
	raw, err := c.rawText(ctx, model, prompt, true)
	if err != nil {
		return nil, err
	}
	return extractStrings(raw)
}

func (c *Client) rawText(ctx context.Context, model, prompt string, expectStrings bool) (string, error) {
	vendor, ok := c.vendors[model]
	if !ok {
		return "", shared.ErrorUnknownModel
	}

	raw, err := vendor.invoke(ctx, c.hc, prompt, expectStrings)
	if err != nil {
		c.logger.Error(ctx, "vendor call failed", "model", model, "error", err.Error())
		return "", err
	}

	return raw, nil
}
