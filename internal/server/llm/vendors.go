package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/remarkly/backend/internal/shared"
)

// adapter shapes requests for one vendor API and unwraps its response
// envelope down to the model's text output.
type adapter interface {
	buildRequest(ctx context.Context, prompt string, expectStrings bool) (*http.Request, error)
	extractText(body []byte) (string, error)
}

// httpInvoker runs an adapter-built request and classifies transport
// failures as upstream unavailability, distinct from parse errors.
type httpInvoker struct {
	name    string
	adapter adapter
}

func (v *httpInvoker) invoke(ctx context.Context, hc *http.Client, prompt string, expectStrings bool) (string, error) {

	req, err := v.adapter.buildRequest(ctx, prompt, expectStrings)
	if err != nil {
		return "", fmt.Errorf("%s: building request: %w", v.name, err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", v.name, shared.ErrorUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: %w: reading response: %v", v.name, shared.ErrorUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s: %w: status %d", v.name, shared.ErrorUpstreamUnavailable, resp.StatusCode)
	}

	text, err := v.adapter.extractText(body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", v.name, err)
	}

	return text, nil
}

// ---- Gemini ----

type geminiAdapter struct {
	apiKey  string
	baseURL string
}

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com"

func (a *geminiAdapter) buildRequest(ctx context.Context, prompt string, expectStrings bool) (*http.Request, error) {

	base := a.baseURL
	if base == "" {
		base = geminiDefaultBaseURL
	}
	url := fmt.Sprintf("%s/v1beta/models/gemini-1.5-flash-latest:generateContent?key=%s", base, a.apiKey)

	var schema map[string]any
	if expectStrings {
		schema = map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}}
	} else {
		schema = map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"studentName": map[string]any{"type": "STRING"},
					"intro":       map[string]any{"type": "STRING"},
					"body": map[string]any{
						"type": "ARRAY",
						"items": map[string]any{
							"type": "OBJECT",
							"properties": map[string]any{
								"source": map[string]any{"type": "STRING"},
								"text":   map[string]any{"type": "STRING"},
							},
						},
					},
					"conclusion": map[string]any{"type": "STRING"},
				},
				"required": []string{"studentName", "intro", "body", "conclusion"},
			},
		}
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   schema,
			"temperature":      0.8,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

func (a *geminiAdapter) extractText(body []byte) (string, error) {

	var envelope struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", shared.ErrorMalformedResponse
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", shared.ErrorMalformedResponse
	}

	return envelope.Candidates[0].Content.Parts[0].Text, nil
}

// ---- OpenAI-compatible chat completions (DeepSeek, OpenAI) ----

type chatAdapter struct {
	baseURL string
	apiKey  string
	model   string
}

func newChatAdapter(baseURL, apiKey, model string) *chatAdapter {
	return &chatAdapter{baseURL: baseURL, apiKey: apiKey, model: model}
}

func (a *chatAdapter) buildRequest(ctx context.Context, prompt string, expectStrings bool) (*http.Request, error) {

	payload := map[string]any{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a helpful assistant designed to output JSON."},
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.8,
		"max_tokens":      8192,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	return req, nil
}

func (a *chatAdapter) extractText(body []byte) (string, error) {

	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", shared.ErrorMalformedResponse
	}
	if len(envelope.Choices) == 0 {
		return "", shared.ErrorMalformedResponse
	}

	return envelope.Choices[0].Message.Content, nil
}
