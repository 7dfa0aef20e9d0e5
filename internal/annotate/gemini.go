package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiGenerator implements Generator using Gemini structured output.
type GeminiGenerator struct {
	client        *genai.Client
	model         string
	promptBuilder *PromptBuilder
}

func NewGeminiGenerator(ctx context.Context, apiKey string, modelName string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{
		client:        client,
		model:         modelName,
		promptBuilder: &PromptBuilder{},
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req *Request) (*ClassAnnotation, error) {
	prompt := g.promptBuilder.BuildClassPrompt(req)

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.2),
		MaxOutputTokens:   2048,
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(g.promptBuilder.SystemInstruction(), genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, &TerminalError{Status: "error", Message: "empty generator response"}
	}
	return ParseAnnotation([]byte(cleanJSONOutput(text)))
}

// classifyGeminiError maps API failures onto the retry taxonomy:
// rate-limit and unavailable are transient, everything else terminal.
func classifyGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 503:
			return &TransientError{Err: err}
		case 401, 403:
			return &TerminalError{Status: "auth", Message: err.Error()}
		}
		return &TerminalError{Status: "error", Message: err.Error()}
	}

	s := err.Error()
	if strings.Contains(s, "429") || strings.Contains(s, "RESOURCE_EXHAUSTED") ||
		strings.Contains(s, "quota") || strings.Contains(s, "UNAVAILABLE") {
		return &TransientError{Err: err}
	}
	return &TerminalError{Status: "error", Message: s}
}

// cleanJSONOutput strips markdown fences some models wrap around JSON.
func cleanJSONOutput(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
