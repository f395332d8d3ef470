package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/arturoeanton/finsentsis/internal/port"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements port.AIProvider on the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// ModelName returns the Gemini model identifier.
func (g *GeminiProvider) ModelName() string {
	return g.model
}

// Chat replays history and sends message as the final user turn.
func (g *GeminiProvider) Chat(ctx context.Context, message string, history []port.Turn) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(message, history), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

// geminiContents maps transcript turns to Gemini contents. Assistant turns
// become the model role.
func geminiContents(message string, history []port.Turn) []*genai.Content {
	turns := usableTurns(history)
	contents := make([]*genai.Content, 0, len(turns)+1)
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role != roleUser {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return append(contents, genai.NewContentFromText(message, genai.RoleUser))
}
