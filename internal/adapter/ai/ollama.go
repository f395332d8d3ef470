package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/arturoeanton/finsentsis/internal/port"
)

// OllamaEndpointConfig holds the configuration for an Ollama chat endpoint.
type OllamaEndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://api.ollama.com
	Model   string // e.g. qwen3, llama3.2
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
}

// OllamaProvider implements port.AIProvider using the Ollama chat API.
type OllamaProvider struct {
	chat       OllamaEndpointConfig
	httpClient *http.Client
}

var _ port.AIProvider = (*OllamaProvider)(nil)

// NewOllamaProvider creates a new Ollama-backed copilot provider.
func NewOllamaProvider(chat OllamaEndpointConfig) *OllamaProvider {
	return &OllamaProvider{
		chat:       chat,
		httpClient: &http.Client{},
	}
}

// ModelName returns the chat model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.chat.Model
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat sends the system instruction, prior turns and the new message and
// returns the complete response.
func (o *OllamaProvider) Chat(ctx context.Context, message string, history []port.Turn) (string, error) {
	payload := map[string]interface{}{
		"model":    o.chat.Model,
		"messages": ollamaMessages(message, history),
		"stream":   false,
	}

	body, err := o.post(ctx, "/api/chat", payload)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama chat decode: %w", err)
	}

	return resp.Message.Content, nil
}

func ollamaMessages(message string, history []port.Turn) []ollamaMessage {
	turns := usableTurns(history)
	messages := make([]ollamaMessage, 0, len(turns)+2)
	messages = append(messages, ollamaMessage{Role: "system", Content: SystemInstruction})
	for _, t := range turns {
		role := roleAssistant
		if t.Role == roleUser {
			role = roleUser
		}
		messages = append(messages, ollamaMessage{Role: role, Content: t.Content})
	}
	return append(messages, ollamaMessage{Role: roleUser, Content: message})
}

// post is a helper for POST requests to the Ollama endpoint (with optional bearer token).
func (o *OllamaProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.chat.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.chat.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.chat.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
