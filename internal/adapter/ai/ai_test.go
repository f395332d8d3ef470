package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/finsentsis/internal/port"
)

var history = []port.Turn{
	{Role: "assistant", Content: "Hello. I am the Finsentsis Autonomous Copilot."},
	{Role: "user", Content: "What is DPDP?"},
	{Role: "assistant", Content: ""},
	{Role: "system", Content: "ignored"},
	{Role: "assistant", Content: "India's Digital Personal Data Protection Act."},
}

func TestGeminiContents(t *testing.T) {
	contents := geminiContents("And the fines?", history)

	require.Len(t, contents, 4)
	wantRoles := []string{"model", "user", "model", "user"}
	for i, c := range contents {
		assert.Equal(t, wantRoles[i], string(c.Role), "content %d", i)
		require.Len(t, c.Parts, 1)
	}
	assert.Equal(t, "And the fines?", contents[3].Parts[0].Text)
}

func TestOllamaProvider_Chat(t *testing.T) {
	var got struct {
		Model    string          `json:"model"`
		Messages []ollamaMessage `json:"messages"`
		Stream   bool            `json:"stream"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Fines reach 4% of turnover under the Act."},"done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaEndpointConfig{BaseURL: srv.URL, Model: "qwen3", Token: "secret"})
	reply, err := p.Chat(context.Background(), "And the fines?", history)

	require.NoError(t, err)
	assert.Equal(t, "Fines reach 4% of turnover under the Act.", reply)
	assert.Equal(t, "qwen3", p.ModelName())
	assert.Equal(t, "qwen3", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 5)
	assert.Equal(t, ollamaMessage{Role: "system", Content: SystemInstruction}, got.Messages[0])
	assert.Equal(t, ollamaMessage{Role: "user", Content: "And the fines?"}, got.Messages[4])
}

func TestOllamaProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaEndpointConfig{BaseURL: srv.URL, Model: "missing"})
	_, err := p.Chat(context.Background(), "hi", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestCannedProvider(t *testing.T) {
	reply, err := CannedProvider{}.Chat(context.Background(), "anything", history)
	require.NoError(t, err)
	assert.Equal(t, CannedReplyText, reply)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CannedProvider{}.Chat(ctx, "anything", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
