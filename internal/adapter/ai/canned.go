package ai

import (
	"context"

	"github.com/arturoeanton/finsentsis/internal/port"
)

// CannedReplyText is the answer given when no model backend is configured.
const CannedReplyText = "I am the Finsentsis Autonomous Copilot. To fully activate my regulatory intelligence capabilities, " +
	"please configure a valid Google Gemini API Key. \n\n" +
	"However, I can simulate the workflow for you now. Please start by asking to 'Run a compliance scan'."

// CannedProvider answers every question with CannedReplyText.
type CannedProvider struct{}

var _ port.AIProvider = CannedProvider{}

// ModelName identifies the canned backend.
func (CannedProvider) ModelName() string { return "canned" }

// Chat returns the canned reply.
func (CannedProvider) Chat(ctx context.Context, _ string, _ []port.Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return CannedReplyText, nil
}
