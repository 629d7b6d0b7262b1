// Package chat turns candidate answers into interviewer replies.
package chat

import (
	"context"
	"fmt"
	"net/http"
)

const SystemInstruction = "You are a strict interviewer conducting a professional job interview. " +
	"Your output must ONLY be what an interviewer would actually speak aloud. " +
	"Do NOT include stage directions, emotions, or descriptions like '(clears throat)' or '(smiles)'. No Emoji. " +
	"Every response you give must be a QUESTION or a feedback of answer or a proper response."

// Model is a multi-turn conversation. Each Send continues the same
// conversation; implementations are not safe for concurrent use.
type Model interface {
	Send(ctx context.Context, message string) (string, error)
}

type Options struct {
	Backend     string // "gemini" or "openai"
	Model       string
	Temperature float32
	APIKey      string
	BaseURL     string
	HTTPClient  *http.Client
}

// NewModel opens a conversation on the configured backend.
func NewModel(ctx context.Context, opt Options) (Model, error) {
	switch opt.Backend {
	case "gemini", "":
		return NewGemini(ctx, opt)
	case "openai":
		return NewOpenAI(opt), nil
	default:
		return nil, fmt.Errorf("unknown chat backend %q", opt.Backend)
	}
}
