package chat

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Gemini keeps one chat session for the life of the process. The SDK
// records a turn in the history only when the call succeeds.
type Gemini struct {
	chat *genai.Chat
}

func NewGemini(ctx context.Context, opt Options) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     opt.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opt.HTTPClient,
	}
	if opt.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opt.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	chat, err := client.Chats.Create(ctx, opt.Model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(opt.Temperature),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini chat: %w", err)
	}
	return &Gemini{chat: chat}, nil
}

func (g *Gemini) Send(ctx context.Context, message string) (string, error) {
	resp, err := g.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty reply")
	}
	return text, nil
}
