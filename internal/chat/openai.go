package chat

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI replays the whole conversation on every call. A turn joins the
// history only once the model has answered it.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float32
	history     []openai.ChatCompletionMessageParamUnion
}

func NewOpenAI(opt Options) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(opt.APIKey)}
	if opt.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(opt.BaseURL))
	}
	if opt.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(opt.HTTPClient))
	}

	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       opt.Model,
		temperature: opt.Temperature,
		history:     []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(SystemInstruction)},
	}
}

func (o *OpenAI) Send(ctx context.Context, message string) (string, error) {
	msgs := append(o.history[:len(o.history):len(o.history)], openai.UserMessage(message))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    msgs,
		Model:       o.model,
		Temperature: openai.Float(float64(o.temperature)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("empty message content")
	}

	o.history = append(msgs, openai.AssistantMessage(content))
	return content, nil
}

// Turns reports how many exchanges the conversation holds.
func (o *OpenAI) Turns() int {
	return (len(o.history) - 1) / 2
}
