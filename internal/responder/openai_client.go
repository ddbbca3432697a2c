package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
)

type chatCompletionAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient calls the chat completion endpoint in JSON object mode.
type OpenAIClient struct {
	api     chatCompletionAPI
	model   string
	timeout time.Duration
}

func NewOpenAIClient(api chatCompletionAPI, model string, timeout time.Duration) *OpenAIClient {
	if api == nil {
		panic("responder: openai client cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{api: api, model: model, timeout: timeout}
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := responderTracer.Start(ctx, "responder.openai")
	defer span.End()

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens:   int(req.MaxTokens),
		Temperature: req.Temperature,
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, chatReq)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("responder: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("responder: openai returned no choices")
		span.RecordError(err)
		return "", err
	}
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("contractor.openai.model", c.model),
			attribute.Int("contractor.openai.total_tokens", resp.Usage.TotalTokens),
		)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
