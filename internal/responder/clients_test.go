package responder

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatAPI struct {
	resp openai.ChatCompletionResponse
	err  error
	req  openai.ChatCompletionRequest
}

func (s *stubChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestOpenAIClientRequestsJSONMode(t *testing.T) {
	api := &stubChatAPI{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: ` {"text":"hi"} `}}},
	}}
	client := NewOpenAIClient(api, "", 0)

	out, err := client.Complete(context.Background(), CompletionRequest{System: "sys", User: "user", MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"hi"}`, out)

	assert.Equal(t, openai.GPT4oMini, api.req.Model)
	require.NotNil(t, api.req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, api.req.ResponseFormat.Type)
	require.Len(t, api.req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, api.req.Messages[0].Role)
	assert.Equal(t, "user", api.req.Messages[1].Content)
	assert.Equal(t, 50, api.req.MaxTokens)
}

func TestOpenAIClientErrors(t *testing.T) {
	_, err := NewOpenAIClient(&stubChatAPI{err: errors.New("429")}, "gpt-4o", 0).
		Complete(context.Background(), CompletionRequest{})
	assert.ErrorContains(t, err, "429")

	_, err = NewOpenAIClient(&stubChatAPI{}, "gpt-4o", 0).
		Complete(context.Background(), CompletionRequest{})
	assert.ErrorContains(t, err, "no choices")
}

type stubConverseAPI struct {
	out   *bedrockruntime.ConverseOutput
	err   error
	input *bedrockruntime.ConverseInput
}

func (s *stubConverseAPI) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.input = params
	return s.out, s.err
}

func TestBedrockClientComplete(t *testing.T) {
	api := &stubConverseAPI{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role: brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: `{"text":"Blue tile.",`},
				&brtypes.ContentBlockMemberText{Value: `"confidence":0.9}`},
			},
		}},
	}}
	client := NewBedrockClient(api, "anthropic.claude-3-haiku")

	out, err := client.Complete(context.Background(), CompletionRequest{System: "sys", User: "question", MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"Blue tile.","confidence":0.9}`, out)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.claude-3-haiku", *api.input.ModelId)
	require.Len(t, api.input.System, 1)
	require.NotNil(t, api.input.InferenceConfig)
	assert.Equal(t, int32(100), *api.input.InferenceConfig.MaxTokens)
}

func TestBedrockClientRequiresModelAndText(t *testing.T) {
	_, err := NewBedrockClient(&stubConverseAPI{}, "").Complete(context.Background(), CompletionRequest{})
	assert.ErrorContains(t, err, "model id")

	empty := &stubConverseAPI{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{}},
	}}
	_, err = NewBedrockClient(empty, "m").Complete(context.Background(), CompletionRequest{})
	assert.ErrorContains(t, err, "no text")
}
