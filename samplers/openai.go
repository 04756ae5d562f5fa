// Package samplers provides concrete holoware.Sampler adapters over
// specific model provider SDKs, kept separate from the core module so the
// evaluator never depends on any one provider's client.
package samplers

import (
	"context"

	"github.com/openai/openai-go"

	"github.com/holoware-dev/holoware-go"
)

// OpenAISampler implements holoware.Sampler over the Chat Completions API.
type OpenAISampler struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAISampler wraps client, sampling completions from model (e.g.
// openai.ChatModelGPT4oMini) for every SampleSpan dispatched against it.
func NewOpenAISampler(client openai.Client, model openai.ChatModel) *OpenAISampler {
	return &OpenAISampler{client: client, model: model}
}

// Sample renders rollout's active context as chat messages and requests
// one completion, honoring stopSequences when the span carried a fence.
func (s *OpenAISampler) Sample(ctx context.Context, rollout *holoware.Rollout, stopSequences []string) (string, error) {
	active := rollout.ActiveContext()
	apiMessages := active.ToAPIMessages(false)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(apiMessages))
	for _, m := range apiMessages {
		switch m.Role {
		case holoware.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case holoware.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    s.model,
	}
	if len(stopSequences) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: stopSequences}
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
