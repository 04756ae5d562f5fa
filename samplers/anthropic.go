package samplers

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/holoware-dev/holoware-go"
)

// AnthropicSampler implements holoware.Sampler over the Messages API.
type AnthropicSampler struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicSampler wraps client, sampling completions from model with
// up to maxTokens output tokens per SampleSpan.
func NewAnthropicSampler(client anthropic.Client, model anthropic.Model, maxTokens int64) *AnthropicSampler {
	return &AnthropicSampler{client: client, model: model, maxTokens: maxTokens}
}

// Sample renders rollout's active context as Anthropic messages, lifting
// every system-role turn into the request's System field since the
// Messages API takes system prompt separately from the turn list.
func (s *AnthropicSampler) Sample(ctx context.Context, rollout *holoware.Rollout, stopSequences []string) (string, error) {
	active := rollout.ActiveContext()
	apiMessages := active.ToAPIMessages(false)

	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(apiMessages))
	for _, m := range apiMessages {
		switch m.Role {
		case holoware.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case holoware.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(stopSequences) > 0 {
		params.StopSequences = stopSequences
	}

	msg, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(msg.Content) == 0 {
		return "", nil
	}
	return msg.Content[0].Text, nil
}
