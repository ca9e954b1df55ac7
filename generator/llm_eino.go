package generator

import (
	"context"
	"errors"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoLLM sends the same messages through an eino ChatModel, for gateways that
// are easier to reach through eino's OpenAI adapter.
type EinoLLM struct {
	chat model.BaseChatModel
}

func NewEinoLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*EinoLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("eino api key missing")
	}
	chat, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, err
	}
	return NewEinoLLM(chat), nil
}

// NewEinoLLM wraps an already built chat model.
func NewEinoLLM(chat model.BaseChatModel) *EinoLLM {
	return &EinoLLM{chat: chat}
}

func (e *EinoLLM) Complete(ctx context.Context, c Completion) (string, error) {
	msgs := make([]*schema.Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, schema.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(m.Content))
		}
	}

	opts := []model.Option{model.WithTemperature(float32(c.Temperature))}
	if c.Model != "" {
		opts = append(opts, model.WithModel(c.Model))
	}
	out, err := e.chat.Generate(ctx, msgs, opts...)
	if err != nil {
		return "", err
	}
	if out == nil || out.Content == "" {
		return "", errors.New("eino: empty response")
	}
	return out.Content, nil
}
