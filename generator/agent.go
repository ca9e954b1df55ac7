package generator

import (
	"context"
	"errors"
)

// Agent 负责校验请求、选择提示词、调用模型并解析结果。
type Agent struct {
	llm         LLMClient
	model       string
	temperature float64
	parse       Parser
}

type Option func(*Agent)

func WithModel(model string) Option {
	return func(a *Agent) {
		if model != "" {
			a.model = model
		}
	}
}

func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

func WithParser(p Parser) Option {
	return func(a *Agent) {
		if p != nil {
			a.parse = p
		}
	}
}

func NewAgent(llm LLMClient, opts ...Option) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	a := &Agent{
		llm:         llm,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		parse:       Parse,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Generate makes exactly one model call per valid request. Invalid requests never reach the client.
func (a *Agent) Generate(ctx context.Context, req Request) (Result, error) {
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	prompt, err := ResolvePrompts(req.ContentType, req.SystemPrompt, req.HumanPrompt)
	if err != nil {
		return Result{}, err
	}
	msgs, err := prompt.Format(ctx, req.Topic)
	if err != nil {
		return Result{}, err
	}

	raw, err := a.llm.Complete(ctx, Completion{
		Messages:    msgs,
		Model:       a.model,
		Temperature: a.temperature,
	})
	if err != nil {
		return Result{}, &TransportError{Err: err}
	}
	return a.parse(raw), nil
}
