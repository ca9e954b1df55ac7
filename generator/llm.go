package generator

import "context"

const (
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
)

// Completion is a single chat call: formatted messages plus sampling settings.
type Completion struct {
	Messages    []Message
	Model       string
	Temperature float64
}

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, c Completion) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
