package generator

import (
	"context"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, c Completion) (string, error) {
	var user string
	for _, msg := range c.Messages {
		if msg.Role != "system" {
			user = msg.Content
		}
	}
	// 取第一行作为"主题"回显。
	first, _, _ := strings.Cut(user, "\n")

	var sb strings.Builder
	sb.WriteString("# Sample draft\n\n")
	sb.WriteString("This is placeholder content produced without calling a model.\n\n")
	sb.WriteString("> ")
	sb.WriteString(strings.TrimSpace(first))
	sb.WriteString("\n\n")
	sb.WriteString("1. sample, placeholder, draft\n")
	sb.WriteString("2. sample draft\n")
	sb.WriteString("3. A placeholder post generated locally for testing the pipeline.\n")
	return sb.String(), nil
}
