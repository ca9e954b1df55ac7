package generator

import (
	"context"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// followUpFields 要求模型在正文后按编号输出三项 SEO 字段，Parse 依赖这个顺序。
const followUpFields = "\n\nThen, provide the following:\n" +
	"1. A comma-separated list of SEO tags\n" +
	"2. A short focus keyphrase (1 line)\n" +
	"3. A meta description (1–2 sentences)"

const (
	defaultBlogSystem   = "You are a skilled writer who creates engaging and informative blog posts."
	defaultBlogHuman    = "Write a detailed blog post about {topic}." + followUpFields
	defaultSocialSystem = "You are a creative writer who crafts catchy and concise social media posts."
	defaultSocialHuman  = "Write a compelling social media post about {topic}." + followUpFields
)

// Prompt holds the two unformatted templates sent to the model.
type Prompt struct {
	System string `json:"system_prompt"`
	Human  string `json:"human_prompt"`
}

// Message is one role-tagged chat message after formatting.
type Message struct {
	Role    string
	Content string
}

// Defaults returns the built-in pair for ct.
func Defaults(ct ContentType) (Prompt, error) {
	switch ct {
	case Blog:
		return Prompt{System: defaultBlogSystem, Human: defaultBlogHuman}, nil
	case SocialMedia:
		return Prompt{System: defaultSocialSystem, Human: defaultSocialHuman}, nil
	default:
		return Prompt{}, ErrInvalidContentType
	}
}

// ResolvePrompts fills empty overrides from the defaults of ct.
func ResolvePrompts(ct ContentType, system, human string) (Prompt, error) {
	p, err := Defaults(ct)
	if err != nil {
		return Prompt{}, err
	}
	if strings.TrimSpace(system) != "" {
		p.System = system
	}
	if strings.TrimSpace(human) != "" {
		p.Human = human
	}
	return p, nil
}

// Format substitutes topic into both templates. Braces follow python format rules,
// so a literal brace in a custom prompt has to be doubled.
func (p Prompt) Format(ctx context.Context, topic string) ([]Message, error) {
	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(p.System),
		schema.UserMessage(p.Human),
	)
	msgs, err := tpl.Format(ctx, map[string]any{"topic": topic})
	if err != nil {
		return nil, &ValidationError{Field: "prompt", Reason: "could not be formatted: " + err.Error()}
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Message{Role: string(m.Role), Content: m.Content})
	}
	return out, nil
}
