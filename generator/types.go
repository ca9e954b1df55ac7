package generator

import (
	"strings"
	"unicode/utf8"
)

// ContentType 选择默认提示词组合。
type ContentType string

const (
	Blog        ContentType = "blog"
	SocialMedia ContentType = "social media"
)

const (
	MaxTopicLen      = 100
	MaxPromptLen     = 400
	TopicPlaceholder = "{topic}"
)

// ContentTypes lists the supported values in display order.
var ContentTypes = []ContentType{Blog, SocialMedia}

// ParseContentType normalizes user input the way the shell reads it (trimmed, lowercased).
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !ct.Valid() {
		return "", ErrInvalidContentType
	}
	return ct, nil
}

func (c ContentType) Valid() bool {
	return c == Blog || c == SocialMedia
}

// Request is one user submission. Empty prompts fall back to the content type defaults.
type Request struct {
	Topic        string      `json:"topic"`
	ContentType  ContentType `json:"content_type"`
	SystemPrompt string      `json:"system_prompt,omitempty"`
	HumanPrompt  string      `json:"human_prompt,omitempty"`
}

// Normalized returns r with surrounding whitespace removed from the topic.
// Every entry point goes through it so filenames and titles agree.
func (r Request) Normalized() Request {
	r.Topic = strings.TrimSpace(r.Topic)
	return r
}

// Validate runs every check that must pass before the model is called.
func (r Request) Validate() error {
	if !r.ContentType.Valid() {
		return ErrInvalidContentType
	}
	topic := strings.TrimSpace(r.Topic)
	if topic == "" {
		return &ValidationError{Field: "topic", Reason: "is required"}
	}
	if utf8.RuneCountInString(r.Topic) > MaxTopicLen {
		return &ValidationError{Field: "topic", Reason: lengthReason(MaxTopicLen)}
	}
	if utf8.RuneCountInString(r.SystemPrompt) > MaxPromptLen {
		return &ValidationError{Field: "system_prompt", Reason: lengthReason(MaxPromptLen)}
	}
	if utf8.RuneCountInString(r.HumanPrompt) > MaxPromptLen {
		return &ValidationError{Field: "human_prompt", Reason: lengthReason(MaxPromptLen)}
	}
	if strings.TrimSpace(r.HumanPrompt) != "" && !strings.Contains(r.HumanPrompt, TopicPlaceholder) {
		return &ValidationError{Field: "human_prompt", Reason: "must contain the " + TopicPlaceholder + " placeholder"}
	}
	return nil
}

// Result is derived from Raw by the parser.
type Result struct {
	Raw             string   `json:"raw"`
	MainContent     string   `json:"main_content"`
	TagLine         string   `json:"tag_line"`
	Tags            []string `json:"tags"`
	FocusKeyphrase  string   `json:"focus_keyphrase"`
	MetaDescription string   `json:"meta_description"`
}
