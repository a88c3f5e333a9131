package generator

import (
	"context"
	"errors"
)

var (
	// ErrMissingCredential means the selected provider has no API key; no call is attempted.
	ErrMissingCredential = errors.New("api credential missing")
	// ErrUnknownProvider is returned for provider names the registry does not know.
	ErrUnknownProvider = errors.New("unknown llm provider")
	// ErrUpstream wraps every failure of the code-generation service call.
	ErrUpstream = errors.New("code generation failed")
)

// LLMClient 抽象大模型客户端，便于替换/Mock。返回值是归一化后的纯文本回复。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}
