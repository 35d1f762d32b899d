// Package llm provides text-generation clients for the summary step.
package llm

import (
	"context"
	"errors"
	"fmt"
	"invest-ai-go/internal/config"
	"strings"
	"time"
)

// ErrDisabled 表示未配置文本生成能力，调用方应直接走模板兜底。
var ErrDisabled = errors.New("text generation disabled")

// Client defines the interface for an LLM client.
// 实现必须可被多个请求并发调用。
type Client interface {
	Name() string
	// Generate 以单条 user 消息调用模型，返回完整的生成文本。
	Generate(ctx context.Context, prompt string, gen *GenerationParams) (string, error)
}

// GenerationParams 控制生成行为，nil 字段表示使用服务端默认值。
type GenerationParams struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// ParamsFromConfig 把配置中的非零值转换成 GenerationParams。
func ParamsFromConfig(cfg config.LLMGenerationConfig) *GenerationParams {
	gen := &GenerationParams{}
	if cfg.Temperature != 0 {
		t := cfg.Temperature
		gen.Temperature = &t
	}
	if cfg.TopP != 0 {
		p := cfg.TopP
		gen.TopP = &p
	}
	if cfg.MaxTokens != 0 {
		m := cfg.MaxTokens
		gen.MaxTokens = &m
	}
	return gen
}

// NewClient creates a new LLM client based on the provider in the config.
// provider 为空或 none 时返回 ErrDisabled。
func NewClient(cfg config.LLMConfig) (Client, error) {
	timeout := config.Seconds(cfg.TimeoutSeconds, 30*time.Second)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "none":
		return nil, ErrDisabled
	case "compatible", "deepseek":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider %q requires base_url", cfg.Provider)
		}
		return newCompatibleClient(cfg, timeout), nil
	case "openai":
		return newOpenAIClient(cfg, timeout), nil
	case "anthropic":
		return newAnthropicClient(cfg, timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
