package llm

import (
	"context"
	"fmt"
	"invest-ai-go/internal/config"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 150

type anthropicClient struct {
	client *anthropic.Client
	model  anthropic.Model
	gen    config.LLMGenerationConfig
}

func newAnthropicClient(cfg config.LLMConfig, timeout time.Duration) *anthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := anthropic.Model(cfg.Model)
	if cfg.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}
	return &anthropicClient{client: &client, model: model, gen: cfg.Generation}
}

func (c *anthropicClient) Name() string {
	return "anthropic:" + string(c.model)
}

func (c *anthropicClient) Generate(ctx context.Context, prompt string, gen *GenerationParams) (string, error) {
	if gen == nil {
		gen = ParamsFromConfig(c.gen)
	}
	maxTokens := defaultAnthropicMaxTokens
	if gen.MaxTokens != nil {
		maxTokens = *gen.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	// Anthropic 不允许同时设置 temperature 和 top_p，优先 temperature
	if gen.Temperature != nil {
		params.Temperature = anthropic.Float(*gen.Temperature)
	} else if gen.TopP != nil {
		params.TopP = anthropic.Float(*gen.TopP)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}
	return text.String(), nil
}
