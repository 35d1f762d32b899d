package llm

import (
	"context"
	"fmt"
	"invest-ai-go/internal/config"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIClient struct {
	client *openai.Client
	model  openai.ChatModel
	gen    config.LLMGenerationConfig
}

func newOpenAIClient(cfg config.LLMConfig, timeout time.Duration) *openAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	model := openai.ChatModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &openAIClient{client: &client, model: model, gen: cfg.Generation}
}

func (c *openAIClient) Name() string {
	return "openai:" + string(c.model)
}

func (c *openAIClient) Generate(ctx context.Context, prompt string, gen *GenerationParams) (string, error) {
	if gen == nil {
		gen = ParamsFromConfig(c.gen)
	}
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if gen.Temperature != nil {
		params.Temperature = openai.Float(*gen.Temperature)
	}
	if gen.TopP != nil {
		params.TopP = openai.Float(*gen.TopP)
	}
	if gen.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*gen.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
