package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"invest-ai-go/internal/config"
	"io"
	"net/http"
	"strings"
	"time"
)

// compatibleClient 对接任何兼容 OpenAI /chat/completions 流式协议的服务（DeepSeek、vLLM 等）。
type compatibleClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

func newCompatibleClient(cfg config.LLMConfig, timeout time.Duration) *compatibleClient {
	return &compatibleClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *compatibleClient) Name() string {
	return "compatible:" + c.cfg.Model
}

func (c *compatibleClient) Generate(ctx context.Context, prompt string, gen *GenerationParams) (string, error) {
	var sb strings.Builder
	if err := c.StreamChatMessages(ctx, []Message{{Role: "user", Content: prompt}}, gen, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// StreamChatMessages 以 role-based 消息调用聊天接口，并将流式分块依次写入 w。
func (c *compatibleClient) StreamChatMessages(ctx context.Context, messages []Message, gen *GenerationParams, w io.Writer) error {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
	}
	if gen == nil {
		gen = ParamsFromConfig(c.cfg.Generation)
	}
	reqBody.Temperature = gen.Temperature
	reqBody.TopP = gen.TopP
	reqBody.MaxTokens = gen.MaxTokens

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read from stream: %w", err)
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			if data == "[DONE]" {
				break
			}

			var chunk chatResponse
			if jsonErr := json.Unmarshal([]byte(data), &chunk); jsonErr == nil && len(chunk.Choices) > 0 {
				if _, wErr := io.WriteString(w, chunk.Choices[0].Delta.Content); wErr != nil {
					return fmt.Errorf("failed to write chunk: %w", wErr)
				}
			}
		}
		if err == io.EOF {
			break
		}
	}
	return nil
}
