package news

import (
	"context"
	"fmt"
	"invest-ai-go/internal/model"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// NewsAPIName 是 NewsAPI 对外展示的名称。
const NewsAPIName = "NewsAPI"

type newsAPIProvider struct {
	client *resty.Client
	apiKey string
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"publishedAt"`
}

// NewNewsAPIProvider 创建 NewsAPI 数据源。apiKey 为空时 Configured 返回 false。
func NewNewsAPIProvider(baseURL, apiKey string, timeout time.Duration) Provider {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	return &newsAPIProvider{client: client, apiKey: apiKey}
}

func (p *newsAPIProvider) Name() string {
	return NewsAPIName
}

func (p *newsAPIProvider) Configured() bool {
	return p.apiKey != ""
}

func (p *newsAPIProvider) Search(ctx context.Context, term string, limit int) ([]model.NewsItem, error) {
	return p.get(ctx, "/everything", map[string]string{
		"q":        term,
		"language": "en",
		"sortBy":   "publishedAt",
		"pageSize": strconv.Itoa(limit),
	}, limit)
}

func (p *newsAPIProvider) Headlines(ctx context.Context, limit int) ([]model.NewsItem, error) {
	return p.get(ctx, "/top-headlines", map[string]string{
		"country":  "us",
		"category": "business",
		"pageSize": strconv.Itoa(limit),
	}, limit)
}

func (p *newsAPIProvider) get(ctx context.Context, path string, params map[string]string, limit int) ([]model.NewsItem, error) {
	params["apiKey"] = p.apiKey

	var body newsAPIResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		SetError(&body).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("API error %d: %s %s", resp.StatusCode(), body.Code, body.Message)
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("unexpected status %q: %s", body.Status, body.Message)
	}

	articles := body.Articles
	if len(articles) > limit {
		articles = articles[:limit]
	}
	items := make([]model.NewsItem, 0, len(articles))
	for _, a := range articles {
		source := a.Source.Name
		if source == "" {
			source = "Unknown"
		}
		items = append(items, model.NewsItem{
			Title:       a.Title,
			Description: a.Description,
			Source:      source,
			PublishedAt: a.PublishedAt,
			URL:         a.URL,
		})
	}
	return items, nil
}
