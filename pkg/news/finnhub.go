package news

import (
	"context"
	"fmt"
	"invest-ai-go/internal/model"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnhubName 是 Finnhub 对外展示的名称。
const FinnhubName = "Finnhub"

// 公司新闻的回看窗口。
const finnhubLookback = 7 * 24 * time.Hour

type finnhubProvider struct {
	client *finnhub.DefaultApiService
	apiKey string
	now    func() time.Time
}

// NewFinnhubProvider 创建 Finnhub 数据源。Finnhub 只支持按代码检索，公司名关键词返回空结果。
func NewFinnhubProvider(apiKey string) Provider {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	return &finnhubProvider{
		client: finnhub.NewAPIClient(cfg).DefaultApi,
		apiKey: apiKey,
		now:    time.Now,
	}
}

func (p *finnhubProvider) Name() string {
	return FinnhubName
}

func (p *finnhubProvider) Configured() bool {
	return p.apiKey != ""
}

func (p *finnhubProvider) Search(ctx context.Context, term string, limit int) ([]model.NewsItem, error) {
	if term != strings.ToUpper(term) || strings.ContainsAny(term, " \t") {
		return nil, nil
	}
	to := p.now()
	from := to.Add(-finnhubLookback)

	res, _, err := p.client.CompanyNews(ctx).
		Symbol(term).
		From(from.Format("2006-01-02")).
		To(to.Format("2006-01-02")).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("company news for %s: %w", term, err)
	}

	items := make([]model.NewsItem, 0, len(res))
	for _, n := range res {
		items = append(items, toNewsItem(n.Headline, n.Summary, n.Source, n.Url, n.Datetime))
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (p *finnhubProvider) Headlines(ctx context.Context, limit int) ([]model.NewsItem, error) {
	res, _, err := p.client.MarketNews(ctx).Category("general").Execute()
	if err != nil {
		return nil, fmt.Errorf("market news: %w", err)
	}

	items := make([]model.NewsItem, 0, len(res))
	for _, n := range res {
		items = append(items, toNewsItem(n.Headline, n.Summary, n.Source, n.Url, n.Datetime))
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func toNewsItem(headline, summary, source, url *string, datetime *int64) model.NewsItem {
	item := model.NewsItem{Source: "Unknown"}
	if headline != nil {
		item.Title = *headline
	}
	if summary != nil && *summary != "" {
		s := *summary
		item.Description = &s
	}
	if source != nil && *source != "" {
		item.Source = *source
	}
	if url != nil {
		item.URL = *url
	}
	if datetime != nil {
		item.PublishedAt = time.Unix(*datetime, 0).UTC().Format(time.RFC3339)
	}
	return item
}
