// Package news 封装新闻数据源，负责多关键词合并、按标题去重和截断。
package news

import (
	"context"
	"errors"
	"fmt"
	"invest-ai-go/internal/model"
	"strings"
	"time"
)

// ErrUnavailable 表示新闻源调用失败。
var ErrUnavailable = errors.New("news unavailable")

// ErrNotConfigured 表示未配置 API Key，上层应视同没有新闻。
var ErrNotConfigured = fmt.Errorf("%w: api key not configured", ErrUnavailable)

// Provider 是具体的新闻源。
type Provider interface {
	Name() string
	Configured() bool
	Search(ctx context.Context, term string, limit int) ([]model.NewsItem, error)
	Headlines(ctx context.Context, limit int) ([]model.NewsItem, error)
}

// Gateway 定义了流水线使用的新闻接口。非 nil 错误一律包装 ErrUnavailable。
type Gateway interface {
	Name() string
	GetStockNews(ctx context.Context, symbol, companyName string, limit int) ([]model.NewsItem, error)
	GetMarketNews(ctx context.Context, limit int) ([]model.NewsItem, error)
	Probe(ctx context.Context) error
}

type gateway struct {
	provider Provider
	timeout  time.Duration
}

// NewGateway 创建一个新的 Gateway。
func NewGateway(provider Provider, timeout time.Duration) Gateway {
	return &gateway{provider: provider, timeout: timeout}
}

func (g *gateway) Name() string {
	return g.provider.Name()
}

// GetStockNews 先按代码、再按公司名检索，按标题去重（保留首次出现）后截断到 limit。
func (g *gateway) GetStockNews(ctx context.Context, symbol, companyName string, limit int) ([]model.NewsItem, error) {
	if !g.provider.Configured() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		return nil, nil
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	var merged []model.NewsItem
	for _, term := range []string{symbol, companyName} {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		items, err := g.provider.Search(ctx, term, limit)
		if err != nil {
			return nil, fmt.Errorf("%w: %s search %q: %v", ErrUnavailable, g.provider.Name(), term, err)
		}
		merged = append(merged, items...)
	}
	return truncate(dedupeByTitle(merged), limit), nil
}

// GetMarketNews 返回综合财经头条。
func (g *gateway) GetMarketNews(ctx context.Context, limit int) ([]model.NewsItem, error) {
	if !g.provider.Configured() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		return nil, nil
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	items, err := g.provider.Headlines(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s headlines: %v", ErrUnavailable, g.provider.Name(), err)
	}
	return truncate(dedupeByTitle(items), limit), nil
}

// Probe 用一次最小的头条请求检查新闻源是否可用。
func (g *gateway) Probe(ctx context.Context) error {
	_, err := g.GetMarketNews(ctx, 1)
	return err
}

func (g *gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func dedupeByTitle(items []model.NewsItem) []model.NewsItem {
	seen := make(map[string]struct{}, len(items))
	unique := make([]model.NewsItem, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Title]; ok {
			continue
		}
		seen[item.Title] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}

func truncate(items []model.NewsItem, limit int) []model.NewsItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
