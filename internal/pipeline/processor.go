// Package pipeline 定义了一次投资问答的核心编排流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"invest-ai-go/internal/model"
	"invest-ai-go/internal/sentiment"
	"invest-ai-go/internal/service"
	"invest-ai-go/internal/ticker"
	"invest-ai-go/pkg/events"
	"invest-ai-go/pkg/log"
	"invest-ai-go/pkg/market"
	"invest-ai-go/pkg/metrics"
	"invest-ai-go/pkg/news"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxQueryLength 是单次查询允许的最大字符数。
const MaxQueryLength = 500

const (
	defaultNewsLimit = 3
	publishTimeout   = 2 * time.Second
)

// ErrInvalidQuery 表示查询为空或过长。
var ErrInvalidQuery = errors.New("invalid query")

// EventPublisher 发布问答已落库事件，可选。
type EventPublisher interface {
	PublishMessageLogged(ctx context.Context, event events.MessageLogged) error
}

// Query 是一次问答请求。SessionID 为空时自动生成。
type Query struct {
	Text      string
	SessionID string
	UserID    *int64
	Endpoint  string
}

// Result 是一次问答的完整结果。
type Result struct {
	Query       string
	Ticker      *string
	Snapshot    *model.MarketSnapshot
	News        []model.NewsItem
	Sentiment   *model.SentimentResult
	Summary     string
	SummaryPath string
	SessionID   string
	Timestamp   time.Time
}

// Processor 封装了问答编排的所有依赖。
type Processor struct {
	market        market.Gateway
	news          news.Gateway
	scorer        sentiment.Scorer
	summary       service.SummaryService
	conversations service.ConversationService
	publisher     EventPublisher
	metrics       *metrics.Metrics
	newsLimit     int
	newID         func() string
	now           func() time.Time
}

// NewProcessor 创建一个新的 Processor 实例。publisher 与 m 可以为 nil。
func NewProcessor(
	marketGateway market.Gateway,
	newsGateway news.Gateway,
	scorer sentiment.Scorer,
	summary service.SummaryService,
	conversations service.ConversationService,
	publisher EventPublisher,
	m *metrics.Metrics,
	newsLimit int,
) *Processor {
	if newsLimit <= 0 {
		newsLimit = defaultNewsLimit
	}
	return &Processor{
		market:        marketGateway,
		news:          newsGateway,
		scorer:        scorer,
		summary:       summary,
		conversations: conversations,
		publisher:     publisher,
		metrics:       m,
		newsLimit:     newsLimit,
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

// Validate 检查查询文本是否合法。
func Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: query must not be empty", ErrInvalidQuery)
	}
	if utf8.RuneCountInString(text) > MaxQueryLength {
		return fmt.Errorf("%w: query exceeds %d characters", ErrInvalidQuery, MaxQueryLength)
	}
	return nil
}

// Process 是问答处理的主函数。外部数据源失败只会降级，落库失败才返回错误。
func (p *Processor) Process(ctx context.Context, q Query) (*Result, error) {
	if err := Validate(q.Text); err != nil {
		return nil, err
	}
	sessionID := q.SessionID
	if sessionID == "" {
		sessionID = p.newID()
	}
	p.metrics.RecordQuery(q.Endpoint)

	result := &Result{
		Query:     q.Text,
		News:      []model.NewsItem{},
		SessionID: sessionID,
	}

	// 1. 识别股票代码
	symbol, found := ticker.Extract(q.Text)
	if found {
		result.Ticker = &symbol
		log.Infof("[Processor] 识别到股票代码: %s, SessionID: %s", symbol, sessionID)

		// 2. 拉取行情快照
		result.Snapshot = p.fetchSnapshot(ctx, symbol)
	}

	// 3. 只有行情存在时才拉取新闻并分析情绪
	if result.Snapshot != nil {
		if items := p.fetchNews(ctx, symbol); len(items) > 0 {
			result.News = items
			texts := make([]string, 0, len(items))
			for _, item := range items {
				desc := ""
				if item.Description != nil {
					desc = *item.Description
				}
				texts = append(texts, item.Title+" "+desc)
			}
			overall := sentiment.Summarize(p.scorer.ScoreBatch(texts))
			result.Sentiment = &overall
		}
	}

	// 4. 生成摘要
	summary := p.summary.Generate(ctx, service.SummaryInput{
		Query:     q.Text,
		Ticker:    symbol,
		Snapshot:  result.Snapshot,
		News:      result.News,
		Sentiment: result.Sentiment,
	})
	result.Summary = summary.Text
	result.SummaryPath = summary.Path
	p.metrics.RecordSummary(summary.Path)

	// 5. 持久化
	var label *string
	if result.Sentiment != nil {
		l := result.Sentiment.Label
		label = &l
	}
	message := &model.ChatMessage{
		SessionID:      sessionID,
		UserQuery:      q.Text,
		AIResponse:     summary.Text,
		TickerSymbol:   result.Ticker,
		SentimentLabel: label,
	}
	if err := p.conversations.AddMessageToConversation(ctx, message); err != nil {
		log.Errorf("[Processor] 保存对话失败, SessionID: %s, Error: %v", sessionID, err)
		return nil, fmt.Errorf("保存对话失败: %w", err)
	}
	result.Timestamp = p.now().UTC()

	// 6. 发布事件，失败不影响响应
	p.publish(ctx, events.NewMessageLogged(sessionID, q.UserID, result.Ticker, label, summary.Path, result.Timestamp))

	log.Infow("[Processor] 问答处理完成", "session_id", sessionID, "ticker", symbol, "summary_path", summary.Path, "news", len(result.News))
	return result, nil
}

func (p *Processor) fetchSnapshot(ctx context.Context, symbol string) *model.MarketSnapshot {
	snapshot, err := p.market.GetSnapshot(ctx, symbol)
	if err != nil {
		log.Warnw("[Processor] 获取行情失败", "symbol", symbol, "error", err)
		p.metrics.RecordGatewayUnavailable("market")
		return nil
	}
	if snapshot == nil {
		log.Infof("[Processor] %s 无行情数据", symbol)
	}
	return snapshot
}

func (p *Processor) fetchNews(ctx context.Context, symbol string) []model.NewsItem {
	items, err := p.news.GetStockNews(ctx, symbol, "", p.newsLimit)
	switch {
	case err == nil:
		return items
	case errors.Is(err, news.ErrNotConfigured):
		log.Debugf("[Processor] 新闻源未配置，跳过新闻")
	default:
		log.Warnw("[Processor] 获取新闻失败", "symbol", symbol, "error", err)
		p.metrics.RecordGatewayUnavailable("news")
	}
	return nil
}

func (p *Processor) publish(ctx context.Context, event events.MessageLogged) {
	if p.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.publisher.PublishMessageLogged(ctx, event); err != nil {
		log.Warnw("[Processor] 发布事件失败", "session_id", event.SessionID, "error", err)
		p.metrics.RecordEventPublishFailure()
	}
}
