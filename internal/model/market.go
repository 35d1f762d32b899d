package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 情绪标签
const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

// MarketSnapshot 是某只股票在某一时刻的行情快照。
type MarketSnapshot struct {
	Symbol        string
	CurrentPrice  decimal.Decimal
	ChangePercent decimal.Decimal
	Volume        *int64
	MarketCap     *decimal.Decimal
}

// PriceBar 是一根日线。
type PriceBar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// NewsItem 是一条新闻。
type NewsItem struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Source      string  `json:"source"`
	PublishedAt string  `json:"published_at"`
	URL         string  `json:"url"`
}

// SentimentResult 是单条文本（或聚合后）的情绪结果。
type SentimentResult struct {
	Label      string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Polarity   float64 `json:"polarity"`
}

// AggregateSentiment 是一批文本的整体情绪。
type AggregateSentiment struct {
	Overall         string  `json:"overall_sentiment"`
	AveragePolarity float64 `json:"average_polarity"`
	PositiveCount   int     `json:"positive_count"`
	NegativeCount   int     `json:"negative_count"`
	NeutralCount    int     `json:"neutral_count"`
	TotalArticles   int     `json:"total_articles"`
}
