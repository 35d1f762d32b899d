package service

import (
	"context"
	"errors"
	"invest-ai-go/internal/model"
	"invest-ai-go/pkg/llm"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ *llm.GenerationParams) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func snapshot(price, change string, volume int64) *model.MarketSnapshot {
	s := &model.MarketSnapshot{
		Symbol:        "AAPL",
		CurrentPrice:  decimal.RequireFromString(price),
		ChangePercent: decimal.RequireFromString(change),
	}
	if volume > 0 {
		s.Volume = &volume
	}
	return s
}

func TestFallback_SnapshotOnly(t *testing.T) {
	in := SummaryInput{Query: "How is Apple doing?", Ticker: "AAPL", Snapshot: snapshot("175.20", "2.1", 0)}
	text := FallbackSummary(in)

	assert.Equal(t, "AAPL is currently trading at $175.20, up 2.1%.", text)
	assert.Contains(t, text, "up 2.1%")
	assert.Contains(t, text, "175.20")
	assert.NotContains(t, strings.ToLower(text), "recent news")
}

func TestFallback_DownAndFlat(t *testing.T) {
	text := FallbackSummary(SummaryInput{Ticker: "TSLA", Snapshot: snapshot("250.5", "-3.45", 0)})
	assert.Equal(t, "TSLA is currently trading at $250.50, down 3.45%.", text)

	text = FallbackSummary(SummaryInput{Ticker: "TSLA", Snapshot: snapshot("250", "0", 0)})
	assert.Equal(t, "TSLA is currently trading at $250.00, down 0%.", text)
}

func TestFallback_FullContext(t *testing.T) {
	desc := "Record iPhone sales"
	in := SummaryInput{
		Query:    "apple outlook",
		Ticker:   "AAPL",
		Snapshot: snapshot("175.2", "2.1", 0),
		News: []model.NewsItem{
			{Title: "Apple beats estimates", Description: &desc},
			{Title: "Apple faces probe"},
		},
		Sentiment: &model.SentimentResult{Label: model.SentimentPositive, Confidence: 0.4567, Polarity: 0.4567},
	}

	assert.Equal(t,
		"AAPL is currently trading at $175.20, up 2.1%. Recent news includes 2 relevant articles. Latest headline: Apple beats estimates Market sentiment appears positive with 45.7% confidence.",
		FallbackSummary(in))
}

func TestFallback_TickerWithoutSnapshot(t *testing.T) {
	text := FallbackSummary(SummaryInput{Query: "XYZ please", Ticker: "XYZ"})
	assert.Equal(t, "I found the ticker XYZ in your query, but I'm unable to fetch current market data at the moment. This could be due to market hours or data availability.", text)
}

func TestFallback_NoTicker(t *testing.T) {
	assert.Equal(t, greetingMessage, FallbackSummary(SummaryInput{Query: "Hello there"}))
	assert.Equal(t, greetingMessage, FallbackSummary(SummaryInput{Query: "hi!"}))

	// "this" 包含 "hi" 但不是问候
	text := FallbackSummary(SummaryInput{Query: "what is this market doing"})
	assert.True(t, strings.HasPrefix(text, "I understand you're asking about: 'what is this market doing'."))
	assert.Contains(t, text, "please mention a specific stock ticker")
}

func TestGenerate_UnavailableIsByteIdenticalToFallback(t *testing.T) {
	svc := NewSummaryService(nil, nil)
	in := SummaryInput{Query: "How is Apple doing?", Ticker: "AAPL", Snapshot: snapshot("175.20", "2.1", 1234)}

	want := FallbackSummary(in)
	for i := 0; i < 3; i++ {
		got := svc.Generate(context.Background(), in)
		assert.Equal(t, want, got.Text)
		assert.Equal(t, SummaryPathFallback, got.Path)
	}
}

func TestGenerate_GenerativePath(t *testing.T) {
	in := SummaryInput{Query: "How is Apple doing?", Ticker: "AAPL", Snapshot: snapshot("175.20", "2.1", 1234567)}
	prompt := BuildPrompt(in)
	client := &fakeLLM{reply: prompt + "Apple shares rose on strong demand for new devices.\nok\nAnalysts remain upbeat about services growth. Trailing fragm"}

	got := NewSummaryService(client, nil).Generate(context.Background(), in)
	assert.Equal(t, SummaryPathGenerative, got.Path)
	assert.Equal(t, "Apple shares rose on strong demand for new devices. Analysts remain upbeat about services growth.", got.Text)
	assert.Equal(t, prompt, client.prompt)
}

func TestGenerate_FallsBackOnErrorOrShortOutput(t *testing.T) {
	in := SummaryInput{Query: "tesla?", Ticker: "TSLA", Snapshot: snapshot("250", "1.5", 0)}
	want := FallbackSummary(in)

	for _, client := range []*fakeLLM{
		{err: errors.New("timeout")},
		{reply: ""},
		{reply: "Too short here."},
		// 清洗后恰好 20 个字符
		{reply: "Exactly twenty chars"},
	} {
		got := NewSummaryService(client, nil).Generate(context.Background(), in)
		assert.Equal(t, want, got.Text)
		assert.Equal(t, SummaryPathFallback, got.Path)
	}
}

func TestBuildPrompt(t *testing.T) {
	long := strings.Repeat("é", 150)
	in := SummaryInput{
		Query:    "How is Apple doing?",
		Ticker:   "AAPL",
		Snapshot: snapshot("175.2", "2.1", 1234567),
		News: []model.NewsItem{
			{Title: "one", Description: &long},
			{Title: "two"},
			{Title: "three"},
			{Title: "four"},
		},
		Sentiment: &model.SentimentResult{Label: model.SentimentNeutral, Confidence: 0.05},
	}
	prompt := BuildPrompt(in)

	require.True(t, strings.HasPrefix(prompt, "As an investment analyst, provide a concise summary for the following query: 'How is Apple doing?'.\n\n"))
	assert.Contains(t, prompt, "Stock: AAPL\nCurrent Price: $175.2\nChange: 2.1%\nVolume: 1,234,567\n")
	assert.Contains(t, prompt, "\nRecent News (4 articles):\n1. one\n   "+strings.Repeat("é", 100)+"...\n2. two\n3. three\n")
	assert.NotContains(t, prompt, "four")
	assert.Contains(t, prompt, "\nSentiment Analysis: Neutral (confidence: 0.05)\n")
	assert.True(t, strings.HasSuffix(prompt, "\nInvestment Summary:\n"))
}

func TestCleanGenerated(t *testing.T) {
	assert.Equal(t, "A complete sentence here! And another one?", CleanGenerated("A complete sentence here! And another one?"))
	assert.Equal(t, "First sentence is fine.", CleanGenerated("First sentence is fine. Then it trails"))
	assert.Equal(t, "no punctuation at all here", CleanGenerated("no punctuation at all here"))
	assert.Equal(t, "Line number one is long. Line number two is long.", CleanGenerated("Line number one is long.\n short\n\nLine number two is long."))
	assert.Empty(t, CleanGenerated(""))
}
