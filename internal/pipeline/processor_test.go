package pipeline

import (
	"context"
	"errors"
	"invest-ai-go/internal/model"
	"invest-ai-go/internal/sentiment"
	"invest-ai-go/internal/service"
	"invest-ai-go/pkg/events"
	"invest-ai-go/pkg/metrics"
	"invest-ai-go/pkg/news"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMarket struct {
	snapshot *model.MarketSnapshot
	err      error
	calls    []string
}

func (s *stubMarket) Name() string { return "Stub Market" }
func (s *stubMarket) GetSnapshot(_ context.Context, symbol string) (*model.MarketSnapshot, error) {
	s.calls = append(s.calls, symbol)
	return s.snapshot, s.err
}
func (s *stubMarket) GetHistory(context.Context, string, string) ([]model.PriceBar, error) {
	return nil, nil
}
func (s *stubMarket) ValidateTicker(context.Context, string) bool { return s.snapshot != nil }

type stubNews struct {
	items []model.NewsItem
	err   error
	calls int
}

func (s *stubNews) Name() string { return "Stub News" }
func (s *stubNews) GetStockNews(context.Context, string, string, int) ([]model.NewsItem, error) {
	s.calls++
	return s.items, s.err
}
func (s *stubNews) GetMarketNews(context.Context, int) ([]model.NewsItem, error) { return nil, nil }
func (s *stubNews) Probe(context.Context) error                                  { return nil }

type polarityTable map[string]float64

func (p polarityTable) Polarity(text string) (float64, error) {
	for k, v := range p {
		if strings.Contains(text, k) {
			return v, nil
		}
	}
	return 0, nil
}

type recordingSummary struct {
	inputs []service.SummaryInput
}

func (r *recordingSummary) Generate(_ context.Context, in service.SummaryInput) service.Summary {
	r.inputs = append(r.inputs, in)
	return service.Summary{Text: "summary for " + in.Ticker, Path: service.SummaryPathFallback}
}

type memoryConversations struct {
	service.ConversationService
	messages []model.ChatMessage
	err      error
}

func (m *memoryConversations) AddMessageToConversation(_ context.Context, message *model.ChatMessage) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, *message)
	return nil
}

type stubPublisher struct {
	events []events.MessageLogged
	err    error
}

func (s *stubPublisher) PublishMessageLogged(_ context.Context, event events.MessageLogged) error {
	s.events = append(s.events, event)
	return s.err
}

type fixture struct {
	market    *stubMarket
	news      *stubNews
	summary   *recordingSummary
	store     *memoryConversations
	publisher *stubPublisher
	metrics   *metrics.Metrics
	processor *Processor
}

func newFixture() *fixture {
	desc := "Strong quarter"
	f := &fixture{
		market: &stubMarket{snapshot: &model.MarketSnapshot{
			Symbol:        "AAPL",
			CurrentPrice:  decimal.RequireFromString("175.2"),
			ChangePercent: decimal.RequireFromString("2.1"),
		}},
		news: &stubNews{items: []model.NewsItem{
			{Title: "Apple rallies", Description: &desc},
			{Title: "Apple slips"},
		}},
		summary:   &recordingSummary{},
		store:     &memoryConversations{},
		publisher: &stubPublisher{},
		metrics:   metrics.New(),
	}
	scorer := sentiment.NewScorer(polarityTable{"rallies": 0.6, "slips": -0.2})
	f.processor = NewProcessor(f.market, f.news, scorer, f.summary, f.store, f.publisher, f.metrics, 3)
	f.processor.newID = func() string { return "generated-id" }
	f.processor.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return f
}

func TestProcess_FullContext(t *testing.T) {
	f := newFixture()
	userID := int64(7)

	res, err := f.processor.Process(context.Background(), Query{Text: "How is Apple doing?", UserID: &userID, Endpoint: "chat"})
	require.NoError(t, err)

	require.NotNil(t, res.Ticker)
	assert.Equal(t, "AAPL", *res.Ticker)
	assert.Equal(t, "generated-id", res.SessionID)
	assert.Len(t, res.News, 2)
	require.NotNil(t, res.Sentiment)
	assert.Equal(t, model.SentimentPositive, res.Sentiment.Label)
	assert.InDelta(t, 0.2, res.Sentiment.Polarity, 1e-9)
	assert.InDelta(t, 0.2, res.Sentiment.Confidence, 1e-9)
	assert.Equal(t, "summary for AAPL", res.Summary)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), res.Timestamp)

	require.Len(t, f.store.messages, 1)
	msg := f.store.messages[0]
	assert.Equal(t, "generated-id", msg.SessionID)
	assert.Equal(t, "How is Apple doing?", msg.UserQuery)
	assert.Equal(t, "summary for AAPL", msg.AIResponse)
	require.NotNil(t, msg.SentimentLabel)
	assert.Equal(t, model.SentimentPositive, *msg.SentimentLabel)

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, events.TypeMessageLogged, event.Type)
	assert.Equal(t, &userID, event.UserID)
	assert.Equal(t, service.SummaryPathFallback, event.SummaryPath)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.QueriesTotal.WithLabelValues("chat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SummariesTotal.WithLabelValues(service.SummaryPathFallback)))
}

func TestProcess_KeepsProvidedSessionID(t *testing.T) {
	f := newFixture()
	res, err := f.processor.Process(context.Background(), Query{Text: "TSLA today", SessionID: "existing"})
	require.NoError(t, err)
	assert.Equal(t, "existing", res.SessionID)
	assert.Equal(t, "existing", f.store.messages[0].SessionID)
}

func TestProcess_NoTickerSkipsGateways(t *testing.T) {
	f := newFixture()
	res, err := f.processor.Process(context.Background(), Query{Text: "hello there"})
	require.NoError(t, err)

	assert.Nil(t, res.Ticker)
	assert.Nil(t, res.Snapshot)
	assert.NotNil(t, res.News)
	assert.Empty(t, res.News)
	assert.Nil(t, res.Sentiment)
	assert.Empty(t, f.market.calls)
	assert.Zero(t, f.news.calls)
	assert.Nil(t, f.store.messages[0].TickerSymbol)
	assert.Nil(t, f.store.messages[0].SentimentLabel)
	assert.Equal(t, "", f.summary.inputs[0].Ticker)
}

func TestProcess_MarketFailureDegrades(t *testing.T) {
	f := newFixture()
	f.market.snapshot = nil
	f.market.err = errors.New("upstream down")

	res, err := f.processor.Process(context.Background(), Query{Text: "How is Apple doing?"})
	require.NoError(t, err)

	require.NotNil(t, res.Ticker)
	assert.Nil(t, res.Snapshot)
	assert.Empty(t, res.News)
	assert.Nil(t, res.Sentiment)
	assert.Zero(t, f.news.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GatewayUnavailableTotal.WithLabelValues("market")))
}

func TestProcess_NewsFailureDegrades(t *testing.T) {
	f := newFixture()
	f.news.items = nil
	f.news.err = news.ErrUnavailable

	res, err := f.processor.Process(context.Background(), Query{Text: "How is Apple doing?"})
	require.NoError(t, err)
	assert.NotNil(t, res.Snapshot)
	assert.Empty(t, res.News)
	assert.Nil(t, res.Sentiment)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GatewayUnavailableTotal.WithLabelValues("news")))
}

func TestProcess_NewsNotConfiguredIsQuiet(t *testing.T) {
	f := newFixture()
	f.news.items = nil
	f.news.err = news.ErrNotConfigured

	res, err := f.processor.Process(context.Background(), Query{Text: "How is Apple doing?"})
	require.NoError(t, err)
	assert.Empty(t, res.News)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.GatewayUnavailableTotal.WithLabelValues("news")))
}

func TestProcess_PersistenceFailurePropagates(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("disk full")

	res, err := f.processor.Process(context.Background(), Query{Text: "How is Apple doing?"})
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, f.publisher.events)
}

func TestProcess_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")

	res, err := f.processor.Process(context.Background(), Query{Text: "How is Apple doing?"})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventPublishFailures))
}

func TestProcess_NilPublisher(t *testing.T) {
	f := newFixture()
	f.processor.publisher = nil
	_, err := f.processor.Process(context.Background(), Query{Text: "How is Apple doing?"})
	assert.NoError(t, err)
}

func TestProcess_RejectsInvalidQuery(t *testing.T) {
	f := newFixture()
	for _, text := range []string{"", "   ", strings.Repeat("a", MaxQueryLength+1)} {
		_, err := f.processor.Process(context.Background(), Query{Text: text})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	}
	assert.Empty(t, f.store.messages)

	assert.NoError(t, Validate(strings.Repeat("é", MaxQueryLength)))
}
