package news

import (
	"context"
	"encoding/json"
	"errors"
	"invest-ai-go/internal/model"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	configured bool
	results    map[string][]model.NewsItem
	err        error
	searched   []string
}

func (s *stubProvider) Name() string     { return "Stub" }
func (s *stubProvider) Configured() bool { return s.configured }

func (s *stubProvider) Search(_ context.Context, term string, _ int) ([]model.NewsItem, error) {
	s.searched = append(s.searched, term)
	return s.results[term], s.err
}

func (s *stubProvider) Headlines(_ context.Context, _ int) ([]model.NewsItem, error) {
	return s.results["*"], s.err
}

func titles(items []model.NewsItem) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Title)
	}
	return out
}

func TestGetStockNews_MergeDedupeTruncate(t *testing.T) {
	p := &stubProvider{configured: true, results: map[string][]model.NewsItem{
		"AAPL":  {{Title: "a"}, {Title: "b"}},
		"Apple": {{Title: "b", Source: "dup"}, {Title: "c"}, {Title: "d"}},
	}}
	g := NewGateway(p, time.Second)

	items, err := g.GetStockNews(context.Background(), "AAPL", "Apple", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titles(items))
	assert.Empty(t, items[1].Source)
	assert.Equal(t, []string{"AAPL", "Apple"}, p.searched)
}

func TestGetStockNews_SkipsBlankCompany(t *testing.T) {
	p := &stubProvider{configured: true, results: map[string][]model.NewsItem{
		"TSLA": {{Title: "x"}, {Title: "x"}},
	}}
	items, err := NewGateway(p, 0).GetStockNews(context.Background(), "TSLA", "  ", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, titles(items))
	assert.Equal(t, []string{"TSLA"}, p.searched)
}

func TestGetStockNews_NotConfigured(t *testing.T) {
	p := &stubProvider{}
	items, err := NewGateway(p, time.Second).GetStockNews(context.Background(), "AAPL", "", 3)
	assert.Nil(t, items)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, p.searched)
}

func TestGetStockNews_ProviderFailure(t *testing.T) {
	p := &stubProvider{configured: true, err: errors.New("rate limited")}
	items, err := NewGateway(p, time.Second).GetStockNews(context.Background(), "AAPL", "", 3)
	assert.Nil(t, items)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}

func TestNewsAPIProvider_Everything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/everything", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "AAPL", q.Get("q"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, "2", q.Get("pageSize"))
		assert.Equal(t, "secret", q.Get("apiKey"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"articles": []map[string]any{
				{"title": "Apple beats", "description": "Strong quarter", "source": map[string]any{"name": "Reuters"}, "publishedAt": "2024-05-01T10:00:00Z", "url": "https://example.com/1"},
				{"title": "Apple slips", "description": nil, "source": map[string]any{}, "publishedAt": "2024-05-01T09:00:00Z", "url": "https://example.com/2"},
				{"title": "ignored", "source": map[string]any{"name": "X"}},
			},
		})
	}))
	defer srv.Close()

	p := NewNewsAPIProvider(srv.URL, "secret", time.Second)
	items, err := p.Search(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Apple beats", items[0].Title)
	require.NotNil(t, items[0].Description)
	assert.Equal(t, "Strong quarter", *items[0].Description)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.Equal(t, "2024-05-01T10:00:00Z", items[0].PublishedAt)

	assert.Nil(t, items[1].Description)
	assert.Equal(t, "Unknown", items[1].Source)
}

func TestNewsAPIProvider_TopHeadlinesAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/top-headlines" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
			return
		}
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		assert.Equal(t, "business", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`{"status":"ok","articles":[{"title":"Markets rally","source":{"name":"AP"}}]}`))
	}))
	defer srv.Close()

	g := NewGateway(NewNewsAPIProvider(srv.URL, "k", time.Second), time.Second)

	items, err := g.GetMarketNews(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Markets rally"}, titles(items))
	assert.NoError(t, g.Probe(context.Background()))

	_, err = g.GetStockNews(context.Background(), "AAPL", "", 3)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewsAPIProvider_NotConfigured(t *testing.T) {
	g := NewGateway(NewNewsAPIProvider("http://127.0.0.1:1", "", time.Second), time.Second)
	assert.ErrorIs(t, g.Probe(context.Background()), ErrNotConfigured)
}

func TestToNewsItem(t *testing.T) {
	headline, summary, empty := "Fed holds", "Rates unchanged", ""
	ts := int64(1714557600)

	item := toNewsItem(&headline, &summary, &empty, nil, &ts)
	assert.Equal(t, "Fed holds", item.Title)
	require.NotNil(t, item.Description)
	assert.Equal(t, "Rates unchanged", *item.Description)
	assert.Equal(t, "Unknown", item.Source)
	assert.Equal(t, "2024-05-01T10:00:00Z", item.PublishedAt)
	assert.Empty(t, item.URL)
}
