package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinnhubProvider_HistoryAndProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Finnhub-Token"))
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/stock/candle":
			assert.Equal(t, "D", q.Get("resolution"))
			assert.Equal(t, "1772323200", q.Get("from"))
			if q.Get("symbol") == "NONE" {
				_ = json.NewEncoder(w).Encode(map[string]any{"s": "no_data"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"s": "ok",
				"t": []int64{1772409600, 1772496000},
				"o": []float64{170, 171},
				"h": []float64{171, 176},
				"l": []float64{169, 170},
				"c": []float64{170.5, 175.25},
				"v": []float64{1000, 2000},
			})
		case "/stock/profile2":
			assert.Equal(t, "AAPL", q.Get("symbol"))
			_ = json.NewEncoder(w).Encode(map[string]any{"ticker": "AAPL", "marketCapitalization": 2800000})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := newFinnhubProvider("secret", srv.URL)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	bars, err := p.History(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, "175.25", bars[1].Close.String())
	assert.Equal(t, "176", bars[1].High.String())
	assert.Equal(t, int64(2000), bars[1].Volume)

	bars, err = p.History(context.Background(), "NONE", start, end)
	require.NoError(t, err)
	assert.Empty(t, bars)

	profile, err := p.Profile(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, profile.MarketCap)
	assert.Equal(t, "2800000000000", profile.MarketCap.String())
	assert.Nil(t, profile.Volume)
}

func TestFinnhubProvider_SnapshotThroughGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/stock/candle" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"s": "ok",
				"t": []int64{1772409600, 1772496000},
				"o": []float64{100, 100},
				"h": []float64{100, 110},
				"l": []float64{100, 100},
				"c": []float64{100, 110},
				"v": []float64{10, 20},
			})
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGateway(newFinnhubProvider("secret", srv.URL), time.Second)
	snapshot, err := g.GetSnapshot(context.Background(), "msft")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, "MSFT", snapshot.Symbol)
	assert.Equal(t, "110", snapshot.CurrentPrice.String())
	assert.Equal(t, "10", snapshot.ChangePercent.String())
	assert.Nil(t, snapshot.MarketCap)
	require.NotNil(t, snapshot.Volume)
	assert.Equal(t, int64(20), *snapshot.Volume)
}

func TestFinnhubProvider_ErrorsWrapUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGateway(newFinnhubProvider("bad", srv.URL), time.Second)
	snapshot, err := g.GetSnapshot(context.Background(), "AAPL")
	assert.Nil(t, snapshot)
	assert.ErrorIs(t, err, ErrUnavailable)
}
