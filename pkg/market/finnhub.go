package market

import (
	"context"
	"errors"
	"fmt"
	"invest-ai-go/internal/model"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
	"github.com/shopspring/decimal"
)

// FinnhubName 是 Finnhub 行情源对外展示的名称。
const FinnhubName = "Finnhub"

// Finnhub 的市值单位是百万美元。
var finnhubMarketCapUnit = decimal.NewFromInt(1_000_000)

type finnhubProvider struct {
	client *finnhub.DefaultApiService
}

// NewFinnhubProvider 创建基于 Finnhub 日线接口的数据源。
func NewFinnhubProvider(apiKey string) Provider {
	return newFinnhubProvider(apiKey, "")
}

func newFinnhubProvider(apiKey, serverURL string) *finnhubProvider {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	if serverURL != "" {
		cfg.Servers = finnhub.ServerConfigurations{{URL: serverURL}}
	}
	return &finnhubProvider{client: finnhub.NewAPIClient(cfg).DefaultApi}
}

func (p *finnhubProvider) Name() string {
	return FinnhubName
}

func (p *finnhubProvider) History(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	res, _, err := p.client.StockCandles(ctx).
		Symbol(symbol).
		Resolution("D").
		From(start.Unix()).
		To(end.Unix()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("candles for %s: %w", symbol, err)
	}
	if res.GetS() == "no_data" || res.T == nil {
		return []model.PriceBar{}, nil
	}

	ts, opens, highs, lows, closes, volumes := res.GetT(), res.GetO(), res.GetH(), res.GetL(), res.GetC(), res.GetV()
	n := len(ts)
	for _, l := range []int{len(opens), len(highs), len(lows), len(closes), len(volumes)} {
		if l != n {
			return nil, errors.New("candle arrays have mismatched lengths")
		}
	}

	bars := make([]model.PriceBar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, model.PriceBar{
			Date:   time.Unix(ts[i], 0).UTC(),
			Open:   decimal.NewFromFloat32(opens[i]),
			High:   decimal.NewFromFloat32(highs[i]),
			Low:    decimal.NewFromFloat32(lows[i]),
			Close:  decimal.NewFromFloat32(closes[i]),
			Volume: int64(volumes[i]),
		})
	}
	return bars, nil
}

func (p *finnhubProvider) Profile(ctx context.Context, symbol string) (*Profile, error) {
	res, _, err := p.client.CompanyProfile2(ctx).Symbol(symbol).Execute()
	if err != nil {
		return nil, fmt.Errorf("profile for %s: %w", symbol, err)
	}
	if res.MarketCapitalization == nil || *res.MarketCapitalization <= 0 {
		return nil, nil
	}
	marketCap := decimal.NewFromFloat32(*res.MarketCapitalization).Mul(finnhubMarketCapUnit)
	return &Profile{MarketCap: &marketCap}, nil
}
