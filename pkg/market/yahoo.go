package market

import (
	"context"
	"fmt"
	"invest-ai-go/internal/model"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"
)

// YahooName 是 Yahoo 数据源对外展示的名称。
const YahooName = "Yahoo Finance"

type yahooProvider struct{}

// NewYahooProvider 创建基于 Yahoo Finance 的数据源。
func NewYahooProvider() Provider {
	return &yahooProvider{}
}

func (p *yahooProvider) Name() string {
	return YahooName
}

func (p *yahooProvider) History(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	return await(ctx, func() ([]model.PriceBar, error) {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		bars := make([]model.PriceBar, 0)
		for iter.Next() {
			bar := iter.Bar()
			bars = append(bars, model.PriceBar{
				Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: int64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("failed to get chart for %s: %w", symbol, err)
		}
		return bars, nil
	})
}

func (p *yahooProvider) Profile(ctx context.Context, symbol string) (*Profile, error) {
	return await(ctx, func() (*Profile, error) {
		e, err := equity.Get(symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to get equity for %s: %w", symbol, err)
		}
		if e == nil {
			return nil, nil
		}

		profile := &Profile{}
		if e.MarketCap > 0 {
			marketCap := decimal.NewFromInt(e.MarketCap)
			profile.MarketCap = &marketCap
		}
		if e.RegularMarketVolume > 0 {
			v := int64(e.RegularMarketVolume)
			profile.Volume = &v
		}
		return profile, nil
	})
}

// await 让不支持 context 的 SDK 调用也能在 ctx 取消时提前返回。
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
