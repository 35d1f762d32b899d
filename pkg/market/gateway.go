// Package market 封装行情数据源，对上层只暴露快照、历史和代码校验三种能力。
package market

import (
	"context"
	"errors"
	"fmt"
	"invest-ai-go/internal/model"
	"invest-ai-go/pkg/log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable 表示数据源调用失败（网络错误、响应异常、超时）。
var ErrUnavailable = errors.New("market data unavailable")

// ErrUnknownPeriod 表示历史区间参数不受支持。
var ErrUnknownPeriod = errors.New("unknown period")

// ErrUnknownProvider 表示配置了不支持的行情源。
var ErrUnknownProvider = errors.New("unknown market provider")

// Profile 是数据源给出的附加信息，字段都可能缺失。
type Profile struct {
	MarketCap *decimal.Decimal
	Volume    *int64
}

// Provider 是具体的行情数据源。
type Provider interface {
	Name() string
	History(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error)
	Profile(ctx context.Context, symbol string) (*Profile, error)
}

// Gateway 定义了流水线使用的行情接口。
// 返回 (nil, nil) 表示数据源没有该代码的数据；非 nil 错误一律包装 ErrUnavailable。
type Gateway interface {
	Name() string
	GetSnapshot(ctx context.Context, symbol string) (*model.MarketSnapshot, error)
	GetHistory(ctx context.Context, symbol, period string) ([]model.PriceBar, error)
	ValidateTicker(ctx context.Context, symbol string) bool
}

// 以自然日计的回看窗口，保证覆盖到周末和节假日之前的交易日。
const snapshotWindow = 7 * 24 * time.Hour

// Periods 是 GetHistory 支持的区间，按跨度升序。
var Periods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

var periodStart = map[string]func(end time.Time) time.Time{
	// 1d 先取近一周，再截取最后一个交易日
	"1d":  func(end time.Time) time.Time { return end.Add(-snapshotWindow) },
	"5d":  daysBefore(7),
	"1mo": daysBefore(31),
	"3mo": daysBefore(92),
	"6mo": daysBefore(183),
	"1y":  daysBefore(365),
	"2y":  yearsBefore(2),
	"5y":  yearsBefore(5),
	"10y": yearsBefore(10),
	"ytd": func(end time.Time) time.Time { return time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, end.Location()) },
	"max": func(time.Time) time.Time { return time.Unix(0, 0).UTC() },
}

func daysBefore(days int) func(time.Time) time.Time {
	return func(end time.Time) time.Time { return end.AddDate(0, 0, -days) }
}

func yearsBefore(years int) func(time.Time) time.Time {
	return func(end time.Time) time.Time { return end.AddDate(-years, 0, 0) }
}

// NewProvider 按名称创建行情源：yahoo（默认）或 finnhub。
func NewProvider(name, finnhubAPIKey string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "yahoo":
		return NewYahooProvider(), nil
	case "finnhub":
		if finnhubAPIKey == "" {
			return nil, errors.New("finnhub api key is required")
		}
		return NewFinnhubProvider(finnhubAPIKey), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

type gateway struct {
	provider Provider
	timeout  time.Duration
	now      func() time.Time
}

// NewGateway 创建一个新的 Gateway，每次数据源调用都受 timeout 约束。
func NewGateway(provider Provider, timeout time.Duration) Gateway {
	return &gateway{provider: provider, timeout: timeout, now: time.Now}
}

func (g *gateway) Name() string {
	return g.provider.Name()
}

// GetSnapshot 取最近两个交易日的收盘价计算涨跌幅，价格和涨跌幅都保留 2 位小数。
func (g *gateway) GetSnapshot(ctx context.Context, symbol string) (*model.MarketSnapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	end := g.now()
	bars, err := g.provider.History(ctx, symbol, end.Add(-snapshotWindow), end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s history for %s: %v", ErrUnavailable, g.provider.Name(), symbol, err)
	}
	if len(bars) == 0 {
		return nil, nil
	}

	latest := bars[len(bars)-1]
	previous := latest
	if len(bars) > 1 {
		previous = bars[len(bars)-2]
	}

	snapshot := &model.MarketSnapshot{
		Symbol:        symbol,
		CurrentPrice:  latest.Close.Round(2),
		ChangePercent: ChangePercent(latest.Close, previous.Close),
	}
	if latest.Volume > 0 {
		v := latest.Volume
		snapshot.Volume = &v
	}

	profile, err := g.provider.Profile(ctx, symbol)
	if err != nil {
		log.Debugf("[Market] %s 未返回 %s 的附加信息: %v", g.provider.Name(), symbol, err)
	} else if profile != nil {
		snapshot.MarketCap = profile.MarketCap
		if snapshot.Volume == nil {
			snapshot.Volume = profile.Volume
		}
	}
	return snapshot, nil
}

// GetHistory 返回指定区间的日线；区间不支持时返回 ErrUnknownPeriod。
func (g *gateway) GetHistory(ctx context.Context, symbol, period string) ([]model.PriceBar, error) {
	start, ok := periodStart[period]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	end := g.now()
	bars, err := g.provider.History(ctx, symbol, start(end), end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s history for %s: %v", ErrUnavailable, g.provider.Name(), symbol, err)
	}
	if len(bars) == 0 {
		return nil, nil
	}
	if period == "1d" {
		bars = bars[len(bars)-1:]
	}
	return bars, nil
}

// ValidateTicker 只要数据源能给出近期历史就认为代码有效，任何错误都视为无效。
func (g *gateway) ValidateTicker(ctx context.Context, symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return false
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	end := g.now()
	bars, err := g.provider.History(ctx, symbol, end.Add(-snapshotWindow), end)
	if err != nil {
		log.Warnw("[Market] 校验代码失败", "provider", g.provider.Name(), "symbol", symbol, "error", err)
		return false
	}
	return len(bars) > 0
}

func (g *gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// ChangePercent 计算 (current-previous)/previous*100，保留 2 位小数；previous 为 0 时返回 0。
func ChangePercent(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}
