// Package ticker 从自然语言查询中识别股票代码，纯函数、不访问网络。
package ticker

import (
	"regexp"
	"sort"
	"strings"
)

type companyTicker struct {
	name   string
	symbol string
}

// companyTickers 按顺序匹配，第一个命中的公司名胜出。
var companyTickers = []companyTicker{
	{"apple", "AAPL"},
	{"microsoft", "MSFT"},
	{"google", "GOOGL"},
	{"alphabet", "GOOGL"},
	{"amazon", "AMZN"},
	{"tesla", "TSLA"},
	{"meta", "META"},
	{"facebook", "META"},
	{"netflix", "NFLX"},
	{"nvidia", "NVDA"},
	{"bitcoin", "BTC"},
	{"ethereum", "ETH"},
	{"spdr", "SPY"},
	{"s&p", "SPY"},
	{"nasdaq", "QQQ"},
}

var tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// 与真实代码同名的常用词（如 ALL）也会被丢弃。
var stopwords = map[string]struct{}{
	"THE": {}, "AND": {}, "FOR": {}, "ARE": {}, "BUT": {}, "NOT": {}, "YOU": {}, "ALL": {},
	"CAN": {}, "HER": {}, "WAS": {}, "ONE": {}, "OUR": {}, "OUT": {}, "DAY": {}, "GET": {},
	"HAS": {}, "HIM": {}, "HIS": {}, "HOW": {}, "ITS": {}, "MAY": {}, "NEW": {}, "NOW": {},
	"OLD": {}, "SEE": {}, "TWO": {}, "WAY": {}, "WHO": {}, "BOY": {}, "DID": {}, "LET": {},
	"PUT": {}, "SAY": {}, "SHE": {}, "TOO": {}, "USE": {},
}

// Extract 返回查询中最可能的股票代码。公司名字典优先于大写 token，
// 即使 token 在文本中出现得更早（"AAPL vs tesla" 返回 TSLA）。
func Extract(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, c := range companyTickers {
		if strings.Contains(lower, c.name) {
			return c.symbol, true
		}
	}

	for _, candidate := range tickerPattern.FindAllString(text, -1) {
		if _, skip := stopwords[candidate]; !skip {
			return candidate, true
		}
	}
	return "", false
}

// ExtractAll 返回查询中出现的全部股票代码（字典命中 ∪ 过滤后的 token），已去重并排序。
func ExtractAll(text string) []string {
	set := make(map[string]struct{})
	lower := strings.ToLower(text)
	for _, c := range companyTickers {
		if strings.Contains(lower, c.name) {
			set[c.symbol] = struct{}{}
		}
	}
	for _, candidate := range tickerPattern.FindAllString(text, -1) {
		if _, skip := stopwords[candidate]; !skip {
			set[candidate] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
