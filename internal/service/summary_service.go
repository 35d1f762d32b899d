// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"invest-ai-go/internal/model"
	"invest-ai-go/pkg/llm"
	"invest-ai-go/pkg/log"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	SummaryPathGenerative = "generative"
	SummaryPathFallback   = "fallback"
)

const (
	minGeneratedLength   = 20
	minLineLength        = 10
	minFallbackLength    = 30
	promptNewsLimit      = 3
	promptDescriptionCap = 100
)

const greetingMessage = "Hello! I'm InvestAI, your AI-powered investment research assistant. Ask me about any stock or investment topic, and I'll provide you with real-time data, news analysis, and AI insights. For example, try asking 'How is Apple stock doing today?' or 'Tell me about Tesla's recent performance.'"

var greetingPattern = regexp.MustCompile(`(?i)\b(hello|hi)\b`)

// SummaryInput 是生成摘要所需的全部上下文，Ticker 为空表示未识别到股票代码。
type SummaryInput struct {
	Query     string
	Ticker    string
	Snapshot  *model.MarketSnapshot
	News      []model.NewsItem
	Sentiment *model.SentimentResult
}

// Summary 是生成结果以及它走的路径。
type Summary struct {
	Text string
	Path string
}

// SummaryService 定义了摘要生成能力。Generate 永远返回非空文本。
type SummaryService interface {
	Generate(ctx context.Context, in SummaryInput) Summary
}

type summaryService struct {
	client llm.Client
	gen    *llm.GenerationParams
}

// NewSummaryService 创建一个新的 SummaryService。client 为 nil 表示文本生成不可用，始终走模板。
func NewSummaryService(client llm.Client, gen *llm.GenerationParams) SummaryService {
	return &summaryService{client: client, gen: gen}
}

func (s *summaryService) Generate(ctx context.Context, in SummaryInput) Summary {
	if s.client == nil {
		log.Debugf("[Summary] 文本生成不可用，使用模板")
		return Summary{Text: FallbackSummary(in), Path: SummaryPathFallback}
	}

	prompt := BuildPrompt(in)
	generated, err := s.client.Generate(ctx, prompt, s.gen)
	if err != nil {
		log.Warnw("[Summary] 文本生成失败，使用模板", "client", s.client.Name(), "error", err)
		return Summary{Text: FallbackSummary(in), Path: SummaryPathFallback}
	}

	cleaned := CleanGenerated(strings.TrimSpace(strings.TrimPrefix(generated, prompt)))
	if len(cleaned) <= minGeneratedLength {
		log.Warnf("[Summary] 生成结果过短(%d 字符)，使用模板", len(cleaned))
		return Summary{Text: FallbackSummary(in), Path: SummaryPathFallback}
	}
	log.Infof("[Summary] 生成摘要成功: %d 字符", len(cleaned))
	return Summary{Text: cleaned, Path: SummaryPathGenerative}
}

// BuildPrompt 把查询、行情、新闻和情绪拼成给模型的提示词。
func BuildPrompt(in SummaryInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "As an investment analyst, provide a concise summary for the following query: '%s'.\n\n", in.Query)

	if in.Ticker != "" {
		fmt.Fprintf(&b, "Stock: %s\n", in.Ticker)
		if in.Snapshot != nil {
			fmt.Fprintf(&b, "Current Price: $%s\n", in.Snapshot.CurrentPrice.String())
			fmt.Fprintf(&b, "Change: %s%%\n", in.Snapshot.ChangePercent.String())
			if in.Snapshot.Volume != nil && *in.Snapshot.Volume != 0 {
				fmt.Fprintf(&b, "Volume: %s\n", humanize.Comma(*in.Snapshot.Volume))
			}
		}
	}

	if len(in.News) > 0 {
		fmt.Fprintf(&b, "\nRecent News (%d articles):\n", len(in.News))
		for i, item := range in.News {
			if i == promptNewsLimit {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.Title)
			if item.Description != nil && *item.Description != "" {
				fmt.Fprintf(&b, "   %s...\n", truncateRunes(*item.Description, promptDescriptionCap))
			}
		}
	}

	if in.Sentiment != nil {
		fmt.Fprintf(&b, "\nSentiment Analysis: %s (confidence: %s)\n",
			in.Sentiment.Label, strconv.FormatFloat(in.Sentiment.Confidence, 'f', -1, 64))
	}

	b.WriteString("\nInvestment Summary:\n")
	return b.String()
}

// CleanGenerated 截断到最后一个完整句子，丢弃过短的行，再用单个空格拼接。
func CleanGenerated(text string) string {
	if text != "" && !strings.ContainsAny(text[len(text)-1:], ".!?") {
		if last := strings.LastIndexAny(text, ".!?"); last > 0 {
			text = text[:last+1]
		}
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > minLineLength {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

// FallbackSummary 是确定性的模板摘要，相同输入总是得到相同输出。
func FallbackSummary(in SummaryInput) string {
	if in.Ticker == "" {
		if greetingPattern.MatchString(in.Query) {
			return greetingMessage
		}
		return fmt.Sprintf("I understand you're asking about: '%s'. To provide you with detailed investment analysis, please mention a specific stock ticker (like AAPL, TSLA, MSFT) or company name. I can then give you real-time prices, recent news, sentiment analysis, and AI-powered insights.", in.Query)
	}

	var parts []string
	if in.Snapshot != nil {
		direction := "down"
		if in.Snapshot.ChangePercent.IsPositive() {
			direction = "up"
		}
		parts = append(parts, fmt.Sprintf("%s is currently trading at $%s, %s %s%%.",
			in.Ticker, in.Snapshot.CurrentPrice.StringFixed(2), direction, in.Snapshot.ChangePercent.Abs().String()))
	} else {
		parts = append(parts, fmt.Sprintf("I found the ticker %s in your query, but I'm unable to fetch current market data at the moment. This could be due to market hours or data availability.", in.Ticker))
	}

	if len(in.News) > 0 {
		parts = append(parts, fmt.Sprintf("Recent news includes %d relevant articles.", len(in.News)))
		parts = append(parts, fmt.Sprintf("Latest headline: %s", in.News[0].Title))
	}

	if in.Sentiment != nil {
		parts = append(parts, fmt.Sprintf("Market sentiment appears %s with %.1f%% confidence.",
			strings.ToLower(in.Sentiment.Label), in.Sentiment.Confidence*100))
	}

	if len(strings.Join(parts, " ")) < minFallbackLength {
		parts = append(parts, fmt.Sprintf("For detailed analysis of %s, please try again later or check if the market is currently open. I can provide real-time data, news sentiment, and AI-powered investment insights when market data is available.", in.Ticker))
	}
	return strings.Join(parts, " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
