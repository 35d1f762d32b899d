// Package sentiment 对新闻文本做情绪打分和聚合。
package sentiment

import (
	"errors"
	"fmt"
	"invest-ai-go/internal/model"
	"invest-ai-go/pkg/log"
	"math"
	"strings"
)

const (
	textThreshold      = 0.1
	aggregateThreshold = 0.05

	checkText = "Test sentiment analysis"
)

// ErrModelFailure 表示情绪模型不可用。
var ErrModelFailure = errors.New("sentiment model failure")

// Polarizer 返回文本的极性分数，范围 [-1, 1]。
type Polarizer interface {
	Polarity(text string) (float64, error)
}

// Scorer 定义了情绪分析能力。
type Scorer interface {
	ScoreText(text string) model.SentimentResult
	ScoreBatch(texts []string) model.AggregateSentiment
	// Check 直接调用底层模型，模型报错或 panic 时返回错误。
	Check() error
}

type scorer struct {
	polarizer Polarizer
}

// NewScorer 创建一个新的 Scorer 实例。
func NewScorer(p Polarizer) Scorer {
	return &scorer{polarizer: p}
}

// NewVaderScorer 使用 VADER 词典模型创建 Scorer。
func NewVaderScorer() Scorer {
	return NewScorer(NewVader())
}

// ScoreText 给单条文本打分，打分失败时返回中性、置信度为 0 的结果。
func (s *scorer) ScoreText(text string) (result model.SentimentResult) {
	neutral := model.SentimentResult{Label: model.SentimentNeutral}
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("[Sentiment] 打分时发生 panic: %v", r)
			result = neutral
		}
	}()

	polarity, err := s.polarizer.Polarity(text)
	if err != nil {
		log.Warnf("[Sentiment] 打分失败: %v", err)
		return neutral
	}
	polarity = round3(polarity)
	return model.SentimentResult{
		Label:      classify(polarity, textThreshold),
		Confidence: round3(math.Abs(polarity)),
		Polarity:   polarity,
	}
}

func (s *scorer) Check() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrModelFailure, r)
		}
	}()
	if _, err := s.polarizer.Polarity(checkText); err != nil {
		return fmt.Errorf("%w: %v", ErrModelFailure, err)
	}
	return nil
}

// ScoreBatch 跳过空白文本，对其余文本逐条打分后按平均极性分类。
func (s *scorer) ScoreBatch(texts []string) model.AggregateSentiment {
	agg := model.AggregateSentiment{Overall: model.SentimentNeutral}

	var sum float64
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		r := s.ScoreText(text)
		sum += r.Polarity
		agg.TotalArticles++
		switch r.Label {
		case model.SentimentPositive:
			agg.PositiveCount++
		case model.SentimentNegative:
			agg.NegativeCount++
		default:
			agg.NeutralCount++
		}
	}
	if agg.TotalArticles == 0 {
		return agg
	}

	avg := sum / float64(agg.TotalArticles)
	agg.AveragePolarity = round3(avg)
	agg.Overall = classify(avg, aggregateThreshold)
	return agg
}

// Summarize 把聚合结果转换成流水线使用的单条情绪结果。
func Summarize(agg model.AggregateSentiment) model.SentimentResult {
	return model.SentimentResult{
		Label:      agg.Overall,
		Confidence: math.Abs(agg.AveragePolarity),
		Polarity:   agg.AveragePolarity,
	}
}

// Describe 生成聚合情绪的可读描述。
func Describe(agg model.AggregateSentiment) string {
	if agg.TotalArticles == 0 {
		return "No news available for sentiment analysis."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Sentiment analysis of %d news articles shows %s sentiment (average polarity: %.3f).",
		agg.TotalArticles, strings.ToLower(agg.Overall), agg.AveragePolarity)
	if agg.PositiveCount > 0 {
		fmt.Fprintf(&b, " %d positive articles.", agg.PositiveCount)
	}
	if agg.NegativeCount > 0 {
		fmt.Fprintf(&b, " %d negative articles.", agg.NegativeCount)
	}
	if agg.NeutralCount > 0 {
		fmt.Fprintf(&b, " %d neutral articles.", agg.NeutralCount)
	}
	return strings.TrimSpace(b.String())
}

func classify(polarity, threshold float64) string {
	switch {
	case polarity > threshold:
		return model.SentimentPositive
	case polarity < -threshold:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
