package sentiment

import "github.com/jonreiter/govader"

// Vader 基于 VADER 词典，Compound 分数即极性。
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader 加载词典。分析器只读，可并发使用。
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Polarity(text string) (float64, error) {
	return v.analyzer.PolarityScores(text).Compound, nil
}
