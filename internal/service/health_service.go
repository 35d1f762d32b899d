package service

import (
	"context"
	"errors"
	"invest-ai-go/internal/sentiment"
	"invest-ai-go/pkg/database"
	"invest-ai-go/pkg/llm"
	"invest-ai-go/pkg/log"
	"invest-ai-go/pkg/market"
	"invest-ai-go/pkg/news"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// 依赖状态
const (
	StatusHealthy       = "healthy"
	StatusUnhealthy     = "unhealthy"
	StatusNotConfigured = "not_configured"
)

const (
	probeTimeout = 5 * time.Second
	probeSymbol  = "AAPL"
)

// HealthReport 是一次完整健康检查的结果。
type HealthReport struct {
	Status    string
	Timestamp time.Time
	Version   string
	Services  map[string]string
}

// HealthService 定义了依赖探活能力。任何依赖异常都只体现在报告中，不返回错误。
type HealthService interface {
	Check(ctx context.Context) HealthReport
}

type healthService struct {
	version string
	db      *gorm.DB
	rdb     *redis.Client
	market  market.Gateway
	news    news.Gateway
	scorer  sentiment.Scorer
	llm     llm.Client
}

// NewHealthService 创建一个新的 HealthService。rdb 与 llmClient 可以为 nil，表示未配置。
func NewHealthService(version string, db *gorm.DB, rdb *redis.Client, marketGateway market.Gateway, newsGateway news.Gateway, scorer sentiment.Scorer, llmClient llm.Client) HealthService {
	return &healthService{
		version: version,
		db:      db,
		rdb:     rdb,
		market:  marketGateway,
		news:    newsGateway,
		scorer:  scorer,
		llm:     llmClient,
	}
}

func (s *healthService) Check(ctx context.Context) HealthReport {
	services := map[string]string{
		"database":   s.probe(ctx, "database", func(ctx context.Context) error { return database.Ping(ctx, s.db) }),
		"redis":      s.checkRedis(ctx),
		"market":     s.checkMarket(ctx),
		"sentiment":  s.checkSentiment(),
		"generation": s.checkGeneration(),
	}
	services[strings.ToLower(s.news.Name())] = s.checkNews(ctx)

	status := StatusHealthy
	for _, v := range services {
		if v == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}
	return HealthReport{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Services:  services,
	}
}

func (s *healthService) checkRedis(ctx context.Context) string {
	if s.rdb == nil {
		return StatusNotConfigured
	}
	return s.probe(ctx, "redis", func(ctx context.Context) error { return s.rdb.Ping(ctx).Err() })
}

func (s *healthService) checkNews(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	err := s.news.Probe(ctx)
	switch {
	case err == nil:
		return StatusHealthy
	case errors.Is(err, news.ErrNotConfigured):
		return StatusNotConfigured
	default:
		log.Error("[Health] 新闻源检查失败", err)
		return StatusUnhealthy
	}
}

func (s *healthService) checkMarket(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if !s.market.ValidateTicker(ctx, probeSymbol) {
		log.Errorf("[Health] 行情源检查失败: %s 无数据", probeSymbol)
		return StatusUnhealthy
	}
	return StatusHealthy
}

func (s *healthService) checkSentiment() string {
	if err := s.scorer.Check(); err != nil {
		log.Error("[Health] 情绪分析检查失败", err)
		return StatusUnhealthy
	}
	return StatusHealthy
}

func (s *healthService) checkGeneration() string {
	if s.llm == nil {
		return StatusNotConfigured
	}
	return StatusHealthy
}

func (s *healthService) probe(ctx context.Context, name string, fn func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("[Health] "+name+" 检查失败", err)
		return StatusUnhealthy
	}
	return StatusHealthy
}
