// Package main 是应用程序的入口点。
package main

import (
	"context"
	"errors"
	"fmt"
	"invest-ai-go/internal/config"
	"invest-ai-go/internal/handler"
	"invest-ai-go/internal/middleware"
	"invest-ai-go/internal/pipeline"
	"invest-ai-go/internal/repository"
	"invest-ai-go/internal/sentiment"
	"invest-ai-go/internal/service"
	"invest-ai-go/pkg/database"
	"invest-ai-go/pkg/kafka"
	"invest-ai-go/pkg/llm"
	"invest-ai-go/pkg/log"
	"invest-ai-go/pkg/market"
	"invest-ai-go/pkg/metrics"
	"invest-ai-go/pkg/news"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Infof("Starting %s v%s", cfg.App.Name, cfg.App.Version)

	// 3. 初始化数据库和 Redis
	database.Init(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	// 4. 初始化 Repository，Redis 可用时为会话历史加一层缓存
	conversationRepo := repository.NewCachedConversationRepository(
		repository.NewConversationRepository(database.DB),
		database.RDB,
		cfg.Database.Redis.HistoryTTL(),
	)

	// 5. 初始化外部数据源
	marketGateway := market.NewGateway(newMarketProvider(cfg.Market), config.Seconds(cfg.Market.TimeoutSeconds, 10*time.Second))
	newsGateway := news.NewGateway(newNewsProvider(cfg.News), config.Seconds(cfg.News.TimeoutSeconds, 10*time.Second))
	scorer := sentiment.NewVaderScorer()

	// 6. 初始化文本生成能力，未配置或配置错误时走模板
	llmClient, err := llm.NewClient(cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrDisabled):
		log.Info("文本生成未启用，摘要将使用模板")
	case err != nil:
		log.Error("文本生成客户端初始化失败，摘要将使用模板", err)
	default:
		log.Infof("文本生成客户端初始化成功: %s", llmClient.Name())
	}

	// 7. 初始化 Kafka 生产者（可选）
	var publisher pipeline.EventPublisher
	var producer *kafka.Producer
	if cfg.Kafka.Brokers != "" {
		producer = kafka.NewProducer(cfg.Kafka)
		publisher = producer
	}

	// 8. 初始化 Service 与流水线 (依赖注入)
	m := metrics.New()
	conversationService := service.NewConversationService(conversationRepo)
	summaryService := service.NewSummaryService(llmClient, llm.ParamsFromConfig(cfg.LLM.Generation))
	healthService := service.NewHealthService(cfg.App.Version, database.DB, database.RDB, marketGateway, newsGateway, scorer, llmClient)
	processor := pipeline.NewProcessor(
		marketGateway,
		newsGateway,
		scorer,
		summaryService,
		conversationService,
		publisher,
		m,
		cfg.News.Limit,
	)

	// 9. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS(cfg.CORS.AllowOrigins), middleware.Metrics(m))

	// 10. 注册路由
	chatHandler := handler.NewChatHandler(processor, []string{marketGateway.Name(), newsGateway.Name()})
	conversationHandler := handler.NewConversationHandler(conversationService)
	healthHandler := handler.NewHealthHandler(healthService, cfg.App.Name, cfg.App.Version)
	marketHandler := handler.NewMarketHandler(marketGateway)
	newsHandler := handler.NewNewsHandler(newsGateway, scorer)

	r.GET("/", healthHandler.Root)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	chat := r.Group("/chat")
	{
		chat.POST("/", chatHandler.Chat)
		chat.GET("/sessions/", conversationHandler.ListSessions)
		chat.GET("/sessions/:id", conversationHandler.GetSession)
		chat.DELETE("/sessions/:id", conversationHandler.DeleteSession)
	}
	r.POST("/query/", chatHandler.Query)

	health := r.Group("/health")
	{
		health.GET("/", healthHandler.Check)
		health.GET("/simple", healthHandler.Simple)
	}

	marketGroup := r.Group("/market")
	{
		marketGroup.GET("/:symbol", marketHandler.Snapshot)
		marketGroup.GET("/:symbol/history", marketHandler.History)
		marketGroup.GET("/:symbol/validate", marketHandler.Validate)
	}
	r.GET("/news/market", newsHandler.MarketNews)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("Kafka 生产者关闭失败", err)
		}
	}
	log.Info("服务已优雅关闭")
}

// newNewsProvider 按配置选择新闻源，未知取值回退到 NewsAPI。
func newNewsProvider(cfg config.NewsConfig) news.Provider {
	switch strings.ToLower(cfg.Provider) {
	case "finnhub":
		return news.NewFinnhubProvider(cfg.FinnhubAPIKey)
	case "", "newsapi":
	default:
		log.Warnf("未知的新闻源 %q，使用 NewsAPI", cfg.Provider)
	}
	return news.NewNewsAPIProvider(cfg.BaseURL, cfg.APIKey, config.Seconds(cfg.TimeoutSeconds, 10*time.Second))
}

// newMarketProvider 按配置选择行情源，配置无效时回退到 Yahoo Finance。
func newMarketProvider(cfg config.MarketConfig) market.Provider {
	provider, err := market.NewProvider(cfg.Provider, cfg.FinnhubAPIKey)
	if err != nil {
		log.Warnf("行情源配置无效，使用 Yahoo Finance: %v", err)
		return market.NewYahooProvider()
	}
	return provider
}
