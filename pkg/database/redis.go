package database

import (
	"context"
	"invest-ai-go/internal/config"
	"invest-ai-go/pkg/log"
	"time"

	"github.com/go-redis/redis/v8"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接。Addr 为空时返回 nil，表示不启用缓存；
// 连接失败只记录告警，缓存层会在每次调用时自行降级。
func InitRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		log.Info("未配置 Redis，会话历史缓存关闭")
		return nil
	}
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Warnw("Redis 连接失败，缓存将按未命中处理", "addr", cfg.Addr, "error", err)
		return RDB
	}

	log.Info("Redis client connected successfully")
	return RDB
}
