// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Market   MarketConfig   `mapstructure:"market"`
	News     NewsConfig     `mapstructure:"news"`
	LLM      LLMConfig      `mapstructure:"llm"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// AppConfig 存储应用名称与版本，用于健康检查和欢迎页。
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	Driver string       `mapstructure:"driver"` // mysql 或 sqlite
	MySQL  MySQLConfig  `mapstructure:"mysql"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// SQLiteConfig 存储本地 SQLite 文件路径。
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时不启用会话历史缓存。
type RedisConfig struct {
	Addr              string `mapstructure:"addr"`
	Password          string `mapstructure:"password"`
	DB                int    `mapstructure:"db"`
	HistoryTTLMinutes int    `mapstructure:"history_ttl_minutes"`
}

// HistoryTTL 返回会话历史缓存的过期时间。
func (c RedisConfig) HistoryTTL() time.Duration {
	if c.HistoryTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.HistoryTTLMinutes) * time.Minute
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。Brokers 为空时不发布事件。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// MarketConfig 存储行情数据源配置。
type MarketConfig struct {
	Provider       string `mapstructure:"provider"` // yahoo 或 finnhub
	FinnhubAPIKey  string `mapstructure:"finnhub_api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// NewsConfig 存储新闻数据源配置。
type NewsConfig struct {
	Provider       string `mapstructure:"provider"` // newsapi 或 finnhub
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	FinnhubAPIKey  string `mapstructure:"finnhub_api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Limit          int    `mapstructure:"limit"`
}

// LLMConfig 存储文本生成能力相关的配置。
type LLMConfig struct {
	Provider       string              `mapstructure:"provider"` // compatible / openai / anthropic / none
	APIKey         string              `mapstructure:"api_key"`
	BaseURL        string              `mapstructure:"base_url"`
	Model          string              `mapstructure:"model"`
	TimeoutSeconds int                 `mapstructure:"timeout_seconds"`
	Generation     LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// CORSConfig 存储跨域配置。
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Seconds 把秒数配置转换成 time.Duration，非正数时使用 fallback。
func Seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "InvestAI")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.sqlite.path", "investai.db")
	v.SetDefault("database.redis.addr", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.history_ttl_minutes", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "investai.messages")
	v.SetDefault("market.provider", "yahoo")
	v.SetDefault("market.finnhub_api_key", "")
	v.SetDefault("market.timeout_seconds", 10)
	v.SetDefault("news.provider", "newsapi")
	v.SetDefault("news.api_key", "")
	v.SetDefault("news.base_url", "https://newsapi.org/v2")
	v.SetDefault("news.finnhub_api_key", "")
	v.SetDefault("news.timeout_seconds", 10)
	v.SetDefault("news.limit", 3)
	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout_seconds", 30)
	v.SetDefault("llm.generation.temperature", 0.7)
	v.SetDefault("llm.generation.top_p", 0.92)
	v.SetDefault("llm.generation.max_tokens", 150)
	v.SetDefault("cors.allow_origins", []string{"*"})
}

// Load 从指定路径读取 YAML 配置；环境变量（如 NEWS_API_KEY）优先于文件。
// configPath 为空时只使用默认值和环境变量。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return &cfg, nil
}

// Init 初始化配置加载，先加载可选的 .env，再解析到 Conf 变量中。
func Init(configPath string) {
	_ = godotenv.Load()

	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = *cfg
}
