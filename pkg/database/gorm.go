package database

import (
	"context"
	"fmt"
	"invest-ai-go/internal/config"
	"invest-ai-go/internal/model"
	"invest-ai-go/pkg/log"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open 按 driver 打开数据库连接并迁移会话相关的表。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.MySQL.DSN), gormCfg)
	case "sqlite", "":
		// 外键约束需要显式开启，否则级联删除不生效
		db, err = gorm.Open(sqlite.Open(sqliteDSN(cfg.SQLite.Path)), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if strings.ToLower(cfg.Driver) == "mysql" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// SQLite 只允许单写者
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&model.ChatSession{}, &model.ChatMessage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

// Init 初始化全局数据库连接，失败时直接退出。
func Init(cfg config.DatabaseConfig) {
	db, err := Open(cfg)
	if err != nil {
		log.Fatal("failed to initialise database", err)
	}
	DB = db
	log.Infof("%s database connected successfully", strings.ToLower(cfg.Driver))
}

// Ping 检查数据库连通性，供健康检查使用。
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialised")
	}
	return db.WithContext(ctx).Exec("SELECT 1").Error
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "investai.db"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}
