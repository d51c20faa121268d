// 手动清理过期令牌
//
// 该功能已集成到主应用的定时任务中（每小时执行一次）。
// 此脚本仅用于手动触发，例如服务长时间停机之后。
//
// 用法: go run scripts/sweep.go

package main

import (
	"log"
	"studynotes_backend/internal/config"
	"studynotes_backend/internal/repository"
	"studynotes_backend/pkg/database"
	"studynotes_backend/pkg/logger"
	"time"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	n, err := repository.NewTokenRepository(db).DeleteExpired(time.Now())
	if err != nil {
		log.Fatalf("清理失败: %v", err)
	}
	log.Printf("完成，删除 %d 个过期令牌", n)
}
