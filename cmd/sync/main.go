package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/classroom"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/config"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/database"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/services"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/sync"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
		}
	}

	cfg, err := config.LoadSyncConfig()
	if err != nil {
		log.Printf("設定の読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	db, err := database.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("データベース接続に失敗しました: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	runner := classroom.NewRunner(time.Duration(cfg.TimeoutSeconds) * time.Second)
	source := classroom.NewService(runner)
	resolver := services.NewRepositoryInfoService(cfg.GithubToken)
	store := database.NewSyncRepository(db, cfg.MaxRetries)

	orchestrator := sync.NewOrchestrator(cfg, source, resolver, store)
	summary, err := orchestrator.Run(context.Background())

	printSummary(summary)
	if err != nil {
		log.Printf("同期が失敗しました: %v", err)
		os.Exit(1)
	}
}

// printSummary は同期結果のサマリーを出力します。部分的な失敗があっても必ず出力されます。
func printSummary(summary *sync.Summary) {
	log.Println("===== 同期サマリー =====")
	log.Printf("クラスルームID: %s", summary.ClassroomID)
	log.Printf("処理した課題: %d 件 (スキップ: %d 件)", summary.AssignmentsProcessed, summary.AssignmentsSkipped)
	log.Printf("成績レコード: %d 件", summary.GradeRecords)
	log.Printf("ランキング対象の学生: %d 人", summary.StudentsRanked)
	log.Printf("書き込み: %d 件 (スキップ: %d 件)", summary.Written, summary.Skipped)
	if len(summary.Failures) > 0 {
		log.Printf("失敗の内訳 (%d 件):", len(summary.Failures))
		for _, f := range summary.Failures {
			log.Printf("  - %s", f)
		}
	}
}
