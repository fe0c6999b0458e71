package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/api/handlers"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/api/middleware"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/database"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
		}
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("必須の環境変数 DATABASE_URL が設定されていません")
	}

	db, err := database.NewDB(databaseURL)
	if err != nil {
		log.Fatalf("データベース接続に失敗しました: %v", err)
	}
	defer db.Close()

	leaderboardRepo := database.NewLeaderboardRepository(db)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardRepo)

	r := mux.NewRouter()
	r.Use(middleware.CORSHandler())

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/public", handlers.PublicHandler).Methods("GET")
	r.HandleFunc("/api/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")

	// 認証が必要なルートグループを作成
	// 学生個別のエントリ（フォーク日時など）は管理ダッシュボードからのみ参照する
	adminRouter := r.PathPrefix("/api/admin").Subrouter()
	adminRouter.Use(middleware.AuthMiddleware)
	adminRouter.HandleFunc("/leaderboard/{username}", leaderboardHandler.GetStudentEntry).Methods("GET")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
