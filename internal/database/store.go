package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq" // PostgreSQLドライバー
)

// NewDB はSupabase Postgresへの接続を確立して確認します。
func NewDB(databaseURL string) (*sql.DB, error) {
	log.Printf("データベース接続を試行中: URLの最初の30文字: %s...", databaseURL[:min(len(databaseURL), 30)])
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		log.Printf("Database Error: sql.Openに失敗しました: %v", err)
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}

	// データベース接続の確認 (Ping)
	if err := db.Ping(); err != nil {
		log.Printf("Database Error: db.Pingに失敗しました: %v", err)
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	log.Println("データベースに正常に接続しました。")
	return db, nil
}
