package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// SyncConfig は同期処理に必要な設定をまとめた構造体です。
type SyncConfig struct {
	DatabaseURL    string
	ClassroomName  string
	GithubToken    string // 任意。無い場合はレート制限が厳しくなる
	AssignmentID   string // 任意。指定した場合はその課題のみ同期する
	MaxRetries     int
	TimeoutSeconds int
}

// LoadSyncConfig は環境変数からSyncConfigを構築します。
// 必須の環境変数が欠けている場合は、その変数名を含むエラーを返します。
func LoadSyncConfig() (*SyncConfig, error) {
	required := []string{"DATABASE_URL", "CLASSROOM_NAME"}
	for _, name := range required {
		if os.Getenv(name) == "" {
			return nil, fmt.Errorf("必須の環境変数 %s が設定されていません", name)
		}
	}

	githubToken := os.Getenv("GITHUB_TOKEN")
	if githubToken == "" {
		log.Println("警告: GITHUB_TOKENが設定されていません。リポジトリ情報の取得はレート制限の影響を受けます。")
	}

	return &SyncConfig{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ClassroomName:  os.Getenv("CLASSROOM_NAME"),
		GithubToken:    githubToken,
		AssignmentID:   os.Getenv("ASSIGNMENT_ID"),
		MaxRetries:     intEnv("MAX_RETRIES", 3),
		TimeoutSeconds: intEnv("TIMEOUT_SECONDS", 30),
	}, nil
}

// intEnv は整数の環境変数を読み取ります。未設定・不正な値の場合はデフォルト値を使います。
func intEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("警告: 環境変数 %s の値 '%s' が不正なため、デフォルト値 %d を使用します", name, raw, fallback)
		return fallback
	}
	return v
}
