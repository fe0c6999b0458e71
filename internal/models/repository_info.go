package models

import (
	"time"
)

// RepositoryInfo はGitHub APIから取得したリポジトリ情報を表す構造体です。
// 取得に失敗した場合は HasFork=false かつタイムスタンプnilの値として扱います。
type RepositoryInfo struct {
	FullName      string     `json:"full_name"`
	ForkCreatedAt *time.Time `json:"fork_created_at"`
	LastUpdatedAt *time.Time `json:"last_updated_at"`
	HasFork       bool       `json:"has_fork"`
}
