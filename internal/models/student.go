package models

import (
	"time"
)

// Student はstudentsテーブルのレコードに対応する構造体です。
type Student struct {
	GithubUsername string     `json:"github_username"`
	ForkCreatedAt  *time.Time `json:"fork_created_at"` // フォークが無い場合はnull
	LastUpdatedAt  *time.Time `json:"last_updated_at"`
	HasFork        bool       `json:"has_fork"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
