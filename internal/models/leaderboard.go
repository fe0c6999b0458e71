package models

import (
	"time"
)

// LeaderboardEntry はleaderboardテーブルのレコードに対応する構造体です。
// 同期実行のたびに全件を再計算して書き直します。
type LeaderboardEntry struct {
	ID                   string     `json:"id"` // UUID
	GithubUsername       string     `json:"github_username"`
	ForkCreatedAt        *time.Time `json:"fork_created_at"`
	LastUpdatedAt        *time.Time `json:"last_updated_at"`
	ResolutionTimeHours  *int       `json:"resolution_time_hours"` // フォークが無い場合は常にnull
	HasFork              bool       `json:"has_fork"`
	TotalScore           int        `json:"total_score"`
	TotalPossible        int        `json:"total_possible"`
	Percentage           int        `json:"percentage"`
	AssignmentsCompleted int        `json:"assignments_completed"`
	RankingPosition      int        `json:"ranking_position"` // 1始まりの連番
}
