package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

// LeaderboardRepository はリーダーボードの読み取り操作を定義するインターフェースです。
type LeaderboardRepository interface {
	// GetLeaderboard は順位順に上位N件を取得します
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)

	// GetEntryByUsername は指定した学生のエントリを取得します（存在しない場合はnil）
	GetEntryByUsername(ctx context.Context, githubUsername string) (*models.LeaderboardEntry, error)
}

// leaderboardRepositoryImpl はLeaderboardRepositoryインターフェースの実装です。
type leaderboardRepositoryImpl struct {
	db *sql.DB
}

// NewLeaderboardRepository はLeaderboardRepositoryの新しいインスタンスを作成します。
func NewLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &leaderboardRepositoryImpl{db: db}
}

const leaderboardSelect = `
	SELECT id, github_username, fork_created_at, last_updated_at, resolution_time_hours,
	       has_fork, total_score, total_possible, percentage, assignments_completed, ranking_position
	FROM leaderboard`

// GetLeaderboard は順位順に上位N件を取得します。
func (r *leaderboardRepositoryImpl) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, leaderboardSelect+" ORDER BY ranking_position ASC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("リーダーボードの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		entry, err := scanLeaderboardEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("リーダーボード行のスキャンに失敗しました: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リーダーボード取得中にエラーが発生しました: %w", err)
	}
	return entries, nil
}

// GetEntryByUsername は指定した学生のエントリを取得します。
func (r *leaderboardRepositoryImpl) GetEntryByUsername(ctx context.Context, githubUsername string) (*models.LeaderboardEntry, error) {
	row := r.db.QueryRowContext(ctx, leaderboardSelect+" WHERE github_username = $1", githubUsername)
	entry, err := scanLeaderboardEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil // エントリが存在しない場合はnilを返す
	}
	if err != nil {
		return nil, fmt.Errorf("リーダーボードエントリの取得に失敗しました: %w", err)
	}
	return entry, nil
}

// scanLeaderboardEntry はnullableカラムを考慮して1行をスキャンします。
func scanLeaderboardEntry(scan func(dest ...interface{}) error) (*models.LeaderboardEntry, error) {
	var entry models.LeaderboardEntry
	var forkCreatedAt, lastUpdatedAt sql.NullTime
	var resolution sql.NullInt64

	err := scan(
		&entry.ID,
		&entry.GithubUsername,
		&forkCreatedAt,
		&lastUpdatedAt,
		&resolution,
		&entry.HasFork,
		&entry.TotalScore,
		&entry.TotalPossible,
		&entry.Percentage,
		&entry.AssignmentsCompleted,
		&entry.RankingPosition,
	)
	if err != nil {
		return nil, err
	}

	if forkCreatedAt.Valid {
		t := forkCreatedAt.Time
		entry.ForkCreatedAt = &t
	}
	if lastUpdatedAt.Valid {
		t := lastUpdatedAt.Time
		entry.LastUpdatedAt = &t
	}
	if resolution.Valid {
		h := int(resolution.Int64)
		entry.ResolutionTimeHours = &h
	}
	return &entry, nil
}
