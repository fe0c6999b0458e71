package models

import (
	"time"
)

// GradeRecord はgradesテーブルのレコードに対応する構造体です。
// (GithubUsername, AssignmentName) の組が複合一意キーになります。
type GradeRecord struct {
	GithubUsername string    `json:"github_username"`
	AssignmentName string    `json:"assignment_name"`
	PointsAwarded  *int      `json:"points_awarded"` // 未提出・未採点の場合はnull（0点とは区別する）
	UpdatedAt      time.Time `json:"updated_at"`
}
