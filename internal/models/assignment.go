package models

import (
	"time"
)

// Assignment はassignmentsテーブルのレコードに対応する構造体です。
// Name は正規化済みのスラッグで、課題の一意キーとして扱います。
type Assignment struct {
	Name            string    `json:"name"`
	PointsAvailable *int      `json:"points_available"` // 満点が解決できなかった場合はnull
	UpdatedAt       time.Time `json:"updated_at"`
}
