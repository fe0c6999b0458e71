package database

import (
	"fmt"
	"strings"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

// coerceStudents は書き込み前に学生レコードを検証・整形します。
// 不正なレコードは理由を記録して書き込み対象から除外します（同期全体は失敗させません）。
func coerceStudents(students []models.Student, result *WriteResult) []models.Student {
	valid := make([]models.Student, 0, len(students))
	for _, s := range students {
		s.GithubUsername = strings.TrimSpace(s.GithubUsername)
		if s.GithubUsername == "" {
			result.Skipped++
			result.Failures = append(result.Failures, "students: github_usernameが空のレコードを破棄しました")
			continue
		}
		valid = append(valid, s)
	}
	return valid
}

// coerceAssignments は書き込み前に課題レコードを検証・整形します。
func coerceAssignments(assignments []models.Assignment, result *WriteResult) []models.Assignment {
	valid := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			result.Skipped++
			result.Failures = append(result.Failures, "assignments: nameが空のレコードを破棄しました")
			continue
		}
		if a.PointsAvailable != nil && *a.PointsAvailable < 0 {
			result.Skipped++
			result.Failures = append(result.Failures, fmt.Sprintf("assignments: %s のpoints_availableが負値のため破棄しました", a.Name))
			continue
		}
		valid = append(valid, a)
	}
	return valid
}

// coerceGrades は書き込み前に成績レコードを検証・整形します。
func coerceGrades(grades []models.GradeRecord, result *WriteResult) []models.GradeRecord {
	valid := make([]models.GradeRecord, 0, len(grades))
	for _, g := range grades {
		g.GithubUsername = strings.TrimSpace(g.GithubUsername)
		g.AssignmentName = strings.TrimSpace(g.AssignmentName)
		if g.GithubUsername == "" || g.AssignmentName == "" {
			result.Skipped++
			result.Failures = append(result.Failures, "grades: 複合キーが不完全なレコードを破棄しました")
			continue
		}
		if g.PointsAwarded != nil && *g.PointsAwarded < 0 {
			result.Skipped++
			result.Failures = append(result.Failures, fmt.Sprintf("grades: %s/%s のpoints_awardedが負値のため破棄しました", g.GithubUsername, g.AssignmentName))
			continue
		}
		valid = append(valid, g)
	}
	return valid
}
