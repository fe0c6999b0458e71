package sync

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/classroom"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

// part2FallbackPoints は「part-2」系の課題で満点が0として返ってきた場合の既知の満点です。
// GitHub Classroom APIが0を返すが実際には満点が存在するケースへの文書化済みの対処です。
const part2FallbackPoints = 100

var (
	reSlugStrip   = regexp.MustCompile(`[^a-z0-9\s-]`)
	reSlugSpaces  = regexp.MustCompile(`\s+`)
	reSlugHyphens = regexp.MustCompile(`-+`)
)

// NormalizedExtract は1課題分の成績エクストラクトを正規化した結果です。
type NormalizedExtract struct {
	AssignmentName  string // スラッグ化済みの課題名
	PointsAvailable *int
	Records         []models.GradeRecord
	RepoURLs        map[string]string // ユーザー名 → 学生リポジトリURL（行に無い場合は含まない）
	DroppedRows     []string          // 行単位で破棄した理由
}

// FormatAssignmentName は課題の表示名をデータベース保存用のスラッグに変換します。
// 小文字化し、英数字・空白・ハイフン以外を取り除き、空白とハイフンの連続を1つのハイフンにまとめます。
// スラッグ化はべき等です（スラッグを再度変換しても変わりません）。
func FormatAssignmentName(name string) (string, error) {
	formatted := strings.ToLower(name)
	formatted = reSlugStrip.ReplaceAllString(formatted, "")
	formatted = reSlugSpaces.ReplaceAllString(formatted, "-")
	formatted = reSlugHyphens.ReplaceAllString(formatted, "-")
	formatted = strings.Trim(formatted, "-")
	if formatted == "" {
		return "", &ValidationError{Reason: fmt.Sprintf("課題名 '%s' をスラッグに変換できません", name)}
	}
	return formatted, nil
}

// NormalizeExtract は生の成績エクストラクトを検証し、正規化されたGradeRecordの集合に変換します。
// 必須カラムの欠落、空のエクストラクト、ユーザー名がnullの行がある場合はValidationErrorを返します。
func NormalizeExtract(extract *classroom.GradeExtract, displayName string) (*NormalizedExtract, error) {
	if extract == nil || len(extract.Rows) == 0 {
		return nil, &ValidationError{Reason: "成績エクストラクトが空です"}
	}

	for _, col := range []string{"github_username", "points_awarded", "points_available"} {
		if !extract.HasColumn(col) {
			return nil, &ValidationError{Reason: fmt.Sprintf("必須カラム %s がありません", col)}
		}
	}

	// ユーザー名のnullはエクストラクト全体のバリデーション失敗として扱う
	for _, row := range extract.Rows {
		if strings.TrimSpace(row.GithubUsername) == "" {
			return nil, &ValidationError{Reason: "github_usernameにnull値が含まれています"}
		}
	}

	slug, err := FormatAssignmentName(displayName)
	if err != nil {
		return nil, err
	}

	result := &NormalizedExtract{
		AssignmentName:  slug,
		PointsAvailable: resolvePointsAvailable(extract.Rows, slug),
		RepoURLs:        make(map[string]string),
	}

	for _, row := range extract.Rows {
		username := strings.TrimSpace(row.GithubUsername)

		points, ok := coercePoints(row.PointsAwarded)
		if !ok {
			// この行だけを破棄し、エクストラクト全体は生かす
			reason := fmt.Sprintf("%s/%s: points_awarded '%s' を整数に変換できません", username, slug, row.PointsAwarded)
			log.Printf("Normalizer Warn: %s", reason)
			result.DroppedRows = append(result.DroppedRows, reason)
			continue
		}

		result.Records = append(result.Records, models.GradeRecord{
			GithubUsername: username,
			AssignmentName: slug,
			PointsAwarded:  points,
		})

		if url := strings.TrimSpace(row.StudentRepositoryURL); url != "" {
			if _, seen := result.RepoURLs[username]; !seen {
				result.RepoURLs[username] = url
			}
		}
	}

	return result, nil
}

// resolvePointsAvailable は課題全体の満点を次の優先順位で解決します:
// (1) 全行の最大値 → (2) 最大が0か欠損なら最初の正の値 → (3) part-2系スラッグなら既知の満点 → (4) nil。
func resolvePointsAvailable(rows []classroom.GradeRow, slug string) *int {
	var max *int
	for _, row := range rows {
		v, ok := coercePoints(row.PointsAvailable)
		if !ok || v == nil {
			continue
		}
		if max == nil || *v > *max {
			max = v
		}
	}
	if max != nil && *max > 0 {
		return max
	}

	for _, row := range rows {
		v, ok := coercePoints(row.PointsAvailable)
		if ok && v != nil && *v > 0 {
			return v
		}
	}

	if strings.Contains(slug, "part-2") {
		log.Printf("Normalizer Info: 課題 %s - APIが0を返したため、part-2の既知の満点 %d を使用します", slug, part2FallbackPoints)
		fallback := part2FallbackPoints
		return &fallback
	}

	log.Printf("Normalizer Warn: 課題 %s - 正のpoints_availableが見つかりませんでした", slug)
	return nil
}

// coercePoints は点数文字列を整数に変換します。
// 空文字列はnil（未採点）として成功扱い、有限の小数は切り捨て、
// パース不能・非有限・整数範囲外の値は失敗（ok=false）を返します。
func coercePoints(raw string) (*int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, true
	}
	if v, err := strconv.Atoi(trimmed); err == nil {
		return &v, true
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	// int変換が定義されない範囲外の値は点数として成立しない
	if f < math.MinInt32 || f > math.MaxInt32 {
		return nil, false
	}
	v := int(f)
	return &v, true
}
