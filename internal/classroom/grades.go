package classroom

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strings"
)

// GradeRow はgrade CSVの1行分の生データです。値はすべて未変換の文字列のまま保持します。
type GradeRow struct {
	GithubUsername       string
	PointsAwarded        string
	PointsAvailable      string
	StudentRepositoryURL string
}

// GradeExtract は1課題分のgrade CSV全体です。
type GradeExtract struct {
	Columns []string
	Rows    []GradeRow
}

// HasColumn は指定したカラムがCSVヘッダーに含まれるかを返します。
func (e *GradeExtract) HasColumn(name string) bool {
	for _, c := range e.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// DownloadGrades は課題の成績CSVを一時ファイル経由でダウンロードしてパースします。
// 出力が空・存在しない場合は (nil, nil) を返します。これはソフト失敗であり、
// その課題に成績データが無いことを意味します。
func (s *Service) DownloadGrades(ctx context.Context, assignmentID string) (*GradeExtract, error) {
	log.Printf("ClassroomService Info: 課題 %s の成績をダウンロード中...", assignmentID)

	tempFile, err := os.CreateTemp("", "classroom-grades-*.csv")
	if err != nil {
		return nil, fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tempPath := tempFile.Name()
	tempFile.Close()
	defer os.Remove(tempPath)

	if _, err := s.runner.Run(ctx, "gh", "classroom", "assignment-grades", "-a", assignmentID, "-f", tempPath); err != nil {
		return nil, fmt.Errorf("成績のダウンロードに失敗しました: %w", err)
	}

	info, err := os.Stat(tempPath)
	if err != nil || info.Size() == 0 {
		log.Printf("ClassroomService Warn: 課題 %s の成績データが見つかりませんでした", assignmentID)
		return nil, nil
	}

	extract, err := parseGradeCSV(tempPath)
	if err != nil {
		return nil, err
	}

	log.Printf("ClassroomService Info: %d 件の成績レコードをダウンロードしました", len(extract.Rows))
	return extract, nil
}

// parseGradeCSV はCSVファイルをGradeExtractに読み込みます。
func parseGradeCSV(path string) (*GradeExtract, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("成績CSVのオープンに失敗しました: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // 行ごとのフィールド数ゆらぎを許容する
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("成績CSVの読み込みに失敗しました: %v", err)}
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	extract := &GradeExtract{Columns: make([]string, 0, len(header))}
	for name := range index {
		extract.Columns = append(extract.Columns, name)
	}
	for _, row := range records[1:] {
		extract.Rows = append(extract.Rows, GradeRow{
			GithubUsername:       field(row, "github_username"),
			PointsAwarded:        field(row, "points_awarded"),
			PointsAvailable:      field(row, "points_available"),
			StudentRepositoryURL: field(row, "student_repository_url"),
		})
	}
	return extract, nil
}
