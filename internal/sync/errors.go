package sync

import (
	"fmt"
)

// ValidationError は成績エクストラクトの必須項目欠落などのバリデーション失敗を表すエラーです。
// エクストラクト単位のエラーであり、オーケストレーターはその課題をスキップして続行します。
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("バリデーションエラー: %s", e.Reason)
}
