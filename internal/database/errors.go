package database

import (
	"fmt"
)

// PersistenceError はリトライ上限まで試しても書き込みフェーズが成功しなかったことを表すエラーです。
// このエラーだけが同期実行を中断させます（個別レコードの失敗は記録してスキップします）。
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("書き込みフェーズ %s が失敗しました: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
