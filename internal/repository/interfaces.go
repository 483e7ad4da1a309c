// Package repository はデータ永続化のインターフェースと実装を提供する。
package repository

import "context"

// KVStorage はキー単位で値を永続化するストレージのインターフェース。
// ブラウザのlocalStorageに相当し、セッションストアの書き込み先として使用する。
// Put/Deleteは永続化が完了してから返る。
type KVStorage interface {
	// Get は指定キーの値を返す。キーが存在しない場合はnil, nilを返す。
	Get(ctx context.Context, key string) ([]byte, error)
	// Put は指定キーに値を保存する。既存の値は置き換える。
	Put(ctx context.Context, key string, value []byte) error
	// Delete は指定キーを削除する。キーが存在しない場合もエラーにしない。
	Delete(ctx context.Context, key string) error
}
