package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteKVRepo はローカルのSQLiteファイルを使用したKVストレージ。
// ブラウザのlocalStorageと同様に、プロセス再起動後も値が残る。
type SQLiteKVRepo struct {
	db *sql.DB
}

// NewSQLiteKVRepo はSQLiteKVRepoを生成する。
func NewSQLiteKVRepo(db *sql.DB) *SQLiteKVRepo {
	return &SQLiteKVRepo{db: db}
}

// Get は指定キーの値を取得する。存在しない場合はnilを返す。
func (r *SQLiteKVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM local_storage WHERE key = ?`,
		key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}

	return value, nil
}

// Put は指定キーに値を保存する。
func (r *SQLiteKVRepo) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO local_storage (key, value, updated_at)
		 VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to put value: %w", err)
	}
	return nil
}

// Delete は指定キーを削除する。
func (r *SQLiteKVRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM local_storage WHERE key = ?`,
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}

// compile-time interface check
var _ KVStorage = (*SQLiteKVRepo)(nil)
