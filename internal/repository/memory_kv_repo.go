package repository

import (
	"context"
	"sync"
)

// MemoryKVRepo はプロセス内メモリのみに値を保持するKVストレージ。
// テストおよびSTORAGE_DRIVER=memoryで使用する。
type MemoryKVRepo struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKVRepo はMemoryKVRepoを生成する。
func NewMemoryKVRepo() *MemoryKVRepo {
	return &MemoryKVRepo{values: make(map[string][]byte)}
}

// Get は指定キーの値のコピーを返す。存在しない場合はnilを返す。
func (r *MemoryKVRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put は指定キーに値のコピーを保存する。
func (r *MemoryKVRepo) Put(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	r.values[key] = v
	return nil
}

// Delete は指定キーを削除する。
func (r *MemoryKVRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	return nil
}

// compile-time interface check
var _ KVStorage = (*MemoryKVRepo)(nil)
