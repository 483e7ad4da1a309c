package database

import (
	"path/filepath"
	"testing"
)

// TestOpen_ReturnsDBForAnyURL はsql.Openは接続を試行しないため、
// 不正なURLでもDBオブジェクトが返ることを検証する。
// 実際の接続確認にはPingが必要。
func TestOpen_ReturnsDBForAnyURL(t *testing.T) {
	db, err := Open("postgres://invalid")
	if err != nil {
		t.Fatalf("Open returned unexpected error: %v", err)
	}
	if db == nil {
		t.Fatal("expected non-nil db")
	}
	defer db.Close()
}

// TestOpenSQLite_CreatesFile は存在しないパスを指定した場合にSQLiteファイルが作成されることを検証する。
func TestOpenSQLite_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "derma.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	defer db.Close()

	var one int
	if err := db.QueryRow("SELECT 1").Scan(&one); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if one != 1 {
		t.Errorf("SELECT 1 = %d, want 1", one)
	}
}

// TestOpenSQLite_InvalidDirectory_ReturnsError は書き込めないディレクトリでエラーになることを検証する。
func TestOpenSQLite_InvalidDirectory_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "nested", "derma.db")

	db, err := OpenSQLite(path)
	if err == nil {
		db.Close()
		t.Fatal("expected error for non-existent directory")
	}
}
