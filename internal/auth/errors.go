package auth

import "errors"

var (
	// ErrInvalidCredentials はメールアドレスまたはパスワードが空の場合に返される。
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrStorageCorrupt は永続化されたセッションが解析できない、または不完全な場合に返される。
	ErrStorageCorrupt = errors.New("auth: stored session is corrupt")

	// ErrStaleAttempt は完了前にstaleとマークされたAttemptが返す。
	ErrStaleAttempt = errors.New("auth: attempt is stale")

	// ErrRoleChangeRequiresSignOut は別ロールのセッションが存在する状態でサインインしようとした場合に返される。
	// ロールを切り替えるには先にサインアウトする必要がある。
	ErrRoleChangeRequiresSignOut = errors.New("auth: sign out before switching roles")
)
