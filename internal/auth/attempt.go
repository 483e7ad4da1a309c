package auth

import (
	"context"
	"sync/atomic"

	"github.com/hitoshi/dermaassist/internal/model"
)

// Attempt は擬似的なネットワーク遅延を伴うサインイン/サインアップ処理を表す。
// 遅延中にMarkStaleされたAttemptはStoreを変更せずErrStaleAttemptで完了する。
type Attempt struct {
	done    chan struct{}
	stale   atomic.Bool
	session *model.Session
	err     error
}

func newAttempt() *Attempt {
	return &Attempt{done: make(chan struct{})}
}

// resolvedAttempt は即座に完了済みのAttemptを返す。
func resolvedAttempt(sess *model.Session, err error) *Attempt {
	a := newAttempt()
	a.resolve(sess, err)
	return a
}

func (a *Attempt) resolve(sess *model.Session, err error) {
	a.session = sess
	a.err = err
	close(a.done)
}

// Done は完了時にcloseされるチャネルを返す。
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// MarkStale は結果を待つ呼び出し元がいなくなったことを通知する。
// 既に完了している場合は何もしない。
func (a *Attempt) MarkStale() {
	select {
	case <-a.done:
		return
	default:
	}
	a.stale.Store(true)
}

// Stale はMarkStale済みかどうかを返す。
func (a *Attempt) Stale() bool {
	return a.stale.Load()
}

// Wait はAttemptの完了を待ち、結果を返す。
// ctxが先に終了した場合はctx.Err()を返す。Attempt自体は継続する。
func (a *Attempt) Wait(ctx context.Context) (*model.Session, error) {
	select {
	case <-a.done:
		return a.session.Clone(), a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
