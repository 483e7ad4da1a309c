// Package auth はセッションストア（サインイン・サインアップ・サインアウトと永続化）を提供する。
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/dermaassist/internal/model"
	"github.com/hitoshi/dermaassist/internal/repository"
)

// DefaultSessionKey はセッションを永続化するキーのデフォルト値。
const DefaultSessionKey = "user"

// モックIdPが返す固定の利用者情報
const (
	mockIdentityID    = "1"
	mockDoctorName    = "Dr. Sarah Johnson"
	mockPatientName   = "John Doe"
	mockDoctorAvatar  = "https://images.pexels.com/photos/5215024/pexels-photo-5215024.jpeg?auto=compress&cs=tinysrgb&w=150"
	mockPatientAvatar = "https://images.pexels.com/photos/2379004/pexels-photo-2379004.jpeg?auto=compress&cs=tinysrgb&w=150"
)

// Recorder は認証イベントを記録する。metrics.Collectorが実装する。
type Recorder interface {
	RecordSignIn(role model.Role)
	RecordSignUp(role model.Role)
	RecordSignOut()
	RecordAuthFailure(reason string)
	RecordRestore(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordSignIn(model.Role) {}
func (noopRecorder) RecordSignUp(model.Role) {}
func (noopRecorder) RecordSignOut() {}
func (noopRecorder) RecordAuthFailure(string) {}
func (noopRecorder) RecordRestore(string) {}

// Restoreの結果
const (
	RestoreOutcomeRestored = "restored"
	RestoreOutcomeEmpty    = "empty"
	RestoreOutcomeCorrupt  = "corrupt"
	RestoreOutcomeError    = "error"
)

// StoreConfig はStoreの設定を保持する。
type StoreConfig struct {
	Key      string        // 永続化キー（空の場合はDefaultSessionKey）
	Delay    time.Duration // BeginSignIn/BeginSignUpの擬似ネットワーク遅延
	Recorder Recorder      // nilの場合は記録しない

	// テスト用に差し替え可能
	Now   func() time.Time
	NewID func() string
}

// Store はプロセス内で唯一のセッションを保持し、変更を永続化ストレージへ書き込む。
// 変更は永続化に成功した場合のみメモリ上の状態に反映される。
type Store struct {
	storage    repository.KVStorage
	classifier CredentialClassifier
	key        string
	delay      time.Duration
	recorder   Recorder
	now        func() time.Time
	newID      func() string

	mu      sync.RWMutex
	current *model.Session

	// writeMu は永続化とメモリ反映の順序を揃えるために変更操作を直列化する。
	writeMu sync.Mutex

	inFlight atomic.Int32

	restoreOnce sync.Once
	restoreErr  error
}

// NewStore はStoreを生成する。状態は匿名から始まる。
func NewStore(storage repository.KVStorage, classifier CredentialClassifier, cfg StoreConfig) *Store {
	if classifier == nil {
		classifier = NewEmailRoleClassifier()
	}
	s := &Store{
		storage:    storage,
		classifier: classifier,
		key:        cfg.Key,
		delay:      cfg.Delay,
		recorder:   cfg.Recorder,
		now:        cfg.Now,
		newID:      cfg.NewID,
	}
	if s.key == "" {
		s.key = DefaultSessionKey
	}
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

// Current は現在のセッションのコピーを返す。未ログインの場合はnilを返す。
func (s *Store) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// State は現在の状態を返す。
func (s *Store) State() model.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.StateOf(s.current)
}

// InFlight は遅延中のAttemptが存在するかを返す。
func (s *Store) InFlight() bool {
	return s.inFlight.Load() > 0
}

// SignIn はメールアドレスとパスワードでサインインする。
// どちらかが空の場合はErrInvalidCredentialsを返し、既存のセッションは変更しない。
// ロールはCredentialClassifierで判定する。既存のセッションは同じロールの場合のみ置き換えられ、
// ロールが異なる場合はErrRoleChangeRequiresSignOutを返す。
func (s *Store) SignIn(ctx context.Context, email, secret string) (*model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(secret) == "" {
		s.recorder.RecordAuthFailure("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	role := s.classifier.Classify(email)
	sess := &model.Session{
		ID:        mockIdentityID,
		Email:     email,
		Role:      role,
		CreatedAt: s.timestamp(),
	}
	if role == model.RoleDoctor {
		sess.Name = mockDoctorName
		sess.Avatar = mockDoctorAvatar
	} else {
		sess.Name = mockPatientName
		sess.Avatar = mockPatientAvatar
	}

	if err := s.install(ctx, sess); err != nil {
		s.recorder.RecordAuthFailure(failureReason(err))
		return nil, fmt.Errorf("sign in: %w", err)
	}

	s.recorder.RecordSignIn(role)
	slog.Info("user signed in",
		slog.String("session_id", sess.ID),
		slog.String("role", string(role)),
	)
	return sess.Clone(), nil
}

// SignUp はプロフィールからセッションを作成する。
// 入力に問題がある場合はフィールド単位の*model.APIErrorを返す。
// 別ロールでサインイン中の場合はErrRoleChangeRequiresSignOutを返す。
func (s *Store) SignUp(ctx context.Context, profile model.SignUpProfile) (*model.Session, error) {
	if fields := ValidateSignUp(profile); len(fields) > 0 {
		s.recorder.RecordAuthFailure("validation")
		return nil, model.NewValidationError(fields)
	}

	role, _ := model.ParseRole(profile.Role)
	sess := &model.Session{
		ID:        s.newID(),
		Name:      strings.TrimSpace(profile.Name),
		Email:     strings.TrimSpace(profile.Email),
		Role:      role,
		CreatedAt: s.timestamp(),
	}

	if err := s.install(ctx, sess); err != nil {
		s.recorder.RecordAuthFailure(failureReason(err))
		return nil, fmt.Errorf("sign up: %w", err)
	}

	s.recorder.RecordSignUp(role)
	slog.Info("user signed up",
		slog.String("session_id", sess.ID),
		slog.String("role", string(role)),
	)
	return sess.Clone(), nil
}

// SignOut はセッションを破棄し、永続化キーを削除する。
// 未ログイン状態で呼び出しても成功する。
func (s *Store) SignOut(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("sign out: failed to delete stored session: %w", err)
	}

	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev != nil {
		s.recorder.RecordSignOut()
		slog.Info("user signed out",
			slog.String("session_id", prev.ID),
			slog.String("role", string(prev.Role)),
		)
	}
	return nil
}

// Restore は永続化ストレージからセッションを復元する。
// 処理を行うのは最初の呼び出しのみで、以降は最初の結果を返す。
// 保存データが壊れている場合は匿名状態として扱い、キーを削除する。エラーは返さない。
// ストレージの読み取りに失敗した場合のみエラーを返す（状態は匿名のまま）。
func (s *Store) Restore(ctx context.Context) error {
	s.restoreOnce.Do(func() {
		s.restoreErr = s.restore(ctx)
	})
	return s.restoreErr
}

func (s *Store) restore(ctx context.Context) error {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.recorder.RecordRestore(RestoreOutcomeError)
		return fmt.Errorf("restore: failed to read stored session: %w", err)
	}
	if raw == nil {
		s.recorder.RecordRestore(RestoreOutcomeEmpty)
		slog.Debug("no stored session found", slog.String("key", s.key))
		return nil
	}

	sess, err := decodeSession(raw)
	if err != nil {
		s.recorder.RecordRestore(RestoreOutcomeCorrupt)
		slog.Warn("discarding corrupt stored session",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		if delErr := s.storage.Delete(ctx, s.key); delErr != nil {
			slog.Warn("failed to delete corrupt stored session",
				slog.String("key", s.key),
				slog.String("error", delErr.Error()),
			)
		}
		return nil
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	s.recorder.RecordRestore(RestoreOutcomeRestored)
	slog.Info("session restored",
		slog.String("session_id", sess.ID),
		slog.String("role", string(sess.Role)),
	)
	return nil
}

// BeginSignIn は遅延付きのサインインを開始する。
// 入力が空の場合は即座にErrInvalidCredentialsで完了するAttemptを返す。
func (s *Store) BeginSignIn(email, secret string) *Attempt {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(secret) == "" {
		s.recorder.RecordAuthFailure("invalid_credentials")
		return resolvedAttempt(nil, ErrInvalidCredentials)
	}
	return s.begin(func(ctx context.Context) (*model.Session, error) {
		return s.SignIn(ctx, email, secret)
	})
}

// BeginSignUp は遅延付きのサインアップを開始する。
// 入力に問題がある場合は即座にバリデーションエラーで完了するAttemptを返す。
func (s *Store) BeginSignUp(profile model.SignUpProfile) *Attempt {
	if fields := ValidateSignUp(profile); len(fields) > 0 {
		s.recorder.RecordAuthFailure("validation")
		return resolvedAttempt(nil, model.NewValidationError(fields))
	}
	return s.begin(func(ctx context.Context) (*model.Session, error) {
		return s.SignUp(ctx, profile)
	})
}

func (s *Store) begin(op func(ctx context.Context) (*model.Session, error)) *Attempt {
	a := newAttempt()
	s.inFlight.Add(1)

	go func() {
		defer s.inFlight.Add(-1)

		if s.delay > 0 {
			timer := time.NewTimer(s.delay)
			<-timer.C
		}

		if a.Stale() {
			slog.Debug("discarding stale auth attempt")
			a.resolve(nil, ErrStaleAttempt)
			return
		}

		// リクエストの終了に関わらず完了させるため、呼び出し元のctxは引き継がない
		sess, err := op(context.Background())
		a.resolve(sess, err)
	}()

	return a
}

func (s *Store) install(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// ロールの切り替えは必ず匿名状態を経由する
	s.mu.RLock()
	prev := s.current
	s.mu.RUnlock()
	if prev != nil && prev.Role != sess.Role {
		return ErrRoleChangeRequiresSignOut
	}

	if err := s.storage.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.current = sess.Clone()
	s.mu.Unlock()
	return nil
}

func failureReason(err error) string {
	if errors.Is(err, ErrRoleChangeRequiresSignOut) {
		return "role_change"
	}
	return "storage"
}

// timestamp は永続化しても同一値に戻る精度の現在時刻を返す。
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// decodeSession は永続化されたJSONをセッションに変換する。
// 解析できない場合や必須項目が欠けている場合はErrStorageCorruptを返す。
func decodeSession(raw []byte) (*model.Session, error) {
	var sess model.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorrupt, err)
	}
	if !sess.Complete() {
		return nil, fmt.Errorf("%w: missing required fields", ErrStorageCorrupt)
	}
	return &sess, nil
}
