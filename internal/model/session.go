// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Role は利用者の役割を表す。
type Role string

const (
	// RolePatient は患者。
	RolePatient Role = "patient"
	// RoleDoctor は医師。
	RoleDoctor Role = "doctor"
)

// Valid はroleが既知の値かどうかを返す。
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// ParseRole は文字列をRoleに変換する。
// 空文字列はRolePatientとして扱い、未知の値の場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return RolePatient, true
	case RolePatient:
		return RolePatient, true
	case RoleDoctor:
		return RoleDoctor, true
	default:
		return "", false
	}
}

// Session は現在アプリケーションを利用しているユーザーのセッションを表す。
// Roleはセッションの生存期間中に変更されない。
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Complete は必須項目がすべて設定されているかを返す。
// 部分的なセッションは永続化も復元もされない。
func (s *Session) Complete() bool {
	if s == nil {
		return false
	}
	return s.ID != "" && s.Email != "" && s.Role.Valid() && !s.CreatedAt.IsZero()
}

// Clone はセッションのコピーを返す。
// 呼び出し側がStoreの内部状態を書き換えられないようにするため。
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// SignUpProfile はサインアップフォームの入力内容を表す。
type SignUpProfile struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role,omitempty"`
	Terms           bool   `json:"terms"`
}

// SessionState はセッションストアの状態遷移上の状態を表す。
type SessionState string

const (
	// StateAnonymous は未ログイン状態。
	StateAnonymous SessionState = "anonymous"
	// StateAuthenticatedPatient は患者としてログインしている状態。
	StateAuthenticatedPatient SessionState = "authenticated_patient"
	// StateAuthenticatedDoctor は医師としてログインしている状態。
	StateAuthenticatedDoctor SessionState = "authenticated_doctor"
)

// StateOf はセッションに対応する状態を返す。
func StateOf(s *Session) SessionState {
	if s == nil {
		return StateAnonymous
	}
	if s.Role == RoleDoctor {
		return StateAuthenticatedDoctor
	}
	return StateAuthenticatedPatient
}
