// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MessageSanitizer はコミュニティチャットに投稿されたテキストからHTMLを取り除き、
// 他の利用者の画面でそのまま表示しても安全な文字列に変換する。
package security

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxMessageLength はサニタイズ後のメッセージの最大文字数。
const MaxMessageLength = 2000

// MessageSanitizer はチャットメッセージのサニタイズ機能のインターフェースを定義する。
type MessageSanitizer interface {
	// Sanitize はすべてのHTMLタグを除去し、前後の空白を取り除いた文字列を返す。
	// &や<などの文字はHTMLエスケープされる。
	// MaxMessageLengthを超える部分は切り捨てる。
	Sanitize(text string) string
}

type messageSanitizer struct {
	policy *bluemonday.Policy
}

// NewMessageSanitizer はMessageSanitizerの新しいインスタンスを生成する。
// チャットはプレーンテキストのみを扱うため、bluemondayのStrictPolicyを使用する。
func NewMessageSanitizer() MessageSanitizer {
	return &messageSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *messageSanitizer) Sanitize(text string) string {
	out := strings.TrimSpace(s.policy.Sanitize(text))
	if utf8.RuneCountInString(out) > MaxMessageLength {
		out = string([]rune(out)[:MaxMessageLength])
	}
	return out
}
