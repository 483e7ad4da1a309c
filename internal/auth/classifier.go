package auth

import (
	"strings"

	"github.com/hitoshi/dermaassist/internal/model"
)

// ReservedDoctorEmail は常に医師として扱われる予約済みアドレス。
const ReservedDoctorEmail = "doctor@dermaassist.com"

// CredentialClassifier はサインイン時のメールアドレスからロールを判定する。
// モック判定を実際のIdP呼び出しに差し替えられるよう、Storeからはこのインターフェースのみを参照する。
type CredentialClassifier interface {
	// Classify はメールアドレスに対応するロールを返す。
	Classify(email string) model.Role
}

// EmailRoleClassifier はメールアドレスの文字列からロールを判定するモック実装。
// "doctor" または "dr." を含むアドレスと予約済みアドレスは医師、それ以外は患者とする。
type EmailRoleClassifier struct{}

// NewEmailRoleClassifier はEmailRoleClassifierを生成する。
func NewEmailRoleClassifier() *EmailRoleClassifier {
	return &EmailRoleClassifier{}
}

// Classify はメールアドレスからロールを判定する。
func (c *EmailRoleClassifier) Classify(email string) model.Role {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == ReservedDoctorEmail || strings.Contains(e, "doctor") || strings.Contains(e, "dr.") {
		return model.RoleDoctor
	}
	return model.RolePatient
}

// ClassifierFunc は関数をCredentialClassifierとして扱うためのアダプタ。
type ClassifierFunc func(email string) model.Role

// Classify はf(email)を返す。
func (f ClassifierFunc) Classify(email string) model.Role {
	return f(email)
}

var (
	_ CredentialClassifier = (*EmailRoleClassifier)(nil)
	_ CredentialClassifier = ClassifierFunc(nil)
)
