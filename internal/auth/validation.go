package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/dermaassist/internal/model"
)

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

const (
	minNameLength     = 2
	minPasswordLength = 8
)

// ValidateEmail はメールアドレスを検証し、エラーメッセージを返す。問題がない場合は空文字列を返す。
func ValidateEmail(email string) string {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return "Email is required"
	case !emailPattern.MatchString(email):
		return "Invalid email address"
	}
	return ""
}

// ValidateSignInForm はサインインフォームの入力を検証し、フィールド単位のエラーを返す。
// エラーがない場合は空のmapを返す。
func ValidateSignInForm(email, password string) map[string]string {
	fields := make(map[string]string)

	if msg := ValidateEmail(email); msg != "" {
		fields["email"] = msg
	}

	if password == "" {
		fields["password"] = "Password is required"
	}

	return fields
}

// ValidateSignUp はサインアップフォームの入力を検証し、フィールド単位のエラーを返す。
// エラーがない場合は空のmapを返す。
func ValidateSignUp(p model.SignUpProfile) map[string]string {
	fields := make(map[string]string)

	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		fields["name"] = "Name is required"
	case utf8.RuneCountInString(name) < minNameLength:
		fields["name"] = "Name must be at least 2 characters"
	}

	if msg := ValidateEmail(p.Email); msg != "" {
		fields["email"] = msg
	}

	switch {
	case p.Password == "":
		fields["password"] = "Password is required"
	case utf8.RuneCountInString(p.Password) < minPasswordLength:
		fields["password"] = "Password must be at least 8 characters"
	case !hasPasswordCharacterClasses(p.Password):
		fields["password"] = "Password must contain uppercase, lowercase, and number"
	}

	switch {
	case p.ConfirmPassword == "":
		fields["confirm_password"] = "Please confirm your password"
	case p.ConfirmPassword != p.Password:
		fields["confirm_password"] = "Passwords do not match"
	}

	if _, ok := model.ParseRole(p.Role); !ok {
		fields["role"] = "Please select your role"
	}

	if !p.Terms {
		fields["terms"] = "You must accept the terms and conditions"
	}

	return fields
}

// hasPasswordCharacterClasses は英小文字・英大文字・数字をそれぞれ1文字以上含むかを返す。
func hasPasswordCharacterClasses(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}
