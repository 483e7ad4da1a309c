package auth

import (
	"testing"

	"github.com/hitoshi/dermaassist/internal/model"
)

func validProfile() model.SignUpProfile {
	return model.SignUpProfile{
		Name:            "Alice Smith",
		Email:           "alice@example.com",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
		Role:            "patient",
		Terms:           true,
	}
}

func TestValidateSignUp_ValidProfile_NoErrors(t *testing.T) {
	if fields := ValidateSignUp(validProfile()); len(fields) != 0 {
		t.Errorf("expected no errors, got %v", fields)
	}
}

func TestValidateSignUp_EmptyRoleIsAllowed(t *testing.T) {
	p := validProfile()
	p.Role = ""
	if fields := ValidateSignUp(p); len(fields) != 0 {
		t.Errorf("expected no errors, got %v", fields)
	}
}

func TestValidateSignUp_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *model.SignUpProfile)
		field  string
		want   string
	}{
		{"name required", func(p *model.SignUpProfile) { p.Name = "  " }, "name", "Name is required"},
		{"name too short", func(p *model.SignUpProfile) { p.Name = "A" }, "name", "Name must be at least 2 characters"},
		{"email required", func(p *model.SignUpProfile) { p.Email = "" }, "email", "Email is required"},
		{"email invalid", func(p *model.SignUpProfile) { p.Email = "alice@example" }, "email", "Invalid email address"},
		{"password required", func(p *model.SignUpProfile) { p.Password = ""; p.ConfirmPassword = "" }, "password", "Password is required"},
		{"password too short", func(p *model.SignUpProfile) { p.Password = "Ab1"; p.ConfirmPassword = "Ab1" }, "password", "Password must be at least 8 characters"},
		{"password no digit", func(p *model.SignUpProfile) { p.Password = "Abcdefgh"; p.ConfirmPassword = "Abcdefgh" }, "password", "Password must contain uppercase, lowercase, and number"},
		{"password no upper", func(p *model.SignUpProfile) { p.Password = "abcdefg1"; p.ConfirmPassword = "abcdefg1" }, "password", "Password must contain uppercase, lowercase, and number"},
		{"confirm required", func(p *model.SignUpProfile) { p.ConfirmPassword = "" }, "confirm_password", "Please confirm your password"},
		{"confirm mismatch", func(p *model.SignUpProfile) { p.ConfirmPassword = "Secret124" }, "confirm_password", "Passwords do not match"},
		{"role unknown", func(p *model.SignUpProfile) { p.Role = "admin" }, "role", "Please select your role"},
		{"terms not accepted", func(p *model.SignUpProfile) { p.Terms = false }, "terms", "You must accept the terms and conditions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)

			fields := ValidateSignUp(p)
			if got := fields[tt.field]; got != tt.want {
				t.Errorf("fields[%q] = %q, want %q (all: %v)", tt.field, got, tt.want, fields)
			}
		})
	}
}

func TestValidateSignInForm(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		wantFields []string
	}{
		{"valid", "alice@example.com", "x", nil},
		{"empty email", "", "x", []string{"email"}},
		{"invalid email", "not-an-email", "x", []string{"email"}},
		{"empty password", "alice@example.com", "", []string{"password"}},
		{"both empty", "", "", []string{"email", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := ValidateSignInForm(tt.email, tt.password)
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("got %d field errors %v, want %v", len(fields), fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := fields[f]; !ok {
					t.Errorf("expected error for field %q, got %v", f, fields)
				}
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", ""},
		{"  Dr.Who@Clinic.ORG  ", ""},
		{"", "Email is required"},
		{"   ", "Email is required"},
		{"alice@example", "Invalid email address"},
		{"alice example.com", "Invalid email address"},
	}

	for _, tt := range tests {
		if got := ValidateEmail(tt.email); got != tt.want {
			t.Errorf("ValidateEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
