package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/dermaassist/internal/model"
)

func TestWriteErrorResponse_JSONFormat(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if raw["code"] != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %v, want %q", raw["code"], model.ErrCodeInvalidCredentials)
	}
	if raw["message"] != "Invalid email or password" {
		t.Errorf("message = %v", raw["message"])
	}
	if raw["category"] != "auth" {
		t.Errorf("category = %v, want %q", raw["category"], "auth")
	}
	if _, ok := raw["fields"]; ok {
		t.Error("fields should be omitted when empty")
	}
}

func TestWriteErrorResponse_IncludesValidationFields(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
		"email": "Invalid email address",
	}))

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Fields["email"] != "Invalid email address" {
		t.Errorf("fields[email] = %q", body.Fields["email"])
	}
}

func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInternal)
	}
}
