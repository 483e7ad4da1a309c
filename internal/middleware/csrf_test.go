package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/dermaassist/internal/model"
)

func TestCSRFMiddleware_SafeMethods_PassThroughAndIssueCookie(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			called := false
			handler := NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(method, "/api/navigation", nil))

			if !called {
				t.Fatalf("handler should have been called for %s", method)
			}
			if findCookie(w.Result().Cookies(), csrfCookieName) == nil {
				t.Error("expected csrf_token cookie to be issued")
			}
		})
	}
}

func TestCSRFMiddleware_SafeMethod_KeepsExistingCookie(t *testing.T) {
	handler := NewCSRFMiddleware(CSRFConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if c := findCookie(w.Result().Cookies(), csrfCookieName); c != nil {
		t.Errorf("cookie should not be reissued, got %q", c.Value)
	}
}

func TestCSRFMiddleware_StateChangingRequest_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
	}{
		{name: "no cookie", header: "token-abc"},
		{name: "no header", cookie: "token-abc"},
		{name: "mismatch", cookie: "token-abc", header: "token-xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Code != model.ErrCodeCSRFInvalid {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeCSRFInvalid)
			}
		})
	}
}

func TestCSRFMiddleware_ValidToken_PassesThrough(t *testing.T) {
	called := false
	handler := NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		called = false
		req := httptest.NewRequest(method, "/api/cart/items", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-abc"})
		req.Header.Set(csrfHeaderName, "token-abc")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if !called {
			t.Errorf("%s: handler should have been called", method)
		}
	}
}

func TestCSRFTokenHandler_IssuesNewToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{CookieSecure: true, CookieDomain: "example.com"})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(body.Token))
	}

	c := findCookie(w.Result().Cookies(), csrfCookieName)
	if c == nil {
		t.Fatal("expected csrf_token cookie")
	}
	if c.Value != body.Token {
		t.Errorf("cookie value = %q, want %q", c.Value, body.Token)
	}
	if c.HttpOnly {
		t.Error("csrf cookie must be readable from JavaScript")
	}
	if !c.Secure {
		t.Error("csrf cookie should be Secure when configured")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
}

func TestCSRFTokenHandler_ReturnsExistingToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["token"] != "existing-token" {
		t.Errorf("token = %q, want %q", body["token"], "existing-token")
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
