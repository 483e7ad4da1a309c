package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/dermaassist/internal/model"
)

func decodeLogEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/treatment", nil))

	entry := decodeLogEntry(t, &buf)
	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want %q", entry["msg"], "http_request")
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	if entry["path"] != "/treatment" {
		t.Errorf("path = %v, want /treatment", entry["path"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected duration_ms field")
	}
	if _, ok := entry["session_id"]; ok {
		t.Error("session_id should be absent for anonymous requests")
	}
}

func TestLoggingMiddleware_IncludesSession(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req = req.WithContext(ContextWithSession(req.Context(), testSession(model.RoleDoctor)))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLogEntry(t, &buf)
	if entry["session_id"] != "1" {
		t.Errorf("session_id = %v, want %q", entry["session_id"], "1")
	}
	if entry["role"] != "doctor" {
		t.Errorf("role = %v, want %q", entry["role"], "doctor")
	}
}

func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusFound, "INFO"},
		{http.StatusConflict, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		entry := decodeLogEntry(t, &buf)
		if entry["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, entry["level"], tt.level)
		}
	}
}

type mockStatusRecorder struct {
	codes []int
}

func (m *mockStatusRecorder) RecordHTTPStatus(statusCode int) {
	m.codes = append(m.codes, statusCode)
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	rec := &mockStatusRecorder{}
	handler := NewMetricsMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	// 何も書き込まないハンドラーは200として記録する
	NewMetricsMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(rec.codes) != 2 || rec.codes[0] != http.StatusTooManyRequests || rec.codes[1] != http.StatusOK {
		t.Errorf("recorded codes = %v, want [429 200]", rec.codes)
	}
}

// ログとメトリクスを重ねても、ResponseWriterのラップは1段で済むことを検証
func TestStatusRecorder_SharedAcrossMiddlewares(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rec := &mockStatusRecorder{}

	var inner http.ResponseWriter
	handler := NewLoggingMiddleware(logger)(NewMetricsMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = w
		w.WriteHeader(http.StatusCreated)
	})))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/cart/checkout", nil))

	sr, ok := inner.(*statusRecorder)
	if !ok {
		t.Fatalf("inner writer = %T, want *statusRecorder", inner)
	}
	if sr.Unwrap() != w {
		t.Error("statusRecorder should wrap the original writer directly")
	}
	if entry := decodeLogEntry(t, &buf); entry["status"] != float64(201) {
		t.Errorf("logged status = %v, want 201", entry["status"])
	}
}
