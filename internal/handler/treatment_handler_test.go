package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/dermaassist/internal/model"
)

func TestTreatmentHandler_ListAndToggle(t *testing.T) {
	env := newTestEnv(t, testOptions{})
	env.signIn(t, "jane@example.com")

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/treatment-plans", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", w.Code, http.StatusOK)
	}
	plans := decodeBody[struct {
		Plans []model.TreatmentPlan `json:"plans"`
	}](t, w).Plans
	if len(plans) != 1 || plans[0].Progress != 50 {
		t.Fatalf("plans = %+v, want one plan at 50%%", plans)
	}

	w = env.do(newRequest(http.MethodPost, "/api/treatment-plans/1/steps/3/toggle", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decodeBody[model.TreatmentPlan](t, w).Progress; got != 75 {
		t.Errorf("progress = %d, want 75", got)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/treatment-plans/1", nil))
	plan := decodeBody[model.TreatmentPlan](t, w)
	if !plan.Steps[2].Completed {
		t.Error("toggled step should stay completed")
	}
}

func TestTreatmentHandler_NotFound(t *testing.T) {
	env := newTestEnv(t, testOptions{})
	env.signIn(t, "jane@example.com")

	tests := []struct {
		method, path, code string
	}{
		{http.MethodGet, "/api/treatment-plans/99", model.ErrCodePlanNotFound},
		{http.MethodPost, "/api/treatment-plans/1/steps/99/toggle", model.ErrCodeStepNotFound},
	}
	for _, tt := range tests {
		w := env.do(newRequest(tt.method, tt.path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, w.Code, http.StatusNotFound)
			continue
		}
		if code := errorCode(t, w); code != tt.code {
			t.Errorf("%s %s: code = %q, want %q", tt.method, tt.path, code, tt.code)
		}
	}
}
