package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dermaassist/internal/model"
)

// TreatmentServiceInterface は治療計画ハンドラーが必要とするサービスインターフェース。
type TreatmentServiceInterface interface {
	List() []model.TreatmentPlan
	Get(planID string) (model.TreatmentPlan, error)
	ToggleStep(planID, stepID string) (model.TreatmentPlan, error)
}

// TreatmentHandler は治療計画のHTTPハンドラー。
type TreatmentHandler struct {
	service TreatmentServiceInterface
}

// NewTreatmentHandler はTreatmentHandlerを生成する。
func NewTreatmentHandler(service TreatmentServiceInterface) *TreatmentHandler {
	return &TreatmentHandler{service: service}
}

// ListPlans は治療計画の一覧を返す。
// GET /api/treatment-plans
func (h *TreatmentHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"plans": h.service.List()})
}

// GetPlan は治療計画を1件返す。
// GET /api/treatment-plans/{planID}
func (h *TreatmentHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.Get(chi.URLParam(r, "planID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ToggleStep はステップの完了状態を切り替え、更新後の計画を返す。
// POST /api/treatment-plans/{planID}/steps/{stepID}/toggle
func (h *TreatmentHandler) ToggleStep(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.ToggleStep(chi.URLParam(r, "planID"), chi.URLParam(r, "stepID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
