// Package treatment は治療計画とステップの完了状態を管理する。
package treatment

import (
	"log/slog"
	"math"
	"sync"

	"github.com/hitoshi/dermaassist/internal/model"
)

// Service は治療計画を保持し、ステップの完了切り替えを行う。
type Service struct {
	mu    sync.RWMutex
	plans []model.TreatmentPlan
}

// NewService は治療計画の初期値からServiceを生成する。
// 各計画の進捗はステップの完了状態から再計算する。
func NewService(plans []model.TreatmentPlan) *Service {
	s := &Service{plans: make([]model.TreatmentPlan, len(plans))}
	for i, p := range plans {
		p = clonePlan(p)
		p.Progress = Progress(p.Steps)
		s.plans[i] = p
	}
	return s
}

// DefaultPlans はデモ用の治療計画を返す。
func DefaultPlans() []model.TreatmentPlan {
	return []model.TreatmentPlan{
		{
			ID:        "1",
			Title:     "Acne Treatment Plan",
			Condition: "Mild Acne Vulgaris",
			Severity:  "mild",
			Duration:  "8 weeks",
			Doctor:    "Dr. Sarah Johnson",
			Steps: []model.TreatmentStep{
				{ID: "1", Title: "Morning Cleanser", Description: "Use gentle foaming cleanser with salicylic acid", Frequency: "Once daily (morning)", Duration: "8 weeks", Type: "topical", Completed: true},
				{ID: "2", Title: "Benzoyl Peroxide Treatment", Description: "Apply 2.5% benzoyl peroxide gel to affected areas", Frequency: "Once daily (evening)", Duration: "8 weeks", Type: "topical", Completed: true},
				{ID: "3", Title: "Moisturizer", Description: "Apply non-comedogenic moisturizer", Frequency: "Twice daily", Duration: "8 weeks", Type: "topical"},
				{ID: "4", Title: "Sun Protection", Description: "Apply broad-spectrum SPF 30+ sunscreen", Frequency: "Daily (morning)", Duration: "8 weeks", Type: "lifestyle"},
			},
		},
	}
}

// Progress は完了したステップの割合を0〜100の整数で返す（四捨五入）。
// ステップがない場合は0を返す。
func Progress(steps []model.TreatmentStep) int {
	if len(steps) == 0 {
		return 0
	}
	completed := 0
	for _, st := range steps {
		if st.Completed {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(steps)) * 100))
}

// List はすべての治療計画のコピーを返す。
func (s *Service) List() []model.TreatmentPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TreatmentPlan, len(s.plans))
	for i, p := range s.plans {
		out[i] = clonePlan(p)
	}
	return out
}

// Get はIDに対応する治療計画を返す。
func (s *Service) Get(planID string) (model.TreatmentPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plans {
		if p.ID == planID {
			return clonePlan(p), nil
		}
	}
	return model.TreatmentPlan{}, model.NewPlanNotFoundError(planID)
}

// ToggleStep はステップの完了状態を反転し、進捗を再計算した計画を返す。
func (s *Service) ToggleStep(planID, stepID string) (model.TreatmentPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pi := -1
	for i := range s.plans {
		if s.plans[i].ID == planID {
			pi = i
			break
		}
	}
	if pi < 0 {
		return model.TreatmentPlan{}, model.NewPlanNotFoundError(planID)
	}

	plan := &s.plans[pi]
	for i := range plan.Steps {
		if plan.Steps[i].ID != stepID {
			continue
		}
		plan.Steps[i].Completed = !plan.Steps[i].Completed
		plan.Progress = Progress(plan.Steps)

		slog.Debug("treatment step toggled",
			slog.String("plan_id", planID),
			slog.String("step_id", stepID),
			slog.Bool("completed", plan.Steps[i].Completed),
			slog.Int("progress", plan.Progress),
		)
		return clonePlan(*plan), nil
	}
	return model.TreatmentPlan{}, model.NewStepNotFoundError(stepID)
}

func clonePlan(p model.TreatmentPlan) model.TreatmentPlan {
	steps := make([]model.TreatmentStep, len(p.Steps))
	copy(steps, p.Steps)
	p.Steps = steps
	return p
}
