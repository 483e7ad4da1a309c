package model

// TreatmentStep は治療計画の1ステップを表す。
type TreatmentStep struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	Duration    string `json:"duration"`
	Type        string `json:"type"` // medication, topical, lifestyle
	Completed   bool   `json:"completed"`
}

// TreatmentPlan は患者の治療計画を表す。
// Progressは完了ステップの割合（0〜100、四捨五入）。
type TreatmentPlan struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Condition string          `json:"condition"`
	Severity  string          `json:"severity"`
	Duration  string          `json:"duration"`
	Doctor    string          `json:"doctor"`
	Progress  int             `json:"progress"`
	Steps     []TreatmentStep `json:"steps"`
}
