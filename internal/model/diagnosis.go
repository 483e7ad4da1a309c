package model

import "time"

// DiagnosisResult はモックAIによる肌画像解析の結果を表す。
type DiagnosisResult struct {
	ID              string    `json:"id"`
	Condition       string    `json:"condition"`
	Confidence      int       `json:"confidence"`
	Severity        string    `json:"severity"`
	Recommendations []string  `json:"recommendations"`
	Description     string    `json:"description"`
	ImageBytes      int64     `json:"image_bytes"`
	ImageType       string    `json:"image_type"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}
