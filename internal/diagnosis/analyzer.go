// Package diagnosis はアップロードされた肌画像のモック解析を提供する。
// 実際の推論は行わず、固定の解析結果を一定時間後に返す。
package diagnosis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/dermaassist/internal/model"
)

// Analyzer は画像の解析を行う。
type Analyzer struct {
	delay time.Duration
	now   func() time.Time
	newID func() string
}

// NewAnalyzer はdelay後に結果を返すAnalyzerを生成する。
func NewAnalyzer(delay time.Duration) *Analyzer {
	return &Analyzer{
		delay: delay,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Analyze は画像を解析し、結果を返す。
// ctxがキャンセルされた場合は待機を中断してctx.Err()を返す。
func (a *Analyzer) Analyze(ctx context.Context, img Image) (*model.DiagnosisResult, error) {
	if len(img.Data) == 0 {
		return nil, model.NewImageRequiredError()
	}

	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			slog.Debug("diagnosis cancelled", slog.String("error", ctx.Err().Error()))
			return nil, ctx.Err()
		}
	}

	result := &model.DiagnosisResult{
		ID:         a.newID(),
		Condition:  "Mild Acne",
		Confidence: 92,
		Severity:   "Mild",
		Recommendations: []string{
			"Use a gentle cleanser twice daily",
			"Apply benzoyl peroxide treatment",
			"Avoid touching or picking at affected areas",
			"Consider consulting with a dermatologist",
		},
		Description: "The analysis indicates mild acne with some inflammatory papules. This condition is common and treatable with proper skincare routine.",
		ImageBytes:  int64(len(img.Data)),
		ImageType:   img.ContentType,
		AnalyzedAt:  a.now().UTC(),
	}

	slog.Info("diagnosis completed",
		slog.String("diagnosis_id", result.ID),
		slog.String("image_type", result.ImageType),
		slog.Int64("image_bytes", result.ImageBytes),
	)
	return result, nil
}
