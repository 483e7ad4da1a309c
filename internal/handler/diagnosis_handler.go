package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/dermaassist/internal/diagnosis"
	"github.com/hitoshi/dermaassist/internal/model"
)

// ImageFetcher はURLの画像を取得する。diagnosis.Fetcherが実装する。
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (diagnosis.Image, error)
}

// ImageAnalyzer は画像を解析する。diagnosis.Analyzerが実装する。
type ImageAnalyzer interface {
	Analyze(ctx context.Context, img diagnosis.Image) (*model.DiagnosisResult, error)
}

// LatencyRecorder は診断の処理時間を記録する。
type LatencyRecorder interface {
	RecordDiagnosisLatency(duration time.Duration)
}

// DiagnosisHandler は肌画像診断のHTTPハンドラー。
type DiagnosisHandler struct {
	fetcher  ImageFetcher
	analyzer ImageAnalyzer
	recorder LatencyRecorder
	maxBytes int64
}

// NewDiagnosisHandler はDiagnosisHandlerを生成する。maxBytesはアップロード画像の上限。
func NewDiagnosisHandler(fetcher ImageFetcher, analyzer ImageAnalyzer, recorder LatencyRecorder, maxBytes int64) *DiagnosisHandler {
	return &DiagnosisHandler{
		fetcher:  fetcher,
		analyzer: analyzer,
		recorder: recorder,
		maxBytes: maxBytes,
	}
}

type diagnoseURLRequest struct {
	ImageURL string `json:"image_url"`
}

// multipartOverhead はmultipartの境界やヘッダー分の余裕。
const multipartOverhead = 64 << 10

// Diagnose は画像を受け取り、解析結果を返す。
// multipart/form-dataのimageフィールド、またはJSONの{"image_url": "..."}を受け付ける。
// POST /api/diagnosis
func (h *DiagnosisHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	img, err := h.readImage(w, r)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		handleServiceError(w, err)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), img)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			slog.Info("diagnosis request cancelled")
			return
		}
		handleServiceError(w, err)
		return
	}

	h.recorder.RecordDiagnosisLatency(time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (h *DiagnosisHandler) readImage(w http.ResponseWriter, r *http.Request) (diagnosis.Image, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if strings.HasPrefix(mediaType, "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
		file, header, err := r.FormFile("image")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return diagnosis.Image{}, model.NewImageTooLargeError(h.maxBytes)
			}
			return diagnosis.Image{}, model.NewImageRequiredError()
		}
		defer file.Close()
		return diagnosis.ReadImage(file, header.Header.Get("Content-Type"), h.maxBytes)
	}

	var req diagnoseURLRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ImageURL) == "" {
		return diagnosis.Image{}, model.NewImageRequiredError()
	}
	return h.fetcher.Fetch(r.Context(), strings.TrimSpace(req.ImageURL))
}
