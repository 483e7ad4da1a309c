package diagnosis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/dermaassist/internal/model"
	"github.com/hitoshi/dermaassist/internal/security"
)

// Image は解析対象の画像データ。
type Image struct {
	Data        []byte
	ContentType string
}

// ReadImage はrから最大maxBytesまで読み込み、画像形式を判定する。
// declaredTypeはクライアントが申告したContent-Type（HEICの判定にのみ使用）。
func ReadImage(r io.Reader, declaredType string, maxBytes int64) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return Image{}, model.NewImageRequiredError()
	}
	if int64(len(data)) > maxBytes {
		return Image{}, model.NewImageTooLargeError(maxBytes)
	}

	ct, ok := detectImageType(data, declaredType)
	if !ok {
		return Image{}, model.NewImageUnsupportedError(ct)
	}
	return Image{Data: data, ContentType: ct}, nil
}

// detectImageType はデータの先頭から画像形式を判定する。
// http.DetectContentTypeが判定できないHEIC/HEIFは、申告された型とftypボックスで判定する。
func detectImageType(data []byte, declaredType string) (string, bool) {
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "image/") {
		return ct, true
	}

	declared := strings.ToLower(strings.TrimSpace(declaredType))
	if (declared == "image/heic" || declared == "image/heif") && len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		return declared, true
	}
	return ct, false
}

// Fetcher はURLで指定された画像を取得する。
type Fetcher struct {
	client    *http.Client
	validator security.URLValidator
	maxBytes  int64
}

// NewFetcher はFetcherを生成する。
// clientにはSSRF対策済みのクライアント（security.SSRFGuard.NewSafeClient）を渡す。
func NewFetcher(client *http.Client, validator security.URLValidator, maxBytes int64) *Fetcher {
	return &Fetcher{client: client, validator: validator, maxBytes: maxBytes}
}

// Fetch はURLの画像を取得する。
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	if err := f.validator.ValidateURL(rawURL); err != nil {
		slog.Warn("image URL rejected",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return Image{}, model.NewURLBlockedError()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Image{}, model.NewURLBlockedError()
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Image{}, ctxErr
		}
		// 名前解決後の接続先がプライベートアドレスだった場合もここに来る
		slog.Warn("image fetch failed",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return Image{}, model.NewImageFetchFailedError("request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, model.NewImageFetchFailedError(fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	return ReadImage(resp.Body, resp.Header.Get("Content-Type"), f.maxBytes)
}
