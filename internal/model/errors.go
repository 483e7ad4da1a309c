// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"sort"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, store, diagnosis, system
	Action   string            // ユーザー向け対処方法
	Fields   map[string]string // フィールド単位のエラー（バリデーションエラーのみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, strings.Join(parts, "; "))
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeAlreadySignedIn    = "ALREADY_SIGNED_IN"
	ErrCodeSignInInProgress   = "SIGN_IN_IN_PROGRESS"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeCartItemNotFound   = "CART_ITEM_NOT_FOUND"
	ErrCodeCartEmpty          = "CART_EMPTY"
	ErrCodePlanNotFound       = "PLAN_NOT_FOUND"
	ErrCodeStepNotFound       = "STEP_NOT_FOUND"
	ErrCodeMessageNotFound    = "MESSAGE_NOT_FOUND"
	ErrCodeChannelNotFound    = "CHANNEL_NOT_FOUND"
	ErrCodeImageRequired      = "IMAGE_REQUIRED"
	ErrCodeImageTooLarge      = "IMAGE_TOO_LARGE"
	ErrCodeImageUnsupported   = "IMAGE_UNSUPPORTED"
	ErrCodeImageFetchFailed   = "IMAGE_FETCH_FAILED"
	ErrCodeURLBlocked         = "URL_BLOCKED"
	ErrCodeCSRFInvalid        = "CSRF_INVALID"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidCredentialsError はサインイン失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "Enter both your email address and password.",
	}
}

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
// fieldsが空の場合でもエラーとして扱う。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "Some fields are invalid.",
		Category: "validation",
		Action:   "Correct the highlighted fields and submit again.",
		Fields:   fields,
	}
}

// NewUnauthorizedError は未ログインエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Sign in required.",
		Category: "auth",
		Action:   "Sign in and try again.",
	}
}

// NewAlreadySignedInError はセッションが既に存在する場合のエラーを生成する。
func NewAlreadySignedInError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySignedIn,
		Message:  "You are already signed in.",
		Category: "auth",
		Action:   "Sign out first to use a different account.",
	}
}

// NewSignInInProgressError はサインイン処理が進行中の場合のエラーを生成する。
func NewSignInInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeSignInInProgress,
		Message:  "A sign-in request is already in progress.",
		Category: "auth",
		Action:   "Wait for the current request to finish.",
	}
}

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("Product not found: %s", productID),
		Category: "store",
		Action:   "Reload the product list.",
	}
}

// NewCartItemNotFoundError はカート内に商品が存在しない場合のエラーを生成する。
func NewCartItemNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeCartItemNotFound,
		Message:  fmt.Sprintf("Product is not in the cart: %s", productID),
		Category: "store",
		Action:   "Add the product to the cart first.",
	}
}

// NewCartEmptyError は空のカートでチェックアウトしようとした場合のエラーを生成する。
func NewCartEmptyError() *APIError {
	return &APIError{
		Code:     ErrCodeCartEmpty,
		Message:  "Your cart is empty.",
		Category: "store",
		Action:   "Add products before checking out.",
	}
}

// NewPlanNotFoundError は治療計画未検出エラーを生成する。
func NewPlanNotFoundError(planID string) *APIError {
	return &APIError{
		Code:     ErrCodePlanNotFound,
		Message:  fmt.Sprintf("Treatment plan not found: %s", planID),
		Category: "treatment",
		Action:   "Reload your treatment plans.",
	}
}

// NewStepNotFoundError は治療ステップ未検出エラーを生成する。
func NewStepNotFoundError(stepID string) *APIError {
	return &APIError{
		Code:     ErrCodeStepNotFound,
		Message:  fmt.Sprintf("Treatment step not found: %s", stepID),
		Category: "treatment",
		Action:   "Reload your treatment plans.",
	}
}

// NewMessageNotFoundError はコミュニティメッセージ未検出エラーを生成する。
func NewMessageNotFoundError(messageID string) *APIError {
	return &APIError{
		Code:     ErrCodeMessageNotFound,
		Message:  fmt.Sprintf("Message not found: %s", messageID),
		Category: "community",
		Action:   "Reload the conversation.",
	}
}

// NewChannelNotFoundError はチャンネル未検出エラーを生成する。
func NewChannelNotFoundError(channelID string) *APIError {
	return &APIError{
		Code:     ErrCodeChannelNotFound,
		Message:  fmt.Sprintf("Channel not found: %s", channelID),
		Category: "community",
		Action:   "Choose a channel from the list.",
	}
}

// NewImageRequiredError は画像が指定されていない場合のエラーを生成する。
func NewImageRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeImageRequired,
		Message:  "No image was provided.",
		Category: "diagnosis",
		Action:   "Choose a clear, well-lit photo of the skin area.",
	}
}

// NewImageTooLargeError は画像サイズ超過エラーを生成する。
func NewImageTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodeImageTooLarge,
		Message:  fmt.Sprintf("The image exceeds the %d MB limit.", maxBytes/(1<<20)),
		Category: "diagnosis",
		Action:   "Upload a smaller photo.",
	}
}

// NewImageUnsupportedError は画像形式が未対応の場合のエラーを生成する。
func NewImageUnsupportedError(contentType string) *APIError {
	return &APIError{
		Code:     ErrCodeImageUnsupported,
		Message:  fmt.Sprintf("Unsupported file type: %s", contentType),
		Category: "diagnosis",
		Action:   "Upload a JPG or PNG photo.",
	}
}

// NewImageFetchFailedError は画像URLの取得失敗エラーを生成する。
func NewImageFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeImageFetchFailed,
		Message:  fmt.Sprintf("Could not download the image: %s", reason),
		Category: "diagnosis",
		Action:   "Check the image URL or upload the file directly.",
	}
}

// NewURLBlockedError はSSRF防止によりURLが拒否された場合のエラーを生成する。
func NewURLBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeURLBlocked,
		Message:  "The image URL is not allowed.",
		Category: "validation",
		Action:   "Use a public https image URL.",
	}
}

// NewCSRFError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRF token validation failed.",
		Category: "auth",
		Action:   "Reload the page and try again.",
	}
}

// NewRateLimitError はレート制限超過エラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	}
}

// NewNotFoundError はAPIエンドポイント未検出エラーを生成する。
func NewNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "The requested resource was not found.",
		Category: "system",
		Action:   "Check the URL.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}
