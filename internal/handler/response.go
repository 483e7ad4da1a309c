// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/dermaassist/internal/auth"
	"github.com/hitoshi/dermaassist/internal/middleware"
	"github.com/hitoshi/dermaassist/internal/model"
)

// maxJSONBodyBytes はJSONリクエストボディの上限。
const maxJSONBodyBytes = 1 << 20

// writeJSON はvをJSONとして書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをvにデコードする。
// 失敗した場合は400レスポンスを書き込み、falseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "Failed to parse the request body.",
			Category: "validation",
			Action:   "Send a valid JSON body.",
		})
		return false
	}
	return true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	if errors.Is(err, auth.ErrInvalidCredentials) {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	if errors.Is(err, auth.ErrRoleChangeRequiresSignOut) {
		middleware.WriteErrorResponse(w, http.StatusConflict, model.NewAlreadySignedInError())
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case model.ErrCodeURLBlocked, model.ErrCodeCSRFInvalid:
		return http.StatusForbidden
	case model.ErrCodeAlreadySignedIn, model.ErrCodeSignInInProgress:
		return http.StatusConflict
	case model.ErrCodeProductNotFound, model.ErrCodeCartItemNotFound,
		model.ErrCodePlanNotFound, model.ErrCodeStepNotFound,
		model.ErrCodeMessageNotFound, model.ErrCodeChannelNotFound,
		model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeCartEmpty:
		return http.StatusUnprocessableEntity
	case model.ErrCodeImageRequired:
		return http.StatusBadRequest
	case model.ErrCodeImageTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.ErrCodeImageUnsupported:
		return http.StatusUnsupportedMediaType
	case model.ErrCodeImageFetchFailed:
		return http.StatusBadGateway
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
