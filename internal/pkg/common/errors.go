package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string `json:"error"`             // 錯誤信息
	Code    string `json:"code,omitempty"`    // 錯誤代碼
	Details string `json:"details,omitempty"` // 詳細信息
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示缺少或不合法的輸入
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// UpstreamExtractionError 模型呼叫失敗或回應無法還原為 JSON
type UpstreamExtractionError struct {
	Source string
	Err    error
}

func (e *UpstreamExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Source, e.Err)
}

func (e *UpstreamExtractionError) Unwrap() error {
	return e.Err
}

// MalformedExtractionError 模型回應不是可解析的 JSON 物件
type MalformedExtractionError struct {
	Raw string
	Err error
}

func (e *MalformedExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed extraction: %v", e.Err)
	}
	return "malformed extraction: no JSON object found"
}

func (e *MalformedExtractionError) Unwrap() error {
	return e.Err
}

// IsUpstreamError 檢查是否為模型相關錯誤（包含格式錯誤）
func IsUpstreamError(err error) bool {
	var upstream *UpstreamExtractionError
	var malformed *MalformedExtractionError
	return errors.As(err, &upstream) || errors.As(err, &malformed)
}

// StoreError 儲存層失敗
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStoreError 包裝儲存層錯誤；找不到資源時保持原樣
func WrapStoreError(op string, err error) error {
	if err == nil || errors.Is(err, ErrRecipeNotFound) {
		return err
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405
	ErrCodeConflict         = "CONFLICT"           // 409
	ErrCodeTooLarge         = "PAYLOAD_TOO_LARGE"  // 413
	ErrCodeUnprocessable    = "MANUAL_ENTRY"       // 422
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	ErrCodeInternalError  = "INTERNAL_ERROR"      // 500
	ErrCodeUpstream       = "UPSTREAM_ERROR"      // 500
	ErrCodeStore          = "STORE_ERROR"         // 500
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrManualEntryRequired = errors.New("extraction produced no recipe name, manual entry required")
	ErrNotPending          = errors.New("recipe has no pending delete")
	ErrStorageDisabled     = errors.New("photo storage is disabled")
	ErrProviderDisabled    = errors.New("analysis provider is not configured")
	ErrCacheMiss           = errors.New("cache miss")

	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "request too frequent", http.StatusTooManyRequests, nil)
	ErrInternalError   = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrGatewayTimeout  = NewError(ErrCodeGatewayTimeout, "request timeout", http.StatusGatewayTimeout, nil)
)

// HTTPStatus 將錯誤對應到 HTTP 狀態碼與錯誤代碼
func HTTPStatus(err error) (int, string) {
	var custom *CustomError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &custom):
		return custom.Status, custom.Code
	case IsValidationError(err):
		return http.StatusBadRequest, ErrCodeInvalidRequest
	case errors.Is(err, ErrRecipeNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, ErrNotPending):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, ErrManualEntryRequired):
		return http.StatusUnprocessableEntity, ErrCodeUnprocessable
	case errors.Is(err, ErrStorageDisabled):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	case IsUpstreamError(err):
		return http.StatusInternalServerError, ErrCodeUpstream
	default:
		var storeErr *StoreError
		if errors.As(err, &storeErr) {
			return http.StatusInternalServerError, ErrCodeStore
		}
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}
