package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain errors carry their own codes
// (NOT_FOUND, INSUFFICIENT_STOCK, ...) which map to statuses below.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// errorCodeHTTPStatus maps error codes to HTTP statuses. Codes not
// listed here fall through to the prefix rules in GetHTTPStatus.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	"INVALID_SIGNATURE": http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:     http.StatusNotFound,
	"ADDRESS_NOT_FOUND": http.StatusNotFound,
	"ITEM_NOT_FOUND":    http.StatusNotFound,
	"LINE_NOT_FOUND":    http.StatusNotFound,

	"ALREADY_EXISTS":       http.StatusConflict,
	ErrCodeConflict:        http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// business rule violations
	"INVALID_STATE":         http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":    http.StatusUnprocessableEntity,
	"CREDIT_LIMIT_EXCEEDED": http.StatusUnprocessableEntity,
	"QUOTA_EXCEEDED":        http.StatusUnprocessableEntity,
	"PRICE_NOT_RESOLVED":    http.StatusUnprocessableEntity,
	"OVERPAYMENT":           http.StatusUnprocessableEntity,

	// audit ingest rejects the whole batch before writing any row
	"BATCH_TOO_LARGE": http.StatusBadRequest,
	"EMPTY_BATCH":     http.StatusBadRequest,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status for an error code. Unlisted
// INVALID_*/MISSING_* codes are input problems (400); anything else
// unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") || strings.HasPrefix(code, "MISSING_") ||
		strings.HasPrefix(code, "NO_") || strings.HasSuffix(code, "_TOO_LARGE") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
