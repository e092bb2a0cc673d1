package dto

import "net/http"

// Transport-level error codes
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidID    = "INVALID_ID"
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeBodyTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps domain and transport error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeInvalidID:         http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	"INVALID_INPUT":          http.StatusBadRequest,
	"INVALID_ADDRESS":        http.StatusBadRequest,
	"INVALID_COORDINATES":    http.StatusBadRequest,
	"INVALID_NAME":           http.StatusBadRequest,
	"INVALID_LEVEL":          http.StatusBadRequest,
	"INVALID_PARENT":         http.StatusBadRequest,
	"INVALID_BUILDING":       http.StatusBadRequest,
	"INVALID_PHONE":          http.StatusBadRequest,
	"INVALID_LOCATION_QUERY": http.StatusBadRequest,
	"INVALID_EMAIL":          http.StatusBadRequest,
	"INVALID_PASSWORD":       http.StatusBadRequest,

	// Business rule violations -> 400 Bad Request
	"SELF_REFERENCE":                   http.StatusBadRequest,
	"CIRCULAR_REFERENCE":               http.StatusBadRequest,
	"HAS_ORGANIZATIONS":                http.StatusBadRequest,
	"REGISTER_USER_ALREADY_EXISTS":     http.StatusBadRequest,
	"UPDATE_USER_EMAIL_ALREADY_EXISTS": http.StatusBadRequest,
	"LOGIN_BAD_CREDENTIALS":            http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	"USER_INACTIVE":     http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:  http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,
	"INVALID_STATE":  http.StatusConflict,

	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:  http.StatusTooManyRequests,

	"STORAGE_DISABLED": http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
