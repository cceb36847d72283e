package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string code of the form "<MODULE>_<NNN>".
type ErrorCode string

// String returns the code text.
func (c ErrorCode) String() string { return string(c) }

// Sentinel codes that do not map to a failure.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Common errors
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeInvalidParam       ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeNotImplemented     ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeSerialization      ErrorCode = "COMMON_010"
	ErrCodeRateLimited        ErrorCode = "COMMON_011"
)

// Query pipeline errors
const (
	ErrCodeEmptyQuery      ErrorCode = "NLQ_001"
	ErrCodePromptInjection ErrorCode = "NLQ_002"
	ErrCodeQueryTooLong    ErrorCode = "NLQ_003"
)

// Clarification errors
const (
	ErrCodeClarificationNotFound ErrorCode = "CLR_001"
	ErrCodeInvalidAnswer         ErrorCode = "CLR_002"
)

// Numerical query errors
const (
	ErrCodeUnsupportedEntity    ErrorCode = "NUM_001"
	ErrCodeUnsupportedOperation ErrorCode = "NUM_002"
	ErrCodeInvalidFilter        ErrorCode = "NUM_003"
)

// Conversation errors
const (
	ErrCodeSessionNotFound ErrorCode = "CTX_001"
	ErrCodeSessionClosed   ErrorCode = "CTX_002"
	ErrCodeInvalidTurn     ErrorCode = "CTX_003"
)

// Generative backend errors
const (
	ErrCodeGenerativeUnavailable ErrorCode = "AI_001"
	ErrCodeGenerativeResponse    ErrorCode = "AI_002"
)

// Data store errors
const (
	ErrCodeDataStore       ErrorCode = "DS_001"
	ErrCodeDBConnection    ErrorCode = "DS_002"
	ErrCodeUnknownTable    ErrorCode = "DS_003"
	ErrCodeUnknownColumn   ErrorCode = "DS_004"
	ErrCodeMessagePublish  ErrorCode = "DS_005"
)

// ErrorCodeHTTPStatus maps codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeInvalidParam:       http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeRateLimited:        http.StatusTooManyRequests,

	ErrCodeEmptyQuery:      http.StatusBadRequest,
	ErrCodePromptInjection: http.StatusBadRequest,
	ErrCodeQueryTooLong:    http.StatusBadRequest,

	ErrCodeClarificationNotFound: http.StatusNotFound,
	ErrCodeInvalidAnswer:         http.StatusBadRequest,

	ErrCodeUnsupportedEntity:    http.StatusUnprocessableEntity,
	ErrCodeUnsupportedOperation: http.StatusUnprocessableEntity,
	ErrCodeInvalidFilter:        http.StatusBadRequest,

	ErrCodeSessionNotFound: http.StatusNotFound,
	ErrCodeSessionClosed:   http.StatusConflict,
	ErrCodeInvalidTurn:     http.StatusBadRequest,

	ErrCodeGenerativeUnavailable: http.StatusServiceUnavailable,
	ErrCodeGenerativeResponse:    http.StatusBadGateway,

	ErrCodeDataStore:      http.StatusInternalServerError,
	ErrCodeDBConnection:   http.StatusServiceUnavailable,
	ErrCodeUnknownTable:   http.StatusBadRequest,
	ErrCodeUnknownColumn:  http.StatusBadRequest,
	ErrCodeMessagePublish: http.StatusInternalServerError,
}

// ErrorCodeMessage holds the default message for each code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:              "internal error",
	ErrCodeInvalidParam:          "invalid parameter",
	ErrCodeNotFound:              "resource not found",
	ErrCodeConflict:              "resource conflict",
	ErrCodeTimeout:               "operation timed out",
	ErrCodeServiceUnavailable:    "service unavailable",
	ErrCodeValidation:            "validation failed",
	ErrCodeNotImplemented:        "not implemented",
	ErrCodeCacheError:            "cache error",
	ErrCodeSerialization:         "serialization error",
	ErrCodeRateLimited:           "rate limit exceeded",
	ErrCodeEmptyQuery:            "query is empty",
	ErrCodePromptInjection:       "query rejected",
	ErrCodeQueryTooLong:          "query too long",
	ErrCodeClarificationNotFound: "request not found",
	ErrCodeInvalidAnswer:         "invalid clarification answer",
	ErrCodeUnsupportedEntity:     "unsupported entity type",
	ErrCodeUnsupportedOperation:  "unsupported operation",
	ErrCodeInvalidFilter:         "invalid filter",
	ErrCodeSessionNotFound:       "session not found",
	ErrCodeSessionClosed:         "session closed",
	ErrCodeInvalidTurn:           "invalid conversation turn",
	ErrCodeGenerativeUnavailable: "generative backend unavailable",
	ErrCodeGenerativeResponse:    "invalid generative backend response",
	ErrCodeDataStore:             "data store error",
	ErrCodeDBConnection:          "database connection error",
	ErrCodeUnknownTable:          "unknown table",
	ErrCodeUnknownColumn:         "unknown column",
	ErrCodeMessagePublish:        "message publish failed",
}

// HTTPStatusForCode returns the HTTP status for code, 500 when unmapped.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for code.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError reports whether code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode returns the module prefix of code ("NUM" for "NUM_001").
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	if i := strings.Index(s, "_"); i > 0 {
		return s[:i]
	}
	return ""
}

//Personal.AI order the ending
