package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are "<MODULE>_<NNN>"; the module prefix is returned by ModuleForCode.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeOK                 ErrorCode = "OK"
	ErrCodeUnknown            ErrorCode = "COMMON_000"
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeConfigInvalid      ErrorCode = "COMMON_017"
	ErrCodeStorageError       ErrorCode = "COMMON_018"
	ErrCodeMessagingError     ErrorCode = "COMMON_019"
)

// Symptom extraction error codes
const (
	ErrCodeSynonymTableInvalid ErrorCode = "SYM_001"
	ErrCodeParserFailed        ErrorCode = "SYM_002"
	ErrCodeEmbeddingFailed     ErrorCode = "SYM_003"
	ErrCodeVectorsInvalid      ErrorCode = "SYM_004"
)

// Model error codes
const (
	ErrCodeModelNotLoaded       ErrorCode = "MDL_001"
	ErrCodeInvalidFeatureVector ErrorCode = "MDL_002"
	ErrCodeModelInference       ErrorCode = "MDL_003"
	ErrCodeModelTypeUnsupported ErrorCode = "MDL_004"
)

// Prediction pipeline error codes
const (
	ErrCodeNoSymptomsDetected    ErrorCode = "PRD_001"
	ErrCodeNoConfidentPrediction ErrorCode = "PRD_002"
)

// Recommendation error codes
const (
	ErrCodePatientNotFound    ErrorCode = "REC_001"
	ErrCodeCatalogUnavailable ErrorCode = "REC_002"
	ErrCodeInteractionLookup  ErrorCode = "REC_003"
)

// ErrorCodeHTTPStatus maps each code to the HTTP status surfaced by the API.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeOK:                 http.StatusOK,
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeConfigInvalid:      http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,

	ErrCodeSynonymTableInvalid: http.StatusInternalServerError,
	ErrCodeParserFailed:        http.StatusInternalServerError,
	ErrCodeEmbeddingFailed:     http.StatusInternalServerError,
	ErrCodeVectorsInvalid:      http.StatusInternalServerError,

	ErrCodeModelNotLoaded:       http.StatusServiceUnavailable,
	ErrCodeInvalidFeatureVector: http.StatusInternalServerError,
	ErrCodeModelInference:       http.StatusInternalServerError,
	ErrCodeModelTypeUnsupported: http.StatusInternalServerError,

	ErrCodeNoSymptomsDetected:    http.StatusBadRequest,
	ErrCodeNoConfidentPrediction: http.StatusUnprocessableEntity,

	ErrCodePatientNotFound:    http.StatusNotFound,
	ErrCodeCatalogUnavailable: http.StatusServiceUnavailable,
	ErrCodeInteractionLookup:  http.StatusBadGateway,
}

// ErrorCodeMessage holds the default user-facing message for each code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeOK:                 "ok",
	ErrCodeUnknown:            "unknown error",
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeConfigInvalid:      "invalid configuration",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessagingError:     "messaging error",

	ErrCodeSynonymTableInvalid: "invalid synonym table",
	ErrCodeParserFailed:        "text parser failed",
	ErrCodeEmbeddingFailed:     "text embedding failed",
	ErrCodeVectorsInvalid:      "invalid word vectors",

	ErrCodeModelNotLoaded:       "prediction model is not loaded",
	ErrCodeInvalidFeatureVector: "feature vector does not match model vocabulary",
	ErrCodeModelInference:       "model inference failed",
	ErrCodeModelTypeUnsupported: "unsupported model type",

	ErrCodeNoSymptomsDetected:    "no symptoms detected, please describe your symptoms more specifically",
	ErrCodeNoConfidentPrediction: "no diseases predicted with sufficient confidence",

	ErrCodePatientNotFound:    "patient record not found",
	ErrCodeCatalogUnavailable: "medication catalog unavailable",
	ErrCodeInteractionLookup:  "drug interaction lookup failed",
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
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of code.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
