package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	ErrCodeTokenMaxRefresh    = "ERR_TOKEN_MAX_REFRESH"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeAccountSuspended   = "ERR_ACCOUNT_SUSPENDED"
	ErrCodeCannotModifySelf   = "ERR_CANNOT_MODIFY_SELF"
	ErrCodeInvalidSignature   = "ERR_INVALID_SIGNATURE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeProductHasSales     = "ERR_PRODUCT_HAS_SALES"
	ErrCodeClaimPending        = "ERR_CLAIM_PENDING"
)

// Business rule error codes
const (
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeBusinessRule        = "ERR_BUSINESS_RULE"
	ErrCodeOutOfStock          = "ERR_OUT_OF_STOCK"
	ErrCodeInsufficientBalance = "ERR_INSUFFICIENT_BALANCE"
	ErrCodeWarrantyExpired     = "ERR_WARRANTY_EXPIRED"
	ErrCodeClaimResolved       = "ERR_CLAIM_RESOLVED"
	ErrCodeTopUpFinalized      = "ERR_TOPUP_FINALIZED"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Payment gateway error codes
const (
	ErrCodePaymentGateway     = "ERR_PAYMENT_GATEWAY"
	ErrCodePaymentUnavailable = "ERR_PAYMENT_GATEWAY_UNAVAILABLE"
)

// Unconfigured feature error codes
const (
	ErrCodeStorageDisabled   = "ERR_STORAGE_DISABLED"
	ErrCodeSchedulerDisabled = "ERR_SCHEDULER_DISABLED"
)

// Background job error codes
const (
	ErrCodeJobRunning = "ERR_JOB_RUNNING"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeTokenMaxRefresh:    http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeInvalidSignature:   http.StatusUnauthorized,
	ErrCodeAccountSuspended:   http.StatusForbidden,
	ErrCodeCannotModifySelf:   http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeProductHasSales:     http.StatusConflict,
	ErrCodeClaimPending:        http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodeOutOfStock:          http.StatusUnprocessableEntity,
	ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
	ErrCodeWarrantyExpired:     http.StatusUnprocessableEntity,
	ErrCodeClaimResolved:       http.StatusUnprocessableEntity,
	ErrCodeTopUpFinalized:      http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// Upstream payment failures
	ErrCodePaymentGateway:     http.StatusBadGateway,
	ErrCodePaymentUnavailable: http.StatusServiceUnavailable,

	ErrCodeStorageDisabled:   http.StatusServiceUnavailable,
	ErrCodeSchedulerDisabled: http.StatusServiceUnavailable,
	ErrCodeJobRunning:        http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted ERR_INVALID_* codes are field validation failures; anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":                   ErrCodeNotFound,
	"ALREADY_EXISTS":              ErrCodeAlreadyExists,
	"INVALID_INPUT":               ErrCodeInvalidInput,
	"INVALID_STATE":               ErrCodeInvalidState,
	"UNAUTHORIZED":                ErrCodeUnauthorized,
	"FORBIDDEN":                   ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":        ErrCodeConcurrencyConflict,
	"OUT_OF_STOCK":                ErrCodeOutOfStock,
	"INSUFFICIENT_BALANCE":        ErrCodeInsufficientBalance,
	"VALIDATION_ERROR":            ErrCodeValidation,
	"BAD_REQUEST":                 ErrCodeBadRequest,
	"INTERNAL_ERROR":              ErrCodeInternal,
	"TOKEN_EXPIRED":               ErrCodeTokenExpired,
	"TOKEN_INVALID":               ErrCodeTokenInvalid,
	"TOKEN_REVOKED":               ErrCodeTokenRevoked,
	"TOKEN_MAX_REFRESH":           ErrCodeTokenMaxRefresh,
	"INVALID_CREDENTIALS":         ErrCodeInvalidCredentials,
	"INVALID_SIGNATURE":           ErrCodeInvalidSignature,
	"ACCOUNT_SUSPENDED":           ErrCodeAccountSuspended,
	"CANNOT_MODIFY_SELF":          ErrCodeCannotModifySelf,
	"PRODUCT_HAS_SALES":           ErrCodeProductHasSales,
	"CLAIM_PENDING":               ErrCodeClaimPending,
	"CLAIM_RESOLVED":              ErrCodeClaimResolved,
	"WARRANTY_EXPIRED":            ErrCodeWarrantyExpired,
	"TOPUP_FINALIZED":             ErrCodeTopUpFinalized,
	"PAYMENT_GATEWAY_ERROR":       ErrCodePaymentGateway,
	"PAYMENT_GATEWAY_UNAVAILABLE": ErrCodePaymentUnavailable,
	"STORAGE_DISABLED":            ErrCodeStorageDisabled,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Codes already in ERR_ form pass through; other unlisted codes gain the ERR_ prefix.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	if code == "" || strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
