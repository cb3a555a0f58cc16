package dto

// APIError represents a structured error response.
// All error responses from the API use this format for consistency.
type APIError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Residual string `json:"residual,omitempty"` // set for unbalanced resolves only
}

// Common error codes
const (
	ErrCodeNotFound          = "not_found"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeInternalError     = "internal_error"
	ErrCodeValidation        = "validation_error"
	ErrCodeInvalidAdjustment = "invalid_adjustment"
	ErrCodeUnbalanced        = "unbalanced_reconciliation"
	ErrCodeNoGapToFill       = "no_gap_to_fill"
	ErrCodeAlreadyReconciled = "already_reconciled"
	ErrCodeConflict          = "concurrent_modification"
	ErrCodeStoreUnavailable  = "store_unavailable"
	ErrCodePayloadTooLarge   = "payload_too_large"
)

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// NotFoundError creates a not found error response.
func NotFoundError(resource string) APIError {
	return NewAPIError(ErrCodeNotFound, resource+" not found")
}

// BadRequestError creates a bad request error response.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// InternalError creates an internal server error response.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternalError, "an internal error occurred")
}

// ValidationError creates a validation error response.
func ValidationError(message string) APIError {
	return NewAPIError(ErrCodeValidation, message)
}

// UnbalancedError carries the residual the operator still has to explain.
func UnbalancedError(message, residual string) APIError {
	return APIError{
		Code:     ErrCodeUnbalanced,
		Message:  message,
		Residual: residual,
	}
}
