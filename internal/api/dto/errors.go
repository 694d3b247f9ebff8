package dto

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeNotFound       = "not_found"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInternalError  = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeInvalidOptions = "invalid_options"
	ErrCodeRunInProgress  = "run_in_progress"
)

// NotFoundError reports a missing bill, operation or run.
func NotFoundError(resource string) APIError {
	return APIError{Code: ErrCodeNotFound, Message: resource + " not found"}
}

// BadRequestError reports a request that could not be read.
func BadRequestError(message string) APIError {
	return APIError{Code: ErrCodeBadRequest, Message: message}
}

// InternalError hides the cause of a server-side failure.
func InternalError() APIError {
	return APIError{Code: ErrCodeInternalError, Message: "an internal error occurred"}
}

// ValidationError reports query parameters that parse but do not fit together.
func ValidationError(message string) APIError {
	return APIError{Code: ErrCodeValidation, Message: message}
}

// InvalidOptionsError reports matching options that would build an unusable
// window, such as a negative date window.
func InvalidOptionsError(cause error) APIError {
	return APIError{Code: ErrCodeInvalidOptions, Message: cause.Error()}
}

// RunInProgressError tells the caller another link run holds the store.
func RunInProgressError() APIError {
	return APIError{Code: ErrCodeRunInProgress, Message: "a link run is already in progress"}
}
