package dto

// Response is the standard API envelope.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo carries error details.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes returned in the envelope.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUnavailable  = "UNAVAILABLE"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// NewSuccessResponse creates a success envelope
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewErrorResponse creates an error envelope
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}
