package fetch

import "fmt"

// Error codes for fetch failures.
const (
	ErrCodeInvalidURL = "INVALID_URL"
	ErrCodeTransport  = "TRANSPORT"
	ErrCodeHTTPStatus = "HTTP_STATUS"
	ErrCodeReadBody   = "READ_BODY"
)

// Error describes why a status fetch produced no payload.
type Error struct {
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
