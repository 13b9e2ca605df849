package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an application error carrying the HTTP status to answer with and a
// stable machine-readable reason the UI can switch on.
type Error struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same reason, so copies made
// by Wrap and WithMessage still match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// New creates a new Error
func New(code int, reason, message string) *Error {
	return &Error{
		Code:    code,
		Reason:  reason,
		Message: message,
	}
}

// From converts any error into an *Error, defaulting to an internal error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.Wrap(err)
}

// Respond writes err as the JSON body of a gin response.
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	c.JSON(appErr.Code, appErr)
}

// ErrorMiddleware answers with the last error a handler attached via c.Error
// when the handler did not write a response itself.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		Respond(c, c.Errors.Last().Err)
		c.Abort()
	}
}

// Common error types
var (
	ErrBadRequest     = New(http.StatusBadRequest, "bad_request", "Bad request")
	ErrUnauthorized   = New(http.StatusUnauthorized, "unauthorized", "Unauthorized")
	ErrForbidden      = New(http.StatusForbidden, "forbidden", "Forbidden")
	ErrNotFound       = New(http.StatusNotFound, "not_found", "Not found")
	ErrInternalServer = New(http.StatusInternalServerError, "internal", "Internal server error")
)

// Validation error types
var (
	ErrInvalidInput = New(http.StatusBadRequest, "invalid_input", "Invalid input")
)
