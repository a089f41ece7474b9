package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a client-facing error carrying the HTTP status it maps to.
type AppError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func BadRequest(format string, args ...interface{}) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized() *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: http.StatusText(http.StatusUnauthorized)}
}

func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *AppError {
	return &AppError{Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// StatusOf returns the HTTP status for err, 500 for anything that is not an AppError.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }
func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }
func IsConflict(err error) bool { return StatusOf(err) == http.StatusConflict }
