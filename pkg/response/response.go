package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Application-level error codes. The first three digits mirror the HTTP
// status; the last digit disambiguates errors sharing a status.
const (
	CodeOK                  = 0
	CodeInvalidInput        = 4000
	CodeUnauthorized        = 4010
	CodeTokenExpired        = 4011
	CodeSystemBlocked       = 4030
	CodeIntegrationDisabled = 4031
	CodeForbidden           = 4032
	CodeNotFound            = 4040
	CodeDuplicateSubmission = 4090
	CodeConfiguration       = 5000
	CodeUpstreamStore       = 5001
)

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	HTTPStatus int    // HTTP status code (e.g. 400, 409, 500)
	Code       int    // Application-level error code
	ErrorKey   string // Stable machine-readable key for clients
	Message    string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

// Error constructors for the domain taxonomy.

func NewInvalidInput(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeInvalidInput, ErrorKey: "invalid_input", Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: CodeUnauthorized, ErrorKey: "unauthorized", Message: msg}
}

func NewTokenExpired(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: CodeTokenExpired, ErrorKey: "token_expired", Message: msg}
}

func NewSystemBlocked(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: CodeSystemBlocked, ErrorKey: "system_blocked", Message: msg}
}

func NewIntegrationDisabled(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: CodeIntegrationDisabled, ErrorKey: "integration_disabled", Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: CodeForbidden, ErrorKey: "forbidden", Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: CodeNotFound, ErrorKey: "not_found", Message: msg}
}

func NewDuplicateSubmission(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: CodeDuplicateSubmission, ErrorKey: "duplicate_submission", Message: msg}
}

func NewConfigurationError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: CodeConfiguration, ErrorKey: "configuration_error", Message: msg}
}

func NewUpstreamStoreError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: CodeUpstreamStore, ErrorKey: "storage_error", Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeOK,
		Message: "created",
		Data:    data,
	})
}

// Error sends an error response. If err is an *AppError, its code and status
// are used; otherwise a generic 500 internal server error is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Error:   appErr.ErrorKey,
			Message: appErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    CodeUpstreamStore,
		Error:   "internal_error",
		Message: err.Error(),
	})
}

// IsAppError reports whether err carries the given application code.
func IsAppError(err error, code int) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
