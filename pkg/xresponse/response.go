package xresponse

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response represents the standard API response format
type Response struct {
	Code      int         `json:"code"`
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorResponse represents the error response format
type ErrorResponse struct {
	Code      int         `json:"code"`
	Status    string      `json:"status"`
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Error codes surfaced to the presentation layer
const (
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodePlanLocked          = "PLAN_LOCKED"
	ErrCodeLimitExceeded       = "LIMIT_EXCEEDED"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
)

// Success sends a 200 success response
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      http.StatusOK,
		Status:    "success",
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// Created sends a 201 created response
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:      http.StatusCreated,
		Status:    "success",
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// Error sends an error response
func Error(c *gin.Context, statusCode int, errorCode, message string) {
	c.JSON(statusCode, ErrorResponse{
		Code:      statusCode,
		Status:    "error",
		ErrorCode: errorCode,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// ErrorWithDetails sends an error response with details
func ErrorWithDetails(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Code:      statusCode,
		Status:    "error",
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Unix(),
	})
}

// BadRequest sends a 400 validation failure
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, ErrCodeValidationFailed, message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, ErrCodeConflict, message)
}

// InvalidState sends a 409 response for decisions on closed transactions
func InvalidState(c *gin.Context, message string) {
	Error(c, http.StatusConflict, ErrCodeInvalidState, message)
}

// PlanLocked sends a 403 response for purchases of non-enabled plans
func PlanLocked(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, ErrCodePlanLocked, message)
}

// LimitExceeded sends a 409 response for per-plan cap violations
func LimitExceeded(c *gin.Context, message string) {
	Error(c, http.StatusConflict, ErrCodeLimitExceeded, message)
}

// InsufficientBalance sends a 400 response carrying the shortfall
func InsufficientBalance(c *gin.Context, message string, shortfall int64) {
	ErrorWithDetails(c, http.StatusBadRequest, ErrCodeInsufficientBalance, message, gin.H{
		"shortfall": shortfall,
	})
}

// InvalidCredentials sends a 401 response for failed logins
func InvalidCredentials(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, message)
}

// InternalServerError sends a 500 response
func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}
