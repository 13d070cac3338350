// Package apperr defines the HTTP error taxonomy and the single translation
// layer that turns any error into the uniform {error, details?} JSON body.
package apperr

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error is an HTTP-mappable application error.
type Error struct {
	Status  int
	Message string
	// Code is an optional machine-readable marker, e.g. "TOKEN_EXPIRED".
	Code string
}

func (e *Error) Error() string { return e.Message }

func BadRequest(msg string) *Error { return &Error{Status: http.StatusBadRequest, Message: msg} }

// Conflict maps duplicate unique fields. The API reports these as 400.
func Conflict(msg string) *Error { return &Error{Status: http.StatusBadRequest, Message: msg} }

func Unauthorized(msg string) *Error { return &Error{Status: http.StatusUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Status: http.StatusForbidden, Message: msg} }

func NotFound(msg string) *Error { return &Error{Status: http.StatusNotFound, Message: msg} }

// WithCode attaches a machine-readable code to the error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Abort writes the uniform error body for err and stops the handler chain.
// Unknown errors degrade to a generic 500 so internals never reach the client.
func Abort(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		body := gin.H{"error": appErr.Message}
		if appErr.Code != "" {
			body["code"] = appErr.Code
		}
		c.AbortWithStatusJSON(appErr.Status, body)
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: fe.Field(), Message: fe.Tag()})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, io.EOF) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	log.Printf("internal error: %v", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// Recovery converts panics into the uniform 500 body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("panic recovered: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
