// Package errors defines the closed set of error kinds the retrieval
// pipeline and sync engine can surface, plus a gin middleware that renders
// them consistently on the admin/debug HTTP surface.
package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind is the closed set of error kinds from the propagation policy.
type Kind string

const (
	KindConfigMissing        Kind = "config_missing"
	KindBackendUnavailable   Kind = "backend_unavailable"
	KindTransientNetwork     Kind = "transient_network"
	KindPayloadInvalid       Kind = "payload_invalid"
	KindProviderIncompatible Kind = "provider_incompatible"
	KindSyncItemFailed       Kind = "sync_item_failed"
	KindChatChanged          Kind = "chat_changed"
	KindActivationMismatch   Kind = "activation_mismatch"
	KindBadRequest           Kind = "bad_request"
	KindNotFound             Kind = "not_found"
	KindInternal             Kind = "internal"
)

// httpStatus maps a Kind to the HTTP status the admin surface renders it as.
var httpStatus = map[Kind]int{
	KindConfigMissing:        http.StatusUnprocessableEntity,
	KindBackendUnavailable:   http.StatusBadGateway,
	KindTransientNetwork:     http.StatusServiceUnavailable,
	KindPayloadInvalid:       http.StatusBadGateway,
	KindProviderIncompatible: http.StatusConflict,
	KindSyncItemFailed:       http.StatusOK, // surfaced in the response body, not aborted
	KindChatChanged:          http.StatusConflict,
	KindActivationMismatch:   http.StatusOK,
	KindBadRequest:           http.StatusBadRequest,
	KindNotFound:             http.StatusNotFound,
	KindInternal:             http.StatusInternalServerError,
}

// AppError is the error type every layer of vecthare returns up to its
// caller. The retrieval pipeline never lets one escape to the host: it is
// always captured, logged, and turned into "no injection this turn."
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Status returns the HTTP status code this error renders as.
func (e *AppError) Status() int {
	if s, ok := httpStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NewBadRequestError(message string) *AppError  { return New(KindBadRequest, message) }
func NewNotFoundError(message string) *AppError     { return New(KindNotFound, message) }
func NewInternalServerError(message string) *AppError { return New(KindInternal, message) }

// IsRetryable reports whether the error kind is eligible for the bounded
// retry policy from spec §5 (transient network, 429, 502/503/504, timeouts).
func IsRetryable(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Kind == KindTransientNetwork
}

// Middleware renders any AppError accumulated on the gin context as a JSON
// body with the matching HTTP status, mirroring the teacher's
// c.Error(errors.NewXError(...)) convention.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr, ok := err.(*AppError)
		if !ok {
			appErr = Wrap(KindInternal, "unexpected error", err)
		}
		c.JSON(appErr.Status(), gin.H{"error": appErr})
	}
}
