package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Backend        string `json:"backend,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondMultiStatus sends a 207 response for an operation that only partly succeeded.
func RespondMultiStatus(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusMultiStatus, APIResponse{Success: false, Message: message, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "ALREADY_EXISTS"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrStorageWrite):
		return http.StatusBadGateway, "STORAGE_WRITE_FAILED"
	case errors.Is(err, domain.ErrDraftCreation):
		return http.StatusBadGateway, "DRAFT_CREATION_FAILED"
	case errors.Is(err, domain.ErrProtocol):
		return http.StatusBadGateway, "UPSTREAM_PROTOCOL_ERROR"
	case errors.Is(err, domain.ErrConversionTimeout):
		return http.StatusGatewayTimeout, "CONVERSION_TIMEOUT"
	case errors.Is(err, domain.ErrConversionFailed):
		return http.StatusBadGateway, "CONVERSION_FAILED"
	case errors.Is(err, domain.ErrPublish):
		return http.StatusBadGateway, "PUBLISH_FAILED"
	case errors.Is(err, domain.ErrRetraction):
		return http.StatusBadGateway, "RETRACTION_FAILED"
	case errors.Is(err, domain.ErrCanceled):
		return http.StatusGatewayTimeout, "CANCELED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	HandleErrorWithData(c, err, nil)
}

// HandleErrorWithData is HandleError that also returns data, used when a saga
// fails after committing side effects the caller must know about.
func HandleErrorWithData(c *gin.Context, err error, data interface{}) {
	status, code := MapDomainError(err)
	apiErr := &APIError{Code: code, Message: "an internal error occurred"}

	var de *domain.Error
	if errors.As(err, &de) {
		apiErr.Message = de.Error()
		apiErr.Backend = string(de.Backend)
		apiErr.UpstreamStatus = de.Status
		apiErr.UpstreamBody = de.Body
	}

	if status >= 500 {
		requestID, _ := c.Get("request_id")
		slog.Error("request failed",
			slog.Any("request_id", requestID),
			slog.String("code", code),
			slog.Any("error", err),
		)
	}
	c.JSON(status, APIResponse{Success: false, Data: data, Error: apiErr})
}
