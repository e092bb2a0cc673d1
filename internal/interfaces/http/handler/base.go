package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/logger"
	"github.com/orgdir/backend/internal/interfaces/http/dto"
	"github.com/orgdir/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, offset, limit int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, offset, limit))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	h.Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// HandleError converts an error returned by a service into a response.
// Domain errors keep their code and message; anything else is logged and
// reported as INTERNAL_ERROR.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	logger.FromContext(c.Request.Context()).Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.InternalError(c)
}

// bindJSON binds the request body and writes the error response on failure.
func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.handleBindError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters and writes the error response on failure.
func (h *BaseHandler) bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.handleBindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) handleBindError(c *gin.Context, err error) {
	var (
		maxBytesErr *http.MaxBytesError
		syntaxErr   *json.SyntaxError
	)
	switch {
	case errors.As(err, &maxBytesErr):
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBodyTooLarge, "Request body too large")
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
	default:
		middleware.HandleValidationError(c, err)
	}
}

// parseID reads a positive integer path parameter. It writes a 400
// INVALID_ID response and returns false when the value is unusable.
func (h *BaseHandler) parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, dto.ErrCodeInvalidID, "Invalid "+param)
		return 0, false
	}
	return id, true
}
