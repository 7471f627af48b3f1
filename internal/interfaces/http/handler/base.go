package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propman/backend/internal/domain/syndication"
	"github.com/propman/backend/internal/interfaces/http/dto"
	"github.com/propman/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common response utilities
type BaseHandler struct{}

// Success sends a 200 envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 envelope for work finishing asynchronously
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends 204
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error envelope with the given status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 error envelope
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 error envelope
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 error envelope
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleDomainError maps domain sentinel errors to HTTP responses
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, syndication.ErrPlatformUnsupported),
		errors.Is(err, syndication.ErrScheduleInPast),
		errors.Is(err, syndication.ErrTemplateNameEmpty),
		errors.Is(err, syndication.ErrListingMissingProperty),
		errors.Is(err, syndication.ErrListingValidationFailed):
		h.BadRequest(c, err.Error())
	case errors.Is(err, syndication.ErrTemplateNotFound),
		errors.Is(err, syndication.ErrListingNotFound):
		h.NotFound(c, err.Error())
	case errors.Is(err, syndication.ErrTemplateSystem):
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, err.Error())
	case errors.Is(err, syndication.ErrWebhookInvalidSignature):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, err.Error())
	case errors.Is(err, syndication.ErrWebhookDuplicateEvent):
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, err.Error())
	case errors.Is(err, syndication.ErrWebhookQueueFull),
		errors.Is(err, syndication.ErrPlatformUnavailable):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, err.Error())
	case errors.Is(err, syndication.ErrPlatformNotConnected):
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, err.Error())
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}

// platformParam parses and validates the :platform path parameter
func platformParam(c *gin.Context) (syndication.Platform, bool) {
	platform := syndication.Platform(c.Param("platform"))
	return platform, platform.IsValid()
}
