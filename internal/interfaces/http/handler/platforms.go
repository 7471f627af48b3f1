package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/propman/backend/internal/application/publishing"
	"github.com/propman/backend/internal/domain/syndication"
	"github.com/propman/backend/internal/interfaces/http/dto"
)

// PlatformHandler exposes the connection lifecycle endpoints
type PlatformHandler struct {
	BaseHandler
	orch *publishing.Orchestrator
}

// NewPlatformHandler creates the platform handler
func NewPlatformHandler(orch *publishing.Orchestrator) *PlatformHandler {
	return &PlatformHandler{orch: orch}
}

// RegisterRoutes mounts the platform endpoints
func (h *PlatformHandler) RegisterRoutes(rg *gin.RouterGroup) {
	platforms := rg.Group("/platforms")
	platforms.GET("", h.List)
	platforms.GET("/status", h.Statuses)
	platforms.POST("/:platform/connect", h.Connect)
	platforms.POST("/:platform/authorize", h.Authorize)
	platforms.POST("/:platform/disconnect", h.Disconnect)
	platforms.POST("/:platform/test", h.Test)
}

type platformInfo struct {
	Platform    syndication.Platform   `json:"platform"`
	DisplayName string                 `json:"display_name"`
	AuthFamily  syndication.AuthFamily `json:"auth_family"`
}

// List returns the supported platforms
func (h *PlatformHandler) List(c *gin.Context) {
	platforms := syndication.AllPlatforms()
	out := make([]platformInfo, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, platformInfo{
			Platform:    p,
			DisplayName: p.DisplayName(),
			AuthFamily:  p.AuthFamily(),
		})
	}
	h.Success(c, out)
}

// Statuses returns the connection state of every platform
func (h *PlatformHandler) Statuses(c *gin.Context) {
	h.Success(c, h.orch.AllConnectionStatuses())
}

// Connect initializes a platform connection with the supplied credentials
func (h *PlatformHandler) Connect(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		h.BadRequest(c, "unsupported platform")
		return
	}
	var req dto.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orch.ConnectPlatform(c.Request.Context(), platform, req.AuthConfig(platform), actorOf(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Authorize completes a delegated-authorization connect with the callback code
func (h *PlatformHandler) Authorize(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		h.BadRequest(c, "unsupported platform")
		return
	}
	var req dto.AuthorizeCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orch.CompleteAuthorization(c.Request.Context(), platform, req.Code, actorOf(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Disconnect clears a platform's stored credentials
func (h *PlatformHandler) Disconnect(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		h.BadRequest(c, "unsupported platform")
		return
	}
	if _, err := h.orch.DisconnectPlatform(c.Request.Context(), platform, actorOf(c)); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Test probes a platform connection and returns the refreshed state
func (h *PlatformHandler) Test(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		h.BadRequest(c, "unsupported platform")
		return
	}
	state, err := h.orch.TestPlatformConnection(c.Request.Context(), platform)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, state)
}

// actorOf resolves the acting user recorded in the audit trail
func actorOf(c *gin.Context) string {
	if actor := c.GetHeader("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}
