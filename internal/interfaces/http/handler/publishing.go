package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propman/backend/internal/application/publishing"
	"github.com/propman/backend/internal/domain/syndication"
	"github.com/propman/backend/internal/interfaces/http/dto"
)

// PublishingHandler exposes publish, batch, template and stats endpoints
type PublishingHandler struct {
	BaseHandler
	service *publishing.Service
	orch    *publishing.Orchestrator
}

// NewPublishingHandler creates the publishing handler
func NewPublishingHandler(service *publishing.Service, orch *publishing.Orchestrator) *PublishingHandler {
	return &PublishingHandler{service: service, orch: orch}
}

// RegisterRoutes mounts the publishing endpoints
func (h *PublishingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pub := rg.Group("/publishing")
	pub.POST("/publish", h.Publish)
	pub.POST("/batch", h.BatchPublish)
	pub.PUT("/listings", h.UpdateListing)
	pub.DELETE("/listings", h.RemoveListing)
	pub.GET("/listings", h.Listings)
	pub.GET("/jobs", h.Jobs)
	pub.GET("/schedules", h.Schedules)
	pub.GET("/stats", h.Stats)
	pub.POST("/analytics", h.Analytics)

	templates := rg.Group("/templates")
	templates.GET("", h.ListTemplates)
	templates.POST("", h.CreateTemplate)
	templates.GET("/:id", h.GetTemplate)
	templates.PUT("/:id", h.UpdateTemplate)
	templates.DELETE("/:id", h.DeleteTemplate)
}

// Publish publishes one property, possibly deferred or validate-only
func (h *PublishingHandler) Publish(c *gin.Context) {
	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	outcome, err := h.service.PublishProperty(c.Request.Context(), req.Property.Property(), req.Platforms, publishing.PublishOptions{
		TemplateID:   req.TemplateID,
		ValidateOnly: req.ValidateOnly,
		ScheduleAt:   req.ScheduleAt,
		Actor:        actorOf(c),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if req.ScheduleAt != nil {
		h.Accepted(c, outcome)
		return
	}
	h.Success(c, outcome)
}

// BatchPublish publishes many properties in one call
func (h *PublishingHandler) BatchPublish(c *gin.Context) {
	var req dto.BatchPublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	properties := make([]*syndication.Property, 0, len(req.Properties))
	for i := range req.Properties {
		properties = append(properties, req.Properties[i].Property())
	}

	outcome, err := h.service.BatchPublish(c.Request.Context(), properties, req.Platforms, publishing.PublishOptions{
		TemplateID: req.TemplateID,
		Actor:      actorOf(c),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, outcome)
}

// UpdateListing pushes current property data to the listed platforms
func (h *PublishingHandler) UpdateListing(c *gin.Context) {
	var req dto.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	outcome, err := h.service.UpdateListing(c.Request.Context(), req.Property.Property(), req.Platforms, actorOf(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, outcome)
}

// RemoveListing takes a property down from platforms
func (h *PublishingHandler) RemoveListing(c *gin.Context) {
	var req dto.RemoveListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	outcome, err := h.service.RemoveListing(c.Request.Context(), req.PropertyID, req.Platforms, actorOf(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, outcome)
}

// Listings returns the live (property, platform) mappings
func (h *PublishingHandler) Listings(c *gin.Context) {
	listings, err := h.orch.ExternalListings(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, listings)
}

// Jobs returns the publishing job history
func (h *PublishingHandler) Jobs(c *gin.Context) {
	jobs, err := h.orch.Jobs(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, jobs)
}

// Schedules returns the pending publish schedules
func (h *PublishingHandler) Schedules(c *gin.Context) {
	schedules, err := h.service.Schedules(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, schedules)
}

// Stats aggregates the job history over a trailing window (default 7 days)
func (h *PublishingHandler) Stats(c *gin.Context) {
	window := 7 * 24 * time.Hour
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "invalid window duration")
			return
		}
		window = parsed
	}

	stats, err := h.service.GetPublishingStats(c.Request.Context(), window)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, stats)
}

// Analytics collects per-platform performance for a time range
func (h *PublishingHandler) Analytics(c *gin.Context) {
	var req dto.AnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	reports := h.orch.GetAnalytics(c.Request.Context(), req.Platforms, syndication.AnalyticsRange{
		From: req.From,
		To:   req.To,
	})
	h.Success(c, reports)
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

// ListTemplates returns every publishing template
func (h *PublishingHandler) ListTemplates(c *gin.Context) {
	templates, err := h.service.GetTemplates(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, templates)
}

// GetTemplate returns one template by id
func (h *PublishingHandler) GetTemplate(c *gin.Context) {
	tmpl, err := h.service.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, tmpl)
}

// CreateTemplate stores a new user template
func (h *PublishingHandler) CreateTemplate(c *gin.Context) {
	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	tmpl, err := h.service.CreateTemplate(c.Request.Context(), req.Template())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, tmpl)
}

// UpdateTemplate replaces a user template
func (h *PublishingHandler) UpdateTemplate(c *gin.Context) {
	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	tmpl, err := h.service.UpdateTemplate(c.Request.Context(), c.Param("id"), req.Template())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, tmpl)
}

// DeleteTemplate removes a user template
func (h *PublishingHandler) DeleteTemplate(c *gin.Context) {
	if err := h.service.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
