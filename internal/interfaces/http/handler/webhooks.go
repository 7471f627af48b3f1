package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/propman/backend/internal/application/webhook"
	"github.com/propman/backend/internal/domain/syndication"
	"github.com/propman/backend/internal/interfaces/http/dto"
)

// SignatureHeader carries the platform's payload signature.
const SignatureHeader = "X-Webhook-Signature"

// maxWebhookBody bounds inbound callback payloads
const maxWebhookBody = 1 << 20

// WebhookHandler exposes the inbound callback endpoint and webhook
// administration.
type WebhookHandler struct {
	BaseHandler
	pipeline *webhook.Pipeline
}

// NewWebhookHandler creates the webhook handler
func NewWebhookHandler(pipeline *webhook.Pipeline) *WebhookHandler {
	return &WebhookHandler{pipeline: pipeline}
}

// RegisterRoutes mounts the webhook endpoints
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	webhooks.POST("/:platform", h.Receive)
	webhooks.GET("/events", h.Events)
	webhooks.GET("/leads", h.Leads)
	webhooks.GET("/subscriptions", h.Subscriptions)
	webhooks.PUT("/subscriptions/:platform", h.UpdateSubscription)
}

type webhookAck struct {
	EventID string `json:"event_id"`
}

// Receive accepts one platform callback. The response acknowledges receipt
// only; processing happens on the drain worker.
func (h *WebhookHandler) Receive(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		h.BadRequest(c, "unsupported platform")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.BadRequest(c, "unreadable payload")
		return
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		h.BadRequest(c, "payload is not valid JSON")
		return
	}

	event, err := h.pipeline.HandleWebhook(c.Request.Context(), platform, payload, body, c.GetHeader(SignatureHeader))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Accepted(c, webhookAck{EventID: event.ID.String()})
}

// Events returns the recorded webhook history
func (h *WebhookHandler) Events(c *gin.Context) {
	events, err := h.pipeline.Events(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, events)
}

// Leads returns the leads received via webhooks
func (h *WebhookHandler) Leads(c *gin.Context) {
	leads, err := h.pipeline.Leads(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, leads)
}

// Subscriptions returns the per-platform webhook subscriptions
func (h *WebhookHandler) Subscriptions(c *gin.Context) {
	subs, err := h.pipeline.Subscriptions(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, subs)
}

// UpdateSubscription replaces one platform's subscription
func (h *WebhookHandler) UpdateSubscription(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		h.BadRequest(c, "unsupported platform")
		return
	}
	var req dto.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.pipeline.UpdateSubscription(c.Request.Context(), syndication.WebhookSubscription{
		Platform:   platform,
		EventTypes: req.EventTypes,
		Endpoint:   req.Endpoint,
		Secret:     req.Secret,
		Active:     req.Active,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
