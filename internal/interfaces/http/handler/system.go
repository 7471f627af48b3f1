package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler exposes health and liveness endpoints
type SystemHandler struct {
	BaseHandler
	startedAt time.Time
	version   string
}

// NewSystemHandler creates the system handler
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{startedAt: time.Now(), version: version}
}

// RegisterRoutes mounts the system endpoints
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

type healthData struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
}

// Health reports process liveness
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, healthData{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
