// Package router wires handlers onto the versioned API surface.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by every handler that mounts routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under the versioned API prefix.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// Option configures the router.
type Option func(*Router)

// WithAPIVersion overrides the version prefix (default "v1")
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// New creates a router on the given engine
func New(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts every registered handler under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}
