// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package httpapi exposes the hybrid router over HTTP, following the
// gin route-group-plus-handlers-struct shape of services/trace/routes.go,
// trimmed to the one operation this module has: resolving an utterance
// against a tool catalog.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/switchchat/toolrouter/internal/calltypes"
	"github.com/switchchat/toolrouter/internal/catalog"
	"github.com/switchchat/toolrouter/internal/resolver"
	"github.com/switchchat/toolrouter/internal/resultcache"
)

// Handlers bundles the dependencies every route needs. Unlike the trace
// service's handlers, there is no persistent graph state here — each
// request is resolved independently against whatever tools it supplies.
type Handlers struct {
	Router *resolver.Router
	Cache  *resultcache.Store // nil disables caching; see resultcache.Store's nil-receiver contract.
}

// NewHandlers wraps a resolver.Router for HTTP use. cache may be nil.
func NewHandlers(router *resolver.Router, cache *resultcache.Store) *Handlers {
	return &Handlers{Router: router, Cache: cache}
}

// RegisterRoutes registers /v1/resolve and /v1/health under rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/resolve", h.HandleResolve)
	rg.GET("/health", h.HandleHealth)
}

// resolveRequest is the wire shape of a resolve call: the conversation
// turns and the caller's own tools. catalog.Merge appends the built-in and
// partner tool sets before the request reaches the router.
type resolveRequest struct {
	Messages []calltypes.Turn `json:"messages" binding:"required"`
	Tools    []calltypes.Tool `json:"tools"`
}

// HandleResolve runs the hybrid router against one request's turns and
// merged tool catalog.
func (h *Handlers) HandleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tools := catalog.Merge(req.Tools)
	userText := calltypes.QueryText(req.Messages)
	corpusHash := resultcache.CorpusHash(tools)

	if cached, hit, err := h.Cache.Get(c.Request.Context(), corpusHash, userText); err == nil && hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	result, err := h.Router.Resolve(c.Request.Context(), req.Messages, tools)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	// Caching the result is an optimization; a storage error here must
	// never fail a request that already resolved successfully.
	_ = h.Cache.Put(c.Request.Context(), corpusHash, userText, result)

	c.JSON(http.StatusOK, result)
}

// HandleHealth is a bare liveness check — there is no lazily-loaded graph
// state here to report on, unlike /v1/trace/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusForError maps a resolver sentinel error to the HTTP status a
// client should treat it as.
func statusForError(err error) int {
	switch {
	case errors.Is(err, resolver.ErrCatalogInconsistent):
		return http.StatusBadRequest
	case errors.Is(err, resolver.ErrCloudUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, resolver.ErrNoValidCalls):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
