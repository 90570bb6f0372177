package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/BarkinBalci/attribution-service/internal/analytics"
	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/dto"
	"github.com/BarkinBalci/attribution-service/internal/journey"
	"github.com/BarkinBalci/attribution-service/internal/service"
)

// Handler is the HTTP surface over the attribution and analytics services.
type Handler struct {
	attributions service.Attributor
	analytics    analytics.Provider
	router       *gin.Engine
	log          *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(attributions service.Attributor, analyticsProvider analytics.Provider, log *zap.Logger) *Handler {
	h := &Handler{
		attributions: attributions,
		analytics:    analyticsProvider,
		router:       gin.Default(),
		log:          log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.router.POST("/attributions", h.attribute)
	h.router.POST("/attributions/batch", h.runBatch)

	h.router.GET("/analytics/performance", h.getPerformance)
	h.router.GET("/analytics/synergies", h.getSynergies)
	h.router.GET("/analytics/patterns", h.getPatterns)
	h.router.GET("/analytics/roles", h.getRoles)
	h.router.GET("/analytics/recommendations", h.getRecommendations)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// attribute handles POST /attributions
func (h *Handler) attribute(c *gin.Context) {
	var req dto.AttributeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid attribution request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	txn := domain.Transaction{
		ID:        req.TransactionID,
		UserID:    req.UserID,
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Platform:  req.Platform,
		Kind:      req.Kind,
		Timestamp: time.Unix(req.Timestamp, 0).UTC(),
		Metadata:  datatypes.JSONMap(req.Metadata),
	}

	conversion, err := h.attributions.Attribute(c.Request.Context(), req.UserID, txn)
	if err != nil {
		h.log.Error("Failed to attribute transaction",
			zap.Error(err),
			zap.String("transaction_id", req.TransactionID))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.AttributeResponse{Conversion: conversion})
}

// runBatch handles POST /attributions/batch
func (h *Handler) runBatch(c *gin.Context) {
	var req dto.BatchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid batch request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	from := time.Unix(req.From, 0).UTC()
	to := time.Unix(req.To, 0).UTC()
	cfg := attribution.BatchConfig{
		BatchSize:     req.BatchSize,
		MaxConcurrent: req.MaxConcurrent,
		RetryAttempts: req.RetryAttempts,
	}

	if req.Async {
		jobID, err := h.attributions.EnqueueBatch(c.Request.Context(), req.UserID, from, to, cfg)
		if err != nil {
			h.log.Error("Failed to enqueue batch job", zap.Error(err))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "internal_error",
				Message: err.Error(),
			})
			return
		}

		c.JSON(http.StatusAccepted, dto.BatchEnqueuedResponse{
			JobID:  jobID,
			Status: "queued",
		})
		return
	}

	result, err := h.attributions.RunBatch(c.Request.Context(), req.UserID, from, to, cfg)
	if err != nil {
		h.log.Error("Batch attribution failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// analyticsQuery binds the shared user/window parameters.
func (h *Handler) analyticsQuery(c *gin.Context) (*dto.AnalyticsQuery, bool) {
	var query dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.log.Warn("Invalid analytics query", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return nil, false
	}
	return &query, true
}

func (h *Handler) getPerformance(c *gin.Context) {
	query, ok := h.analyticsQuery(c)
	if !ok {
		return
	}

	performance, err := h.analytics.Performance(c.Request.Context(), query.UserID,
		time.Unix(query.From, 0).UTC(), time.Unix(query.To, 0).UTC())
	if err != nil {
		h.respondAnalyticsError(c, "performance", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"performance": performance})
}

func (h *Handler) getSynergies(c *gin.Context) {
	query, ok := h.analyticsQuery(c)
	if !ok {
		return
	}

	synergies, err := h.analytics.Synergies(c.Request.Context(), query.UserID,
		time.Unix(query.From, 0).UTC(), time.Unix(query.To, 0).UTC(), journey.Mode(query.Mode))
	if err != nil {
		h.respondAnalyticsError(c, "synergies", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"synergies": synergies})
}

func (h *Handler) getPatterns(c *gin.Context) {
	query, ok := h.analyticsQuery(c)
	if !ok {
		return
	}

	patterns, err := h.analytics.Patterns(c.Request.Context(), query.UserID,
		time.Unix(query.From, 0).UTC(), time.Unix(query.To, 0).UTC())
	if err != nil {
		h.respondAnalyticsError(c, "patterns", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

func (h *Handler) getRoles(c *gin.Context) {
	query, ok := h.analyticsQuery(c)
	if !ok {
		return
	}

	roles, err := h.analytics.Roles(c.Request.Context(), query.UserID,
		time.Unix(query.From, 0).UTC(), time.Unix(query.To, 0).UTC())
	if err != nil {
		h.respondAnalyticsError(c, "roles", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (h *Handler) getRecommendations(c *gin.Context) {
	query, ok := h.analyticsQuery(c)
	if !ok {
		return
	}

	recommendations, err := h.analytics.Recommendations(c.Request.Context(), query.UserID,
		time.Unix(query.From, 0).UTC(), time.Unix(query.To, 0).UTC())
	if err != nil {
		h.respondAnalyticsError(c, "recommendations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

func (h *Handler) respondAnalyticsError(c *gin.Context, kind string, err error) {
	h.log.Error("Analytics computation failed",
		zap.String("kind", kind),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}
