package handler

import (
	"context"
	"net/http"

	"pulsenet-client/internal/mapview"
	"pulsenet-client/internal/models"
	"pulsenet-client/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// MatchController is the query side of the UI.
type MatchController interface {
	State() service.State
	SubmitQuery(ctx context.Context, form models.MatchForm) service.State
	UseMyLocation(ctx context.Context) service.State
	Subscribe(fn func(service.State)) (cancel func())
}

// RouteMap is the map side of the UI.
type RouteMap interface {
	View() mapview.View
	SelectDonorForRoute(ctx context.Context, candidate models.DonorCandidate) bool
	ClearRoute() mapview.View
	Subscribe(fn func(mapview.View)) (cancel func())
}

// FitSource returns the latest viewport fit, if any.
type FitSource interface {
	Last() *mapview.Fit
}

// Handler serves the donor match UI state and commands over HTTP
type Handler struct {
	controller MatchController
	routes     RouteMap
	fits       FitSource
	logger     zerolog.Logger
}

// NewHandler creates a new handler. fits may be nil.
func NewHandler(controller MatchController, routes RouteMap, fits FitSource, logger zerolog.Logger) *Handler {
	return &Handler{
		controller: controller,
		routes:     routes,
		fits:       fits,
		logger:     logger.With().Str("component", "handler").Logger(),
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/state", h.State)
	r.POST("/match", h.Match)
	r.POST("/location", h.Location)
	r.POST("/route", h.SelectRoute)
	r.DELETE("/route", h.ClearRoute)
	r.GET("/route.geojson", h.RouteGeoJSON)
	r.GET("/events", h.Events)
}

// Health handles GET /health requests
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// State handles GET /state requests
func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.snapshot())
}

// Match handles POST /match requests. Fields absent from the body keep their current form values.
func (h *Handler) Match(c *gin.Context) {
	form := h.controller.State().Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.controller.SubmitQuery(c.Request.Context(), form)
	c.JSON(http.StatusOK, h.snapshot())
}

// Location handles POST /location requests
func (h *Handler) Location(c *gin.Context) {
	h.controller.UseMyLocation(c.Request.Context())
	c.JSON(http.StatusOK, h.snapshot())
}

type routeRequest struct {
	DonorKey string `json:"donor_key" binding:"required"`
}

// SelectRoute handles POST /route requests
func (h *Handler) SelectRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field 'donor_key'"})
		return
	}

	candidate, ok := findCandidate(h.controller.State().Candidates, req.DonorKey)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no candidate with that key"})
		return
	}

	if !h.routes.SelectDonorForRoute(c.Request.Context(), candidate) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "candidate has no coordinates"})
		return
	}

	c.JSON(http.StatusAccepted, h.snapshot())
}

// ClearRoute handles DELETE /route requests
func (h *Handler) ClearRoute(c *gin.Context) {
	h.routes.ClearRoute()
	c.JSON(http.StatusOK, h.snapshot())
}

// RouteGeoJSON handles GET /route.geojson requests
func (h *Handler) RouteGeoJSON(c *gin.Context) {
	route := h.routes.View().Route
	if route == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no route loaded"})
		return
	}

	c.JSON(http.StatusOK, route.GeoJSON())
}

func (h *Handler) snapshot() Snapshot {
	var fit *mapview.Fit
	if h.fits != nil {
		fit = h.fits.Last()
	}
	return newSnapshot(h.controller.State(), h.routes.View(), fit)
}

func findCandidate(candidates []models.DonorCandidate, key string) (models.DonorCandidate, bool) {
	for _, c := range candidates {
		if c.Key() == key {
			return c, true
		}
	}
	return models.DonorCandidate{}, false
}
