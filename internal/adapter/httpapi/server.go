// Package httpapi is the public REST surface: report submission, per-location
// verification state, the verified-status map, proximity lookups, and the
// community-events board.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/blueridgecivic/waterwatch-service/internal/consensus"
	"github.com/blueridgecivic/waterwatch-service/internal/domain"
	"github.com/blueridgecivic/waterwatch-service/internal/gateway"
	"github.com/blueridgecivic/waterwatch-service/internal/locations"
	"github.com/blueridgecivic/waterwatch-service/internal/store"
)

const defaultNearbyRadiusMiles = 10

// EventsBoard is the community-events persistence surface. Nil disables the
// events endpoints (503).
type EventsBoard interface {
	AppendEvent(ctx context.Context, e domain.CommunityEvent) error
	ListEvents(ctx context.Context, approvedOnly bool) ([]domain.CommunityEvent, error)
	ApproveEvent(ctx context.Context, id string) error
}

// Server wires the gateway, store, engine, and registry behind a gin router.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine

	gw       *gateway.Gateway
	reports  *store.Store
	cons     *consensus.Engine
	registry *locations.Registry
	events   EventsBoard
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewServer builds the API server and registers all routes.
func NewServer(addr string, gw *gateway.Gateway, reports *store.Store, cons *consensus.Engine, registry *locations.Registry, events EventsBoard, clock clockwork.Clock, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), submitterIdentity())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:   router,
		gw:       gw,
		reports:  reports,
		cons:     cons,
		registry: registry,
		events:   events,
		clock:    clock,
		logger:   logger,
	}

	v1 := router.Group("/api/v1")
	v1.POST("/reports", s.handleSubmitReport)
	v1.GET("/reports/recent", s.handleRecentReports)
	v1.GET("/locations", s.handleLocations)
	v1.GET("/locations/nearby", s.handleNearby)
	v1.GET("/locations/:name/verification", s.handleVerification)
	v1.GET("/statuses", s.handleStatuses)
	v1.GET("/events", s.handleListEvents)
	v1.POST("/events", s.handleCreateEvent)
	v1.POST("/events/:id/approve", s.handleApproveEvent)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("api server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// submitterIdentity lifts the identity headers set by the auth proxy into
// the request context so the gateway can stamp SubmitterID. Requests without
// the header stay anonymous.
func submitterIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-Submitter-Id"); id != "" {
			user := gateway.User{
				ID:        id,
				Anonymous: c.GetHeader("X-Submitter-Anonymous") == "true",
			}
			c.Request = c.Request.WithContext(gateway.WithUser(c.Request.Context(), user))
		}
		c.Next()
	}
}

// handleSubmitReport accepts a raw observation. Responses distinguish the
// three failure classes: malformed body or failed validation (400), archive
// outage (502), accepted (202 with the verification receipt).
func (s *Server) handleSubmitReport(c *gin.Context) {
	var obs domain.RawObservation
	if err := c.ShouldBindJSON(&obs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	receipt, err := s.gw.Submit(c.Request.Context(), obs)
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPersistence):
		c.JSON(http.StatusBadGateway, gin.H{"error": "report storage unavailable, try again later"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "submission failed"})
	default:
		c.JSON(http.StatusAccepted, receipt)
	}
}

func (s *Server) handleRecentReports(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"reports": s.reports.Recent(limit)})
}

// locationView is a registry entry annotated with its live verified status
// and activity guidance.
type locationView struct {
	locations.Waterbody
	CurrentStatus domain.Status      `json:"current_status"`
	Guidance      locations.Guidance `json:"guidance"`
}

func (s *Server) handleLocations(c *gin.Context) {
	bodies := s.registry.All()
	out := make([]locationView, 0, len(bodies))
	for _, wb := range bodies {
		status := wb.DefaultStatus
		if current, ok := s.cons.VerifiedStatus(wb.Name); ok {
			status = current
		}
		out = append(out, locationView{
			Waterbody:     wb,
			CurrentStatus: status,
			Guidance:      locations.GuidanceFor(status),
		})
	}
	c.JSON(http.StatusOK, gin.H{"locations": out})
}

func (s *Server) handleNearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required numbers"})
		return
	}
	radius := float64(defaultNearbyRadiusMiles)
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be a positive number"})
			return
		}
		radius = r
	}
	c.JSON(http.StatusOK, gin.H{"waterbodies": s.registry.Nearby(lat, lng, radius)})
}

func (s *Server) handleVerification(c *gin.Context) {
	location := c.Param("name")
	result := s.cons.Evaluate(location, s.reports.Snapshot(), s.clock.Now().UTC())
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"statuses": s.cons.VerifiedStatuses()})
}

func (s *Server) handleListEvents(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "events board unavailable"})
		return
	}
	approvedOnly := c.Query("include_pending") != "true"
	events, err := s.events.ListEvents(c.Request.Context(), approvedOnly)
	if err != nil {
		s.logger.Error("list events failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "events storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	CreatedBy   string `json:"created_by"`
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "events board unavailable"})
		return
	}
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.Title == "" || req.Location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and location are required"})
		return
	}

	event := domain.CommunityEvent{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.events.AppendEvent(c.Request.Context(), event); err != nil {
		s.logger.Error("create event failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "events storage unavailable"})
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (s *Server) handleApproveEvent(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "events board unavailable"})
		return
	}
	if err := s.events.ApproveEvent(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
