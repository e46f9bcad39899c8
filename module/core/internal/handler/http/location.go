package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/geo"
)

type locationService interface {
	GetLatest(ctx context.Context, ownerID int64, deviceID string) (*domain.TelemetryFix, error)
	GetHistory(ctx context.Context, ownerID int64, query *domain.HistoryQuery) ([]domain.TelemetryFix, error)
	Overview(ctx context.Context, ownerID int64) ([]domain.AssetStatus, error)
	DeviceConfig(ctx context.Context, deviceID string) (*domain.DeviceConfig, error)
	CheckLocation(ctx context.Context, ownerID int64, p geo.Point) (domain.ContainmentVerdict, error)
}

type LocationHandler struct {
	locationSvc locationService
	log         zerolog.Logger
}

func NewLocationHandler(locationSvc locationService, log zerolog.Logger) *LocationHandler {
	return &LocationHandler{locationSvc: locationSvc, log: log}
}

func (h *LocationHandler) Register(r *gin.RouterGroup) {
	// devices fetch their own config and carry no owner header
	r.GET("/devices/:device_id/config", h.GetDeviceConfig)

	owned := r.Group("", RequireOwner())
	owned.GET("/devices/:device_id/latest", h.GetLatest)
	owned.GET("/devices/:device_id/history", h.GetHistory)
	owned.GET("/status/overview", h.GetOverview)
	owned.POST("/geofences/check-location", h.CheckLocation)
}

func (h *LocationHandler) GetDeviceConfig(c *gin.Context) {
	cfg, err := h.locationSvc.DeviceConfig(c.Request.Context(), c.Param("device_id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *LocationHandler) GetLatest(c *gin.Context) {
	fix, err := h.locationSvc.GetLatest(c.Request.Context(), ownerFrom(c), c.Param("device_id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, fix)
}

func (h *LocationHandler) GetHistory(c *gin.Context) {
	query := &domain.HistoryQuery{DeviceID: c.Param("device_id")}

	var err error
	if query.From, err = parseTimeParam(c, "from"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from parameter"})
		return
	}
	if query.To, err = parseTimeParam(c, "to"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to parameter"})
		return
	}

	fixes, err := h.locationSvc.GetHistory(c.Request.Context(), ownerFrom(c), query)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, fixes)
}

func (h *LocationHandler) GetOverview(c *gin.Context) {
	statuses, err := h.locationSvc.Overview(c.Request.Context(), ownerFrom(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

type checkLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (h *LocationHandler) CheckLocation(c *gin.Context) {
	var req checkLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	verdict, err := h.locationSvc.CheckLocation(c.Request.Context(), ownerFrom(c), geo.Point{Lat: *req.Latitude, Lon: *req.Longitude})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// parseTimeParam reads an optional RFC3339 query parameter.
func parseTimeParam(c *gin.Context, name string) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}
